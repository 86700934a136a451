// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides structured, leveled logging in the idiom used
// throughout the node: a small set of levels, key/value context pairs,
// and a handler chain that can be swapped for tests or for a colorized
// terminal.
package log

import (
	"os"
	"time"
)

// Lvl is a log level.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

// AlignedString returns a 5-character string fit for aligned terminal output.
func (l Lvl) AlignedString() string {
	switch l {
	case LvlTrace:
		return "TRACE"
	case LvlDebug:
		return "DEBUG"
	case LvlInfo:
		return "INFO "
	case LvlWarn:
		return "WARN "
	case LvlError:
		return "ERROR"
	case LvlCrit:
		return "CRIT "
	default:
		panic("bad level")
	}
}

// Module identifies a subsystem for NewModuleLogger, mirroring the teacher's
// per-subsystem logger registry (log.ChainDataFetcher, log.StorageDatabase, ...).
type Module int

const (
	Common Module = iota
	StorageDatabase
	StateSynchronizer
	Snapshot
)

var moduleNames = map[Module]string{
	Common:            "COMMON",
	StorageDatabase:   "STORAGE",
	StateSynchronizer: "STATESYNC",
	Snapshot:          "SNAPSHOT",
}

// Record is a single logging event.
type Record struct {
	Time time.Time
	Lvl  Lvl
	Msg  string
	Ctx  []interface{}
}

// Logger writes structured, leveled log records.
type Logger interface {
	New(ctx ...interface{}) Logger

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	GetHandler() Handler
	SetHandler(h Handler)
}

type logger struct {
	ctx []interface{}
	h   *swapHandler
}

// Root returns the root logger. All module and named loggers derive from it.
func Root() Logger {
	return root
}

var root = &logger{h: new(swapHandler)}

func init() {
	root.SetHandler(StreamHandler(os.Stderr, TerminalFormat(termIsTTY(os.Stderr))))
}

// New returns a new Logger with ctx appended to the root context.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// NewModuleLogger returns a named child logger for a subsystem, the same
// convention the teacher's own log package follows for its services.
func NewModuleLogger(m Module) Logger {
	name, ok := moduleNames[m]
	if !ok {
		name = "UNKNOWN"
	}
	return root.New("module", name)
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{h: l.h, ctx: normalize(append(append([]interface{}{}, l.ctx...), ctx...))}
	return child
}

func (l *logger) write(msg string, lvl Lvl, ctx []interface{}) {
	l.h.Log(&Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  normalize(append(append([]interface{}{}, l.ctx...), ctx...)),
	})
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(msg, LvlTrace, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(msg, LvlDebug, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(msg, LvlInfo, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(msg, LvlWarn, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(msg, LvlError, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(msg, LvlCrit, ctx)
	os.Exit(1)
}

func (l *logger) GetHandler() Handler { return l.h.Get() }
func (l *logger) SetHandler(h Handler) { l.h.Swap(h) }

// normalize ensures ctx has an even number of elements, padding with a
// sentinel the way the go-ethereum-derived handler chain does.
func normalize(ctx []interface{}) []interface{} {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, "LOG_ERRCTX_MISSING_VALUE")
	}
	return ctx
}
