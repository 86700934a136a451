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

package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-colorable"
)

// Handler consumes a Record. Everything that touches output funnels through
// one of these, so tests can swap in a memory-backed handler.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler turns a function into a Handler.
type FuncHandler func(r *Record) error

func (h FuncHandler) Log(r *Record) error { return h(r) }

// swapHandler wraps a Handler behind a mutex so SetHandler can replace it
// while other goroutines are mid-log, the same trick the teacher's own log
// package uses to let a running node redirect logs without races.
type swapHandler struct {
	mu sync.Mutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.Lock()
	h := s.h
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Log(r)
}

func (s *swapHandler) Swap(h Handler) {
	s.mu.Lock()
	s.h = h
	s.mu.Unlock()
}

func (s *swapHandler) Get() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h
}

// StreamHandler writes log records to wr, one line per record, as formatted
// by fmtr.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	h := FuncHandler(func(r *Record) error {
		_, err := wr.Write(fmtr.Format(r))
		return err
	})
	return LazyHandler(SyncHandler(h))
}

// SyncHandler synchronizes concurrent writes to a non-thread-safe Handler,
// e.g. one writing directly to a *os.File.
func SyncHandler(h Handler) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		return h.Log(r)
	})
}

// LazyHandler recovers from a panicking Handler so a single bad log call
// (e.g. a Stringer that panics) can't take the process down.
func LazyHandler(h Handler) Handler {
	return FuncHandler(func(r *Record) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				_, _ = fmt.Fprintf(os.Stderr, "log: panic while logging: %v\n", rec)
				err = nil
			}
		}()
		return h.Log(r)
	})
}

// MultiHandler dispatches a record to every handler in hs.
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		for _, h := range hs {
			_ = h.Log(r)
		}
		return nil
	})
}

// DiscardHandler drops every record; used by tests that only want to assert
// on side effects, not log output.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error { return nil })
}

// termIsTTY reports whether w is attached to a terminal, the same check the
// teacher performs before deciding whether to colorize output.
func termIsTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// colorableWriter wraps w with mattn/go-colorable so ANSI color codes render
// correctly on Windows consoles as well as real ttys.
func colorableWriter(f *os.File) io.Writer {
	return colorable.NewColorable(f)
}
