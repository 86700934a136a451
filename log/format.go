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
	"bytes"
	"fmt"
	"reflect"
	"strconv"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
)

const timeFormat = "2006-01-02T15:04:05-0700"
const errorKey = "LOG15_ERROR"

// Format turns a Record into a byte slice ready to be written to a stream.
type Format interface {
	Format(r *Record) []byte
}

// FormatFunc turns a function into a Format.
type FormatFunc func(r *Record) []byte

func (f FormatFunc) Format(r *Record) []byte { return f(r) }

var levelColor = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta, color.Bold),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgWhite),
}

// TerminalFormat renders a Record as a single aligned line, colorized when
// useColor is set (the teacher only enables this when stderr is a tty).
func TerminalFormat(useColor bool) Format {
	return FormatFunc(func(r *Record) []byte {
		var b bytes.Buffer

		lvl := r.Lvl.AlignedString()
		if useColor {
			if c, ok := levelColor[r.Lvl]; ok {
				lvl = c.Sprint(lvl)
			}
		}
		fmt.Fprintf(&b, "%s[%s] %s", lvl, r.Time.Format(timeFormat), r.Msg)

		for i := 0; i < len(r.Ctx); i += 2 {
			k := formatValue(r.Ctx[i])
			v := formatValue(r.Ctx[i+1])
			fmt.Fprintf(&b, " %s=%s", k, v)
		}
		b.WriteByte('\n')
		return b.Bytes()
	})
}

// LogfmtFormat renders a Record in logfmt (key=value) form with no color,
// the format used when logs are shipped to a file or collector.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		var b bytes.Buffer
		fmt.Fprintf(&b, "t=%s lvl=%s msg=%s", r.Time.Format(timeFormat), r.Lvl.AlignedString(), formatValue(r.Msg))
		for i := 0; i < len(r.Ctx); i += 2 {
			fmt.Fprintf(&b, " %s=%s", formatValue(r.Ctx[i]), formatValue(r.Ctx[i+1]))
		}
		b.WriteByte('\n')
		return b.Bytes()
	})
}

func formatValue(v interface{}) string {
	if v == nil {
		return "nil"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case error:
		return strconv.Quote(x.Error())
	case fmt.Stringer:
		return strconv.Quote(x.String())
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%+v", v)
}

// callerStack captures the current call stack below the frame skip levels
// up, with runtime frames trimmed. Nothing in this package calls it.
func callerStack(skip int) stack.CallStack {
	return stack.Trace().TrimBelow(stack.Caller(skip)).TrimRuntime()
}
