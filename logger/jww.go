/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package logger

import (
	"fmt"

	jww "github.com/spf13/jwalterweatherman"
)

// BridgeNotepad mirrors every entry logged through l to n as well,
// notepad-style - for the cmd/uacore-harness wiring example, which wants
// plain stdout/stderr banner output alongside structured logging.
func BridgeNotepad(l Logger, n *jww.Notepad) Logger {
	if n == nil {
		return l
	}
	return &notepadBridge{inner: l, notepad: n}
}

type notepadBridge struct {
	inner   Logger
	notepad *jww.Notepad
}

func (b *notepadBridge) Debug(message string, kv ...interface{}) {
	b.notepad.DEBUG.Println(formatLine(message, kv))
	b.inner.Debug(message, kv...)
}

func (b *notepadBridge) Info(message string, kv ...interface{}) {
	b.notepad.INFO.Println(formatLine(message, kv))
	b.inner.Info(message, kv...)
}

func (b *notepadBridge) Warning(message string, kv ...interface{}) {
	b.notepad.WARN.Println(formatLine(message, kv))
	b.inner.Warning(message, kv...)
}

func (b *notepadBridge) Error(message string, kv ...interface{}) {
	b.notepad.ERROR.Println(formatLine(message, kv))
	b.inner.Error(message, kv...)
}

func (b *notepadBridge) With(kv ...interface{}) Logger {
	return &notepadBridge{inner: b.inner.With(kv...), notepad: b.notepad}
}

func formatLine(message string, kv []interface{}) string {
	line := message
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return line
}
