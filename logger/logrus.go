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
	"github.com/sirupsen/logrus"
)

// logrusLogger is the default Logger backend.
type logrusLogger struct {
	entry *logrus.Entry
}

// New returns a Logger backed by a fresh logrus.Logger at lvl.
func New(lvl logrus.Level) Logger {
	l := logrus.New()
	l.SetLevel(lvl)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// NewFromLogrus wraps an existing *logrus.Logger - used by harnesses that
// already configure logrus output/formatting themselves.
func NewFromLogrus(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func (l *logrusLogger) Debug(message string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Debug(message)
}

func (l *logrusLogger) Info(message string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Info(message)
}

func (l *logrusLogger) Warning(message string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Warn(message)
}

func (l *logrusLogger) Error(message string, kv ...interface{}) {
	l.entry.WithFields(fields(kv)).Error(message)
}

func (l *logrusLogger) With(kv ...interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(fields(kv))}
}
