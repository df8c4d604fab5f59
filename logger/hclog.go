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
	"io"
	"log"

	hclog "github.com/hashicorp/go-hclog"
)

// AsHCLog adapts a Logger to hclog.Logger, for collaborators (a future
// gRPC transport, a raft-backed config store) that expect one. Level
// queries and the Named/With variants are satisfied by re-wrapping the
// same underlying Logger; IsTrace/IsDebug/... report conservatively since
// the underlying Logger does not expose its own threshold.
func AsHCLog(l Logger) hclog.Logger {
	return &hclogAdapter{l: l}
}

type hclogAdapter struct {
	l    Logger
	name string
}

func (h *hclogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.l.Debug(msg, args...)
	case hclog.Info:
		h.l.Info(msg, args...)
	case hclog.Warn:
		h.l.Warning(msg, args...)
	default:
		h.l.Error(msg, args...)
	}
}

func (h *hclogAdapter) Trace(msg string, args ...interface{}) { h.l.Debug(msg, args...) }
func (h *hclogAdapter) Debug(msg string, args ...interface{}) { h.l.Debug(msg, args...) }
func (h *hclogAdapter) Info(msg string, args ...interface{})  { h.l.Info(msg, args...) }
func (h *hclogAdapter) Warn(msg string, args ...interface{})  { h.l.Warning(msg, args...) }
func (h *hclogAdapter) Error(msg string, args ...interface{}) { h.l.Error(msg, args...) }

func (h *hclogAdapter) IsTrace() bool { return true }
func (h *hclogAdapter) IsDebug() bool { return true }
func (h *hclogAdapter) IsInfo() bool  { return true }
func (h *hclogAdapter) IsWarn() bool  { return true }
func (h *hclogAdapter) IsError() bool { return true }

func (h *hclogAdapter) ImpliedArgs() []interface{} { return nil }

func (h *hclogAdapter) With(args ...interface{}) hclog.Logger {
	return &hclogAdapter{l: h.l.With(args...), name: h.name}
}

func (h *hclogAdapter) Name() string { return h.name }

func (h *hclogAdapter) Named(name string) hclog.Logger {
	return &hclogAdapter{l: h.l, name: name}
}

func (h *hclogAdapter) ResetNamed(name string) hclog.Logger {
	return h.Named(name)
}

func (h *hclogAdapter) SetLevel(hclog.Level) {}

func (h *hclogAdapter) GetLevel() hclog.Level { return hclog.Debug }

func (h *hclogAdapter) StandardLogger(*hclog.StandardLoggerOptions) *log.Logger {
	return log.New(io.Discard, "", 0)
}

func (h *hclogAdapter) StandardWriter(*hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}
