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

package errors

import "strconv"

// CodeError is a small numeric classification for internal errors, scoped
// per-package through the MinPkgXxx ranges declared in modules.go.
type CodeError uint32

const UnknownError CodeError = 0

var registry = make(map[CodeError]func(CodeError) string)

// RegisterMessages lets a package install its own code-to-text function,
// looked up lazily the first time one of its errors is rendered.
func RegisterMessages(low, high CodeError, fct func(CodeError) string) {
	for c := low; c < high; c++ {
		registry[c] = fct
	}
}

func (c CodeError) Uint32() uint32 {
	return uint32(c)
}

func (c CodeError) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

func (c CodeError) Message() string {
	if c == UnknownError {
		return "unknown error"
	}
	if fct, ok := registry[c]; ok {
		if m := fct(c); m != "" {
			return m
		}
	}
	return "unknown error"
}

// Error builds a new Error carrying this code, this code's registered
// message, and the given parents.
func (c CodeError) Error(parent ...error) Error {
	return New(c, c.Message(), parent...)
}
