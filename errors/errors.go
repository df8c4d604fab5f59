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

import (
	"errors"
	"fmt"
	"runtime"
)

// Error extends the standard error with a numeric code and a parent chain,
// so that a handler several layers up can ask "was this a resource error"
// without string-matching a message.
type Error interface {
	error

	Code() CodeError
	IsCode(code CodeError) bool
	HasCode(code CodeError) bool

	Add(parent ...error)
	Parents() []error

	Unwrap() []error
}

type ers struct {
	code    CodeError
	message string
	parent  []error
	frame   runtime.Frame
}

func (e *ers) Error() string {
	if e.message == "" {
		return e.code.String()
	}
	return fmt.Sprintf("[%s] %s", e.code.String(), e.message)
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.code == code {
		return true
	}
	for _, p := range e.parent {
		if Has(p, code) {
			return true
		}
	}
	return false
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.parent = append(e.parent, p)
		}
	}
}

func (e *ers) Parents() []error {
	return e.parent
}

func (e *ers) Unwrap() []error {
	return e.parent
}

func callSite() runtime.Frame {
	var pc [1]uintptr
	// skip New/Newf and this function itself
	n := runtime.Callers(4, pc[:])
	if n == 0 {
		return runtime.Frame{}
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return frame
}

// New creates an Error with the given code, message and parents.
func New(code CodeError, message string, parent ...error) Error {
	return &ers{
		code:    code,
		message: message,
		parent:  parent,
		frame:   callSite(),
	}
}

// Newf is New with fmt.Sprintf-style message formatting.
func Newf(code CodeError, pattern string, args ...interface{}) Error {
	return &ers{
		code:    code,
		message: fmt.Sprintf(pattern, args...),
		frame:   callSite(),
	}
}

// Is reports whether e is (or wraps) an Error.
func Is(e error) bool {
	var err Error
	return errors.As(e, &err)
}

// Get returns e as an Error, or nil if it is not one.
func Get(e error) Error {
	var err Error
	if errors.As(e, &err) {
		return err
	}
	return nil
}

// Has reports whether e, or any of its parents, carries the given code.
func Has(e error, code CodeError) bool {
	err := Get(e)
	if err == nil {
		return false
	}
	return err.HasCode(code)
}
