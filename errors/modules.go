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

// Each package that raises internal errors reserves a 100-wide range here,
// the same way the teacher library reserves one MinPkgXxx per package.
const (
	MinPkgBuffer   CodeError = 100
	MinPkgWire     CodeError = 200
	MinPkgToken    CodeError = 300
	MinPkgRequest  CodeError = 400
	MinPkgChunk    CodeError = 500
	MinPkgSecChan  CodeError = 600
	MinPkgListener CodeError = 700
	MinPkgEvent    CodeError = 800
	MinPkgConfig   CodeError = 900
	MinPkgLogger   CodeError = 1000
	MinPkgFacade   CodeError = 1100

	MinAvailable CodeError = 2000
)
