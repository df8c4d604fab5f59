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

package buffer

import "github.com/nabbar/opcua-core/errors"

// buf is the sole implementation of Buffer.
type buf struct {
	data     []byte
	maxSize  uint32
	length   uint32
	position uint32
}

func (b *buf) MaxSize() uint32  { return b.maxSize }
func (b *buf) Length() uint32   { return b.length }
func (b *buf) Position() uint32 { return b.position }
func (b *buf) Remaining() uint32 {
	return b.length - b.position
}

func (b *buf) Bytes() []byte {
	return b.data[:b.length]
}

func (b *buf) SetPosition(p uint32) errors.Error {
	if p > b.length {
		return ErrInvalidParams.Error()
	}
	b.position = p
	return nil
}

func (b *buf) SetDataLength(l uint32) errors.Error {
	if l < b.position || l > b.maxSize {
		return ErrInvalidParams.Error()
	}
	if l < b.length {
		for i := l; i < b.length; i++ {
			b.data[i] = 0
		}
	}
	b.length = l
	return nil
}

func (b *buf) Write(src []byte, n uint32) (uint32, errors.Error) {
	if n > uint32(len(src)) {
		return 0, ErrInvalidParams.Error()
	}
	if b.position+n > b.maxSize {
		return 0, ErrInvalidParams.Error()
	}
	copy(b.data[b.position:b.position+n], src[:n])
	b.position += n
	if b.position > b.length {
		b.length = b.position
	}
	return n, nil
}

func (b *buf) Read(dst []byte, n uint32) (uint32, errors.Error) {
	if n > uint32(len(dst)) {
		return 0, ErrInvalidParams.Error()
	}
	if b.position+n > b.length {
		return 0, ErrInvalidParams.Error()
	}
	copy(dst[:n], b.data[b.position:b.position+n])
	b.position += n
	return n, nil
}

func (b *buf) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.length = 0
	b.position = 0
}

func (b *buf) ResetAfterPosition(p uint32) errors.Error {
	if p > b.length {
		return ErrInvalidParams.Error()
	}
	for i := p; i < b.maxSize; i++ {
		b.data[i] = 0
	}
	b.length = p
	b.position = p
	return nil
}

func (b *buf) Clear() {
	b.data = nil
	b.length = 0
	b.position = 0
	b.maxSize = 0
}
