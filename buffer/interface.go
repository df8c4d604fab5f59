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

// Buffer is a bounded byte container with a read/write cursor.
//
// Invariant: 0 <= Position() <= Length() <= MaxSize() at all times. All
// methods are intended to be called from a single goroutine; callers that
// need shared access must synchronize externally (see spec §5, no locks
// around per-connection state since everything runs on the event loop).
type Buffer interface {
	// MaxSize returns the fixed capacity chosen at creation.
	MaxSize() uint32
	// Length returns the number of valid bytes currently held.
	Length() uint32
	// Position returns the current cursor offset.
	Position() uint32
	// Remaining returns Length()-Position().
	Remaining() uint32

	// Bytes exposes the full valid region [0:Length()). Callers must not
	// retain the slice past the buffer's next mutating call.
	Bytes() []byte

	// SetPosition moves the cursor. p must be <= Length().
	SetPosition(p uint32) errors.Error
	// SetDataLength grows or shrinks the valid region. l must be within
	// [Position(), MaxSize()]; bytes beyond l are zeroed when shrinking.
	SetDataLength(l uint32) errors.Error

	// Write copies n bytes from src at the cursor, advancing it and
	// raising Length() if the cursor moves past it.
	Write(src []byte, n uint32) (uint32, errors.Error)
	// Read copies n bytes into dst from the cursor, advancing it. Fails
	// if n would read past Length().
	Read(dst []byte, n uint32) (uint32, errors.Error)

	// Reset zeroes the backing storage and sets Position() and Length() to 0.
	Reset()
	// ResetAfterPosition zeroes bytes at and after p and sets both
	// Position() and Length() to p. Requires p <= Length().
	ResetAfterPosition(p uint32) errors.Error

	// Clear releases the backing storage; the Buffer must not be reused
	// afterward.
	Clear()
}

// New allocates a Buffer with its own backing array of the given capacity.
func New(size uint32) Buffer {
	return &buf{data: make([]byte, size), maxSize: size}
}

// Attach wraps existing bytes as a Buffer without copying them; the Buffer
// takes ownership of releasing the slice on Clear but not of any other
// reference the caller may still hold.
func Attach(existing []byte) Buffer {
	return &buf{data: existing, maxSize: uint32(len(existing)), length: uint32(len(existing))}
}

// Copy copies the full valid region of src into dest, preserving dest's
// own maxSize (dest must be large enough).
func Copy(dest, src Buffer) errors.Error {
	return CopyWithLength(dest, src, src.Length())
}

// CopyWithLength copies up to n bytes from src's backing storage (from
// offset 0, not from src's cursor) into dest, and preserves src's Position
// if it is <= n.
func CopyWithLength(dest, src Buffer, n uint32) errors.Error {
	if n > src.Length() || n > dest.MaxSize() {
		return ErrInvalidParams.Error()
	}
	b := src.Bytes()
	dest.Reset()
	if _, err := dest.Write(b[:n], n); err != nil {
		return err
	}
	if src.Position() <= n {
		_ = dest.SetPosition(src.Position())
	}
	return nil
}

// ReadFrom drains up to n bytes from src's remaining (unread) region into
// dest's tail, appending rather than overwriting. A short read - src had
// fewer than n bytes remaining - is not an error; the bytes actually moved
// are returned.
func ReadFrom(dest, src Buffer, n uint32) (uint32, errors.Error) {
	avail := src.Remaining()
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0, nil
	}
	tmp := make([]byte, n)
	if _, err := src.Read(tmp, n); err != nil {
		return 0, err
	}
	if _, err := dest.Write(tmp, n); err != nil {
		return 0, err
	}
	return n, nil
}
