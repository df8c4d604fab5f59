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

package buffer_test

import (
	"testing"

	"github.com/nabbar/opcua-core/buffer"
)

func TestWriteAdvancesPositionAndLength(t *testing.T) {
	b := buffer.New(16)
	n, err := b.Write([]byte{1, 2, 3, 4}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 || b.Position() != 4 || b.Length() != 4 {
		t.Fatalf("expected pos=len=4, got n=%d pos=%d len=%d", n, b.Position(), b.Length())
	}
}

func TestWriteExactlyFillingCapacityIsLegal(t *testing.T) {
	b := buffer.New(4)
	if _, err := b.Write([]byte{1, 2, 3, 4}, 4); err != nil {
		t.Fatalf("filling buffer exactly should succeed: %v", err)
	}
}

func TestWriteBeyondCapacityFails(t *testing.T) {
	b := buffer.New(4)
	if _, err := b.Write([]byte{1, 2, 3, 4, 5}, 5); err == nil {
		t.Fatal("expected an error writing past maxSize")
	}
}

func TestReadBeyondLengthFails(t *testing.T) {
	b := buffer.New(4)
	_, _ = b.Write([]byte{1, 2}, 2)
	_ = b.SetPosition(0)
	dst := make([]byte, 4)
	if _, err := b.Read(dst, 4); err == nil {
		t.Fatal("expected an error reading past length")
	}
}

func TestResetAfterPositionZeroesTailAndTruncates(t *testing.T) {
	b := buffer.New(8)
	_, _ = b.Write([]byte{1, 2, 3, 4, 5, 6}, 6)
	if err := b.ResetAfterPosition(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Length() != 3 || b.Position() != 3 {
		t.Fatalf("expected length=position=3, got length=%d position=%d", b.Length(), b.Position())
	}
	// Bytes() is sliced to length, so grow the valid region back over the
	// old tail to inspect it.
	if err := b.SetDataLength(6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range b.Bytes()[3:] {
		if v != 0 {
			t.Fatalf("expected byte %d to be zeroed, got %d", 3+i, v)
		}
	}
}

func TestResetThenOperationsRequiringLengthFail(t *testing.T) {
	b := buffer.New(8)
	_, _ = b.Write([]byte{1, 2, 3}, 3)
	b.Reset()
	if b.Length() != 0 || b.Position() != 0 {
		t.Fatalf("reset should zero length and position")
	}
	dst := make([]byte, 1)
	if _, err := b.Read(dst, 1); err == nil {
		t.Fatal("reading from an empty buffer should fail")
	}
}

func TestCopyPreservesBytesAndSourcePosition(t *testing.T) {
	src := buffer.New(8)
	_, _ = src.Write([]byte{1, 2, 3, 4}, 4)
	_ = src.SetPosition(2)

	dst := buffer.New(8)
	if err := buffer.Copy(dst, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Position() != 2 {
		t.Fatalf("expected copy to preserve source position 2, got %d", dst.Position())
	}
	want := []byte{1, 2, 3, 4}
	got := dst.Bytes()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte mismatch at %d: want %d got %d", i, want[i], got[i])
		}
	}
}

func TestReadFromDrainsShortRead(t *testing.T) {
	src := buffer.New(8)
	_, _ = src.Write([]byte{9, 8, 7}, 3)
	_ = src.SetPosition(0)

	dst := buffer.New(8)
	n, err := buffer.ReadFrom(dst, src, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected short read of 3 bytes, got %d", n)
	}
	if src.Remaining() != 0 {
		t.Fatalf("expected source fully drained, remaining=%d", src.Remaining())
	}
}

func TestBoundsInvariantHolds(t *testing.T) {
	b := buffer.New(10)
	_, _ = b.Write([]byte{1, 2, 3}, 3)
	_ = b.SetPosition(1)
	if !(b.Position() <= b.Length() && b.Length() <= b.MaxSize()) {
		t.Fatal("position <= length <= maxSize invariant violated")
	}
}
