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

package chunk

import "testing"

func TestComputeMaxBodyNoneMode(t *testing.T) {
	got := computeMaxBody(8192, 16, SecurityModeNone, 0, 0, 0)
	want := uint32(8192 - 16 - 8)
	if got != want {
		t.Fatalf("computeMaxBody(None) = %d, want %d", got, want)
	}
}

func TestComputeMaxBodySignAndEncrypt(t *testing.T) {
	got := computeMaxBody(8192, 16, SecurityModeSignAndEncrypt, 16, 16, 20)
	if got == 0 || got >= 8192 {
		t.Fatalf("computeMaxBody(SignAndEncrypt) = %d, out of plausible range", got)
	}
}

func TestPaddingAlignsToBlockSize(t *testing.T) {
	padLen, total := padding(100, 16, false)
	if (100+1+uint32(padLen))%16 != 0 {
		t.Fatalf("padding(100,16) = %d, total %d does not align to block size", padLen, total)
	}
}

func TestPaddingExtraByteWhenBlockLarge(t *testing.T) {
	_, total := padding(100, 300, true)
	if total < 2 {
		t.Fatalf("padding with extra byte should reserve at least 2 size bytes, got total %d", total)
	}
}
