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

package wire

import (
	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/errors"
)

// absentLength is the wire representation of an absent string/byte-string
// (OPC UA encodes this as a signed -1 length). A decoder accepts 0 as an
// alias for absent too - some peers encode empty and absent identically -
// but an encoder always emits absentLength for an absent value (spec §9,
// Open Question 1).
const absentLength uint32 = 0xFFFFFFFF

// MaxByteStringLength bounds every length-prefixed value this package will
// decode. HELLO/ACK bodies and certificate/thumbprint byte-strings never
// legitimately approach it; a larger prefix is treated as corruption rather
// than trusted and allocated.
const MaxByteStringLength uint32 = 16 * 1024 * 1024

// WriteByteString encodes v as a length-prefixed byte-string. A nil v is
// encoded as absent.
func WriteByteString(b buffer.Buffer, v []byte) errors.Error {
	if v == nil {
		return WriteUint32(b, absentLength)
	}
	if uint32(len(v)) > MaxByteStringLength {
		return ErrStringTooLarge.Error()
	}
	if err := WriteUint32(b, uint32(len(v))); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	_, err := b.Write(v, uint32(len(v)))
	return err
}

// ReadByteString decodes a length-prefixed byte-string. Both an absent
// (-1) and a zero length decode to nil; a non-empty value decodes to a
// slice of its bytes.
func ReadByteString(b buffer.Buffer) ([]byte, errors.Error) {
	length, err := ReadUint32(b)
	if err != nil {
		return nil, err
	}
	if length == absentLength || length == 0 {
		return nil, nil
	}
	if length > MaxByteStringLength {
		return nil, ErrStringTooLarge.Error()
	}
	out := make([]byte, length)
	if _, err = b.Read(out, length); err != nil {
		return nil, ErrShortBuffer.Error(err)
	}
	return out, nil
}

// WriteString encodes v as a length-prefixed UTF-8 string. An empty string
// is encoded present-and-empty, matching the teacher's ByteString codec;
// callers that need to distinguish absent from empty should track that
// separately and call WriteByteString(b, nil) for absent.
func WriteString(b buffer.Buffer, v string) errors.Error {
	return WriteByteString(b, []byte(v))
}

// ReadString decodes a length-prefixed UTF-8 string. Absent decodes to "".
func ReadString(b buffer.Buffer) (string, errors.Error) {
	raw, err := ReadByteString(b)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
