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
	"encoding/binary"

	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/errors"
)

// All scalar values on the wire are little-endian (spec §6).

func WriteUint8(b buffer.Buffer, v uint8) errors.Error {
	_, err := b.Write([]byte{v}, 1)
	return err
}

func ReadUint8(b buffer.Buffer) (uint8, errors.Error) {
	var tmp [1]byte
	if _, err := b.Read(tmp[:], 1); err != nil {
		return 0, ErrShortBuffer.Error(err)
	}
	return tmp[0], nil
}

func WriteUint16(b buffer.Buffer, v uint16) errors.Error {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	_, err := b.Write(tmp[:], 2)
	return err
}

func ReadUint16(b buffer.Buffer) (uint16, errors.Error) {
	var tmp [2]byte
	if _, err := b.Read(tmp[:], 2); err != nil {
		return 0, ErrShortBuffer.Error(err)
	}
	return binary.LittleEndian.Uint16(tmp[:]), nil
}

func WriteUint32(b buffer.Buffer, v uint32) errors.Error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	_, err := b.Write(tmp[:], 4)
	return err
}

func ReadUint32(b buffer.Buffer) (uint32, errors.Error) {
	var tmp [4]byte
	if _, err := b.Read(tmp[:], 4); err != nil {
		return 0, ErrShortBuffer.Error(err)
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func WriteUint64(b buffer.Buffer, v uint64) errors.Error {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	_, err := b.Write(tmp[:], 8)
	return err
}

func ReadUint64(b buffer.Buffer) (uint64, errors.Error) {
	var tmp [8]byte
	if _, err := b.Read(tmp[:], 8); err != nil {
		return 0, ErrShortBuffer.Error(err)
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func WriteInt16(b buffer.Buffer, v int16) errors.Error { return WriteUint16(b, uint16(v)) }
func ReadInt16(b buffer.Buffer) (int16, errors.Error) {
	v, err := ReadUint16(b)
	return int16(v), err
}

func WriteInt32(b buffer.Buffer, v int32) errors.Error { return WriteUint32(b, uint32(v)) }
func ReadInt32(b buffer.Buffer) (int32, errors.Error) {
	v, err := ReadUint32(b)
	return int32(v), err
}

func WriteInt64(b buffer.Buffer, v int64) errors.Error { return WriteUint64(b, uint64(v)) }
func ReadInt64(b buffer.Buffer) (int64, errors.Error) {
	v, err := ReadUint64(b)
	return int64(v), err
}
