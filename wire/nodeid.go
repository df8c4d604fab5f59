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

// NodeId encoding byte values (OPC UA Part 6, §5.2.2.9). Only the numeric
// encodings and the string encoding are needed by the core - NodeId never
// appears inside UACP/security framing itself, but request/response bodies
// the facade layer hands us opaquely may still need it decoded for logging
// and diagnostics.
const (
	nodeIDTypeTwoByte  uint8 = 0x00
	nodeIDTypeFourByte uint8 = 0x01
	nodeIDTypeNumeric  uint8 = 0x02
	nodeIDTypeString   uint8 = 0x03
)

// NodeId is the subset of OPC UA's NodeId variants this core round-trips.
// Guid and Opaque identifier kinds are out of scope (spec Non-goals: no
// general service-body encoding) and are rejected on decode.
type NodeId struct {
	Namespace uint16
	Numeric   uint32
	String    string
	IsString  bool
}

// WriteNodeId picks the most compact legal encoding for n, mirroring the
// encoder in sopc_builtintypes.c's NodeId_Write.
func WriteNodeId(b buffer.Buffer, n NodeId) errors.Error {
	if n.IsString {
		if err := WriteUint8(b, nodeIDTypeString); err != nil {
			return err
		}
		if err := WriteUint16(b, n.Namespace); err != nil {
			return err
		}
		return WriteString(b, n.String)
	}
	switch {
	case n.Namespace == 0 && n.Numeric <= 0xFF:
		if err := WriteUint8(b, nodeIDTypeTwoByte); err != nil {
			return err
		}
		return WriteUint8(b, uint8(n.Numeric))
	case n.Namespace <= 0xFF && n.Numeric <= 0xFFFF:
		if err := WriteUint8(b, nodeIDTypeFourByte); err != nil {
			return err
		}
		if err := WriteUint8(b, uint8(n.Namespace)); err != nil {
			return err
		}
		return WriteUint16(b, uint16(n.Numeric))
	default:
		if err := WriteUint8(b, nodeIDTypeNumeric); err != nil {
			return err
		}
		if err := WriteUint16(b, n.Namespace); err != nil {
			return err
		}
		return WriteUint32(b, n.Numeric)
	}
}

// ReadNodeId decodes a two-byte, four-byte, numeric or string NodeId.
func ReadNodeId(b buffer.Buffer) (NodeId, errors.Error) {
	kind, err := ReadUint8(b)
	if err != nil {
		return NodeId{}, err
	}
	switch kind {
	case nodeIDTypeTwoByte:
		v, err := ReadUint8(b)
		if err != nil {
			return NodeId{}, err
		}
		return NodeId{Numeric: uint32(v)}, nil
	case nodeIDTypeFourByte:
		ns, err := ReadUint8(b)
		if err != nil {
			return NodeId{}, err
		}
		v, err := ReadUint16(b)
		if err != nil {
			return NodeId{}, err
		}
		return NodeId{Namespace: uint16(ns), Numeric: uint32(v)}, nil
	case nodeIDTypeNumeric:
		ns, err := ReadUint16(b)
		if err != nil {
			return NodeId{}, err
		}
		v, err := ReadUint32(b)
		if err != nil {
			return NodeId{}, err
		}
		return NodeId{Namespace: ns, Numeric: v}, nil
	case nodeIDTypeString:
		ns, err := ReadUint16(b)
		if err != nil {
			return NodeId{}, err
		}
		s, err := ReadString(b)
		if err != nil {
			return NodeId{}, err
		}
		return NodeId{Namespace: ns, String: s, IsString: true}, nil
	default:
		return NodeId{}, ErrUnknownNodeIdType.Error()
	}
}
