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

// MessageType is the 3-byte ASCII tag opening every UACP frame.
type MessageType [3]byte

var (
	MessageTypeHello  = MessageType{'H', 'E', 'L'}
	MessageTypeAck    = MessageType{'A', 'C', 'K'}
	MessageTypeError  = MessageType{'E', 'R', 'R'}
	MessageTypeOpen   = MessageType{'O', 'P', 'N'}
	MessageTypeClose  = MessageType{'C', 'L', 'O'}
	MessageTypeSecure = MessageType{'M', 'S', 'G'}
)

// ChunkType is the 1-byte chunk indicator following the message type.
type ChunkType uint8

const (
	ChunkFinal        ChunkType = 'F'
	ChunkIntermediate ChunkType = 'C'
	ChunkAbort        ChunkType = 'A'
)

// HeaderSize is the fixed length of the UACP message header (spec §4.1,
// §6): 3-byte type + 1-byte chunk indicator + 4-byte little-endian size.
const HeaderSize uint32 = 8

// Header is the common UACP message header shared by every message kind
// (HEL/ACK/ERR/OPN/CLO/MSG).
type Header struct {
	Type        MessageType
	Chunk       ChunkType
	MessageSize uint32
}

func WriteHeader(b buffer.Buffer, h Header) errors.Error {
	if _, err := b.Write(h.Type[:], 3); err != nil {
		return err
	}
	if err := WriteUint8(b, uint8(h.Chunk)); err != nil {
		return err
	}
	return WriteUint32(b, h.MessageSize)
}

func ReadHeader(b buffer.Buffer) (Header, errors.Error) {
	var h Header
	if _, err := b.Read(h.Type[:], 3); err != nil {
		return Header{}, ErrShortBuffer.Error(err)
	}
	chunk, err := ReadUint8(b)
	if err != nil {
		return Header{}, err
	}
	h.Chunk = ChunkType(chunk)
	size, err := ReadUint32(b)
	if err != nil {
		return Header{}, err
	}
	h.MessageSize = size
	return h, nil
}

// HelloMessage is the HEL message body (spec §4.1, §6).
type HelloMessage struct {
	ProtocolVersion   uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
	EndpointURL       string
}

func WriteHello(b buffer.Buffer, m HelloMessage) errors.Error {
	for _, v := range []uint32{m.ProtocolVersion, m.ReceiveBufferSize, m.SendBufferSize, m.MaxMessageSize, m.MaxChunkCount} {
		if err := WriteUint32(b, v); err != nil {
			return err
		}
	}
	return WriteString(b, m.EndpointURL)
}

func ReadHello(b buffer.Buffer) (HelloMessage, errors.Error) {
	var m HelloMessage
	fields := []*uint32{&m.ProtocolVersion, &m.ReceiveBufferSize, &m.SendBufferSize, &m.MaxMessageSize, &m.MaxChunkCount}
	for _, f := range fields {
		v, err := ReadUint32(b)
		if err != nil {
			return HelloMessage{}, err
		}
		*f = v
	}
	url, err := ReadString(b)
	if err != nil {
		return HelloMessage{}, err
	}
	m.EndpointURL = url
	return m, nil
}

// AckMessage is the ACK message body.
type AckMessage struct {
	ProtocolVersion   uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
}

func WriteAck(b buffer.Buffer, m AckMessage) errors.Error {
	for _, v := range []uint32{m.ProtocolVersion, m.ReceiveBufferSize, m.SendBufferSize, m.MaxMessageSize, m.MaxChunkCount} {
		if err := WriteUint32(b, v); err != nil {
			return err
		}
	}
	return nil
}

func ReadAck(b buffer.Buffer) (AckMessage, errors.Error) {
	var m AckMessage
	fields := []*uint32{&m.ProtocolVersion, &m.ReceiveBufferSize, &m.SendBufferSize, &m.MaxMessageSize, &m.MaxChunkCount}
	for _, f := range fields {
		v, err := ReadUint32(b)
		if err != nil {
			return AckMessage{}, err
		}
		*f = v
	}
	return m, nil
}

// ErrorMessage is the ERR message body, also reused verbatim as the body
// of an abort chunk (spec §4.4, chunk abort path).
type ErrorMessage struct {
	Error  uint32
	Reason string
}

func WriteErrorMessage(b buffer.Buffer, m ErrorMessage) errors.Error {
	if err := WriteUint32(b, m.Error); err != nil {
		return err
	}
	return WriteString(b, m.Reason)
}

func ReadErrorMessage(b buffer.Buffer) (ErrorMessage, errors.Error) {
	var m ErrorMessage
	v, err := ReadUint32(b)
	if err != nil {
		return ErrorMessage{}, err
	}
	m.Error = v
	reason, err := ReadString(b)
	if err != nil {
		return ErrorMessage{}, err
	}
	m.Reason = reason
	return m, nil
}

// AsymmetricSecurityHeader carries the sender's security policy and
// certificate material on OPN chunks (spec §4.2, §4.4).
type AsymmetricSecurityHeader struct {
	SecurityPolicyURI             string
	SenderCertificate             []byte
	ReceiverCertificateThumbprint []byte
}

func WriteAsymmetricSecurityHeader(b buffer.Buffer, h AsymmetricSecurityHeader) errors.Error {
	if err := WriteString(b, h.SecurityPolicyURI); err != nil {
		return err
	}
	if err := WriteByteString(b, h.SenderCertificate); err != nil {
		return err
	}
	return WriteByteString(b, h.ReceiverCertificateThumbprint)
}

func ReadAsymmetricSecurityHeader(b buffer.Buffer) (AsymmetricSecurityHeader, errors.Error) {
	var h AsymmetricSecurityHeader
	uri, err := ReadString(b)
	if err != nil {
		return AsymmetricSecurityHeader{}, err
	}
	h.SecurityPolicyURI = uri
	cert, err := ReadByteString(b)
	if err != nil {
		return AsymmetricSecurityHeader{}, err
	}
	h.SenderCertificate = cert
	thumb, err := ReadByteString(b)
	if err != nil {
		return AsymmetricSecurityHeader{}, err
	}
	h.ReceiverCertificateThumbprint = thumb
	return h, nil
}

// SymmetricSecurityHeader names the token securing an MSG/CLO chunk (spec
// §4.3, §5).
type SymmetricSecurityHeader struct {
	TokenId uint32
}

func WriteSymmetricSecurityHeader(b buffer.Buffer, h SymmetricSecurityHeader) errors.Error {
	return WriteUint32(b, h.TokenId)
}

func ReadSymmetricSecurityHeader(b buffer.Buffer) (SymmetricSecurityHeader, errors.Error) {
	v, err := ReadUint32(b)
	if err != nil {
		return SymmetricSecurityHeader{}, err
	}
	return SymmetricSecurityHeader{TokenId: v}, nil
}

// SequenceHeader carries the per-chunk sequence number and the request id
// it answers or issues (spec §4.5).
type SequenceHeader struct {
	SequenceNumber uint32
	RequestId      uint32
}

func WriteSequenceHeader(b buffer.Buffer, h SequenceHeader) errors.Error {
	if err := WriteUint32(b, h.SequenceNumber); err != nil {
		return err
	}
	return WriteUint32(b, h.RequestId)
}

func ReadSequenceHeader(b buffer.Buffer) (SequenceHeader, errors.Error) {
	seq, err := ReadUint32(b)
	if err != nil {
		return SequenceHeader{}, err
	}
	req, err := ReadUint32(b)
	if err != nil {
		return SequenceHeader{}, err
	}
	return SequenceHeader{SequenceNumber: seq, RequestId: req}, nil
}
