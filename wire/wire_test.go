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

package wire_test

import (
	"testing"

	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/wire"
)

func TestScalarRoundTrip(t *testing.T) {
	b := buffer.New(32)
	if err := wire.WriteUint8(b, 0xAB); err != nil {
		t.Fatal(err)
	}
	if err := wire.WriteUint16(b, 0x1234); err != nil {
		t.Fatal(err)
	}
	if err := wire.WriteUint32(b, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := wire.WriteUint64(b, 0x0102030405060708); err != nil {
		t.Fatal(err)
	}
	wrote := b.Position()

	_ = b.SetPosition(0)
	u8, err := wire.ReadUint8(b)
	if err != nil || u8 != 0xAB {
		t.Fatalf("u8 round trip failed: %v %x", err, u8)
	}
	u16, err := wire.ReadUint16(b)
	if err != nil || u16 != 0x1234 {
		t.Fatalf("u16 round trip failed: %v %x", err, u16)
	}
	u32, err := wire.ReadUint32(b)
	if err != nil || u32 != 0xDEADBEEF {
		t.Fatalf("u32 round trip failed: %v %x", err, u32)
	}
	u64, err := wire.ReadUint64(b)
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("u64 round trip failed: %v %x", err, u64)
	}
	if b.Position() != wrote {
		t.Fatalf("read did not consume exactly what was written: wrote %d, read to %d", wrote, b.Position())
	}
}

func TestReadUint32ShortBufferFails(t *testing.T) {
	b := buffer.New(2)
	_, _ = b.Write([]byte{1, 2}, 2)
	_ = b.SetPosition(0)
	if _, err := wire.ReadUint32(b); err == nil {
		t.Fatal("expected short-buffer error reading u32 from a 2-byte buffer")
	}
}

func TestByteStringRoundTrip(t *testing.T) {
	b := buffer.New(64)
	payload := []byte{1, 2, 3, 4, 5}
	if err := wire.WriteByteString(b, payload); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadByteString(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(payload) {
		t.Fatalf("length mismatch: want %d got %d", len(payload), len(got))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte mismatch at %d", i)
		}
	}
}

func TestByteStringAbsentRoundTrip(t *testing.T) {
	b := buffer.New(16)
	if err := wire.WriteByteString(b, nil); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadByteString(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent byte string, got %v", got)
	}
}

func TestByteStringZeroLengthDecodesAsAbsent(t *testing.T) {
	b := buffer.New(16)
	if err := wire.WriteUint32(b, 0); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadByteString(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected 0-length to decode as absent, got %v", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	b := buffer.New(64)
	if err := wire.WriteString(b, "opc.tcp://localhost:4840"); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadString(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != "opc.tcp://localhost:4840" {
		t.Fatalf("string round trip mismatch: got %q", got)
	}
}

func TestNodeIdRoundTripAllVariants(t *testing.T) {
	cases := []wire.NodeId{
		{Namespace: 0, Numeric: 42},
		{Namespace: 12, Numeric: 5000},
		{Namespace: 3, Numeric: 0x11223344},
		{Namespace: 7, String: "MyObject", IsString: true},
	}
	for _, n := range cases {
		b := buffer.New(64)
		if err := wire.WriteNodeId(b, n); err != nil {
			t.Fatal(err)
		}
		_ = b.SetPosition(0)
		got, err := wire.ReadNodeId(b)
		if err != nil {
			t.Fatal(err)
		}
		if got != n {
			t.Fatalf("node id round trip mismatch: want %+v got %+v", n, got)
		}
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	b := buffer.New(16)
	h := wire.Header{Type: wire.MessageTypeSecure, Chunk: wire.ChunkFinal, MessageSize: 128}
	if err := wire.WriteHeader(b, h); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("header round trip mismatch: want %+v got %+v", h, got)
	}
}

func TestHelloRoundTrip(t *testing.T) {
	b := buffer.New(128)
	m := wire.HelloMessage{
		ProtocolVersion:   0,
		ReceiveBufferSize: 8192,
		SendBufferSize:    8192,
		MaxMessageSize:    1 << 20,
		MaxChunkCount:     128,
		EndpointURL:       "opc.tcp://127.0.0.1:4840/server",
	}
	if err := wire.WriteHello(b, m); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadHello(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Fatalf("hello round trip mismatch: want %+v got %+v", m, got)
	}
}

func TestSequenceHeaderRoundTrip(t *testing.T) {
	b := buffer.New(16)
	h := wire.SequenceHeader{SequenceNumber: 1, RequestId: 99}
	if err := wire.WriteSequenceHeader(b, h); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadSequenceHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("sequence header round trip mismatch: want %+v got %+v", h, got)
	}
}

func TestAsymmetricSecurityHeaderRoundTrip(t *testing.T) {
	b := buffer.New(256)
	h := wire.AsymmetricSecurityHeader{
		SecurityPolicyURI:             "http://opcfoundation.org/UA/SecurityPolicy#None",
		SenderCertificate:             nil,
		ReceiverCertificateThumbprint: nil,
	}
	if err := wire.WriteAsymmetricSecurityHeader(b, h); err != nil {
		t.Fatal(err)
	}
	_ = b.SetPosition(0)
	got, err := wire.ReadAsymmetricSecurityHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.SecurityPolicyURI != h.SecurityPolicyURI || got.SenderCertificate != nil || got.ReceiverCertificateThumbprint != nil {
		t.Fatalf("asymmetric security header round trip mismatch: got %+v", got)
	}
}

func TestUnknownNodeIdTypeFails(t *testing.T) {
	b := buffer.New(8)
	_ = wire.WriteUint8(b, 0x09)
	_ = b.SetPosition(0)
	if _, err := wire.ReadNodeId(b); err == nil {
		t.Fatal("expected an error decoding an unrecognized NodeId type byte")
	}
}
