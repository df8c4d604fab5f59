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

// RequestType distinguishes an OpenSecureChannelRequest that establishes a
// brand-new channel from one that renews an existing one (spec §4.2
// "OPN-Issue" / "OPN-Renew").
type RequestType uint32

const (
	RequestTypeIssue RequestType = 0
	RequestTypeRenew RequestType = 1
)

// OpenSecureChannelRequest carries only the fields the Secure Connection
// State Machine inspects (spec §6 "the core does not decode them beyond
// the few fields it needs").
type OpenSecureChannelRequest struct {
	ClientProtocolVersion uint32
	RequestType           RequestType
	SecurityMode          uint32
	ClientNonce           []byte
	RequestedLifetimeMS   uint32
}

func WriteOpenSecureChannelRequest(b buffer.Buffer, r OpenSecureChannelRequest) errors.Error {
	if err := WriteUint32(b, r.ClientProtocolVersion); err != nil {
		return err
	}
	if err := WriteUint32(b, uint32(r.RequestType)); err != nil {
		return err
	}
	if err := WriteUint32(b, r.SecurityMode); err != nil {
		return err
	}
	if err := WriteByteString(b, r.ClientNonce); err != nil {
		return err
	}
	return WriteUint32(b, r.RequestedLifetimeMS)
}

func ReadOpenSecureChannelRequest(b buffer.Buffer) (OpenSecureChannelRequest, errors.Error) {
	var r OpenSecureChannelRequest
	v, err := ReadUint32(b)
	if err != nil {
		return OpenSecureChannelRequest{}, err
	}
	r.ClientProtocolVersion = v
	v, err = ReadUint32(b)
	if err != nil {
		return OpenSecureChannelRequest{}, err
	}
	r.RequestType = RequestType(v)
	v, err = ReadUint32(b)
	if err != nil {
		return OpenSecureChannelRequest{}, err
	}
	r.SecurityMode = v
	nonce, err := ReadByteString(b)
	if err != nil {
		return OpenSecureChannelRequest{}, err
	}
	r.ClientNonce = nonce
	v, err = ReadUint32(b)
	if err != nil {
		return OpenSecureChannelRequest{}, err
	}
	r.RequestedLifetimeMS = v
	return r, nil
}

// OpenSecureChannelResponse carries the negotiated token plus the server
// nonce (spec §3 "Security tokens").
type OpenSecureChannelResponse struct {
	ServerProtocolVersion uint32
	SecureChannelId       uint32
	TokenId               uint32
	RevisedLifetimeMS     uint32
	ServerNonce           []byte
}

func WriteOpenSecureChannelResponse(b buffer.Buffer, r OpenSecureChannelResponse) errors.Error {
	if err := WriteUint32(b, r.ServerProtocolVersion); err != nil {
		return err
	}
	if err := WriteUint32(b, r.SecureChannelId); err != nil {
		return err
	}
	if err := WriteUint32(b, r.TokenId); err != nil {
		return err
	}
	if err := WriteUint32(b, r.RevisedLifetimeMS); err != nil {
		return err
	}
	return WriteByteString(b, r.ServerNonce)
}

func ReadOpenSecureChannelResponse(b buffer.Buffer) (OpenSecureChannelResponse, errors.Error) {
	var r OpenSecureChannelResponse
	v, err := ReadUint32(b)
	if err != nil {
		return OpenSecureChannelResponse{}, err
	}
	r.ServerProtocolVersion = v
	v, err = ReadUint32(b)
	if err != nil {
		return OpenSecureChannelResponse{}, err
	}
	r.SecureChannelId = v
	v, err = ReadUint32(b)
	if err != nil {
		return OpenSecureChannelResponse{}, err
	}
	r.TokenId = v
	v, err = ReadUint32(b)
	if err != nil {
		return OpenSecureChannelResponse{}, err
	}
	r.RevisedLifetimeMS = v
	nonce, err := ReadByteString(b)
	if err != nil {
		return OpenSecureChannelResponse{}, err
	}
	r.ServerNonce = nonce
	return r, nil
}

// CloseSecureChannelRequest is always empty (spec §6).
type CloseSecureChannelRequest struct{}

func WriteCloseSecureChannelRequest(buffer.Buffer, CloseSecureChannelRequest) errors.Error {
	return nil
}

func ReadCloseSecureChannelRequest(buffer.Buffer) (CloseSecureChannelRequest, errors.Error) {
	return CloseSecureChannelRequest{}, nil
}
