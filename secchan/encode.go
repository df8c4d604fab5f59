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

package secchan

import (
	"time"

	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/statuscode"
	"github.com/nabbar/opcua-core/wire"
)

// scratchBufferSize comfortably fits every body this package encodes: HEL
// URLs, OPN nonces, and ERR reason strings are all short compared to a
// negotiated chunk size.
const scratchBufferSize = 4096

func encodeHello(m wire.HelloMessage) []byte {
	b := buffer.New(scratchBufferSize)
	_ = wire.WriteHello(b, m)
	return b.Bytes()
}

func encodeAck(m wire.AckMessage) []byte {
	b := buffer.New(scratchBufferSize)
	_ = wire.WriteAck(b, m)
	return b.Bytes()
}

func encodeOpenRequest(mode chunk.SecurityMode, lifetime time.Duration, clientNonce []byte) []byte {
	b := buffer.New(scratchBufferSize)
	_ = wire.WriteOpenSecureChannelRequest(b, wire.OpenSecureChannelRequest{
		ClientProtocolVersion: 0,
		RequestType:           wire.RequestTypeIssue,
		SecurityMode:          uint32(mode),
		ClientNonce:           clientNonce,
		RequestedLifetimeMS:   uint32(lifetime / time.Millisecond),
	})
	return b.Bytes()
}

func encodeOpenResponse(channelId, tokenId uint32, lifetime time.Duration, serverNonce []byte) []byte {
	b := buffer.New(scratchBufferSize)
	_ = wire.WriteOpenSecureChannelResponse(b, wire.OpenSecureChannelResponse{
		ServerProtocolVersion: 0,
		SecureChannelId:       channelId,
		TokenId:               tokenId,
		RevisedLifetimeMS:     uint32(lifetime / time.Millisecond),
		ServerNonce:           serverNonce,
	})
	return b.Bytes()
}

func encodeErrorMessage(code statuscode.Code, reason string) []byte {
	b := buffer.New(scratchBufferSize)
	_ = wire.WriteErrorMessage(b, wire.ErrorMessage{Error: code.Uint32(), Reason: reason})
	return b.Bytes()
}
