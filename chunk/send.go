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

import (
	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/request"
	"github.com/nabbar/opcua-core/wire"
)

// SendRequest is what a caller hands Manager.SendSecure for one outbound UACP
// message (spec §4.4). Body must already be wire-encoded UA payload
// bytes; SendSecure prepends every header this layer owns and appends
// padding/signature as the security mode requires.
type SendRequest struct {
	Type      wire.MessageType
	RequestId uint32 // ignored for HEL/ACK/ERR

	// Open-only fields (Type == wire.MessageTypeOpen).
	PolicyURI          string
	SenderCertificate   []byte // this side's own cert, or nil for a "None" OPN
	ReceiverThumbprint  []byte
}

// SendBareTCP frames and writes a HEL, ACK or ERR message: no
// secureChannelId, no security header, no sequence header (spec §4.1).
func (m *Manager) SendBareTCP(socket facade.Socket, socketIdx uint32, msgType wire.MessageType, body []byte) errors.Error {
	out := buffer.New(wire.HeaderSize + uint32(len(body)))
	if err := wire.WriteHeader(out, wire.Header{Type: msgType, Chunk: wire.ChunkFinal, MessageSize: wire.HeaderSize + uint32(len(body))}); err != nil {
		return err
	}
	if _, err := out.Write(body, uint32(len(body))); err != nil {
		return err
	}
	return socket.Write(socketIdx, out.Bytes())
}

// computeMaxBody implements spec §4.4 step 4's formula:
//
//	maxBody = plainBlockSize * floor((chunkSize - nonEncryptedHeaders - signatureSize - paddingSizeFields) / cipherBlockSize) - 8
//
// with paddingSizeFields = 1 when encryption is off, else 1 plus 1 extra
// byte when plainBlockSize > 256; None mode collapses every crypto term
// to the degenerate case of no signature and no padding at all, per the
// spec's closing sentence on that paragraph.
func computeMaxBody(chunkSize, nonEncryptedHeaders uint32, mode SecurityMode, plainBlockSize, cipherBlockSize, signatureSize uint32) uint32 {
	if !mode.Signed() && !mode.Encrypted() {
		if chunkSize < nonEncryptedHeaders+8 {
			return 0
		}
		return chunkSize - nonEncryptedHeaders - 8
	}
	if plainBlockSize == 0 {
		plainBlockSize = 1
	}
	if cipherBlockSize == 0 {
		cipherBlockSize = 1
	}
	paddingSizeFields := uint32(1)
	if plainBlockSize > 256 {
		paddingSizeFields = 2
	}
	numerator := chunkSize - nonEncryptedHeaders - signatureSize - paddingSizeFields
	if chunkSize < nonEncryptedHeaders+signatureSize+paddingSizeFields {
		return 0
	}
	body := plainBlockSize*(numerator/cipherBlockSize) - 8
	return body
}

// padding computes, for an encrypted message, the padding-length byte
// value and total padding byte count (length byte(s) plus repeated pad
// bytes) spec §4.4 step 6 needs to pad bytesToEncrypt up to a multiple of
// plainBlockSize.
func padding(bytesToEncrypt, plainBlockSize uint32, extra bool) (padLen uint32, totalPadBytes uint32) {
	if plainBlockSize <= 1 {
		return 0, boolToU32(extra) + 1
	}
	paddingSizeFields := uint32(1)
	if extra {
		paddingSizeFields = 2
	}
	rem := (bytesToEncrypt + paddingSizeFields) % plainBlockSize
	if rem == 0 {
		padLen = 0
	} else {
		padLen = plainBlockSize - rem
	}
	return padLen, paddingSizeFields + padLen
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// SendSecure frames, sequences, signs and encrypts one OPN/MSG/CLO chunk
// and writes it to socket (spec §4.4 steps 1-11). serverSide selects
// which of Tokens' current/previous pair stamps the message when a renew
// overlap is in progress (step 3).
func (m *Manager) SendSecure(socket facade.Socket, socketIdx uint32, ctx *Context, req SendRequest, body []byte) errors.Error {
	serverSide := ctx.Role == RoleServer

	switch req.Type {
	case wire.MessageTypeOpen:
		return m.sendOpen(socket, socketIdx, ctx, req, body)
	case wire.MessageTypeSecure, wire.MessageTypeClose:
		return m.sendSymmetric(socket, socketIdx, ctx, req, body, serverSide)
	default:
		return ErrMessageTypeInvalid.Error()
	}
}

func (m *Manager) sendOpen(socket facade.Socket, socketIdx uint32, ctx *Context, req SendRequest, body []byte) errors.Error {
	secure := len(req.SenderCertificate) > 0

	provider, perr := m.crypto(req.PolicyURI)
	if secure && perr != nil {
		return ErrSecurityPolicyRejected.Error(perr)
	}

	var sigLen, cipherBlock, plainBlock uint32
	if secure {
		sigLen, _ = provider.AsymmetricSignatureLength(ctx.OPN.PeerCertificate)
		plainBlock, _ = provider.AsymmetricPlainBlockSize(ctx.OPN.PeerCertificate)
		cipherBlock, _ = provider.AsymmetricCipherBlockSize(ctx.OPN.PeerCertificate)
	}

	nonEncHeaders := wire.HeaderSize + 4 /*secureChannelId*/ +
		uint32(4+len(req.PolicyURI)) +
		uint32(4+len(req.SenderCertificate)) +
		uint32(4+len(req.ReceiverThumbprint))

	maxBody := computeMaxBody(ctx.SendBufferSize, nonEncHeaders, securityModeForOpen(secure), plainBlock, cipherBlock, sigLen)
	if uint32(len(body)) > maxBody {
		if ctx.Role == RoleServer {
			return ErrResponseTooLarge.Error()
		}
		return ErrRequestTooLarge.Error()
	}

	requestID := req.RequestId
	if ctx.Role == RoleClient {
		if requestID == 0 {
			requestID = ctx.Pending.NextRequestId()
		}
		if err := ctx.Pending.Register(requestID, request.KindOpen); err != nil {
			return err
		}
	}
	seqNum := ctx.Sequence.NextSend()

	out := buffer.New(ctx.SendBufferSize)
	if err := wire.WriteHeader(out, wire.Header{Type: wire.MessageTypeOpen, Chunk: wire.ChunkFinal, MessageSize: 0}); err != nil {
		return err
	}
	channelId := ctx.SecureChannelId
	if channelId == 0 {
		channelId = ctx.ChannelIdToConfirm
	}
	if err := wire.WriteUint32(out, channelId); err != nil {
		return err
	}
	if err := wire.WriteAsymmetricSecurityHeader(out, wire.AsymmetricSecurityHeader{
		SecurityPolicyURI:             req.PolicyURI,
		SenderCertificate:             req.SenderCertificate,
		ReceiverCertificateThumbprint: req.ReceiverThumbprint,
	}); err != nil {
		return err
	}

	seqPos := out.Position()
	if err := wire.WriteSequenceHeader(out, wire.SequenceHeader{SequenceNumber: seqNum, RequestId: requestID}); err != nil {
		return err
	}
	if _, err := out.Write(body, uint32(len(body))); err != nil {
		return err
	}

	if secure {
		extra := plainBlock > 256
		bytesToEncrypt := out.Length() - seqPos + sigLen
		padLen, _ := padding(bytesToEncrypt, plainBlock, extra)
		if err := writePadding(out, padLen, extra); err != nil {
			return err
		}
	}

	if err := fixupSize(out); err != nil {
		return err
	}

	if secure {
		keys := AsymmetricKeys{PKI: ctx.OPN.PKI, LocalPrivateKey: ctx.OPN.LocalPrivateKey, PeerCertificate: ctx.OPN.PeerCertificate}
		sig, serr := provider.Sign(keys, out.Bytes())
		if serr != nil {
			return ErrCertificateInvalid.Error(serr)
		}
		if _, err := out.Write(sig, uint32(len(sig))); err != nil {
			return err
		}
		if err := fixupSize(out); err != nil {
			return err
		}
		if err := encryptTail(out, seqPos, keys, provider.Encrypt); err != nil {
			return err
		}
		if err := fixupSize(out); err != nil {
			return err
		}
	}

	return socket.Write(socketIdx, out.Bytes())
}

func (m *Manager) sendSymmetric(socket facade.Socket, socketIdx uint32, ctx *Context, req SendRequest, body []byte, serverSide bool) errors.Error {
	tok, keys := ctx.Tokens.SendingToken(serverSide)

	signed := len(keys.SigningKey) > 0
	encrypted := len(keys.EncryptingKey) > 0

	provider, perr := m.crypto(ctx.OPN.PolicyURI)
	if (signed || encrypted) && perr != nil {
		return ErrSecurityPolicyRejected.Error(perr)
	}

	var sigLen, plainBlock, cipherBlock uint32
	if signed {
		sigLen, _ = provider.SymmetricSignatureLength(keys)
	}
	if encrypted {
		plainBlock, _ = provider.SymmetricPlainBlockSize(keys)
		cipherBlock, _ = provider.SymmetricCipherBlockSize(keys)
	}

	nonEncHeaders := wire.HeaderSize + 4 /*secureChannelId*/ + 4 /*tokenId*/
	mode := SecurityModeNone
	if signed && encrypted {
		mode = SecurityModeSignAndEncrypt
	} else if signed {
		mode = SecurityModeSign
	}
	asym, sym, ok := ctx.MaxBodyCached()
	_ = asym
	if !ok || mode != SecurityModeNone {
		sym = computeMaxBody(ctx.SendBufferSize, nonEncHeaders, mode, plainBlock, cipherBlock, sigLen)
	}
	if uint32(len(body)) > sym {
		if serverSide {
			return ErrResponseTooLarge.Error()
		}
		return ErrRequestTooLarge.Error()
	}

	requestID := req.RequestId
	if ctx.Role == RoleClient {
		if requestID == 0 {
			requestID = ctx.Pending.NextRequestId()
		}
		kind := request.KindService
		if req.Type == wire.MessageTypeClose {
			kind = request.KindClose
		}
		if err := ctx.Pending.Register(requestID, kind); err != nil {
			return err
		}
	}
	seqNum := ctx.Sequence.NextSend()

	out := buffer.New(ctx.SendBufferSize)
	if err := wire.WriteHeader(out, wire.Header{Type: req.Type, Chunk: wire.ChunkFinal, MessageSize: 0}); err != nil {
		return err
	}
	if err := wire.WriteUint32(out, ctx.SecureChannelId); err != nil {
		return err
	}
	if err := wire.WriteSymmetricSecurityHeader(out, wire.SymmetricSecurityHeader{TokenId: tok.TokenId}); err != nil {
		return err
	}

	seqPos := out.Position()
	if err := wire.WriteSequenceHeader(out, wire.SequenceHeader{SequenceNumber: seqNum, RequestId: requestID}); err != nil {
		return err
	}
	if _, err := out.Write(body, uint32(len(body))); err != nil {
		return err
	}

	if encrypted {
		extra := plainBlock > 256
		bytesToEncrypt := out.Length() - seqPos + sigLen
		padLen, _ := padding(bytesToEncrypt, plainBlock, extra)
		if err := writePadding(out, padLen, extra); err != nil {
			return err
		}
	}

	if err := fixupSize(out); err != nil {
		return err
	}

	if signed {
		sig, serr := provider.Sign(keys, out.Bytes())
		if serr != nil {
			return ErrCertificateInvalid.Error(serr)
		}
		if _, err := out.Write(sig, uint32(len(sig))); err != nil {
			return err
		}
		if err := fixupSize(out); err != nil {
			return err
		}
	}

	if encrypted {
		if err := encryptTail(out, seqPos, keys, provider.Encrypt); err != nil {
			return err
		}
		if err := fixupSize(out); err != nil {
			return err
		}
	}

	return socket.Write(socketIdx, out.Bytes())
}

// writePadding writes the low padding-length byte, padLen copies of it,
// and (when extra) the high byte (spec §4.4 step 6).
func writePadding(b buffer.Buffer, padLen uint32, extra bool) errors.Error {
	low := uint8(padLen & 0xFF)
	if err := wire.WriteUint8(b, low); err != nil {
		return err
	}
	for i := uint32(0); i < padLen; i++ {
		if err := wire.WriteUint8(b, low); err != nil {
			return err
		}
	}
	if extra {
		high := uint8((padLen >> 8) & 0xFF)
		if err := wire.WriteUint8(b, high); err != nil {
			return err
		}
	}
	return nil
}

// fixupSize rewrites the UACP header's messageSize field to the buffer's
// current length (spec §4.4 step 7, re-run after every later step that
// grows the buffer - signing, encryption).
func fixupSize(b buffer.Buffer) errors.Error {
	pos := b.Position()
	total := b.Length()
	if err := b.SetPosition(4); err != nil {
		return err
	}
	if err := wire.WriteUint32(b, total); err != nil {
		return err
	}
	return b.SetPosition(pos)
}

// encryptTail replaces b's content from byte offset from through the end
// with encrypt(keys, that span) - spec §4.4 step 10.
func encryptTail(b buffer.Buffer, from uint32, keys interface{}, encrypt func(interface{}, []byte) ([]byte, errors.Error)) errors.Error {
	plain := append([]byte(nil), b.Bytes()[from:b.Length()]...)
	cipher, err := encrypt(keys, plain)
	if err != nil {
		return ErrCertificateInvalid.Error(err)
	}
	if e := b.SetDataLength(from); e != nil {
		return e
	}
	if e := b.SetPosition(from); e != nil {
		return e
	}
	if _, e := b.Write(cipher, uint32(len(cipher))); e != nil {
		return e
	}
	return b.SetPosition(from)
}

func securityModeForOpen(secure bool) SecurityMode {
	if secure {
		return SecurityModeSignAndEncrypt
	}
	return SecurityModeNone
}
