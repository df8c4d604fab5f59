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
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/logger"
	"github.com/nabbar/opcua-core/metrics"
	"github.com/nabbar/opcua-core/request"
	"github.com/nabbar/opcua-core/statuscode"
	"github.com/nabbar/opcua-core/wire"
)

// CryptoResolver resolves the Cryptographic Provider collaborator bound
// to a security policy URI (spec §4.7 "Creates a policy-specific
// provider from a policy URI"). It is supplied once to NewManager and
// called on every OPN that carries a secure asymmetric header.
type CryptoResolver func(policyURI string) (facade.CryptoProvider, errors.Error)

// ReceivedMessage is what the Chunk Manager hands upward once one whole
// chunk has been reassembled, decrypted and validated (spec §4.3 step 7).
// Body is positioned just past the decoded headers - the state machine
// reads the UA message body starting at Body.Position() - and its
// ownership transfers to whoever receives the event.
type ReceivedMessage struct {
	Type            wire.MessageType
	SecureChannelId uint32
	RequestId       uint32
	Body            buffer.Buffer
}

// Manager is the Chunk Manager (spec §4.3, §4.4). One Manager serves
// every connection on the event loop; per-connection state lives in each
// connection's *Context.
type Manager struct {
	crypto CryptoResolver
	disp   *event.Dispatcher
	log    logger.Logger
	met    *metrics.Collector
}

// NewManager returns a Manager that pushes decoded messages and failures
// onto disp. A nil log is replaced with logger.NewNop(); a nil met is
// valid and treated as a no-op collector.
func NewManager(crypto CryptoResolver, disp *event.Dispatcher, log logger.Logger, met *metrics.Collector) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{crypto: crypto, disp: disp, log: log, met: met}
}

// maxReceiveSize bounds a declared message size against both the
// negotiated receive buffer and the negotiated max message size (spec
// §4.3 step 2 "declared size ... ≤ the configured max").
func maxReceiveSize(ctx *Context) uint32 {
	m := ctx.ReceiveBufferSize
	if ctx.MaxMessageSize != 0 && ctx.MaxMessageSize < m {
		m = ctx.MaxMessageSize
	}
	return m
}

// OnBytes drains as many complete messages as data (plus whatever was
// already buffered in ctx) contains, pushing one KindChunkReceived event
// per message and at most one priority KindReceiveFailure event before
// returning (spec §4.3 "the receive loop drains that buffer; each
// iteration either completes one whole UACP message ... or stops").
func (m *Manager) OnBytes(connIdx uint32, ctx *Context, data []byte) {
	src := buffer.Attach(data)
	for src.Remaining() > 0 {
		progressed, err := m.step(connIdx, ctx, src)
		if err != nil {
			m.fail(connIdx, err)
			return
		}
		if !progressed {
			return
		}
	}
}

// step attempts to make one unit of progress: complete the header,
// complete the body, or (once both are complete) decode and deliver the
// chunk. It returns progressed=false when src is exhausted before the
// current chunk is complete - the caller waits for the next socket
// delivery; ctx retains whatever was buffered so far.
func (m *Manager) step(connIdx uint32, ctx *Context, src buffer.Buffer) (bool, errors.Error) {
	ctx.ensureBuf()

	if !ctx.hdrComplete {
		if ctx.buf.Length() < wire.HeaderSize {
			need := wire.HeaderSize - ctx.buf.Length()
			moved, err := buffer.ReadFrom(ctx.buf, src, need)
			if err != nil {
				return false, err
			}
			if moved == 0 {
				return false, nil
			}
		}
		if ctx.buf.Length() < wire.HeaderSize {
			return false, nil
		}
		if err := ctx.buf.SetPosition(0); err != nil {
			return false, err
		}
		hdr, err := wire.ReadHeader(ctx.buf)
		if err != nil {
			return false, ErrShortChunk.Error(err)
		}
		if err := validateHeader(ctx, hdr); err != nil {
			return false, err
		}
		ctx.hdr = hdr
		ctx.hdrComplete = true
	}

	if ctx.buf.Length() < ctx.hdr.MessageSize {
		need := ctx.hdr.MessageSize - ctx.buf.Length()
		moved, err := buffer.ReadFrom(ctx.buf, src, need)
		if err != nil {
			return false, err
		}
		if moved == 0 {
			return false, nil
		}
	}

	if ctx.buf.Length() < ctx.hdr.MessageSize {
		return false, nil
	}

	msg, err := m.decodeComplete(ctx)
	if err != nil {
		return false, err
	}

	if m.met != nil {
		m.met.ChunkReceived(string(msg.Type[:]))
	}
	m.disp.PushBack(event.Event{
		Kind:     event.KindChunkReceived,
		EntityID: connIdx,
		Payload:  msg,
		Aux:      msg.RequestId,
	})
	ctx.resetChunk()
	return true, nil
}

// validateHeader enforces spec §4.3 step 2: known type tag, legal isFinal
// value, isFinal=F mandatory for every non-MSG type (and, since
// maxChunkCount is fixed at 1 throughout this core, for MSG too - spec
// §3 "Edge-case policies"), and a declared size within bounds.
func validateHeader(ctx *Context, hdr wire.Header) errors.Error {
	switch hdr.Type {
	case wire.MessageTypeHello, wire.MessageTypeAck, wire.MessageTypeError,
		wire.MessageTypeOpen, wire.MessageTypeSecure, wire.MessageTypeClose:
	default:
		return ErrMessageTypeInvalid.Error()
	}
	switch hdr.Chunk {
	case wire.ChunkFinal, wire.ChunkIntermediate, wire.ChunkAbort:
	default:
		return ErrMessageTypeInvalid.Error()
	}
	if hdr.Chunk != wire.ChunkFinal {
		// maxChunkCount=1: any intermediate/abort chunk is a protocol error.
		return ErrMessageTypeInvalid.Error()
	}
	if hdr.MessageSize < wire.HeaderSize || hdr.MessageSize > maxReceiveSize(ctx) {
		return ErrMessageTooLarge.Error()
	}
	return nil
}

// decodeComplete runs spec §4.3 steps 4-6 once the whole chunk is
// buffered: security header decode/validation, decrypt+verify, sequence
// and request-id checks. It returns the message positioned past every
// decoded header.
func (m *Manager) decodeComplete(ctx *Context) (*ReceivedMessage, errors.Error) {
	if err := ctx.buf.SetPosition(wire.HeaderSize); err != nil {
		return nil, err
	}

	switch ctx.hdr.Type {
	case wire.MessageTypeHello, wire.MessageTypeAck, wire.MessageTypeError:
		return &ReceivedMessage{Type: ctx.hdr.Type, Body: ctx.buf}, nil
	case wire.MessageTypeOpen:
		return m.decodeOpen(ctx)
	case wire.MessageTypeSecure, wire.MessageTypeClose:
		return m.decodeSymmetric(ctx)
	default:
		return nil, ErrMessageTypeInvalid.Error()
	}
}

// decodeChannelId reads the secureChannelId field that follows the UACP
// header on every secure-conversation chunk (OPN included - confirmed
// against the reference implementation's SC_Chunks_TreatTcpPayload, which
// reads it unconditionally for OPN/CLO/MSG) and checks it against the
// connection's state (spec §4.3 step 5).
func decodeChannelId(ctx *Context, isOpen bool) errors.Error {
	got, err := wire.ReadUint32(ctx.buf)
	if err != nil {
		return err
	}
	if isOpen {
		if ctx.SecureChannelId == 0 {
			if got != 0 {
				ctx.ChannelIdToConfirm = got
			}
			return nil
		}
		if got != ctx.SecureChannelId {
			return ErrSecureChannelUnknown.Error()
		}
		return nil
	}
	if got != ctx.SecureChannelId {
		return ErrSecureChannelUnknown.Error()
	}
	return nil
}

func (m *Manager) decodeOpen(ctx *Context) (*ReceivedMessage, errors.Error) {
	if err := decodeChannelId(ctx, true); err != nil {
		return nil, err
	}

	secHeader, err := wire.ReadAsymmetricSecurityHeader(ctx.buf)
	if err != nil {
		return nil, err
	}
	senderPresent := len(secHeader.SenderCertificate) > 0
	thumbPresent := len(secHeader.ReceiverCertificateThumbprint) > 0
	if senderPresent != thumbPresent {
		return nil, ErrMessageTypeInvalid.Error()
	}
	secure := senderPresent
	ctx.OPN.PolicyURI = secHeader.SecurityPolicyURI
	ctx.OPN.SecureModeActive = secure

	seqPos := ctx.buf.Position()

	if secure {
		ctx.OPN.PeerCertificate = secHeader.SenderCertificate
		provider, perr := m.crypto(secHeader.SecurityPolicyURI)
		if perr != nil {
			return nil, ErrSecurityPolicyRejected.Error(perr)
		}
		if verr := provider.CertificateValidate(ctx.OPN.PKI, secHeader.SenderCertificate); verr != nil {
			return nil, ErrCertificateInvalid.Error(verr)
		}

		keys := AsymmetricKeys{PKI: ctx.OPN.PKI, LocalPrivateKey: ctx.OPN.LocalPrivateKey, PeerCertificate: ctx.OPN.PeerCertificate}
		cipher := append([]byte(nil), ctx.buf.Bytes()[seqPos:ctx.hdr.MessageSize]...)
		plain, derr := provider.Decrypt(keys, cipher)
		if derr != nil {
			return nil, ErrCertificateInvalid.Error(derr)
		}
		if err := rewriteTail(ctx.buf, seqPos, plain); err != nil {
			return nil, err
		}

		sigLen, serr := provider.AsymmetricSignatureLength(ctx.OPN.PeerCertificate)
		if serr != nil {
			return nil, ErrCertificateInvalid.Error(serr)
		}
		if sigLen > 0 {
			total := ctx.buf.Length()
			if sigLen > total {
				return nil, ErrShortChunk.Error()
			}
			sigStart := total - sigLen
			data := ctx.buf.Bytes()[0:sigStart]
			sig := ctx.buf.Bytes()[sigStart:total]
			if verr := provider.Verify(keys, data, sig); verr != nil {
				return nil, ErrCertificateInvalid.Error(verr)
			}
			if err := ctx.buf.SetDataLength(sigStart); err != nil {
				return nil, err
			}
		}
		if err := ctx.buf.SetPosition(seqPos); err != nil {
			return nil, err
		}
	}

	seqHdr, err := wire.ReadSequenceHeader(ctx.buf)
	if err != nil {
		return nil, err
	}
	ctx.Sequence.ResetReceive(seqHdr.SequenceNumber)

	if ctx.Role == RoleClient && ctx.Pending != nil {
		if rerr := ctx.Pending.Resolve(seqHdr.RequestId, request.KindOpen); rerr != nil {
			return nil, rerr
		}
	}

	return &ReceivedMessage{
		Type:            ctx.hdr.Type,
		SecureChannelId: ctx.SecureChannelId,
		RequestId:       seqHdr.RequestId,
		Body:            ctx.buf,
	}, nil
}

func (m *Manager) decodeSymmetric(ctx *Context) (*ReceivedMessage, errors.Error) {
	if err := decodeChannelId(ctx, false); err != nil {
		return nil, err
	}

	symHeader, err := wire.ReadSymmetricSecurityHeader(ctx.buf)
	if err != nil {
		return nil, err
	}
	tok, keys, verr := ctx.Tokens.Validate(symHeader.TokenId)
	if verr != nil {
		return nil, verr
	}
	if ctx.Role == RoleServer {
		ctx.Tokens.ActivateOnFirstUse(symHeader.TokenId)
	}

	seqPos := ctx.buf.Position()
	_ = tok

	// Mode-specific crypto is driven by whichever CryptoProvider the
	// caller resolved for this channel's active policy; in None mode the
	// key set carries no material and sign/encrypt are both skipped.
	signed := len(keys.SigningKey) > 0
	encrypted := len(keys.EncryptingKey) > 0

	provider, perr := m.crypto(ctx.OPN.PolicyURI)
	if encrypted || signed {
		if perr != nil {
			return nil, ErrSecurityPolicyRejected.Error(perr)
		}
	}

	if encrypted {
		cipher := append([]byte(nil), ctx.buf.Bytes()[seqPos:ctx.hdr.MessageSize]...)
		plain, derr := provider.Decrypt(keys, cipher)
		if derr != nil {
			return nil, ErrCertificateInvalid.Error(derr)
		}
		if err := rewriteTail(ctx.buf, seqPos, plain); err != nil {
			return nil, err
		}
	}

	if signed {
		sigLen, serr := provider.SymmetricSignatureLength(keys)
		if serr != nil {
			return nil, ErrCertificateInvalid.Error(serr)
		}
		if sigLen > 0 {
			total := ctx.buf.Length()
			if sigLen > total {
				return nil, ErrShortChunk.Error()
			}
			sigStart := total - sigLen
			data := ctx.buf.Bytes()[0:sigStart]
			sig := ctx.buf.Bytes()[sigStart:total]
			if verr := provider.Verify(keys, data, sig); verr != nil {
				return nil, ErrCertificateInvalid.Error(verr)
			}
			if err := ctx.buf.SetDataLength(sigStart); err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.buf.SetPosition(seqPos); err != nil {
		return nil, err
	}
	seqHdr, err := wire.ReadSequenceHeader(ctx.buf)
	if err != nil {
		return nil, err
	}

	if rerr := ctx.Sequence.CheckReceive(seqHdr.SequenceNumber); rerr != nil {
		return nil, rerr
	}

	if ctx.Role == RoleClient && ctx.Pending != nil && ctx.hdr.Type == wire.MessageTypeSecure {
		if rerr := ctx.Pending.Resolve(seqHdr.RequestId, request.KindService); rerr != nil {
			return nil, rerr
		}
	}

	return &ReceivedMessage{
		Type:            ctx.hdr.Type,
		SecureChannelId: ctx.SecureChannelId,
		RequestId:       seqHdr.RequestId,
		Body:            ctx.buf,
	}, nil
}

// rewriteTail replaces everything in b from byte offset pos onward with
// plain, which may be a different length than what it replaces (block
// ciphers pad to their block size). b's position is left at pos.
func rewriteTail(b buffer.Buffer, pos uint32, plain []byte) errors.Error {
	if err := b.SetDataLength(pos); err != nil {
		return err
	}
	if err := b.SetPosition(pos); err != nil {
		return err
	}
	if len(plain) == 0 {
		return nil
	}
	if _, err := b.Write(plain, uint32(len(plain))); err != nil {
		return err
	}
	return b.SetPosition(pos)
}

// fail pushes the priority RCV_FAILURE event the state machine turns
// into an orderly close (spec §4.3 step 8, §5 "priority events so that
// they preempt further work on a doomed connection").
func (m *Manager) fail(connIdx uint32, err errors.Error) {
	code := statusCodeFor(err)
	if m.met != nil {
		m.met.ReceiveFailure(code.String())
	}
	m.log.Warning("chunk receive failure", "connection", connIdx, "status", code.String(), "error", err.Error())
	m.disp.PushFront(event.Event{
		Kind:     event.KindReceiveFailure,
		EntityID: connIdx,
		Payload:  err,
		Aux:      code.Uint32(),
	})
}

// statusCodeFor maps an internal chunk/wire/token/request error to the
// OPC UA status code an ERR message or a RCV_FAILURE event carries (spec
// §7 "Error taxonomy").
func statusCodeFor(err errors.Error) statuscode.Code {
	switch err.Code() {
	case ErrMessageTypeInvalid:
		return statuscode.BadTcpMessageTypeInvalid
	case ErrMessageTooLarge:
		return statuscode.BadTcpMessageTooLarge
	case ErrSecureChannelUnknown:
		return statuscode.BadTcpSecureChannelUnknown
	case ErrSecurityPolicyRejected:
		return statuscode.BadSecurityPolicyRejected
	case ErrSecurityModeRejected:
		return statuscode.BadSecurityModeRejected
	case ErrCertificateInvalid:
		return statuscode.BadCertificateInvalid
	case ErrRequestTooLarge:
		return statuscode.BadRequestTooLarge
	case ErrResponseTooLarge:
		return statuscode.BadResponseTooLarge
	default:
		return statuscode.BadSecurityChecksFailed
	}
}
