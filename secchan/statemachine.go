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

	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/logger"
	"github.com/nabbar/opcua-core/metrics"
	"github.com/nabbar/opcua-core/statuscode"
	"github.com/nabbar/opcua-core/token"
	"github.com/nabbar/opcua-core/wire"
)

// minBufferSize is the floor both sides' advertised receive/send buffer
// sizes must meet (spec §4.2 "both ≥ 8192").
const minBufferSize uint32 = 8192

// halfOpenTimeout bounds how long a connection may sit in TCP_INIT before
// it is force-closed (SPEC_FULL §C.5).
const halfOpenTimeout = 10 * time.Second

// Manager is the Secure Connection State Machine (spec §4.2). One Manager
// serves every connection on a given role (client or server); it owns the
// connection table, drives chunk.Manager, and reacts to the events the
// Chunk Manager, the Socket collaborator, and timers push onto the shared
// Dispatcher.
type Manager struct {
	Table    *Table
	Chunks   *chunk.Manager
	Socket   facade.Socket
	Config   facade.ConfigStore
	Tokens   *token.Generator
	Services facade.Services

	disp *event.Dispatcher
	log  logger.Logger
	met  *metrics.Collector
}

// NewManager wires a Manager; log/met/svc may be nil. A nil svc means the
// Services layer above the secure conversation (spec §1 Non-goals) is not
// wired - the Manager still runs the state machine, it just has nobody to
// notify of SC_CONNECTED/SC_CONNECTION_TIMEOUT/SC_DISCONNECTED/
// SC_SERVICE_RCV_MSG.
func NewManager(capacity uint32, chunks *chunk.Manager, socket facade.Socket, cfg facade.ConfigStore, disp *event.Dispatcher, log logger.Logger, met *metrics.Collector, svc facade.Services) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		Table:    NewTable(capacity),
		Chunks:   chunks,
		Socket:   socket,
		Config:   cfg,
		Tokens:   token.NewGenerator(),
		Services: svc,
		disp:     disp,
		log:      log,
		met:      met,
	}
}

// transition moves c to next, logging the edge; it never validates that
// the edge is legal - callers only call it from the branch of the
// handler that already established that.
func (m *Manager) transition(c *Connection, next State) {
	m.log.Debug("secure connection state transition", "connection", c.Index, "from", c.State.String(), "to", next.String())
	c.State = next
}

// Connect starts a client-side connection: allocates a Connection in
// TCP_INIT and asks the Socket collaborator to dial out. The socket's
// OnConnection/OnFailure callback (delivered as a KindConnectionCreate /
// KindSocketFailure event) drives the rest of the handshake.
func (m *Manager) Connect(channelCfgIdx uint32) (uint32, errors.Error) {
	cfg, cerr := m.Config.ChannelConfig(channelCfgIdx)
	if cerr != nil {
		return 0, cerr
	}

	c, err := m.Table.Create(chunk.RoleClient, channelCfgIdx, minBufferSize, minBufferSize, 0)
	if err != nil {
		return 0, err
	}
	c.SocketIdx = c.Index
	c.EndpointURL = cfg.PeerURL
	c.Chunk.OPN.PolicyURI = cfg.SecurityPolicyURI
	c.Chunk.OPN.PKI = cfg.PKI
	c.Chunk.OPN.LocalCertificate = cfg.ClientCertificate
	c.Chunk.OPN.PeerCertificate = cfg.ServerCertificate

	// CreateClient is asked to key its socket by the same index as the
	// connection itself; an accepted (server-side) socket instead gets a
	// listener-assigned id, stored separately in OnAccepted.
	if serr := m.Socket.CreateClient(c.Index, cfg.PeerURL); serr != nil {
		m.Table.Release(c.Index)
		return 0, serr
	}
	return c.Index, nil
}

// OnSocketConnected is the client-side TCP_INIT -> TCP_NEGOTIATE edge: the
// socket came up, so send HEL (spec §4.2).
func (m *Manager) OnSocketConnected(connIdx uint32) {
	c, err := m.Table.Get(connIdx)
	if err != nil || c.State != StateTcpInit {
		return
	}
	m.transition(c, StateTcpNegotiate)

	body := encodeHello(wire.HelloMessage{
		ProtocolVersion:   0,
		ReceiveBufferSize: c.Chunk.ReceiveBufferSize,
		SendBufferSize:    c.Chunk.SendBufferSize,
		MaxMessageSize:    c.Chunk.MaxMessageSize,
		MaxChunkCount:     1,
		EndpointURL:       c.EndpointURL,
	})
	_ = m.Chunks.SendBareTCP(m.Socket, c.SocketIdx, wire.MessageTypeHello, body)
}

// OnAccepted is the server-side counterpart of Connect: a new socket was
// accepted on a listener bound to endpointCfgIdx. The connection starts
// in TCP_INIT awaiting HEL.
func (m *Manager) OnAccepted(endpointCfgIdx, socketIdx uint32) (uint32, errors.Error) {
	cfg, cerr := m.Config.EndpointConfig(endpointCfgIdx)
	if cerr != nil {
		return 0, cerr
	}
	c, err := m.Table.Create(chunk.RoleServer, endpointCfgIdx, minBufferSize, minBufferSize, 0)
	if err != nil {
		return 0, err
	}
	c.SocketIdx = socketIdx
	c.EndpointURL = cfg.EndpointURL
	c.Chunk.OPN.PKI = cfg.PKI
	c.Chunk.OPN.LocalCertificate = cfg.ServerCertificate
	c.Chunk.OPN.LocalPrivateKey = cfg.ServerKey
	if serr := m.Socket.AcceptedConnection(socketIdx, c.Index); serr != nil {
		m.Table.Release(c.Index)
		return 0, serr
	}
	return c.Index, nil
}

// OnHello handles an inbound HEL on the server: negotiate buffer sizes
// down to the minimum of both sides, check the endpoint URL, and reply
// with ACK (spec §4.2 "HEL/ACK negotiation").
func (m *Manager) OnHello(c *Connection, hello wire.HelloMessage) errors.Error {
	if c.State != StateTcpInit && c.State != StateTcpNegotiate {
		return ErrInvalidTransition.Error()
	}
	if hello.ReceiveBufferSize < minBufferSize || hello.SendBufferSize < minBufferSize {
		return ErrBufferNegotiationFailed.Error()
	}
	if c.EndpointURL != "" && hello.EndpointURL != c.EndpointURL {
		return ErrEndpointUrlMismatch.Error()
	}

	rcv := minUint32(hello.ReceiveBufferSize, c.Chunk.ReceiveBufferSize)
	if c.Chunk.ReceiveBufferSize == 0 || rcv == 0 {
		rcv = hello.ReceiveBufferSize
	}
	snd := minUint32(hello.SendBufferSize, c.Chunk.SendBufferSize)
	if c.Chunk.SendBufferSize == 0 || snd == 0 {
		snd = hello.SendBufferSize
	}
	c.Chunk.ReceiveBufferSize = rcv
	c.Chunk.SendBufferSize = snd
	c.Chunk.MaxMessageSize = hello.MaxMessageSize

	m.transition(c, StateScInit)

	ack := encodeAck(wire.AckMessage{
		ProtocolVersion:   hello.ProtocolVersion,
		ReceiveBufferSize: rcv,
		SendBufferSize:    snd,
		MaxMessageSize:    hello.MaxMessageSize,
		MaxChunkCount:     1,
	})
	return m.Chunks.SendBareTCP(m.Socket, c.SocketIdx, wire.MessageTypeAck, ack)
}

// OnAck handles the client-side ACK response, completing the TCP_NEGOTIATE
// -> SC_INIT edge.
func (m *Manager) OnAck(c *Connection, ack wire.AckMessage) errors.Error {
	if c.State != StateTcpNegotiate {
		return ErrInvalidTransition.Error()
	}
	c.Chunk.ReceiveBufferSize = ack.ReceiveBufferSize
	c.Chunk.SendBufferSize = ack.SendBufferSize
	c.Chunk.MaxMessageSize = ack.MaxMessageSize
	m.transition(c, StateScInit)
	return nil
}

// OpenIssue is the client-side OPN-Issue request: SC_INIT -> SC_CONNECTING
// (spec §4.2).
func (m *Manager) OpenIssue(c *Connection, mode chunk.SecurityMode, lifetime time.Duration, clientNonce []byte) errors.Error {
	if c.State != StateScInit {
		return ErrInvalidTransition.Error()
	}
	c.Chunk.OPN.Mode = mode
	c.Chunk.Tokens.SetNonces(clientNonce, nil)

	m.transition(c, StateScConnecting)

	body := encodeOpenRequest(mode, lifetime, clientNonce)
	req := chunk.SendRequest{
		Type:               wire.MessageTypeOpen,
		PolicyURI:          c.Chunk.OPN.PolicyURI,
		SenderCertificate:  certOrNil(mode, c.Chunk.OPN.LocalCertificate),
		ReceiverThumbprint: certOrNil(mode, thumbprintPlaceholder(c.Chunk.OPN.PeerCertificate)),
	}
	return m.Chunks.SendSecure(m.Socket, c.SocketIdx, c.Chunk, req, body)
}

// OnOpenRequest handles an inbound OPN-Issue/Renew on the server. issuing
// distinguishes a brand-new channel (SC_INIT) from a renew of an existing
// one (SC_CONNECTED).
func (m *Manager) OnOpenRequest(c *Connection, mode chunk.SecurityMode, lifetime time.Duration, peerNonce []byte, allowedModes uint32) errors.Error {
	switch c.State {
	case StateScInit:
		return m.serverOpenIssue(c, mode, lifetime, peerNonce, allowedModes)
	case StateScConnected:
		return m.serverOpenRenew(c, mode, lifetime, peerNonce)
	default:
		return ErrInvalidTransition.Error()
	}
}

func (m *Manager) serverOpenIssue(c *Connection, mode chunk.SecurityMode, lifetime time.Duration, peerNonce []byte, allowedModes uint32) errors.Error {
	if allowedModes != 0 && !modeAllowed(mode, allowedModes) {
		return ErrSecurityModeNotAllowed.Error()
	}
	m.transition(c, StateScConnecting)

	channelId, gerr := m.Tokens.GenerateSecureChannelId(m.channelIdCollides)
	if gerr != nil {
		return ErrTokenGenerationFailed.Error(gerr)
	}
	tokenId, gerr := m.Tokens.GenerateTokenId(m.tokenIdCollides(c))
	if gerr != nil {
		return ErrTokenGenerationFailed.Error(gerr)
	}

	c.Chunk.SecureChannelId = channelId
	c.Chunk.ChannelIdToConfirm = 0
	c.Chunk.OPN.Mode = mode

	serverNonce := peerNonce // placeholder: a real CryptoProvider mints this
	c.Chunk.Tokens.SetNonces(serverNonce, peerNonce)
	c.Chunk.Tokens.Install(token.SecurityToken{
		SecureChannelId: channelId,
		TokenId:         tokenId,
		CreatedAt:       time.Now(),
		RevisedLifetime: lifetime,
	}, token.KeySet{})
	c.Chunk.InvalidateMaxBody()

	m.transition(c, StateScConnected)
	if m.Services != nil {
		m.Services.OnSecureChannelConnected(c.Index)
	}

	body := encodeOpenResponse(channelId, tokenId, lifetime, serverNonce)
	req := chunk.SendRequest{
		Type:               wire.MessageTypeOpen,
		PolicyURI:          c.Chunk.OPN.PolicyURI,
		SenderCertificate:  certOrNil(mode, c.Chunk.OPN.LocalCertificate),
		ReceiverThumbprint: nil,
	}
	return m.Chunks.SendSecure(m.Socket, c.SocketIdx, c.Chunk, req, body)
}

func (m *Manager) serverOpenRenew(c *Connection, mode chunk.SecurityMode, lifetime time.Duration, peerNonce []byte) errors.Error {
	if mode != c.Chunk.OPN.Mode {
		return ErrRenewMismatch.Error()
	}
	m.transition(c, StateScConnectedRenew)

	tokenId, gerr := m.Tokens.GenerateTokenId(m.tokenIdCollides(c))
	if gerr != nil {
		return ErrTokenGenerationFailed.Error(gerr)
	}

	serverNonce := peerNonce
	c.Chunk.Tokens.Renew(token.SecurityToken{
		SecureChannelId: c.Chunk.SecureChannelId,
		TokenId:         tokenId,
		CreatedAt:       time.Now(),
		RevisedLifetime: lifetime,
	}, token.KeySet{}, true)
	c.Chunk.InvalidateMaxBody()
	c.RenewDeadline = time.Now().Add(lifetime)

	m.transition(c, StateScConnected)
	if m.met != nil {
		m.met.TokenRenewed()
	}

	body := encodeOpenResponse(c.Chunk.SecureChannelId, tokenId, lifetime, serverNonce)
	req := chunk.SendRequest{Type: wire.MessageTypeOpen, PolicyURI: c.Chunk.OPN.PolicyURI}
	return m.Chunks.SendSecure(m.Socket, c.SocketIdx, c.Chunk, req, body)
}

// OnOpenResponse is the client-side counterpart: SC_CONNECTING ->
// SC_CONNECTED (first issue) or SC_CONNECTED_RENEW -> SC_CONNECTED
// (renew response).
func (m *Manager) OnOpenResponse(c *Connection, channelId, tokenId uint32, lifetime time.Duration, serverNonce []byte) errors.Error {
	switch c.State {
	case StateScConnecting:
		c.Chunk.SecureChannelId = channelId
		c.Chunk.ChannelIdToConfirm = 0
		c.Chunk.Tokens.Install(token.SecurityToken{
			SecureChannelId: channelId,
			TokenId:         tokenId,
			CreatedAt:       time.Now(),
			RevisedLifetime: lifetime,
		}, token.KeySet{})
		c.Chunk.InvalidateMaxBody()
		m.transition(c, StateScConnected)
		if m.Services != nil {
			m.Services.OnSecureChannelConnected(c.Index)
		}
		return nil
	case StateScConnectedRenew:
		c.Chunk.Tokens.Renew(token.SecurityToken{
			SecureChannelId: c.Chunk.SecureChannelId,
			TokenId:         tokenId,
			CreatedAt:       time.Now(),
			RevisedLifetime: lifetime,
		}, token.KeySet{}, false)
		c.Chunk.InvalidateMaxBody()
		m.transition(c, StateScConnected)
		return nil
	default:
		return ErrInvalidTransition.Error()
	}
}

// CloseLocal is the client-initiated terminal close (spec §4.2 "Close
// semantics"): send CloseSecureChannelRequest, then release the
// connection. The send is routed through the dispatcher's priority path
// (SND_CLO) so it preempts whatever else is queued for this connection.
func (m *Manager) CloseLocal(connIdx uint32) {
	c, err := m.Table.Get(connIdx)
	if err != nil {
		return
	}
	m.disp.PushFront(event.Event{Kind: event.KindSendClose, EntityID: connIdx})
	req := chunk.SendRequest{Type: wire.MessageTypeClose}
	_ = m.Chunks.SendSecure(m.Socket, c.SocketIdx, c.Chunk, req, nil)
	m.terminate(c, "closed locally")
}

// CloseServerSide forces an orderly close of a server-side connection
// because its listener is shutting down (spec §3 "terminating a listener
// forces orderly close on all its connections" / §4.5 "posting EP_SC_CLOSE
// to each child"). It sends the same CloseSecureChannelRequest wire
// message CloseLocal's client-voluntary close does - either side of a
// secure channel may originate a CLO - but reports the disconnect reason
// as the endpoint closing rather than a local client decision.
func (m *Manager) CloseServerSide(connIdx uint32) {
	c, err := m.Table.Get(connIdx)
	if err != nil {
		return
	}
	m.disp.PushFront(event.Event{Kind: event.KindSendClose, EntityID: connIdx})
	req := chunk.SendRequest{Type: wire.MessageTypeClose}
	_ = m.Chunks.SendSecure(m.Socket, c.SocketIdx, c.Chunk, req, nil)
	m.terminate(c, "endpoint closed")
}

// CloseOnProtocolError is the server-initiated terminal close on a
// protocol violation (spec §4.2 "Server terminal on protocol error"): an
// ERR UACP message, then socket close. Routed through the priority
// SND_ERR path.
func (m *Manager) CloseOnProtocolError(connIdx uint32, code statuscode.Code, reason string) {
	c, err := m.Table.Get(connIdx)
	if err != nil {
		return
	}
	m.disp.PushFront(event.Event{Kind: event.KindSendError, EntityID: connIdx, Aux: code.Uint32()})
	body := encodeErrorMessage(code, reason)
	_ = m.Chunks.SendBareTCP(m.Socket, c.SocketIdx, wire.MessageTypeError, body)
	m.terminate(c, reason)
}

// OnSocketFailure releases the connection with no farewell attempt (spec
// §4.2 "On a socket failure, no farewell is attempted").
func (m *Manager) OnSocketFailure(connIdx uint32) {
	c, err := m.Table.Get(connIdx)
	if err != nil {
		return
	}
	m.terminate(c, "socket failure")
}

// terminate closes c and, if a Services collaborator is wired, posts
// SC_DISCONNECTED with reason upward (spec §4.7).
func (m *Manager) terminate(c *Connection, reason string) {
	m.transition(c, StateScClosed)
	_ = m.Socket.Close(c.SocketIdx)
	if m.Services != nil {
		m.Services.OnSecureChannelDisconnected(c.Index, reason)
	}
	m.Table.Release(c.Index)
}

// timeoutHalfOpen force-closes a connection that never completed the
// TCP_INIT handshake in time (SPEC_FULL §C.5) and, if a Services
// collaborator is wired, posts SC_CONNECTION_TIMEOUT upward (spec §4.7) -
// distinct from terminate's SC_DISCONNECTED, since the channel was never
// connected in the first place.
func (m *Manager) timeoutHalfOpen(c *Connection) {
	m.transition(c, StateScClosed)
	_ = m.Socket.Close(c.SocketIdx)
	if m.Services != nil {
		m.Services.OnSecureChannelTimeout(c.Index)
	}
	m.Table.Release(c.Index)
}

// CheckHalfOpenTimeouts force-closes any connection still in TCP_INIT
// past halfOpenTimeout (SPEC_FULL §C.5). Intended to be called from a
// periodic KindTimerFired handler.
func (m *Manager) CheckHalfOpenTimeouts(at time.Time) {
	var stale []uint32
	m.Table.Each(func(c *Connection) {
		if c.State == StateTcpInit && at.Sub(c.CreatedAt) > halfOpenTimeout {
			stale = append(stale, c.Index)
		}
	})
	for _, idx := range stale {
		if c, err := m.Table.Get(idx); err == nil {
			m.timeoutHalfOpen(c)
		}
	}
}

// CheckRenewDeadlines retires any connection's previous token whose renew
// deadline has elapsed (spec §4.2 "If the previous lifetime expires
// first, the previous is retired on timer").
func (m *Manager) CheckRenewDeadlines(at time.Time) {
	m.Table.Each(func(c *Connection) {
		if c.RenewDeadline.IsZero() || at.Before(c.RenewDeadline) {
			return
		}
		c.Chunk.Tokens.RetirePrevious()
		c.RenewDeadline = time.Time{}
	})
}

func (m *Manager) channelIdCollides(candidate uint32) bool {
	collide := false
	m.Table.Each(func(c *Connection) {
		if c.Chunk.SecureChannelId == candidate {
			collide = true
		}
	})
	return collide
}

func (m *Manager) tokenIdCollides(self *Connection) token.Collides {
	return func(candidate uint32) bool {
		cur, _ := self.Chunk.Tokens.Current()
		prev, _, ok := self.Chunk.Tokens.Previous()
		return cur.TokenId == candidate || (ok && prev.TokenId == candidate)
	}
}

func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func msToDuration(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// modeAllowed tests mode against a policy's ModesMask, one bit per
// SecurityMode value (bit 1<<mode, not the mode's own numeric value -
// SecurityModeSignAndEncrypt's value of 3 would otherwise alias both
// SecurityModeNone's and SecurityModeSign's bits).
func modeAllowed(mode chunk.SecurityMode, allowedModes uint32) bool {
	return allowedModes&(1<<uint32(mode)) != 0
}

func certOrNil(mode chunk.SecurityMode, cert []byte) []byte {
	if mode == chunk.SecurityModeNone {
		return nil
	}
	return cert
}

func thumbprintPlaceholder(cert []byte) []byte {
	// A real deployment derives this via CryptoProvider.CertificateThumbprint;
	// the state machine only needs presence/absence to agree with the cert.
	return cert
}
