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
	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/statuscode"
	"github.com/nabbar/opcua-core/wire"
)

// Dispatch is the Manager's share of the top-level event.Handler (spec
// §4.6 "the core's dispatcher handler demultiplexes by Kind"). The
// harness composes it with chunk.Manager's and listener.Manager's shares;
// it reports false for event kinds it does not own so the caller can try
// the next one.
func (m *Manager) Dispatch(e event.Event) bool {
	switch e.Kind {
	case event.KindChunkReceived:
		m.onChunkReceived(e)
		return true
	case event.KindReceiveFailure:
		m.onReceiveFailure(e)
		return true
	case event.KindSocketFailure:
		m.OnSocketFailure(e.EntityID)
		return true
	default:
		return false
	}
}

func (m *Manager) onReceiveFailure(e event.Event) {
	code := statuscode.Code(e.Aux)
	m.CloseOnProtocolError(e.EntityID, code, code.String())
}

func (m *Manager) onChunkReceived(e event.Event) {
	c, err := m.Table.Get(e.EntityID)
	if err != nil {
		return
	}
	msg, ok := e.Payload.(*chunk.ReceivedMessage)
	if !ok {
		return
	}

	var decodeErr error
	switch msg.Type {
	case wire.MessageTypeHello:
		decodeErr = m.handleHello(c, msg.Body)
	case wire.MessageTypeAck:
		decodeErr = m.handleAck(c, msg.Body)
	case wire.MessageTypeOpen:
		decodeErr = m.handleOpen(c, msg)
	case wire.MessageTypeClose:
		m.handleClose(c)
	case wire.MessageTypeSecure:
		m.handleService(c, msg)
	}
	if decodeErr != nil {
		m.CloseOnProtocolError(c.Index, statusCodeFor(decodeErr), decodeErr.Error())
	}
}

// handleService forwards an established MSG's body upward to Services
// (spec §4.3 step 7 / §4.7 "SC_SERVICE_RCV_MSG"); the core itself does
// not decode service-layer bodies (spec §1 Non-goals). A nil Services
// silently drops the body - there is nobody above the core to hand it to.
func (m *Manager) handleService(c *Connection, msg *chunk.ReceivedMessage) {
	if m.Services == nil {
		return
	}
	body := msg.Body.Bytes()[msg.Body.Position():]
	m.Services.OnServiceReceiveMessage(c.Index, body, msg.RequestId)
}

// statusCodeFor maps a handshake-handler failure to the status code its
// ERR message / SC_DISCONNECTED reason carries (spec §7 "Error taxonomy"),
// mirroring chunk.Manager's own statusCodeFor table. Anything that is not
// one of this package's own named errors - a wire-level decode failure, or
// any other package's error code - is a malformed message body, so it
// falls back to BadDecodingError.
func statusCodeFor(err error) statuscode.Code {
	ee, ok := err.(errors.Error)
	if !ok {
		return statuscode.BadDecodingError
	}
	switch ee.Code() {
	case ErrEndpointUrlMismatch:
		return statuscode.BadTcpEndpointUrlInvalid
	case ErrBufferNegotiationFailed:
		return statuscode.BadTcpNotEnoughResources
	case ErrSecurityModeNotAllowed:
		return statuscode.BadSecurityModeRejected
	case ErrRenewMismatch, ErrInvalidTransition:
		return statuscode.BadSecurityChecksFailed
	case ErrTokenGenerationFailed:
		return statuscode.BadTcpInternalError
	default:
		return statuscode.BadDecodingError
	}
}

func (m *Manager) handleHello(c *Connection, body buffer.Buffer) error {
	hello, err := wire.ReadHello(body)
	if err != nil {
		return err
	}
	return m.OnHello(c, hello)
}

func (m *Manager) handleAck(c *Connection, body buffer.Buffer) error {
	ack, err := wire.ReadAck(body)
	if err != nil {
		return err
	}
	return m.OnAck(c, ack)
}

func (m *Manager) handleOpen(c *Connection, msg *chunk.ReceivedMessage) error {
	if c.State == StateScInit || c.State == StateScConnected {
		req, err := wire.ReadOpenSecureChannelRequest(msg.Body)
		if err != nil {
			return err
		}
		ep, cerr := m.Config.EndpointConfig(c.ConfigIdx)
		var allowed uint32
		if cerr == nil {
			for _, p := range ep.AcceptedPolicies {
				if p.PolicyURI == c.Chunk.OPN.PolicyURI {
					allowed = p.ModesMask
				}
			}
		}
		lifetime := msToDuration(req.RequestedLifetimeMS)
		return m.OnOpenRequest(c, chunk.SecurityMode(req.SecurityMode), lifetime, req.ClientNonce, allowed)
	}

	resp, err := wire.ReadOpenSecureChannelResponse(msg.Body)
	if err != nil {
		return err
	}
	lifetime := msToDuration(resp.RevisedLifetimeMS)
	return m.OnOpenResponse(c, resp.SecureChannelId, resp.TokenId, lifetime, resp.ServerNonce)
}

func (m *Manager) handleClose(c *Connection) {
	m.terminate(c, "peer closed")
}
