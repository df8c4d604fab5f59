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
	"github.com/nabbar/opcua-core/request"
	"github.com/nabbar/opcua-core/token"
	"github.com/nabbar/opcua-core/wire"
)

// Role distinguishes which side of a connection a Context belongs to -
// several receive/send rules differ by role (spec §4.2, §4.3).
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

// SecurityMode mirrors the OPC UA MessageSecurityMode enumeration this
// core inspects (spec §4.2 "requested security mode").
type SecurityMode uint32

const (
	SecurityModeInvalid        SecurityMode = 0
	SecurityModeNone           SecurityMode = 1
	SecurityModeSign           SecurityMode = 2
	SecurityModeSignAndEncrypt SecurityMode = 3
)

// Signed reports whether mode requires a signature (Sign and
// SignAndEncrypt both do).
func (m SecurityMode) Signed() bool { return m == SecurityModeSign || m == SecurityModeSignAndEncrypt }

// Encrypted reports whether mode requires encryption.
func (m SecurityMode) Encrypted() bool { return m == SecurityModeSignAndEncrypt }

// OPNSecurity is the server-side OPN-decoding scratchpad described in
// spec §3 "Security tokens": the policy/mode this channel settled on, the
// peer certificate decoded from the asymmetric security header, and
// whether the channel is running in secure (certificate-bearing) mode.
// A client keeps the same fields for the policy/mode it is requesting and
// the server certificate it addresses OPN-Issue/Renew to.
type OPNSecurity struct {
	PolicyURI          string
	Mode               SecurityMode
	AllowedModesMask   uint32
	PKI                interface{} // facade.PKI handle for CertificateValidate, opaque to this package
	LocalPrivateKey    []byte      // this side's private key material, passed through to CryptoProvider.Decrypt/Sign as part of AsymmetricKeys
	LocalCertificate   []byte      // this side's own certificate, embedded as SenderCertificate when this side originates the OPN chunk
	PeerCertificate    []byte      // the other side's certificate - decoded from an inbound OPN, or configured for an outbound one
	ReceiverThumbprint []byte      // thumbprint of the peer certificate this side's messages are encrypted for
	SecureModeActive   bool        // both sender cert and receiver thumbprint were present (spec §4.3 step 4)
}

// AsymmetricKeys is the opaque "keys" value chunk passes to
// facade.CryptoProvider's Encrypt/Decrypt/Sign/Verify for OPN chunks -
// the provider interface takes keys as interface{} precisely so both this
// asymmetric bundle and a token.KeySet (symmetric) can share it (spec
// §4.7).
type AsymmetricKeys struct {
	PKI             interface{}
	LocalPrivateKey []byte
	PeerCertificate []byte
}

// Context is the per-connection state the Chunk Manager reads and
// mutates - everything spec §4.3/§4.4 need that is not itself owned by
// secchan.Connection's higher-level state machine fields (spec §3 "Chunk
// context", "TCP negotiated properties", "TCP sequence properties",
// "Security tokens").
type Context struct {
	Role Role

	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32

	// SecureChannelId is this connection's confirmed channel id, 0 until
	// a server has accepted the client's first OPN-Issue (spec §4.3 step
	// 5). ChannelIdToConfirm is the client-chosen id read off the wire
	// before the server has picked its own (same step, "stored as
	// 'channel id to confirm'").
	SecureChannelId    uint32
	ChannelIdToConfirm uint32

	Sequence *request.Sequence
	Pending  *request.PendingTable // nil on server

	Tokens *token.Store

	OPN OPNSecurity

	buf         buffer.Buffer
	hdr         wire.Header
	hdrComplete bool

	maxBodyAsymmetric uint32
	maxBodySymmetric  uint32
	maxBodyCached     bool
}

// NewContext returns a Context for a freshly created connection (spec §3
// "Lifecycle: created on a successful client channel-config activation or
// on server-side socket accept").
func NewContext(role Role, receiveBufferSize, sendBufferSize, maxMessageSize uint32) *Context {
	c := &Context{
		Role:              role,
		ReceiveBufferSize: receiveBufferSize,
		SendBufferSize:    sendBufferSize,
		MaxMessageSize:    maxMessageSize,
		Sequence:          request.NewSequence(),
		Tokens:            token.NewStore(),
	}
	if role == RoleClient {
		c.Pending = request.NewPendingTable()
	}
	return c
}

// CacheMaxBody records the once-per-connection maximum body sizes
// computed by computeMaxBody (spec §4.4 step 4: "Compute the maximum
// body size once per connection and cache it").
func (c *Context) CacheMaxBody(asym, sym uint32) {
	c.maxBodyAsymmetric = asym
	c.maxBodySymmetric = sym
	c.maxBodyCached = true
}

// MaxBodyCached reports whether CacheMaxBody has run yet, and the cached
// values if so.
func (c *Context) MaxBodyCached() (asym, sym uint32, ok bool) {
	return c.maxBodyAsymmetric, c.maxBodySymmetric, c.maxBodyCached
}

// InvalidateMaxBody forces the next send to recompute cached sizes -
// called after a renew, since the active token/key set can change the
// symmetric crypto provider's block sizes.
func (c *Context) InvalidateMaxBody() {
	c.maxBodyCached = false
}

// ensureBuf allocates the reassembly buffer on first use, sized to the
// negotiated receive buffer (spec §4.3 step 1).
func (c *Context) ensureBuf() {
	if c.buf == nil {
		c.buf = buffer.New(c.ReceiveBufferSize)
	}
}

// resetChunk drops the reassembly buffer (ownership already transferred
// to whoever received the decoded message, spec §4.3 step 7 "Reset the
// chunk context") and clears the header-decode state for the next chunk.
func (c *Context) resetChunk() {
	c.buf = nil
	c.hdr = wire.Header{}
	c.hdrComplete = false
}
