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

package facade

import (
	"time"

	"github.com/nabbar/opcua-core/errors"
)

// SecurityPolicyMode pairs a security policy URI with the bitmask of
// accepted security modes, as offered by an endpoint (spec §4.7
// "Configuration store").
type SecurityPolicyMode struct {
	PolicyURI string
	ModesMask uint32
}

// ChannelConfig is the immutable client-side descriptor of a secure
// channel to open (spec §4.7, spec GLOSSARY "Channel configuration").
type ChannelConfig struct {
	PeerURL           string
	SecurityPolicyURI string
	SecurityMode      uint32
	ClientCertificate []byte
	ServerCertificate []byte
	PKI               PKI
	RequestedLifetime time.Duration
}

// EndpointConfig is the immutable server-side descriptor of a listening
// endpoint (spec §4.7).
type EndpointConfig struct {
	EndpointURL       string
	ServerCertificate []byte
	ServerKey         []byte
	PKI               PKI
	AcceptedPolicies  []SecurityPolicyMode
}

// ConfigStore resolves channel/endpoint config indices to their immutable
// records. A reload never mutates a record already handed out; it issues
// a new one and subsequent lookups by the same index return it (spec
// SPEC_FULL §A "Configuration").
type ConfigStore interface {
	ChannelConfig(idx uint32) (ChannelConfig, errors.Error)
	EndpointConfig(idx uint32) (EndpointConfig, errors.Error)
}
