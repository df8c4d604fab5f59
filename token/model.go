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

package token

import (
	"sync"
	"time"

	"github.com/nabbar/opcua-core/errors"
)

// SecurityToken is the (secureChannelId, tokenId, createdAt, revisedLifetime)
// tuple keying symmetric chunk signing/encryption for a secure channel
// (spec §3, §4.2). Both SecureChannelId and TokenId are non-zero once the
// token is established.
type SecurityToken struct {
	SecureChannelId uint32
	TokenId         uint32
	CreatedAt       time.Time
	RevisedLifetime time.Duration
}

// Established reports whether both identifiers have been assigned.
func (t SecurityToken) Established() bool {
	return t.SecureChannelId != 0 && t.TokenId != 0
}

// Expired reports whether the token's revised lifetime has elapsed as of
// now. A zero-value token (never established) is never considered
// expired by this check - callers must test Established() first.
func (t SecurityToken) Expired(now time.Time) bool {
	if t.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(t.CreatedAt) >= t.RevisedLifetime
}

// KeySet holds the symmetric key material derived from a token's nonces
// via the Cryptographic Provider collaborator (spec §4.7): the signing
// key, the encrypting key and the initialization vector, one set per
// direction (the caller keeps separate KeySets for send and receive).
type KeySet struct {
	SigningKey    []byte
	EncryptingKey []byte
	InitVector    []byte
}

// Store is the Security Token Store (spec §3): the current and previous
// token plus the server-side activation flag, nonces, and their derived
// key sets. A secure channel owns exactly one Store.
type Store struct {
	mu sync.Mutex

	current      SecurityToken
	currentKeys  KeySet
	previous     SecurityToken
	previousKeys KeySet

	// serverNewTokenActive is false immediately after a server-side renew:
	// the previous token is still accepted on receive until the client's
	// first message stamped with the new tokenId arrives (spec §4.2).
	serverNewTokenActive bool

	localNonce []byte
	peerNonce  []byte
}

// NewStore returns an empty token store with no current token installed.
func NewStore() *Store {
	return &Store{}
}

// Current returns the current token and its key set.
func (s *Store) Current() (SecurityToken, KeySet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.currentKeys
}

// Previous returns the previous token and its key set, and whether one is
// installed at all.
func (s *Store) Previous() (SecurityToken, KeySet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous, s.previousKeys, s.previous.Established()
}

// Nonces returns the local and peer nonce currently on file.
func (s *Store) Nonces() (local, peer []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localNonce, s.peerNonce
}

// SetNonces records the local and peer nonce exchanged during OPN-Issue.
func (s *Store) SetNonces(local, peer []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localNonce = local
	s.peerNonce = peer
}

// Install records the first token for this channel (OPN-Issue). It clears
// any previous token and marks the new one immediately active - there is
// no overlap period on first issue.
func (s *Store) Install(t SecurityToken, keys KeySet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t
	s.currentKeys = keys
	s.previous = SecurityToken{}
	s.previousKeys = KeySet{}
	s.serverNewTokenActive = true
}

// Renew moves the current token to previous and installs t as the new
// current (OPN-Renew, spec §4.2). On the server side the new token is not
// active until ActivateOnFirstUse observes it on an inbound message; the
// client installs a renewed token as immediately usable for send since it
// is the one initiating use of it.
func (s *Store) Renew(t SecurityToken, keys KeySet, serverSide bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = s.current
	s.previousKeys = s.currentKeys
	s.current = t
	s.currentKeys = keys
	s.serverNewTokenActive = !serverSide
}

// ActivateOnFirstUse is the server-side hook called when an inbound
// message is validated against the current tokenId while the new token
// was not yet marked active: it flips the flag and retires the previous
// token, since the client only switches to a new token once (spec §4.2).
func (s *Store) ActivateOnFirstUse(tokenID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serverNewTokenActive || tokenID != s.current.TokenId {
		return
	}
	s.serverNewTokenActive = true
	s.previous = SecurityToken{}
	s.previousKeys = KeySet{}
}

// RetirePrevious drops the previous token unconditionally - called by the
// previous-token expiry timer (spec §9 Open Question 3 / SPEC_FULL §C.6)
// when its revisedLifetime elapses before the client switches over.
func (s *Store) RetirePrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = SecurityToken{}
	s.previousKeys = KeySet{}
}

// Validate resolves an inbound tokenId against the current or (server
// side, while still valid) previous token, returning its key set. This is
// the receive-path check the Chunk Manager performs before decrypting a
// symmetric chunk (spec §4.3).
func (s *Store) Validate(tokenID uint32) (SecurityToken, KeySet, errors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current.Established() {
		return SecurityToken{}, KeySet{}, ErrNoCurrentToken.Error()
	}
	if tokenID == s.current.TokenId {
		return s.current, s.currentKeys, nil
	}
	if s.previous.Established() && tokenID == s.previous.TokenId {
		return s.previous, s.previousKeys, nil
	}
	return SecurityToken{}, KeySet{}, ErrUnknownTokenId.Error()
}

// SendingToken returns the token that should stamp the next outbound
// message. A server whose new token is not yet active keeps stamping with
// the previous token until the client switches over (spec §4.4 step 3).
func (s *Store) SendingToken(serverSide bool) (SecurityToken, KeySet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if serverSide && !s.serverNewTokenActive && s.previous.Established() {
		return s.previous, s.previousKeys
	}
	return s.current, s.currentKeys
}
