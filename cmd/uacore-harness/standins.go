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

package main

import (
	"sync"

	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
)

// TCP socket ownership and TLS/X.509 parsing internals are explicit
// Non-goals (spec §1, SPEC_FULL §C); this harness only needs to prove
// that the event loop is wired correctly, so loopbackSocket delivers
// bytes written on one side straight to the paired side in-process
// instead of opening a real network connection.
type loopbackSocket struct {
	disp *event.Dispatcher

	mu    sync.Mutex
	peers map[uint32]uint32 // socketIdx -> the socketIdx on the other end of the "wire"
	owner map[uint32]uint32 // socketIdx -> the connIdx currently reading from it
}

func newLoopbackSocket(disp *event.Dispatcher) *loopbackSocket {
	return &loopbackSocket{
		disp:  disp,
		peers: make(map[uint32]uint32),
		owner: make(map[uint32]uint32),
	}
}

// pair links two socket indices so that Write on one delivers to
// whichever connection currently owns the other, as a KindSocketRcvBytes
// event - standing in for an accepted TCP connection on the wire between
// a client and a server.
func (s *loopbackSocket) pair(a, b uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[a] = b
	s.peers[b] = a
}

func (s *loopbackSocket) CreateClient(connectionIdx uint32, url string) errors.Error {
	s.mu.Lock()
	s.owner[connectionIdx] = connectionIdx
	s.mu.Unlock()
	s.disp.PushBack(event.Event{Kind: event.KindConnectionCreate, EntityID: connectionIdx})
	return nil
}

func (s *loopbackSocket) CreateServer(endpointCfgIdx uint32, url string, listenAll bool) errors.Error {
	s.disp.PushBack(event.Event{Kind: event.KindListenerOpened, EntityID: endpointCfgIdx, Aux: endpointCfgIdx})
	return nil
}

func (s *loopbackSocket) Write(socketIdx uint32, buf []byte) errors.Error {
	s.mu.Lock()
	peer, ok := s.peers[socketIdx]
	var dest uint32
	var destOk bool
	if ok {
		dest, destOk = s.owner[peer]
	}
	s.mu.Unlock()
	if !destOk {
		return nil
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.disp.PushBack(event.Event{Kind: event.KindSocketRcvBytes, EntityID: dest, Payload: cp})
	return nil
}

func (s *loopbackSocket) Close(socketIdx uint32) errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if peer, ok := s.peers[socketIdx]; ok {
		delete(s.peers, socketIdx)
		delete(s.peers, peer)
	}
	delete(s.owner, socketIdx)
	return nil
}

// AcceptedConnection records that the core has now allocated connIdx for
// what, on the wire, is socketIdx - the counterpart of CreateClient's
// identity mapping for the accept path.
func (s *loopbackSocket) AcceptedConnection(socketIdx, newConnectionIdx uint32) errors.Error {
	s.mu.Lock()
	s.owner[socketIdx] = newConnectionIdx
	s.mu.Unlock()
	return nil
}

// noneCryptoProvider implements facade.CryptoProvider for the
// SecurityPolicy#None policy URI, whose wire definition performs no
// signing or encryption at all - every length is the plain length and
// every Encrypt/Decrypt/Sign/Verify is an identity/no-op. Any other
// policy's cryptographic algorithms are TLS/X.509 internals and stay an
// explicit Non-goal (spec §1, SPEC_FULL §C); a real deployment supplies
// its own CryptoProvider per policy URI.
type noneCryptoProvider struct{}

func (noneCryptoProvider) PolicyURI() string {
	return "http://opcfoundation.org/UA/SecurityPolicy#None"
}

func (noneCryptoProvider) CertificateValidate(pki facade.PKI, cert []byte) errors.Error {
	return nil
}

func (noneCryptoProvider) CertificateThumbprint(cert []byte) ([]byte, errors.Error) {
	return nil, nil
}

func (noneCryptoProvider) AsymmetricEncryptedLength(peerPublicKey []byte, plainLength uint32) (uint32, errors.Error) {
	return plainLength, nil
}

func (noneCryptoProvider) AsymmetricPlainBlockSize(peerPublicKey []byte) (uint32, errors.Error) {
	return 1, nil
}

func (noneCryptoProvider) AsymmetricCipherBlockSize(peerPublicKey []byte) (uint32, errors.Error) {
	return 1, nil
}

func (noneCryptoProvider) AsymmetricSignatureLength(peerPublicKey []byte) (uint32, errors.Error) {
	return 0, nil
}

func (noneCryptoProvider) SymmetricEncryptedLength(keys interface{}, plainLength uint32) (uint32, errors.Error) {
	return plainLength, nil
}

func (noneCryptoProvider) SymmetricPlainBlockSize(keys interface{}) (uint32, errors.Error) {
	return 1, nil
}

func (noneCryptoProvider) SymmetricCipherBlockSize(keys interface{}) (uint32, errors.Error) {
	return 1, nil
}

func (noneCryptoProvider) SymmetricSignatureLength(keys interface{}) (uint32, errors.Error) {
	return 0, nil
}

func (noneCryptoProvider) Encrypt(keys interface{}, plain []byte) ([]byte, errors.Error) {
	return plain, nil
}

func (noneCryptoProvider) Decrypt(keys interface{}, cipher []byte) ([]byte, errors.Error) {
	return cipher, nil
}

func (noneCryptoProvider) Sign(keys interface{}, data []byte) ([]byte, errors.Error) {
	return nil, nil
}

func (noneCryptoProvider) Verify(keys interface{}, data, signature []byte) errors.Error {
	return nil
}

func (noneCryptoProvider) GenerateRandomUInt32() (uint32, errors.Error) {
	return 0, nil
}

func cryptoResolver(policyURI string) (facade.CryptoProvider, errors.Error) {
	if policyURI == "" || policyURI == (noneCryptoProvider{}).PolicyURI() {
		return noneCryptoProvider{}, nil
	}
	return nil, errors.Newf(errors.UnknownError, "no crypto provider wired for policy %q in this harness", policyURI)
}
