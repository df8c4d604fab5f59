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
	"testing"
	"time"

	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/wire"
)

type fakeSocket struct {
	lastWritten []byte
	closed      []uint32
}

func (f *fakeSocket) CreateClient(connectionIdx uint32, url string) errors.Error { return nil }
func (f *fakeSocket) CreateServer(endpointCfgIdx uint32, url string, listenAll bool) errors.Error {
	return nil
}
func (f *fakeSocket) Write(socketIdx uint32, buf []byte) errors.Error {
	f.lastWritten = append([]byte{}, buf...)
	return nil
}
func (f *fakeSocket) Close(socketIdx uint32) errors.Error {
	f.closed = append(f.closed, socketIdx)
	return nil
}
func (f *fakeSocket) AcceptedConnection(socketIdx, newConnectionIdx uint32) errors.Error { return nil }

type fakeConfigStore struct {
	channel  facade.ChannelConfig
	endpoint facade.EndpointConfig
}

func (f *fakeConfigStore) ChannelConfig(idx uint32) (facade.ChannelConfig, errors.Error) {
	return f.channel, nil
}
func (f *fakeConfigStore) EndpointConfig(idx uint32) (facade.EndpointConfig, errors.Error) {
	return f.endpoint, nil
}

func noCryptoResolver(string) (facade.CryptoProvider, errors.Error) {
	return nil, errors.Newf(errors.UnknownError, "no crypto configured in this test")
}

// fakeServices records every upward call the Manager makes through
// facade.Services, so tests can assert the core actually notifies the
// layer above it instead of silently dropping the call.
type fakeServices struct {
	connected     []uint32
	timedOut      []uint32
	disconnected  []uint32
	reasons       []string
	received      []uint32
	bodies        [][]byte
	requestIDs    []uint32
	endpointsDown []uint32
}

func (f *fakeServices) OnSecureChannelConnected(connectionIdx uint32) {
	f.connected = append(f.connected, connectionIdx)
}
func (f *fakeServices) OnSecureChannelTimeout(connectionIdx uint32) {
	f.timedOut = append(f.timedOut, connectionIdx)
}
func (f *fakeServices) OnSecureChannelDisconnected(connectionIdx uint32, reason string) {
	f.disconnected = append(f.disconnected, connectionIdx)
	f.reasons = append(f.reasons, reason)
}
func (f *fakeServices) OnServiceReceiveMessage(connectionIdx uint32, buf []byte, requestID uint32) {
	f.received = append(f.received, connectionIdx)
	f.bodies = append(f.bodies, buf)
	f.requestIDs = append(f.requestIDs, requestID)
}
func (f *fakeServices) OnEndpointClosed(endpointCfgIdx uint32) {
	f.endpointsDown = append(f.endpointsDown, endpointCfgIdx)
}

func newTestManager() (*Manager, *fakeSocket) {
	mgr, sock, _ := newTestManagerWithServices(nil)
	return mgr, sock
}

// newTestManagerWithServices is newTestManager plus a fakeServices wired
// in; pass nil to get one allocated for you.
func newTestManagerWithServices(svc *fakeServices) (*Manager, *fakeSocket, *fakeServices) {
	if svc == nil {
		svc = &fakeServices{}
	}
	sock := &fakeSocket{}
	disp := event.New(func(event.Event) {}, nil)
	chunks := chunk.NewManager(noCryptoResolver, disp, nil, nil)
	cfg := &fakeConfigStore{
		endpoint: facade.EndpointConfig{
			EndpointURL: "opc.tcp://localhost:4840",
			AcceptedPolicies: []facade.SecurityPolicyMode{
				{PolicyURI: "", ModesMask: 1 << uint32(chunk.SecurityModeNone)},
			},
		},
	}
	return NewManager(8, chunks, sock, cfg, disp, nil, nil, svc), sock, svc
}

func TestOnHelloNegotiatesBufferSizes(t *testing.T) {
	mgr, sock := newTestManager()
	c, err := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c.EndpointURL = "opc.tcp://localhost:4840"

	herr := mgr.OnHello(c, wire.HelloMessage{
		ProtocolVersion:   0,
		ReceiveBufferSize: 16384,
		SendBufferSize:    8192,
		MaxMessageSize:    65536,
		MaxChunkCount:     1,
		EndpointURL:       "opc.tcp://localhost:4840",
	})
	if herr != nil {
		t.Fatalf("OnHello: %v", herr)
	}
	if c.State != StateScInit {
		t.Fatalf("state = %v, want SC_INIT", c.State)
	}
	if c.Chunk.ReceiveBufferSize != 8192 {
		t.Fatalf("ReceiveBufferSize = %d, want negotiated minimum 8192", c.Chunk.ReceiveBufferSize)
	}
	if len(sock.lastWritten) < 8 || string(sock.lastWritten[0:3]) != "ACK" {
		t.Fatalf("expected an ACK frame to be written, got %v", sock.lastWritten)
	}
}

func TestOnHelloRejectsSmallBuffer(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)

	herr := mgr.OnHello(c, wire.HelloMessage{ReceiveBufferSize: 100, SendBufferSize: 8192})
	if herr == nil || !herr.IsCode(ErrBufferNegotiationFailed) {
		t.Fatalf("expected ErrBufferNegotiationFailed, got %v", herr)
	}
}

func TestOnHelloRejectsEndpointMismatch(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.EndpointURL = "opc.tcp://localhost:4840"

	herr := mgr.OnHello(c, wire.HelloMessage{
		ReceiveBufferSize: 8192, SendBufferSize: 8192, EndpointURL: "opc.tcp://other:4840",
	})
	if herr == nil || !herr.IsCode(ErrEndpointUrlMismatch) {
		t.Fatalf("expected ErrEndpointUrlMismatch, got %v", herr)
	}
}

func TestOnAckTransitionsToScInit(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateTcpNegotiate

	if err := mgr.OnAck(c, wire.AckMessage{ReceiveBufferSize: 8192, SendBufferSize: 8192, MaxMessageSize: 65536}); err != nil {
		t.Fatalf("OnAck: %v", err)
	}
	if c.State != StateScInit {
		t.Fatalf("state = %v, want SC_INIT", c.State)
	}
}

func TestOpenIssueClientSendsOpnAndTransitions(t *testing.T) {
	mgr, sock := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateScInit

	if err := mgr.OpenIssue(c, chunk.SecurityModeNone, 30*time.Minute, []byte("nonce")); err != nil {
		t.Fatalf("OpenIssue: %v", err)
	}
	if c.State != StateScConnecting {
		t.Fatalf("state = %v, want SC_CONNECTING", c.State)
	}
	if len(sock.lastWritten) < 8 || string(sock.lastWritten[0:3]) != "OPN" {
		t.Fatalf("expected an OPN frame, got %v", sock.lastWritten)
	}
	if c.Chunk.Pending.Len() != 1 {
		t.Fatalf("pending table len = %d, want 1", c.Chunk.Pending.Len())
	}
}

func TestServerOpenIssueInstallsTokenAndReplies(t *testing.T) {
	mgr, sock := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.State = StateScInit

	allowed := uint32(1) << uint32(chunk.SecurityModeNone)
	if err := mgr.OnOpenRequest(c, chunk.SecurityModeNone, 30*time.Minute, []byte("peer-nonce"), allowed); err != nil {
		t.Fatalf("OnOpenRequest: %v", err)
	}
	if c.State != StateScConnected {
		t.Fatalf("state = %v, want SC_CONNECTED", c.State)
	}
	if c.Chunk.SecureChannelId == 0 {
		t.Fatalf("expected a non-zero secureChannelId to be minted")
	}
	tok, _ := c.Chunk.Tokens.Current()
	if !tok.Established() {
		t.Fatalf("expected a current token to be installed")
	}
	if len(sock.lastWritten) < 8 || string(sock.lastWritten[0:3]) != "OPN" {
		t.Fatalf("expected an OPN reply, got %v", sock.lastWritten)
	}
}

func TestServerOpenIssueRejectsDisallowedMode(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.State = StateScInit

	err := mgr.OnOpenRequest(c, chunk.SecurityModeSignAndEncrypt, 30*time.Minute, nil, 1<<uint32(chunk.SecurityModeNone))
	if err == nil || !err.IsCode(ErrSecurityModeNotAllowed) {
		t.Fatalf("expected ErrSecurityModeNotAllowed, got %v", err)
	}
	if c.State != StateScInit {
		t.Fatalf("state should not have advanced on rejection, got %v", c.State)
	}
}

func TestServerOpenRenewRejectsModeMismatch(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.State = StateScConnected
	c.Chunk.OPN.Mode = chunk.SecurityModeSign

	err := mgr.OnOpenRequest(c, chunk.SecurityModeNone, 30*time.Minute, nil, 0)
	if err == nil || !err.IsCode(ErrRenewMismatch) {
		t.Fatalf("expected ErrRenewMismatch, got %v", err)
	}
}

func TestOnOpenResponseClientInstallsToken(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateScConnecting

	if err := mgr.OnOpenResponse(c, 42, 7, 30*time.Minute, []byte("server-nonce")); err != nil {
		t.Fatalf("OnOpenResponse: %v", err)
	}
	if c.State != StateScConnected {
		t.Fatalf("state = %v, want SC_CONNECTED", c.State)
	}
	if c.Chunk.SecureChannelId != 42 {
		t.Fatalf("SecureChannelId = %d, want 42", c.Chunk.SecureChannelId)
	}
}

func TestCloseLocalSendsCloseAndReleases(t *testing.T) {
	mgr, sock := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateScConnected
	idx := c.Index

	mgr.CloseLocal(idx)

	if len(sock.lastWritten) < 8 || string(sock.lastWritten[0:3]) != "CLO" {
		t.Fatalf("expected a CLO frame, got %v", sock.lastWritten)
	}
	if len(sock.closed) != 1 || sock.closed[0] != c.SocketIdx {
		t.Fatalf("expected socket to be closed, got %v", sock.closed)
	}
	if _, err := mgr.Table.Get(idx); err == nil {
		t.Fatalf("expected connection to be released")
	}
}

func TestCheckHalfOpenTimeoutsClosesStale(t *testing.T) {
	mgr, sock := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	idx := c.Index
	c.CreatedAt = time.Now().Add(-1 * time.Hour)

	mgr.CheckHalfOpenTimeouts(time.Now())

	if _, err := mgr.Table.Get(idx); err == nil {
		t.Fatalf("expected stale half-open connection to be released")
	}
	if len(sock.closed) != 1 {
		t.Fatalf("expected the socket to be closed exactly once, got %v", sock.closed)
	}
}

func TestCheckRenewDeadlinesRetiresPrevious(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.State = StateScInit

	if err := mgr.OnOpenRequest(c, chunk.SecurityModeNone, 30*time.Minute, nil, 0); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.serverOpenRenew(c, chunk.SecurityModeNone, time.Minute, nil); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if _, _, ok := c.Chunk.Tokens.Previous(); !ok {
		t.Fatalf("expected a previous token to be on file after renew")
	}

	mgr.CheckRenewDeadlines(time.Now().Add(2 * time.Minute))

	if _, _, ok := c.Chunk.Tokens.Previous(); ok {
		t.Fatalf("expected the previous token to be retired once its deadline elapsed")
	}
}

func TestServerOpenIssueNotifiesServicesConnected(t *testing.T) {
	mgr, _, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.State = StateScInit

	allowed := uint32(1) << uint32(chunk.SecurityModeNone)
	if err := mgr.OnOpenRequest(c, chunk.SecurityModeNone, 30*time.Minute, []byte("peer-nonce"), allowed); err != nil {
		t.Fatalf("OnOpenRequest: %v", err)
	}
	if len(svc.connected) != 1 || svc.connected[0] != c.Index {
		t.Fatalf("expected OnSecureChannelConnected(%d), got %v", c.Index, svc.connected)
	}
}

func TestOnOpenResponseNotifiesServicesConnected(t *testing.T) {
	mgr, _, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateScConnecting

	if err := mgr.OnOpenResponse(c, 42, 7, 30*time.Minute, []byte("server-nonce")); err != nil {
		t.Fatalf("OnOpenResponse: %v", err)
	}
	if len(svc.connected) != 1 || svc.connected[0] != c.Index {
		t.Fatalf("expected OnSecureChannelConnected(%d), got %v", c.Index, svc.connected)
	}
}

func TestOpenResponseRenewDoesNotRenotifyConnected(t *testing.T) {
	mgr, _, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateScConnectedRenew
	c.Chunk.SecureChannelId = 42

	if err := mgr.OnOpenResponse(c, 42, 7, 30*time.Minute, []byte("server-nonce")); err != nil {
		t.Fatalf("OnOpenResponse: %v", err)
	}
	if len(svc.connected) != 0 {
		t.Fatalf("renew should not re-post SC_CONNECTED, got %v", svc.connected)
	}
}

func TestCloseLocalNotifiesServicesDisconnected(t *testing.T) {
	mgr, _, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleClient, 0, 8192, 8192, 0)
	c.State = StateScConnected
	idx := c.Index

	mgr.CloseLocal(idx)

	if len(svc.disconnected) != 1 || svc.disconnected[0] != idx {
		t.Fatalf("expected OnSecureChannelDisconnected(%d), got %v", idx, svc.disconnected)
	}
	if svc.reasons[0] != "closed locally" {
		t.Fatalf("reason = %q, want %q", svc.reasons[0], "closed locally")
	}
}

func TestCheckHalfOpenTimeoutsNotifiesServicesTimeout(t *testing.T) {
	mgr, _, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	idx := c.Index
	c.CreatedAt = time.Now().Add(-1 * time.Hour)

	mgr.CheckHalfOpenTimeouts(time.Now())

	if len(svc.timedOut) != 1 || svc.timedOut[0] != idx {
		t.Fatalf("expected OnSecureChannelTimeout(%d), got %v", idx, svc.timedOut)
	}
	if len(svc.disconnected) != 0 {
		t.Fatalf("half-open timeout should not also post SC_DISCONNECTED, got %v", svc.disconnected)
	}
}

func TestCloseServerSideReportsEndpointClosedReason(t *testing.T) {
	mgr, sock, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.State = StateScConnected
	idx := c.Index

	mgr.CloseServerSide(idx)

	if len(sock.lastWritten) < 8 || string(sock.lastWritten[0:3]) != "CLO" {
		t.Fatalf("expected a CLO frame, got %v", sock.lastWritten)
	}
	if len(svc.reasons) != 1 || svc.reasons[0] != "endpoint closed" {
		t.Fatalf("reason = %v, want [\"endpoint closed\"]", svc.reasons)
	}
}
