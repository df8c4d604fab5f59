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

package listener

import (
	"testing"

	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/secchan"
)

type fakeSocket struct {
	servers []uint32
	closed  []uint32
}

func (f *fakeSocket) CreateClient(connectionIdx uint32, url string) errors.Error { return nil }
func (f *fakeSocket) CreateServer(endpointCfgIdx uint32, url string, listenAll bool) errors.Error {
	f.servers = append(f.servers, endpointCfgIdx)
	return nil
}
func (f *fakeSocket) Write(socketIdx uint32, buf []byte) errors.Error { return nil }
func (f *fakeSocket) Close(socketIdx uint32) errors.Error {
	f.closed = append(f.closed, socketIdx)
	return nil
}
func (f *fakeSocket) AcceptedConnection(socketIdx, newConnectionIdx uint32) errors.Error { return nil }

type fakeConfigStore struct {
	endpoint facade.EndpointConfig
}

func (f *fakeConfigStore) ChannelConfig(idx uint32) (facade.ChannelConfig, errors.Error) {
	return facade.ChannelConfig{}, nil
}
func (f *fakeConfigStore) EndpointConfig(idx uint32) (facade.EndpointConfig, errors.Error) {
	return f.endpoint, nil
}

func noCrypto(string) (facade.CryptoProvider, errors.Error) {
	return nil, errors.Newf(errors.UnknownError, "no crypto configured in this test")
}

func newTestManager() (*Manager, *fakeSocket) {
	sock := &fakeSocket{}
	disp := event.New(func(event.Event) {}, nil)
	chunks := chunk.NewManager(noCrypto, disp, nil, nil)
	cfg := &fakeConfigStore{endpoint: facade.EndpointConfig{EndpointURL: "opc.tcp://localhost:4840"}}
	sc := secchan.NewManager(16, chunks, sock, cfg, disp, nil, nil, nil)
	return NewManager(sock, cfg, sc, disp, nil), sock
}

func TestOpenListenerCreatesServerSocket(t *testing.T) {
	mgr, sock := newTestManager()
	if err := mgr.OpenListener(5); err != nil {
		t.Fatalf("OpenListener: %v", err)
	}
	if len(sock.servers) != 1 || sock.servers[0] != 5 {
		t.Fatalf("expected CreateServer(5), got %v", sock.servers)
	}
}

func TestOpenListenerRejectsDuplicate(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.onListenerOpened(5, 100)
	if err := mgr.OpenListener(5); err == nil || !err.IsCode(ErrEndpointAlreadyOpen) {
		t.Fatalf("expected ErrEndpointAlreadyOpen, got %v", err)
	}
}

func TestOnAcceptedReservesSlotAndCreatesConnection(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.onListenerOpened(5, 100)

	connIdx, err := mgr.onAccepted(5, 200)
	if err != nil {
		t.Fatalf("onAccepted: %v", err)
	}
	ep := mgr.endpoints[5]
	if len(ep.snapshotChildren()) != 1 || ep.snapshotChildren()[0] != connIdx {
		t.Fatalf("expected connIdx %d tracked as a child, got %v", connIdx, ep.snapshotChildren())
	}
}

func TestOnAcceptedRejectsAtCapacity(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.onListenerOpened(5, 100)
	mgr.endpoints[5] = newEndpoint(5, 100, 1)

	if _, err := mgr.onAccepted(5, 200); err != nil {
		t.Fatalf("first accept should succeed: %v", err)
	}
	if _, err := mgr.onAccepted(5, 201); err == nil || !err.IsCode(ErrEndpointAtCapacity) {
		t.Fatalf("expected ErrEndpointAtCapacity on the second accept, got %v", err)
	}
}

func TestOnChildDisconnectedFreesSlot(t *testing.T) {
	mgr, _ := newTestManager()
	mgr.onListenerOpened(5, 100)
	mgr.endpoints[5] = newEndpoint(5, 100, 1)

	connIdx, err := mgr.onAccepted(5, 200)
	if err != nil {
		t.Fatalf("onAccepted: %v", err)
	}
	mgr.OnChildDisconnected(5, connIdx)

	if _, err := mgr.onAccepted(5, 201); err != nil {
		t.Fatalf("expected the freed slot to be reusable, got %v", err)
	}
}

func TestCloseListenerClosesChildrenThenSocket(t *testing.T) {
	mgr, sock := newTestManager()
	mgr.onListenerOpened(5, 100)

	connIdx, err := mgr.onAccepted(5, 200)
	if err != nil {
		t.Fatalf("onAccepted: %v", err)
	}

	if err := mgr.CloseListener(5); err != nil {
		t.Fatalf("CloseListener: %v", err)
	}
	if _, err := mgr.SC.Table.Get(connIdx); err == nil {
		t.Fatalf("expected the child connection to be released")
	}
	found := false
	for _, s := range sock.closed {
		if s == 100 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the listening socket 100 to be closed, got %v", sock.closed)
	}
	if err := mgr.CloseListener(5); err == nil || !err.IsCode(ErrUnknownEndpoint) {
		t.Fatalf("expected ErrUnknownEndpoint on a second close, got %v", err)
	}
}
