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
	"sync"

	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/logger"
	"github.com/nabbar/opcua-core/secchan"
)

// defaultSlotCapacity bounds concurrent accepted connections per endpoint;
// every endpoint gets this capacity, as EndpointConfig carries no
// per-endpoint override (SPEC_FULL §B "x/sync semaphore bounds concurrent
// accepted connections per endpoint").
const defaultSlotCapacity = 64

// Manager is the Listener Manager (spec §4.5). One Manager serves every
// endpoint a server process listens on.
type Manager struct {
	Socket facade.Socket
	Config facade.ConfigStore
	SC     *secchan.Manager

	disp *event.Dispatcher
	log  logger.Logger

	mu        sync.Mutex
	endpoints map[uint32]*Endpoint
}

// NewManager wires a Manager; log may be nil.
func NewManager(socket facade.Socket, cfg facade.ConfigStore, sc *secchan.Manager, disp *event.Dispatcher, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		Socket:    socket,
		Config:    cfg,
		SC:        sc,
		disp:      disp,
		log:       log,
		endpoints: make(map[uint32]*Endpoint),
	}
}

// OpenListener asks the Socket collaborator to start listening for
// endpointCfgIdx. Completion is reported asynchronously, via
// KindListenerOpened on success or KindListenerFailure on failure (spec
// §4.5 "acknowledged asynchronously via LISTENER_OPENED").
func (m *Manager) OpenListener(endpointCfgIdx uint32) errors.Error {
	m.mu.Lock()
	_, exists := m.endpoints[endpointCfgIdx]
	m.mu.Unlock()
	if exists {
		return ErrEndpointAlreadyOpen.Error()
	}

	cfg, err := m.Config.EndpointConfig(endpointCfgIdx)
	if err != nil {
		return err
	}
	return m.Socket.CreateServer(endpointCfgIdx, cfg.EndpointURL, true)
}

// onListenerOpened records the now-open listener's socket and capacity
// (spec §4.5's "LISTENER_OPENED" acknowledgement).
func (m *Manager) onListenerOpened(endpointCfgIdx, socketIdx uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.endpoints[endpointCfgIdx]; exists {
		return
	}
	m.endpoints[endpointCfgIdx] = newEndpoint(endpointCfgIdx, socketIdx, defaultSlotCapacity)
	m.log.Info("listener opened", "endpoint", endpointCfgIdx, "socket", socketIdx)
}

// onListenerFailure reports an open failure to Services as EP_CLOSED
// (spec §4.5); no Endpoint record is created.
func (m *Manager) onListenerFailure(endpointCfgIdx uint32) {
	m.log.Warning("listener open failed", "endpoint", endpointCfgIdx)
	if m.SC != nil && m.SC.Services != nil {
		m.SC.Services.OnEndpointClosed(endpointCfgIdx)
	}
	m.disp.PushBack(event.Event{Kind: event.KindListenerFailure, EntityID: endpointCfgIdx})
}

// CloseListener iterates every child connection of endpointCfgIdx,
// posting an orderly close to each (spec §4.5 "posting EP_SC_CLOSE to
// each child"), then closes the listening socket itself.
func (m *Manager) CloseListener(endpointCfgIdx uint32) errors.Error {
	m.mu.Lock()
	ep, exists := m.endpoints[endpointCfgIdx]
	if exists {
		delete(m.endpoints, endpointCfgIdx)
	}
	m.mu.Unlock()
	if !exists {
		return ErrUnknownEndpoint.Error()
	}

	for _, idx := range ep.snapshotChildren() {
		m.SC.CloseServerSide(idx)
	}
	return m.Socket.Close(ep.SocketIdx)
}

// onAccepted is the server-side socket-accept callback: reserve a slot on
// the endpoint, hand the new socket to the Secure Connection State
// Machine, and return the resulting connection index (spec §4.5
// `onAccepted(endpointCfg, newSocketId) -> newConnectionIndex`).
func (m *Manager) onAccepted(endpointCfgIdx, newSocketIdx uint32) (uint32, errors.Error) {
	m.mu.Lock()
	ep, exists := m.endpoints[endpointCfgIdx]
	m.mu.Unlock()
	if !exists {
		return 0, ErrUnknownEndpoint.Error()
	}

	connIdx, err := m.SC.OnAccepted(endpointCfgIdx, newSocketIdx)
	if err != nil {
		return 0, err
	}
	if err := ep.addChild(connIdx); err != nil {
		m.SC.OnSocketFailure(connIdx)
		return 0, err
	}
	return connIdx, nil
}

// OnChildDisconnected releases connIdx's slot on endpointCfgIdx (spec
// §4.5 `onChildDisconnected(endpointCfg, connectionIndex)`).
func (m *Manager) OnChildDisconnected(endpointCfgIdx, connIdx uint32) {
	m.mu.Lock()
	ep, exists := m.endpoints[endpointCfgIdx]
	m.mu.Unlock()
	if !exists {
		return
	}
	ep.removeChild(connIdx)
}

// Dispatch is this Manager's share of the top-level event.Handler,
// composed alongside chunk.Manager's and secchan.Manager's (spec §4.6).
func (m *Manager) Dispatch(e event.Event) bool {
	switch e.Kind {
	case event.KindListenerOpened:
		m.onListenerOpened(e.EntityID, e.Aux)
		return true
	case event.KindListenerFailure:
		m.onListenerFailure(e.EntityID)
		return true
	case event.KindListenerConnection:
		connIdx, err := m.onAccepted(e.EntityID, e.Aux)
		if err != nil {
			m.log.Warning("listener accept failed", "endpoint", e.EntityID, "error", err.Error())
			return true
		}
		m.disp.PushBack(event.Event{Kind: event.KindConnectionCreated, EntityID: connIdx})
		return true
	case event.KindConnectionClose:
		m.OnChildDisconnected(e.EntityID, e.Aux)
		return true
	default:
		return false
	}
}
