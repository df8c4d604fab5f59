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
	"sync"
	"time"

	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
)

// State is one node of the Secure Connection State Machine (spec §4.2).
type State uint8

const (
	StateTcpInit State = iota
	StateTcpNegotiate
	StateScInit
	StateScConnecting
	StateScConnected
	StateScConnectedRenew
	StateScClosed
)

func (s State) String() string {
	switch s {
	case StateTcpInit:
		return "TCP_INIT"
	case StateTcpNegotiate:
		return "TCP_NEGOTIATE"
	case StateScInit:
		return "SC_INIT"
	case StateScConnecting:
		return "SC_CONNECTING"
	case StateScConnected:
		return "SC_CONNECTED"
	case StateScConnectedRenew:
		return "SC_CONNECTED_RENEW"
	case StateScClosed:
		return "SC_CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Connection is the per-connection record (spec §3 "Secure Connection"):
// the chunk-level Context plus the fields this layer owns - state,
// socket identifier, role, the owning endpoint/channel config index, and
// the pending-renew bookkeeping.
type Connection struct {
	Index uint32

	State State
	Chunk *chunk.Context

	SocketIdx uint32

	// ConfigIdx is the endpoint-config index (server) or channel-config
	// index (client) this connection was created from.
	ConfigIdx uint32

	EndpointURL string

	// CreatedAt backs the half-open TCP_INIT timeout (SPEC_FULL §C.5).
	CreatedAt time.Time

	// RenewDeadline is when the retired-but-not-yet-expired previous
	// token must be dropped unconditionally (SPEC_FULL §C.6), zero when
	// no renew is outstanding.
	RenewDeadline time.Time
}

// Table is the fixed-capacity, dense-index connection table (spec §3
// "its identity is a dense integer index into a fixed-capacity table").
// Freed slots are recycled via a free list rather than shifting indices,
// so an index handed out to a collaborator (a socket, a timer) stays
// valid for that connection's entire lifetime.
type Table struct {
	mu    sync.Mutex
	slots []*Connection
	free  []uint32
}

// NewTable returns an empty table that will grow to at most capacity
// live connections before Create starts failing with ErrTableFull.
func NewTable(capacity uint32) *Table {
	return &Table{slots: make([]*Connection, 0, capacity)}
}

// Create allocates a new Connection at the next free index, or appends a
// new slot if none are free and the table has not reached its capacity.
func (t *Table) Create(role chunk.Role, configIdx uint32, receiveBufferSize, sendBufferSize, maxMessageSize uint32) (*Connection, errors.Error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := &Connection{
		State:     StateTcpInit,
		Chunk:     chunk.NewContext(role, receiveBufferSize, sendBufferSize, maxMessageSize),
		ConfigIdx: configIdx,
		CreatedAt: time.Now(),
	}

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		c.Index = idx
		t.slots[idx] = c
		return c, nil
	}

	if cap(t.slots) > 0 && len(t.slots) >= cap(t.slots) {
		return nil, ErrTableFull.Error()
	}
	c.Index = uint32(len(t.slots))
	t.slots = append(t.slots, c)
	return c, nil
}

// Get returns the connection at idx.
func (t *Table) Get(idx uint32) (*Connection, errors.Error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx >= uint32(len(t.slots)) || t.slots[idx] == nil {
		return nil, ErrUnknownConnection.Error()
	}
	return t.slots[idx], nil
}

// Release frees idx for reuse by a future Create call (spec §3
// "destroyed on any terminal transition").
func (t *Table) Release(idx uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx >= uint32(len(t.slots)) || t.slots[idx] == nil {
		return
	}
	t.slots[idx] = nil
	t.free = append(t.free, idx)
}

// Len reports the number of live connections.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Each calls fn for every live connection, in index order. fn must not
// call back into Table.
func (t *Table) Each(fn func(*Connection)) {
	t.mu.Lock()
	snapshot := append([]*Connection(nil), t.slots...)
	t.mu.Unlock()
	for _, c := range snapshot {
		if c != nil {
			fn(c)
		}
	}
}
