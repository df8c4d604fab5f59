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

package request

import (
	"sync"

	"github.com/nabbar/opcua-core/errors"
)

// Kind tags the response a pending client request expects.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindOpen
	KindClose
	KindService
)

// entry is one pending-request-table row, kept in FIFO order for
// debugging (spec §3 "Pending Request (client)").
type entry struct {
	requestID uint32
	kind      Kind
}

// PendingTable is the client-side request-id bookkeeper: it hands out
// fresh request-ids, records the response kind expected for each, and
// enforces the bijection invariant - no two pending entries share a
// request-id, every resolved response has exactly one matching entry
// (spec §8 "Client request-ids form a bijection...").
type PendingTable struct {
	mu      sync.Mutex
	lastID  uint32
	hasID   bool
	order   []uint32
	entries map[uint32]Kind
}

// NewPendingTable returns an empty pending-request table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[uint32]Kind)}
}

// NextRequestId computes the next client request-id: (lastReqId+1) mod
// UINT32_MAX, wrapping from 0 to 1 (spec §4.2 "Request-id"). It does not
// register the id in the table - call Register with the chosen Kind once
// the request is actually stamped and sent.
func (p *PendingTable) NextRequestId() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasID {
		p.lastID = 1
		p.hasID = true
		return p.lastID
	}
	if p.lastID >= 0xFFFFFFFE {
		p.lastID = 1
	} else {
		p.lastID++
	}
	return p.lastID
}

// Register records a pending entry for requestID, expecting a response of
// kind. It fails if requestID already has a pending entry.
func (p *PendingTable) Register(requestID uint32, kind Kind) errors.Error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.entries[requestID]; exists {
		return ErrDuplicateRequestId.Error()
	}
	p.entries[requestID] = kind
	p.order = append(p.order, requestID)
	return nil
}

// Resolve removes the pending entry for requestID and checks that gotKind
// matches what was recorded. A connection-level security-check failure is
// the caller's responsibility on mismatch (spec §4.2 "On receiving a
// response... its recorded kind must match the received kind - otherwise
// the connection fails with a security-check failure").
func (p *PendingTable) Resolve(requestID uint32, gotKind Kind) errors.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	want, exists := p.entries[requestID]
	if !exists {
		return ErrUnknownRequestId.Error()
	}
	delete(p.entries, requestID)
	p.removeFromOrder(requestID)

	if want != gotKind {
		return ErrResponseKindMismatch.Error()
	}
	return nil
}

// Cancel drops a pending entry without checking its kind - used when an
// in-flight request is abandoned by a transition to SC_CLOSED (spec §4.7
// "Cancellation and timeouts").
func (p *PendingTable) Cancel(requestID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, requestID)
	p.removeFromOrder(requestID)
}

func (p *PendingTable) removeFromOrder(requestID uint32) {
	for i, id := range p.order {
		if id == requestID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

// Len reports the number of outstanding pending requests.
func (p *PendingTable) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Oldest returns the request-id at the head of the FIFO, in insertion
// order, and whether the table is non-empty.
func (p *PendingTable) Oldest() (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return 0, false
	}
	return p.order[0], true
}
