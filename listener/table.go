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

	"golang.org/x/sync/semaphore"

	"github.com/nabbar/opcua-core/errors"
)

// Endpoint is one open listener: the listening socket index, the
// semaphore bounding concurrent children to the endpoint's configured
// slot capacity, and the set of currently accepted connection indices
// (spec §4.5 "fixed-capacity slot table of active child connections").
type Endpoint struct {
	EndpointCfgIdx uint32
	SocketIdx      uint32
	Capacity       uint32

	mu       sync.Mutex
	sem      *semaphore.Weighted
	children map[uint32]struct{}
}

func newEndpoint(endpointCfgIdx, socketIdx, capacity uint32) *Endpoint {
	return &Endpoint{
		EndpointCfgIdx: endpointCfgIdx,
		SocketIdx:      socketIdx,
		Capacity:       capacity,
		sem:            semaphore.NewWeighted(int64(capacity)),
		children:       make(map[uint32]struct{}),
	}
}

// addChild reserves a slot for connIdx, failing with ErrEndpointAtCapacity
// if every slot is already taken (spec §4.5).
func (e *Endpoint) addChild(connIdx uint32) errors.Error {
	if !e.sem.TryAcquire(1) {
		return ErrEndpointAtCapacity.Error()
	}
	e.mu.Lock()
	e.children[connIdx] = struct{}{}
	e.mu.Unlock()
	return nil
}

// removeChild releases connIdx's slot. A no-op if connIdx was never a
// child, so a duplicate disconnect notification is harmless.
func (e *Endpoint) removeChild(connIdx uint32) {
	e.mu.Lock()
	_, had := e.children[connIdx]
	if had {
		delete(e.children, connIdx)
	}
	e.mu.Unlock()
	if had {
		e.sem.Release(1)
	}
}

// snapshotChildren returns a snapshot of currently accepted connection indices.
func (e *Endpoint) snapshotChildren() []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]uint32, 0, len(e.children))
	for idx := range e.children {
		out = append(out, idx)
	}
	return out
}
