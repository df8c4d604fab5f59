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

package event

import (
	"sync"

	"github.com/nabbar/opcua-core/logger"
)

// Event is one FIFO entry: a kind, the entity it concerns (a connection
// index, an endpoint-config index, or similar), an opaque payload, and a
// 32-bit aux word (often a request-id, a status code, or an index) -
// spec §4.6.
type Event struct {
	Kind     Kind
	EntityID uint32
	Payload  interface{}
	Aux      uint32
}

// Handler processes one Event. Handlers run to completion before the
// dispatcher picks up the next event; they must not block, and may freely
// enqueue further events via the Dispatcher passed at registration time
// (spec §5 "Scheduling model").
type Handler func(Event)

// Dispatcher is the single-threaded FIFO of tagged events described in
// spec §4.6. It is safe to call PushBack/PushFront from other goroutines
// (e.g. a socket or crypto collaborator running its own I/O threads, per
// spec §5's "multi-producer, single-consumer queue"); Run itself must be
// driven by exactly one goroutine.
type Dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	handler Handler
	log     logger.Logger
	closed  bool
}

// New returns a Dispatcher that calls handler for every dequeued event.
// A nil log is replaced with logger.NewNop().
func New(handler Handler, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	d := &Dispatcher{handler: handler, log: log}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// PushBack appends an ordinary event to the tail of the queue (spec §4.6
// "Ordinary producers append to the tail").
func (d *Dispatcher) PushBack(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, e)
	d.cond.Signal()
}

// PushFront inserts e at the head of the queue, for the privileged
// SND_ERR/SND_CLO kinds (spec §4.6). Pushing a non-priority kind through
// PushFront is still honored - the dispatcher does not second-guess the
// caller - but callers should prefer PushBack for everything else.
func (d *Dispatcher) PushFront(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append([]Event{e}, d.queue...)
	d.cond.Signal()
}

// Push routes e to the head or tail automatically based on e.Kind.IsPriority().
func (d *Dispatcher) Push(e Event) {
	if e.Kind.IsPriority() {
		d.PushFront(e)
	} else {
		d.PushBack(e)
	}
}

// Run drains the queue, calling the registered handler for each event in
// order, blocking when the queue is empty until an event arrives or Stop
// is called. It returns when Stop is called and the queue is empty.
func (d *Dispatcher) Run() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		e := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.log.Debug("dispatching event", "kind", e.Kind.String(), "entity", e.EntityID, "aux", e.Aux)
		d.handler(e)
	}
}

// Stop signals Run to return once the queue drains. Already-queued events
// are still delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cond.Broadcast()
}

// Len reports the number of events currently queued.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
