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

package event_test

import (
	"sync"

	"github.com/nabbar/opcua-core/event"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Dispatcher", func() {
	It("delivers ordinary events in FIFO order", func() {
		var mu sync.Mutex
		var seen []uint32

		d := event.New(func(e event.Event) {
			mu.Lock()
			seen = append(seen, e.EntityID)
			mu.Unlock()
		}, nil)

		go d.Run()

		d.PushBack(event.Event{Kind: event.KindChunkReceived, EntityID: 1})
		d.PushBack(event.Event{Kind: event.KindChunkReceived, EntityID: 2})
		d.PushBack(event.Event{Kind: event.KindChunkReceived, EntityID: 3})

		Eventually(func() []uint32 {
			mu.Lock()
			defer mu.Unlock()
			return append([]uint32(nil), seen...)
		}).Should(Equal([]uint32{1, 2, 3}))

		d.Stop()
	})

	It("delivers SND_ERR ahead of an already-queued ordinary event", func() {
		var mu sync.Mutex
		var seen []event.Kind

		d := event.New(func(e event.Event) {
			mu.Lock()
			seen = append(seen, e.Kind)
			mu.Unlock()
		}, nil)

		// Queue an ordinary event first without starting Run, then a
		// priority one, to exercise head-insertion deterministically.
		d.PushBack(event.Event{Kind: event.KindConnectionClose, EntityID: 1})
		d.Push(event.Event{Kind: event.KindSendError, EntityID: 1})

		go d.Run()

		Eventually(func() []event.Kind {
			mu.Lock()
			defer mu.Unlock()
			return append([]event.Kind(nil), seen...)
		}).Should(Equal([]event.Kind{event.KindSendError, event.KindConnectionClose}))

		d.Stop()
	})

	It("drains queued events before Run returns on Stop", func() {
		var count int
		var mu sync.Mutex

		d := event.New(func(event.Event) {
			mu.Lock()
			count++
			mu.Unlock()
		}, nil)

		for i := 0; i < 5; i++ {
			d.PushBack(event.Event{Kind: event.KindChunkSent, EntityID: uint32(i)})
		}

		done := make(chan struct{})
		go func() {
			d.Run()
			close(done)
		}()

		d.Stop()
		Eventually(done).Should(BeClosed())

		mu.Lock()
		defer mu.Unlock()
		Expect(count).To(Equal(5))
	})
})
