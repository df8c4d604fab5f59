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

package chunk_test

import (
	"sync"

	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/facade"
	"github.com/nabbar/opcua-core/wire"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func noCrypto(string) (facade.CryptoProvider, errors.Error) {
	return nil, errors.Newf(errors.UnknownError, "no crypto configured in this test")
}

var _ = Describe("Manager.OnBytes", func() {
	var disp *event.Dispatcher
	var received []event.Event
	var mu sync.Mutex

	BeforeEach(func() {
		received = nil
		disp = event.New(func(e event.Event) {
			mu.Lock()
			received = append(received, e)
			mu.Unlock()
		}, nil)
		go disp.Run()
	})

	AfterEach(func() {
		disp.Stop()
	})

	It("decodes a bare HEL chunk delivered in one shot", func() {
		mgr := chunk.NewManager(noCrypto, disp, nil, nil)
		ctx := chunk.NewContext(chunk.RoleServer, 8192, 8192, 0)

		hello := wire.HelloMessage{
			ProtocolVersion:   0,
			ReceiveBufferSize: 8192,
			SendBufferSize:    8192,
			MaxMessageSize:    65536,
			MaxChunkCount:     1,
			EndpointURL:       "opc.tcp://localhost:4840",
		}

		body := encodeHello(hello)
		frame := append([]byte{}, 'H', 'E', 'L', 'F')
		frame = append(frame, le32(uint32(8+len(body)))...)
		frame = append(frame, body...)

		mgr.OnBytes(1, ctx, frame)

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(received)
		}).Should(Equal(1))

		mu.Lock()
		defer mu.Unlock()
		Expect(received[0].Kind).To(Equal(event.KindChunkReceived))
		Expect(received[0].EntityID).To(Equal(uint32(1)))
	})

	It("decodes a HEL chunk delivered split across two deliveries", func() {
		mgr := chunk.NewManager(noCrypto, disp, nil, nil)
		ctx := chunk.NewContext(chunk.RoleServer, 8192, 8192, 0)

		hello := wire.HelloMessage{ProtocolVersion: 0, ReceiveBufferSize: 8192, SendBufferSize: 8192, MaxMessageSize: 65536, MaxChunkCount: 1, EndpointURL: "opc.tcp://x"}
		body := encodeHello(hello)
		frame := append([]byte{}, 'H', 'E', 'L', 'F')
		frame = append(frame, le32(uint32(8+len(body)))...)
		frame = append(frame, body...)

		mgr.OnBytes(1, ctx, frame[:5])
		mgr.OnBytes(1, ctx, frame[5:])

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(received)
		}).Should(Equal(1))
	})

	It("reports a priority failure event for an unknown message type", func() {
		mgr := chunk.NewManager(noCrypto, disp, nil, nil)
		ctx := chunk.NewContext(chunk.RoleServer, 8192, 8192, 0)

		frame := append([]byte{}, 'X', 'X', 'X', 'F')
		frame = append(frame, le32(8)...)

		mgr.OnBytes(2, ctx, frame)

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(received)
		}).Should(Equal(1))

		mu.Lock()
		defer mu.Unlock()
		Expect(received[0].Kind).To(Equal(event.KindReceiveFailure))
	})

	It("rejects a non-final chunk indicator as a protocol error", func() {
		mgr := chunk.NewManager(noCrypto, disp, nil, nil)
		ctx := chunk.NewContext(chunk.RoleServer, 8192, 8192, 0)

		frame := append([]byte{}, 'H', 'E', 'L', 'C')
		frame = append(frame, le32(8)...)

		mgr.OnBytes(3, ctx, frame)

		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			return len(received)
		}).Should(Equal(1))

		mu.Lock()
		defer mu.Unlock()
		Expect(received[0].Kind).To(Equal(event.KindReceiveFailure))
	})
})

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func encodeHello(m wire.HelloMessage) []byte {
	out := make([]byte, 0, 64)
	out = append(out, le32(m.ProtocolVersion)...)
	out = append(out, le32(m.ReceiveBufferSize)...)
	out = append(out, le32(m.SendBufferSize)...)
	out = append(out, le32(m.MaxMessageSize)...)
	out = append(out, le32(m.MaxChunkCount)...)
	out = append(out, le32(uint32(len(m.EndpointURL)))...)
	out = append(out, []byte(m.EndpointURL)...)
	return out
}
