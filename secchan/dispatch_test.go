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
	"fmt"
	"testing"

	"github.com/nabbar/opcua-core/buffer"
	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/errors"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/statuscode"
	"github.com/nabbar/opcua-core/wire"
)

func TestStatusCodeForMapsKnownSecchanErrors(t *testing.T) {
	cases := []struct {
		err  errors.Error
		want statuscode.Code
	}{
		{ErrEndpointUrlMismatch.Error(), statuscode.BadTcpEndpointUrlInvalid},
		{ErrBufferNegotiationFailed.Error(), statuscode.BadTcpNotEnoughResources},
		{ErrSecurityModeNotAllowed.Error(), statuscode.BadSecurityModeRejected},
		{ErrRenewMismatch.Error(), statuscode.BadSecurityChecksFailed},
		{ErrTokenGenerationFailed.Error(), statuscode.BadTcpInternalError},
	}
	for _, c := range cases {
		if got := statusCodeFor(c.err); got != c.want {
			t.Fatalf("statusCodeFor(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestStatusCodeForFallsBackToDecodingErrorForUnmappedCodes(t *testing.T) {
	wireErr := wire.ErrShortBuffer.Error()
	if got := statusCodeFor(wireErr); got != statuscode.BadDecodingError {
		t.Fatalf("statusCodeFor(wire decode error) = %v, want BadDecodingError", got)
	}
}

func TestStatusCodeForFallsBackToDecodingErrorForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("not an errors.Error at all")
	if got := statusCodeFor(plain); got != statuscode.BadDecodingError {
		t.Fatalf("statusCodeFor(plain error) = %v, want BadDecodingError", got)
	}
}

func TestOnHelloRejectsEndpointMismatchWithProperStatusCode(t *testing.T) {
	mgr, sock := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)
	c.EndpointURL = "opc.tcp://here/"

	mgr.onChunkReceived(event.Event{
		EntityID: c.Index,
		Payload: &chunk.ReceivedMessage{
			Type: wire.MessageTypeHello,
			Body: buffer.Attach(encodeHello(wire.HelloMessage{
				ReceiveBufferSize: 8192,
				SendBufferSize:    8192,
				EndpointURL:       "opc.tcp://other/",
			})),
		},
	})

	if len(sock.lastWritten) < 8 || string(sock.lastWritten[0:3]) != "ERR" {
		t.Fatalf("expected an ERR frame, got %v", sock.lastWritten)
	}
}

func TestHandleServiceForwardsBodyToServices(t *testing.T) {
	mgr, _, svc := newTestManagerWithServices(nil)
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)

	payload := []byte("service-layer-body")
	body := buffer.Attach(append([]byte{}, payload...))

	mgr.handleService(c, &chunk.ReceivedMessage{
		Type:      wire.MessageTypeSecure,
		RequestId: 99,
		Body:      body,
	})

	if len(svc.received) != 1 || svc.received[0] != c.Index {
		t.Fatalf("expected OnServiceReceiveMessage(%d), got %v", c.Index, svc.received)
	}
	if string(svc.bodies[0]) != string(payload) {
		t.Fatalf("forwarded body = %q, want %q", svc.bodies[0], payload)
	}
	if svc.requestIDs[0] != 99 {
		t.Fatalf("requestID = %d, want 99", svc.requestIDs[0])
	}
}

func TestHandleServiceNoopWithoutServices(t *testing.T) {
	mgr, _ := newTestManager()
	c, _ := mgr.Table.Create(chunk.RoleServer, 0, 8192, 8192, 0)

	// Must not panic when no Services collaborator is wired.
	mgr.handleService(c, &chunk.ReceivedMessage{
		Type: wire.MessageTypeSecure,
		Body: buffer.Attach([]byte("ignored")),
	})
}
