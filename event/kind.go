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

// Kind tags the semantics of an Event (spec §4.6; taxonomy illustrative,
// not exhaustive).
type Kind uint16

const (
	KindUnknown Kind = iota

	// Externally-originated.
	KindSocketRcvBytes
	KindSocketFailure
	KindListenerOpened
	KindListenerConnection
	KindListenerFailure
	KindServicesOpenEndpoint
	KindServicesCloseEndpoint
	KindServicesConnect
	KindServicesDisconnect
	KindServicesSendMessage

	// Internally-originated.
	KindConnectionCreate
	KindConnectionCreated
	KindConnectionClose
	KindChunkReceived
	KindChunkSent
	KindReceiveFailure
	KindSendFailure
	KindTimerFired

	// Privileged, head-inserted kinds (spec §4.6, §5).
	KindSendError // SND_ERR: server closing on protocol violation
	KindSendClose // SND_CLO: client closing voluntarily
)

// IsPriority reports whether k must be inserted at the head of the queue
// rather than appended to the tail (spec §4.6).
func (k Kind) IsPriority() bool {
	return k == KindSendError || k == KindSendClose
}

func (k Kind) String() string {
	switch k {
	case KindSocketRcvBytes:
		return "SOCKET_RCV_BYTES"
	case KindSocketFailure:
		return "SOCKET_FAILURE"
	case KindListenerOpened:
		return "LISTENER_OPENED"
	case KindListenerConnection:
		return "LISTENER_CONNECTION"
	case KindListenerFailure:
		return "LISTENER_FAILURE"
	case KindServicesOpenEndpoint:
		return "EP_OPEN"
	case KindServicesCloseEndpoint:
		return "EP_CLOSE"
	case KindServicesConnect:
		return "SC_CONNECT"
	case KindServicesDisconnect:
		return "SC_DISCONNECT"
	case KindServicesSendMessage:
		return "SC_SERVICE_SND_MSG"
	case KindConnectionCreate:
		return "CONNECTION_CREATE"
	case KindConnectionCreated:
		return "CONNECTION_CREATED"
	case KindConnectionClose:
		return "CLOSE"
	case KindChunkReceived:
		return "CHUNK_RECEIVED"
	case KindChunkSent:
		return "CHUNK_SENT"
	case KindReceiveFailure:
		return "RECEIVE_FAILURE"
	case KindSendFailure:
		return "SEND_FAILURE"
	case KindTimerFired:
		return "TIMER_FIRED"
	case KindSendError:
		return "SND_ERR"
	case KindSendClose:
		return "SND_CLO"
	default:
		return "UNKNOWN"
	}
}
