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

package facade

import "github.com/nabbar/opcua-core/errors"

// Socket is the transport collaborator. The core calls into it to open
// outbound/listening sockets, write framed bytes, and close a connection;
// it must deliver events back through SocketEvents rather than blocking
// the caller (spec §4.7, §5 "no handler may block on I/O").
type Socket interface {
	// CreateClient opens an outbound TCP connection for connectionIdx to
	// url. Completion is reported asynchronously via OnConnection/OnFailure.
	CreateClient(connectionIdx uint32, url string) errors.Error

	// CreateServer opens a listening socket for endpointCfgIdx at url. If
	// listenAll is true the listener binds every local interface.
	CreateServer(endpointCfgIdx uint32, url string, listenAll bool) errors.Error

	// Write queues buf for transmission on socketIdx. Queuing, not
	// delivery, is synchronous; delivery failures surface as OnFailure.
	Write(socketIdx uint32, buf []byte) errors.Error

	// Close releases socketIdx. Idempotent.
	Close(socketIdx uint32) errors.Error

	// AcceptedConnection associates a newly accepted connection with the
	// core's own connection index, once the core has allocated one.
	AcceptedConnection(socketIdx uint32, newConnectionIdx uint32) errors.Error
}

// SocketEvents is implemented by the core and called by the Socket
// collaborator to report asynchronous outcomes (spec §4.7).
type SocketEvents interface {
	OnConnection(connectionIdx, socketIdx uint32)
	OnFailure(connectionIdx, socketIdx uint32)
	OnReceiveBytes(connectionIdx uint32, buf []byte)
	OnListenerOpened(endpointCfgIdx, socketIdx uint32)
	OnListenerConnection(endpointCfgIdx, socketIdx uint32)
	OnListenerFailure(endpointCfgIdx uint32)
}
