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

// Services is the layer above the secure conversation (session
// activation, Read/Write/Browse dispatch, address-space storage) - out of
// scope for this core (spec §1 Non-goals). The core posts upward through
// this interface and receives downward calls through ServicesDownward.
type Services interface {
	OnSecureChannelConnected(connectionIdx uint32)
	OnSecureChannelTimeout(connectionIdx uint32)
	OnSecureChannelDisconnected(connectionIdx uint32, reason string)
	OnServiceReceiveMessage(connectionIdx uint32, buf []byte, requestID uint32)
	OnEndpointClosed(endpointCfgIdx uint32)
}

// ServicesDownward is implemented by the core; the Services layer calls
// into it to drive connections and endpoints (spec §4.7).
type ServicesDownward interface {
	Connect(channelCfgIdx uint32) (connectionIdx uint32, err error)
	Disconnect(connectionIdx uint32) error
	OpenEndpoint(endpointCfgIdx uint32) error
	CloseEndpoint(endpointCfgIdx uint32) error
	SendServiceMessage(connectionIdx uint32, buf []byte, requestID uint32) error
}
