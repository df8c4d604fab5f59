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

import "github.com/nabbar/opcua-core/errors"

const (
	ErrUnknownConnection errors.CodeError = iota + errors.MinPkgSecChan
	ErrInvalidTransition
	ErrBufferNegotiationFailed
	ErrEndpointUrlMismatch
	ErrSecurityModeNotAllowed
	ErrRenewMismatch
	ErrTableFull
	ErrTokenGenerationFailed
)

func init() {
	errors.RegisterMessages(ErrUnknownConnection, errors.MinPkgSecChan+100, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case ErrUnknownConnection:
		return "secchan: no connection at this index"
	case ErrInvalidTransition:
		return "secchan: event not valid in the connection's current state"
	case ErrBufferNegotiationFailed:
		return "secchan: advertised buffer size below the configured minimum"
	case ErrEndpointUrlMismatch:
		return "secchan: HEL endpoint URL does not match this listener's configured URL"
	case ErrSecurityModeNotAllowed:
		return "secchan: requested security mode not allowed by the selected policy"
	case ErrRenewMismatch:
		return "secchan: OPN-Renew policy/mode does not match the channel it renews"
	case ErrTableFull:
		return "secchan: connection table at capacity"
	case ErrTokenGenerationFailed:
		return "secchan: could not mint a collision-free channel-id/token-id"
	}
	return ""
}
