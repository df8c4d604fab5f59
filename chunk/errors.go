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

package chunk

import "github.com/nabbar/opcua-core/errors"

const (
	ErrMessageTypeInvalid errors.CodeError = iota + errors.MinPkgChunk
	ErrMessageTooLarge
	ErrSecureChannelUnknown
	ErrSecurityPolicyRejected
	ErrSecurityModeRejected
	ErrCertificateInvalid
	ErrRequestTooLarge
	ErrResponseTooLarge
	ErrShortChunk
)

func init() {
	errors.RegisterMessages(ErrMessageTypeInvalid, errors.MinPkgChunk+100, getMessage)
}

func getMessage(code errors.CodeError) string {
	switch code {
	case ErrMessageTypeInvalid:
		return "chunk: unknown message type, non-final non-MSG chunk, or malformed header"
	case ErrMessageTooLarge:
		return "chunk: declared message size exceeds the configured maximum"
	case ErrSecureChannelUnknown:
		return "chunk: secureChannelId does not match this connection's current channel"
	case ErrSecurityPolicyRejected:
		return "chunk: security policy URI not configured/accepted"
	case ErrSecurityModeRejected:
		return "chunk: requested security mode not allowed by the selected policy"
	case ErrCertificateInvalid:
		return "chunk: sender certificate failed PKI validation"
	case ErrRequestTooLarge:
		return "chunk: outbound request body exceeds the cached maximum body size"
	case ErrResponseTooLarge:
		return "chunk: outbound response body exceeds the cached maximum body size"
	case ErrShortChunk:
		return "chunk: not enough bytes buffered yet to decode the next field"
	}
	return ""
}
