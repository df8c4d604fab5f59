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

package statuscode

import "fmt"

// Code is a 32-bit OPC UA status code: the top bit set marks a failure
// (Bad*), clear marks success or an informational code (Good*/Uncertain*).
type Code uint32

func (c Code) Uint32() uint32 { return uint32(c) }

// IsBad reports whether the code's severity bits mark it as a failure.
func (c Code) IsBad() bool { return c&0x80000000 != 0 }

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}

const (
	Good Code = 0x00000000

	BadUnexpectedError        Code = 0x80010000
	BadInternalError          Code = 0x80020000
	BadOutOfMemory            Code = 0x80030000
	BadResourceUnavailable    Code = 0x80040000
	BadDecodingError          Code = 0x80080000
	BadEncodingError          Code = 0x80090000
	BadInvalidArgument        Code = 0x80AB0000
	BadTimeout                Code = 0x800A0000

	// TCP / UACP framing (spec §4.3, §7 "TCP framing errors")
	BadTcpServerTooBusy       Code = 0x807A0000
	BadTcpMessageTypeInvalid  Code = 0x807B0000
	BadTcpSecureChannelUnknown Code = 0x807C0000
	BadTcpMessageTooLarge     Code = 0x807D0000
	BadTcpNotEnoughResources  Code = 0x807E0000
	BadTcpInternalError       Code = 0x807F0000
	BadTcpEndpointUrlInvalid  Code = 0x80800000

	// Secure Conversation / security (spec §7 "Security errors")
	BadSecurityChecksFailed   Code = 0x80130000
	BadCertificateInvalid     Code = 0x80140000
	BadSecureChannelIdInvalid Code = 0x80210000
	BadSecureChannelClosed    Code = 0x80220000
	BadSequenceNumberInvalid  Code = 0x80230000
	BadRequestTypeInvalid     Code = 0x80240000
	BadSecurityModeRejected   Code = 0x80250000
	BadSecurityPolicyRejected Code = 0x80260000
	BadRequestTooLarge        Code = 0x80270000
	BadResponseTooLarge       Code = 0x80280000
)

var names = map[Code]string{
	Good:                       "Good",
	BadUnexpectedError:         "BadUnexpectedError",
	BadInternalError:           "BadInternalError",
	BadOutOfMemory:             "BadOutOfMemory",
	BadResourceUnavailable:     "BadResourceUnavailable",
	BadDecodingError:           "BadDecodingError",
	BadEncodingError:           "BadEncodingError",
	BadInvalidArgument:         "BadInvalidArgument",
	BadTimeout:                 "BadTimeout",
	BadTcpServerTooBusy:        "BadTcpServerTooBusy",
	BadTcpMessageTypeInvalid:   "BadTcpMessageTypeInvalid",
	BadTcpSecureChannelUnknown: "BadTcpSecureChannelUnknown",
	BadTcpMessageTooLarge:      "BadTcpMessageTooLarge",
	BadTcpNotEnoughResources:   "BadTcpNotEnoughResources",
	BadTcpInternalError:        "BadTcpInternalError",
	BadTcpEndpointUrlInvalid:   "BadTcpEndpointUrlInvalid",
	BadSecurityChecksFailed:    "BadSecurityChecksFailed",
	BadCertificateInvalid:      "BadCertificateInvalid",
	BadSecureChannelIdInvalid:  "BadSecureChannelIdInvalid",
	BadSecureChannelClosed:     "BadSecureChannelClosed",
	BadSequenceNumberInvalid:   "BadSequenceNumberInvalid",
	BadRequestTypeInvalid:      "BadRequestTypeInvalid",
	BadSecurityModeRejected:    "BadSecurityModeRejected",
	BadSecurityPolicyRejected:  "BadSecurityPolicyRejected",
	BadRequestTooLarge:         "BadRequestTooLarge",
	BadResponseTooLarge:        "BadResponseTooLarge",
}
