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

// PKI is an opaque handle to a certificate trust store, owned and
// interpreted by the Cryptographic Provider.
type PKI interface{}

// CryptoProvider is the cryptographic collaborator. A provider instance is
// bound to one security policy URI and serves both the asymmetric
// (OPN) and symmetric (MSG/CLO) size/crypto operations the Chunk Manager
// needs (spec §4.7). Every failure mode is binary - success or a
// cryptographic error - and is mapped by the caller to
// BadSecurityChecksFailed.
type CryptoProvider interface {
	PolicyURI() string

	CertificateValidate(pki PKI, cert []byte) errors.Error
	CertificateThumbprint(cert []byte) ([]byte, errors.Error)

	AsymmetricEncryptedLength(peerPublicKey []byte, plainLength uint32) (uint32, errors.Error)
	AsymmetricPlainBlockSize(peerPublicKey []byte) (uint32, errors.Error)
	AsymmetricCipherBlockSize(peerPublicKey []byte) (uint32, errors.Error)
	AsymmetricSignatureLength(peerPublicKey []byte) (uint32, errors.Error)

	SymmetricEncryptedLength(keys interface{}, plainLength uint32) (uint32, errors.Error)
	SymmetricPlainBlockSize(keys interface{}) (uint32, errors.Error)
	SymmetricCipherBlockSize(keys interface{}) (uint32, errors.Error)
	SymmetricSignatureLength(keys interface{}) (uint32, errors.Error)

	Encrypt(keys interface{}, plain []byte) ([]byte, errors.Error)
	Decrypt(keys interface{}, cipher []byte) ([]byte, errors.Error)
	Sign(keys interface{}, data []byte) ([]byte, errors.Error)
	Verify(keys interface{}, data, signature []byte) errors.Error

	GenerateRandomUInt32() (uint32, errors.Error)
}
