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

package token

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/nabbar/opcua-core/errors"
)

// maxGenerationAttempts bounds collision-checked identifier generation
// (spec §4.2: "up to 5 attempts").
const maxGenerationAttempts = 5

// Collides is a collision predicate: given a candidate identifier, report
// whether it is already in use in the relevant domain. A secureChannelId
// collides against every active connection in the connection table,
// across all listeners; a tokenId collides only within the owning channel
// (SPEC_FULL §C.2).
type Collides func(candidate uint32) bool

// Generator mints fresh non-zero, collision-checked secureChannelId and
// tokenId values. It is stateless beyond its random source - the caller
// supplies the collision domain per call via Collides.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorWithSource returns a Generator backed by an arbitrary random
// source - used by tests to make collision retries deterministic.
func NewGeneratorWithSource(r io.Reader) *Generator {
	return &Generator{random: r}
}

func (g *Generator) next() (uint32, errors.Error) {
	var buf [4]byte
	if _, err := io.ReadFull(g.random, buf[:]); err != nil {
		return 0, ErrGenerationExhausted.Error(err)
	}
	v := binary.BigEndian.Uint32(buf[:])
	if v == 0 {
		v = 1
	}
	return v, nil
}

// GenerateSecureChannelId mints a non-zero secureChannelId that does not
// collide across the connection-table-wide domain, retrying up to
// maxGenerationAttempts times before giving up (spec §4.2).
func (g *Generator) GenerateSecureChannelId(collides Collides) (uint32, errors.Error) {
	return g.generate(collides)
}

// GenerateTokenId mints a non-zero tokenId that does not collide within
// the owning channel's domain (SPEC_FULL §C.2 distinguishes this from the
// channel-id domain, which spans the whole connection table).
func (g *Generator) GenerateTokenId(collides Collides) (uint32, errors.Error) {
	return g.generate(collides)
}

func (g *Generator) generate(collides Collides) (uint32, errors.Error) {
	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		candidate, err := g.next()
		if err != nil {
			return 0, err
		}
		if collides == nil || !collides(candidate) {
			return candidate, nil
		}
	}
	return 0, ErrGenerationExhausted.Error()
}
