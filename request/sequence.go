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

package request

import (
	"math"
	"sync"

	"github.com/nabbar/opcua-core/errors"
)

// wrapThreshold is the UINT32_MAX - 1024 boundary both the send and
// receive wrap-around rules are defined against (spec §4.2).
const wrapThreshold uint32 = math.MaxUint32 - 1024

// wrapCeiling bounds the accepted "just wrapped" range on receive: a new
// value below this, arriving while lastReceived is above wrapThreshold,
// is accepted and adopted (spec §4.2, §8 example: "UINT32_MAX-1000
// receiving 5 is accepted").
const wrapCeiling uint32 = 1024

// Sequence tracks the per-connection sent/received sequence-number
// counters (spec §3 "TCP sequence properties").
type Sequence struct {
	mu           sync.Mutex
	lastSent     uint32
	lastReceived uint32
	everReceived bool
}

// NewSequence returns a Sequence with both counters at their initial
// (unset) state.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NextSend computes and stores the sequence number for the next outbound
// chunk: lastSent+1, unless lastSent is already past wrapThreshold, in
// which case it wraps to 1 (spec §4.2 "Send sequence number stamping").
func (s *Sequence) NextSend() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent > wrapThreshold {
		s.lastSent = 1
	} else {
		s.lastSent++
	}
	return s.lastSent
}

// CheckReceive validates an inbound sequence number against lastReceived,
// applying the single wrap-around exemption, and adopts it as the new
// lastReceived on success (spec §4.2 "Receive sequence number check").
func (s *Sequence) CheckReceive(got uint32) errors.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.everReceived {
		s.lastReceived = got
		s.everReceived = true
		return nil
	}

	expected := s.lastReceived + 1
	wrapped := s.lastReceived > wrapThreshold && got < wrapCeiling
	if got != expected && !wrapped {
		return ErrSequenceNumberInvalid.Error()
	}
	s.lastReceived = got
	return nil
}

// ResetReceive adopts got as lastReceived unconditionally - used when an
// OPN message resets the sequence for a fresh or renewed channel (spec
// §4.2: "OPN resets the sequence: the received value becomes the new
// lastReceived").
func (s *Sequence) ResetReceive(got uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReceived = got
	s.everReceived = true
}
