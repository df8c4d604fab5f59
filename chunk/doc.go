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

// Package chunk implements the Chunk Manager (spec §4.3, §4.4): inbound
// reassembly/validation and outbound framing/signing/encryption/sequence
// stamping for one UACP message at a time. maxChunkCount is fixed at 1
// throughout this core, so "chunk" and "message" coincide - there is no
// multi-chunk reassembly.
//
// The manager never talks to secchan.Connection directly: it owns a
// per-connection Context holding exactly the wire-level state it needs
// (sequence counters, token store, negotiated sizes, the OPN security
// scratchpad) and reports decoded messages or failures by pushing events
// onto the shared event.Dispatcher, tagged with the caller's connection
// index. This keeps secchan free to import chunk without a cycle back.
package chunk
