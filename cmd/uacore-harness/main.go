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

// Command uacore-harness is not a product CLI: it is a minimal, runnable
// demonstration of how the packages in this module compose into one
// event loop (SPEC_FULL §D). It wires a viper-backed config.Store, a
// prometheus metrics.Collector, a logrus logger.Logger, and an
// in-process loopback stand-in for facade.Socket into chunk.Manager,
// secchan.Manager and listener.Manager, then runs an endpoint and a
// client connection to it through the HEL/ACK negotiation. A real
// Services collaborator would drive the OPN-Issue that follows.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	spfvpr "github.com/spf13/viper"

	"github.com/nabbar/opcua-core/chunk"
	"github.com/nabbar/opcua-core/config"
	"github.com/nabbar/opcua-core/event"
	"github.com/nabbar/opcua-core/listener"
	"github.com/nabbar/opcua-core/logger"
	"github.com/nabbar/opcua-core/metrics"
	"github.com/nabbar/opcua-core/secchan"
)

// timerInterval drives the periodic sweeps for the half-open (SPEC_FULL
// §C.5) and renew-deadline (§C.6) timeouts.
const timerInterval = time.Second

func main() {
	cfgFile := flag.String("config", "", "path to the harness's YAML config file (channels/endpoints)")
	flag.Parse()

	log := logger.New(logrus.InfoLevel)
	met := metrics.New(prometheus.NewRegistry())

	v := spfvpr.New()
	if *cfgFile != "" {
		v.SetConfigFile(*cfgFile)
		if err := v.ReadInConfig(); err != nil {
			log.Error("reading config file", "error", err.Error())
			os.Exit(1)
		}
	} else {
		// No file given: demonstrate the wiring with one inline endpoint
		// and one inline channel pointed at it.
		v.Set("endpoints", []map[string]interface{}{
			{
				"endpoint_url": "opc.tcp://localhost:4840",
				"accepted_policies": []map[string]interface{}{
					{"policy_uri": "http://opcfoundation.org/UA/SecurityPolicy#None", "modes_mask": uint32(1) << 1},
				},
			},
		})
		v.Set("channels", []map[string]interface{}{
			{
				"peer_url":            "opc.tcp://localhost:4840",
				"security_policy_uri": "http://opcfoundation.org/UA/SecurityPolicy#None",
				"security_mode":       1,
				"requested_lifetime":  "1h",
			},
		})
	}

	cfgStore, cerr := config.New(v, log)
	if cerr != nil {
		log.Error("building config store", "error", cerr.Error())
		os.Exit(1)
	}

	// The three managers and the socket stand-in are mutually referential
	// through the dispatcher's handler: the handler closes over these
	// variables, which are only read once Run starts dispatching, well
	// after every assignment below has completed.
	var (
		chunkMgr *chunk.Manager
		scMgr    *secchan.Manager
		lsMgr    *listener.Manager
		sock     *loopbackSocket
	)

	disp := event.New(func(e event.Event) {
		if lsMgr.Dispatch(e) {
			return
		}
		if scMgr.Dispatch(e) {
			return
		}
		switch e.Kind {
		case event.KindConnectionCreate:
			scMgr.OnSocketConnected(e.EntityID)
		case event.KindSocketRcvBytes:
			conn, terr := scMgr.Table.Get(e.EntityID)
			if terr != nil {
				return
			}
			chunkMgr.OnBytes(e.EntityID, conn.Chunk, e.Payload.([]byte))
		case event.KindTimerFired:
			now := time.Now()
			scMgr.CheckHalfOpenTimeouts(now)
			scMgr.CheckRenewDeadlines(now)
		}
	}, log)

	sock = newLoopbackSocket(disp)
	chunkMgr = chunk.NewManager(cryptoResolver, disp, log, met)
	// No facade.Services implementation exists in this harness - the
	// session/address-space layer above the secure conversation is an
	// explicit Non-goal (spec §1) - so it is wired as nil.
	scMgr = secchan.NewManager(64, chunkMgr, sock, cfgStore, disp, log, met, nil)
	lsMgr = listener.NewManager(sock, cfgStore, scMgr, disp, log)

	go func() {
		ticker := time.NewTicker(timerInterval)
		defer ticker.Stop()
		for range ticker.C {
			disp.PushBack(event.Event{Kind: event.KindTimerFired})
		}
	}()

	if err := lsMgr.OpenListener(0); err != nil {
		log.Error("opening endpoint", "error", err.Error())
		os.Exit(1)
	}

	// The loopback stand-in has no real accept loop, so the harness
	// simulates one inbound connection by hand: a synthetic socket index
	// for the accepted side, reported to the listener exactly as a real
	// facade.Socket would report an accept.
	const syntheticAcceptedSocketIdx = 1 << 16
	disp.PushBack(event.Event{Kind: event.KindListenerConnection, EntityID: 0, Aux: syntheticAcceptedSocketIdx})

	connIdx, err := scMgr.Connect(0)
	if err != nil {
		log.Error("starting client connection", "error", err.Error())
		os.Exit(1)
	}
	// Wire the client's socket to the synthetic accepted socket - standing
	// in for the two ends of one TCP connection.
	sock.pair(connIdx, syntheticAcceptedSocketIdx)

	log.Info("uacore-harness running", "endpoint", "opc.tcp://localhost:4840")
	disp.Run()
}
