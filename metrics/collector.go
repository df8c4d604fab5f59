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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the observability sink the Chunk Manager and the State
// Machine take as an optional collaborator. A
// nil *Collector is valid everywhere methods are called on it - every
// method is a nil-receiver no-op guard away from touching prometheus at
// all (mirrors the teacher's own "metrics optional, never load-bearing"
// convention for ancillary instrumentation).
type Collector struct {
	chunksSent       *prometheus.CounterVec
	chunksReceived   *prometheus.CounterVec
	connectionsActive *prometheus.GaugeVec
	tokenRenewals    prometheus.Counter
	receiveFailures  *prometheus.CounterVec
	sendFailures     *prometheus.CounterVec
}

// New registers and returns a Collector against reg. Passing
// prometheus.NewRegistry() keeps a harness's metrics isolated from the
// global default registry; passing prometheus.DefaultRegisterer matches
// the common single-process exporter setup.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		chunksSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opcua_core",
			Name:      "chunks_sent_total",
			Help:      "UACP chunks sent, by message type.",
		}, []string{"type"}),
		chunksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opcua_core",
			Name:      "chunks_received_total",
			Help:      "UACP chunks received, by message type.",
		}, []string{"type"}),
		connectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "opcua_core",
			Name:      "connections_active",
			Help:      "Active connections, by listener endpoint config index.",
		}, []string{"endpoint"}),
		tokenRenewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opcua_core",
			Name:      "token_renewals_total",
			Help:      "OPN-Renew operations completed.",
		}),
		receiveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opcua_core",
			Name:      "receive_failures_total",
			Help:      "RCV_FAILURE events, by OPC UA status code.",
		}, []string{"status"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opcua_core",
			Name:      "send_failures_total",
			Help:      "SND_FAILURE events, by OPC UA status code.",
		}, []string{"status"}),
	}
	reg.MustRegister(c.chunksSent, c.chunksReceived, c.connectionsActive, c.tokenRenewals, c.receiveFailures, c.sendFailures)
	return c
}

func (c *Collector) ChunkSent(msgType string) {
	if c == nil {
		return
	}
	c.chunksSent.WithLabelValues(msgType).Inc()
}

func (c *Collector) ChunkReceived(msgType string) {
	if c == nil {
		return
	}
	c.chunksReceived.WithLabelValues(msgType).Inc()
}

func (c *Collector) SetConnectionsActive(endpoint string, n float64) {
	if c == nil {
		return
	}
	c.connectionsActive.WithLabelValues(endpoint).Set(n)
}

func (c *Collector) TokenRenewed() {
	if c == nil {
		return
	}
	c.tokenRenewals.Inc()
}

func (c *Collector) ReceiveFailure(status string) {
	if c == nil {
		return
	}
	c.receiveFailures.WithLabelValues(status).Inc()
}

func (c *Collector) SendFailure(status string) {
	if c == nil {
		return
	}
	c.sendFailures.WithLabelValues(status).Inc()
}
