// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

/*
* Handles statistics for PGW-C
*
 */

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omec-project/pgwc/logger"
)

// PgwcStats captures PGW-C level stats
type PgwcStats struct {
	s5cMsg     *prometheus.CounterVec
	sessions   *prometheus.GaugeVec
	bearers    *prometheus.GaugeVec
	peerNodes  prometheus.Gauge
	txnLatency *prometheus.HistogramVec
}

var pgwcStats *PgwcStats

func initPgwcStats() *PgwcStats {
	return &PgwcStats{
		s5cMsg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "s5c_messages_total",
			Help: "S5/S8-C interface counters",
		}, []string{"pgw_id", "msg_type", "direction", "result", "cause"}),

		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pgwc_pdn_sessions",
			Help: "Number of PDN sessions currently in the PGW-C",
		}, []string{"node_id"}),

		bearers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pgwc_bearers",
			Help: "Number of EPS bearers currently in the PGW-C",
		}, []string{"node_id"}),

		peerNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pgwc_peer_nodes",
			Help: "Number of GTP-U peer nodes referenced by bearers",
		}),

		txnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pgwc_transaction_latency_seconds",
			Help:    "Latency of locally initiated S5/S8-C transactions",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"msg_type", "result"}),
	}
}

func (ps *PgwcStats) register() error {
	if err := prometheus.Register(ps.s5cMsg); err != nil {
		return err
	}
	if err := prometheus.Register(ps.sessions); err != nil {
		return err
	}
	if err := prometheus.Register(ps.bearers); err != nil {
		return err
	}
	if err := prometheus.Register(ps.peerNodes); err != nil {
		return err
	}
	if err := prometheus.Register(ps.txnLatency); err != nil {
		return err
	}
	return nil
}

func init() {
	pgwcStats = initPgwcStats()

	if err := pgwcStats.register(); err != nil {
		logger.AppLog.Panicln("PGW-C Stats register failed")
	}
}

// InitMetrics serves the prometheus registry; it blocks.
func InitMetrics(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
	if err != nil {
		logger.AppLog.Fatalf("failed to start metrics server: %v", err)
	}
}

// IncrementS5cMsgStats increments message level stats
func IncrementS5cMsgStats(pgwID, msgType, direction, result, cause string) {
	pgwcStats.s5cMsg.WithLabelValues(pgwID, msgType, direction, result, cause).Inc()
}

// SetSessStats maintains Session level stats
func SetSessStats(nodeId string, count uint64) {
	pgwcStats.sessions.WithLabelValues(nodeId).Set(float64(count))
}

func SetBearerStats(nodeId string, count uint64) {
	pgwcStats.bearers.WithLabelValues(nodeId).Set(float64(count))
}

func SetPeerNodeStats(count int) {
	pgwcStats.peerNodes.Set(float64(count))
}

// ObserveTxnLatency records how long a locally initiated request waited for its answer.
func ObserveTxnLatency(msgType, result string, seconds float64) {
	pgwcStats.txnLatency.WithLabelValues(msgType, result).Observe(seconds)
}
