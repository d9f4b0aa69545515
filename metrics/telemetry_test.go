// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncrementS5cMsgStats(t *testing.T) {
	before := testutil.ToFloat64(pgwcStats.s5cMsg.WithLabelValues("pgw", "CreateSessionRequest", "in", "ok", "16"))
	IncrementS5cMsgStats("pgw", "CreateSessionRequest", "in", "ok", "16")
	after := testutil.ToFloat64(pgwcStats.s5cMsg.WithLabelValues("pgw", "CreateSessionRequest", "in", "ok", "16"))
	assert.Equal(t, before+1, after)
}

func TestGauges(t *testing.T) {
	SetSessStats("node", 3)
	SetBearerStats("node", 5)
	SetPeerNodeStats(2)
	assert.Equal(t, float64(3), testutil.ToFloat64(pgwcStats.sessions.WithLabelValues("node")))
	assert.Equal(t, float64(5), testutil.ToFloat64(pgwcStats.bearers.WithLabelValues("node")))
	assert.Equal(t, float64(2), testutil.ToFloat64(pgwcStats.peerNodes))
}

func TestObserveTxnLatency(t *testing.T) {
	ObserveTxnLatency("UpdateBearerRequest", "committed", 0.004)
	assert.Equal(t, 1, testutil.CollectAndCount(pgwcStats.txnLatency, "pgwc_transaction_latency_seconds"))
}
