// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package transaction

import (
	"sync"
	"time"

	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/metrics"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
)

// Stats are the latency figures of completed local transactions.
type Stats struct {
	Completed uint64        `json:"completed"`
	Expired   uint64        `json:"expired"`
	Failed    uint64        `json:"failed"`
	Shortest  time.Duration `json:"shortest"`
	Longest   time.Duration `json:"longest"`
	Average   time.Duration `json:"average"`
}

// Manager tracks open transactions and hands outbound messages to the
// Sender.
type Manager struct {
	sender Sender

	lock  sync.Mutex
	txns  map[uint32]*Transaction
	stats Stats
	total time.Duration
}

func NewManager(sender Sender) *Manager {
	return &Manager{
		sender: sender,
		txns:   make(map[uint32]*Transaction),
	}
}

// Accept opens the transaction of a request received from the peer.
func (m *Manager) Accept(msgType gtpmsgtypes.GtpMsgType) *Transaction {
	t := newTransaction(m, msgType, false)
	m.store(t)
	return t
}

// Open starts a locally initiated request. The transaction owns pending
// until the answer is processed or the transaction expires.
func (m *Manager) Open(h message.Header, payload []byte, pending interface{}) (*Transaction, error) {
	t := newTransaction(m, h.Type, true)
	t.pending = pending
	m.store(t)
	if err := t.Update(h, payload); err != nil {
		m.close(t, "failed")
		return nil, err
	}
	if err := t.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

func (m *Manager) store(t *Transaction) {
	m.lock.Lock()
	m.txns[t.TxnId] = t
	m.lock.Unlock()
}

func (m *Manager) Find(txnId uint32) *Transaction {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.txns[txnId]
}

func (m *Manager) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.txns)
}

// Expire is called by the timer owner when the peer never answered. The
// pending state is returned exactly once, to whichever of Expire or
// Consume comes first.
func (m *Manager) Expire(txnId uint32) (interface{}, bool) {
	t := m.Find(txnId)
	if t == nil {
		return nil, false
	}
	t.lock.Lock()
	p, ok := t.consumeLocked()
	t.lock.Unlock()
	m.close(t, "expired")
	return p, ok
}

// Expired is a transaction whose request went unanswered.
type Expired struct {
	TxnId uint32
	// Request is the message the peer never answered
	Request gtpmsgtypes.GtpMsgType
	Pending interface{}
}

// ExpireOlderThan expires every transaction waiting for an answer longer
// than age and returns the ones that still owned pending state.
func (m *Manager) ExpireOlderThan(age time.Duration) []Expired {
	now := time.Now()
	var stale []*Transaction
	m.lock.Lock()
	for _, t := range m.txns {
		if now.Sub(t.startTime) > age {
			stale = append(stale, t)
		}
	}
	m.lock.Unlock()

	var expired []Expired
	for _, t := range stale {
		t.lock.Lock()
		waiting, request := t.state == TxnStateWaiting, t.awaiting
		t.lock.Unlock()
		if !waiting {
			continue
		}
		if p, ok := m.Expire(t.TxnId); ok {
			expired = append(expired, Expired{TxnId: t.TxnId, Request: request, Pending: p})
		}
	}
	return expired
}

func (m *Manager) close(t *Transaction, result string) {
	t.lock.Lock()
	if t.state == TxnStateClosed {
		t.lock.Unlock()
		return
	}
	t.state = TxnStateClosed
	t.staged = nil
	t.lock.Unlock()

	d := t.TransactionEnd()

	m.lock.Lock()
	delete(m.txns, t.TxnId)
	if t.Local {
		switch result {
		case "committed":
			m.stats.Completed++
			m.total += d
			if m.stats.Shortest == 0 || d < m.stats.Shortest {
				m.stats.Shortest = d
			}
			if d > m.stats.Longest {
				m.stats.Longest = d
			}
			m.stats.Average = m.total / time.Duration(m.stats.Completed)
		case "expired":
			m.stats.Expired++
		default:
			m.stats.Failed++
		}
	}
	m.lock.Unlock()

	if t.Local {
		metrics.ObserveTxnLatency(t.MsgType.String(), result, d.Seconds())
	}
	if result != "committed" {
		logger.TxnLog.Warnf("txn [%d] %s closed: %s", t.TxnId, t.MsgType, result)
	}
}

func (m *Manager) Stats() Stats {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.stats
}
