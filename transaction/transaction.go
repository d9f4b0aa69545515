// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package transaction

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
)

var (
	ErrTxnClosed = errors.New("transaction closed")
	ErrTxnBusy   = errors.New("transaction has a staged message")
)

// Sender frames and transmits one message toward the peer. Sequence
// numbers and retransmission belong to the implementation.
type Sender interface {
	Send(txnId uint32, h message.Header, payload []byte) error
}

type TxnState uint

const (
	TxnStateOpen TxnState = iota
	TxnStateWaiting
	TxnStateClosed
)

func (s TxnState) String() string {
	switch s {
	case TxnStateOpen:
		return "Open"
	case TxnStateWaiting:
		return "Waiting"
	case TxnStateClosed:
		return "Closed"
	default:
		return "Invalid"
	}
}

type staged struct {
	header  message.Header
	payload []byte
}

// Transaction is one request/response exchange on S5/S8-C, either
// received from the peer or initiated locally.
type Transaction struct {
	startTime, endTime time.Time
	TxnId              uint32
	MsgType            gtpmsgtypes.GtpMsgType
	Local              bool
	TxnLog             *zap.SugaredLogger

	lock     sync.Mutex
	state    TxnState
	pending  interface{}
	staged   *staged
	awaiting gtpmsgtypes.GtpMsgType
	mgr      *Manager
}

func (t *Transaction) initLogTags() {
	t.TxnLog = logger.TxnLog.With("txnid", t.TxnId, "txntype", t.MsgType.String(), "local", t.Local)
}

var TxnId uint32

func getNewTxnId() uint32 {
	return atomic.AddUint32(&TxnId, 1)
}

func newTransaction(mgr *Manager, msgType gtpmsgtypes.GtpMsgType, local bool) *Transaction {
	t := &Transaction{
		TxnId:     getNewTxnId(),
		MsgType:   msgType,
		Local:     local,
		startTime: time.Now(),
		mgr:       mgr,
	}

	t.initLogTags()
	t.TxnLog.Debugf("new txn created")
	return t
}

func (t *Transaction) State() TxnState {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.state
}

// Pending peeks at the state the transaction owns.
func (t *Transaction) Pending() interface{} {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.pending
}

// Hold gives the transaction ownership of pending until it is consumed or
// the transaction expires.
func (t *Transaction) Hold(pending interface{}) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.pending = pending
}

// Consume hands the pending state to the caller; only the first call gets it.
func (t *Transaction) Consume() (interface{}, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.consumeLocked()
}

func (t *Transaction) consumeLocked() (interface{}, bool) {
	if t.pending == nil {
		return nil, false
	}
	p := t.pending
	t.pending = nil
	return p, true
}

// Update stages the next outbound message; Commit transmits it.
func (t *Transaction) Update(h message.Header, payload []byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.state == TxnStateClosed {
		return errors.Wrapf(ErrTxnClosed, "txn %d", t.TxnId)
	}
	if t.staged != nil {
		return errors.Wrapf(ErrTxnBusy, "txn %d", t.TxnId)
	}
	t.staged = &staged{header: h, payload: payload}
	return nil
}

// Commit transmits the staged message. A request the peer must answer
// leaves the transaction waiting; anything else, or no staged message at
// all, completes it.
func (t *Transaction) Commit() error {
	t.lock.Lock()
	if t.state == TxnStateClosed {
		t.lock.Unlock()
		return errors.Wrapf(ErrTxnClosed, "txn %d", t.TxnId)
	}
	s := t.staged
	t.staged = nil
	t.lock.Unlock()

	if s != nil {
		if err := t.mgr.sender.Send(t.TxnId, s.header, s.payload); err != nil {
			t.mgr.close(t, "send-error")
			return errors.Wrapf(err, "txn %d send %s", t.TxnId, s.header.Type)
		}
		t.TxnLog.Debugf("sent %s teid [0x%x] len [%d]", s.header.Type, s.header.TEID, len(s.payload))
		if s.header.Type.ExpectsResponse() {
			t.lock.Lock()
			t.state = TxnStateWaiting
			t.awaiting = s.header.Type
			t.lock.Unlock()
			return nil
		}
	}
	t.mgr.close(t, "committed")
	return nil
}

func (t *Transaction) TransactionEnd() time.Duration {
	t.endTime = time.Now()
	d := t.endTime.Sub(t.startTime)
	t.TxnLog.Infof("txn ended, execution time [%v] ", d)
	return d
}

func (t *Transaction) String() string {
	return fmt.Sprintf(" txn-id [%v], txn-type [%v], local [%v] ", t.TxnId, t.MsgType, t.Local)
}
