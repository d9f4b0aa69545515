// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"sync"

	"go.uber.org/zap"

	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/qos"
	"github.com/omec-project/pgwc/tai"
)

// Bitrate is a downlink/uplink pair in kbps.
type Bitrate struct {
	Downlink uint64 `json:"downlink"`
	Uplink   uint64 `json:"uplink"`
}

// Session is a PDN connection, identified by its local S5C TEID.
type Session struct {
	Ref  string `json:"ref"`
	IMSI string `json:"imsi"`
	APN  string `json:"apn"`

	LocalS5CTEID uint32 `json:"localS5cTeid"`
	PeerS5CTEID  uint32 `json:"peerS5cTeid"`
	PeerS5CAddr  string `json:"peerS5cAddr,omitempty"`

	// AMBR is zero when the peer did not signal one
	AMBR        Bitrate      `json:"ambr"`
	EncodedAMBR *qos.APNAMBR `json:"-"`

	TAI  *tai.TAI  `json:"tai,omitempty"`
	ECGI *ies.ECGI `json:"ecgi,omitempty"`

	lock    sync.RWMutex
	bearers []*Bearer
	pgw     *PGWContext

	SubCtxLog *zap.SugaredLogger `json:"-"`
}

func (sess *Session) initLogTags() {
	sess.SubCtxLog = logger.CtxLog.With("uuid", sess.Ref, "imsi", sess.IMSI, "apn", sess.APN)
}

// SetAMBR stores the session AMBR and its quantized NAS form.
func (sess *Session) SetAMBR(downlink, uplink uint64) {
	sess.AMBR = Bitrate{Downlink: downlink, Uplink: uplink}
	ambr := qos.BuildAPNAMBR(downlink, uplink)
	sess.EncodedAMBR = &ambr
}

// HasAMBR reports whether the peer signalled an AMBR for the session.
func (sess *Session) HasAMBR() bool {
	return sess.EncodedAMBR != nil
}

// SetLocation keeps the last reported TAI and E-CGI; absent parts are left as they were.
func (sess *Session) SetLocation(uli *ies.ULIValue) {
	if uli == nil {
		return
	}
	if uli.TAI != nil {
		t := *uli.TAI
		sess.TAI = &t
	}
	if uli.ECGI != nil {
		e := *uli.ECGI
		sess.ECGI = &e
	}
}

// Bearers returns the bearers in creation order; the first is the default one.
func (sess *Session) Bearers() []*Bearer {
	sess.lock.RLock()
	defer sess.lock.RUnlock()
	list := make([]*Bearer, len(sess.bearers))
	copy(list, sess.bearers)
	return list
}

func (sess *Session) DefaultBearer() *Bearer {
	sess.lock.RLock()
	defer sess.lock.RUnlock()
	if len(sess.bearers) == 0 {
		return nil
	}
	return sess.bearers[0]
}

func (sess *Session) BearerByEBI(ebi uint8) *Bearer {
	sess.lock.RLock()
	defer sess.lock.RUnlock()
	for _, bearer := range sess.bearers {
		if bearer.EBI == ebi {
			return bearer
		}
	}
	return nil
}
