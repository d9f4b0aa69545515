// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/omec-project/idgenerator"
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/factory"
	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/metrics"
	"github.com/omec-project/pgwc/pgwerrors"
)

func init() {
	pgwContext = NewPGWContext(factory.PGWC_DEFAULT_NAME, net.ParseIP(factory.PGWC_DEFAULT_GTPC_ADDR),
		net.ParseIP(factory.PGWC_DEFAULT_GTPC_ADDR), factory.PGWC_DEFAULT_TEID_MIN, factory.PGWC_DEFAULT_TEID_MAX)
}

var pgwContext *PGWContext

// PGWContext owns every PDN session of the gateway together with the
// local TEID spaces and the GTP-U peer registry.
type PGWContext struct {
	Name         string
	NfInstanceID string

	GtpcAddr net.IP
	GtpuAddr net.IP

	Peers *PeerNodeRegistry

	s5cTEIDGenerator *idgenerator.IDGenerator
	s5uTEIDGenerator *idgenerator.IDGenerator

	// local S5C TEID -> *Session
	sessionPool sync.Map
	// imsi-apn -> local S5C TEID
	canonicalRef sync.Map
	// local S5U TEID -> *Bearer
	bearerPool sync.Map

	sessionActive uint64
	bearerActive  uint64

	// stateLock serializes the GTP procedures with the OAM readers of
	// session, bearer and packet filter state.
	stateLock sync.RWMutex
}

// Lock is held while a procedure mutates session or bearer state.
func (pgw *PGWContext) Lock()   { pgw.stateLock.Lock() }
func (pgw *PGWContext) Unlock() { pgw.stateLock.Unlock() }

// RLock is held while session or bearer state is read outside the GTP
// procedures.
func (pgw *PGWContext) RLock()   { pgw.stateLock.RLock() }
func (pgw *PGWContext) RUnlock() { pgw.stateLock.RUnlock() }

func PGW_Self() *PGWContext {
	return pgwContext
}

func NewPGWContext(name string, gtpcAddr, gtpuAddr net.IP, teidMin, teidMax int64) *PGWContext {
	return &PGWContext{
		Name:             name,
		NfInstanceID:     uuid.New().String(),
		GtpcAddr:         gtpcAddr,
		GtpuAddr:         gtpuAddr,
		Peers:            NewPeerNodeRegistry(),
		s5cTEIDGenerator: idgenerator.NewGenerator(teidMin, teidMax),
		s5uTEIDGenerator: idgenerator.NewGenerator(teidMin, teidMax),
	}
}

func InitPgwContext(config *factory.Config) {
	if config == nil || config.Configuration == nil {
		logger.CtxLog.Error("Config is nil")
		return
	}

	if config.Info != nil {
		logger.CtxLog.Infof("pgwconfig Info: Version[%s] Description[%s]", config.Info.Version, config.Info.Description)
	}
	configuration := config.Configuration

	gtpcAddr := net.ParseIP(configuration.Gtpc.Addr)
	if gtpcAddr == nil {
		logger.CtxLog.Warnf("invalid GTP-C address [%s], using %s", configuration.Gtpc.Addr, factory.PGWC_DEFAULT_GTPC_ADDR)
		gtpcAddr = net.ParseIP(factory.PGWC_DEFAULT_GTPC_ADDR)
	}
	gtpuAddr := net.ParseIP(configuration.Gtpu.Addr)
	if gtpuAddr == nil {
		logger.CtxLog.Warnf("invalid GTP-U address [%s], using the GTP-C address", configuration.Gtpu.Addr)
		gtpuAddr = gtpcAddr
	}

	pgwContext = NewPGWContext(configuration.PgwName, gtpcAddr, gtpuAddr, configuration.Teid.Min, configuration.Teid.Max)
	metrics.SetNfInstanceId(pgwContext.NfInstanceID)
	logger.CtxLog.Infof("PGW-C [%s] instance [%s] GTP-C %s GTP-U %s", pgwContext.Name,
		pgwContext.NfInstanceID, gtpcAddr, gtpuAddr)
}

func canonicalName(imsi, apn string) string {
	return fmt.Sprintf("%s-%s", imsi, apn)
}

func (pgw *PGWContext) setSessStats(delta int) {
	var n uint64
	if delta > 0 {
		n = atomic.AddUint64(&pgw.sessionActive, 1)
	} else {
		n = atomic.AddUint64(&pgw.sessionActive, ^uint64(0))
	}
	metrics.SetSessStats(pgw.NfInstanceID, n)
}

func (pgw *PGWContext) setBearerStats(delta int) {
	var n uint64
	if delta > 0 {
		n = atomic.AddUint64(&pgw.bearerActive, 1)
	} else {
		n = atomic.AddUint64(&pgw.bearerActive, ^uint64(0))
	}
	metrics.SetBearerStats(pgw.NfInstanceID, n)
}

// NewSession allocates a session with its default bearer. The caller
// releases any older session for the same IMSI and APN first.
func (pgw *PGWContext) NewSession(imsi, apn string, defaultEBI uint8) (*Session, error) {
	teid, err := pgw.s5cTEIDGenerator.Allocate()
	if err != nil {
		return nil, errors.Wrap(err, "allocate S5C TEID")
	}

	sess := &Session{
		Ref:          uuid.New().URN(),
		IMSI:         imsi,
		APN:          apn,
		LocalS5CTEID: uint32(teid),
		pgw:          pgw,
	}
	sess.initLogTags()

	if _, err := pgw.newBearer(sess, defaultEBI); err != nil {
		pgw.s5cTEIDGenerator.FreeID(teid)
		return nil, err
	}

	pgw.sessionPool.Store(sess.LocalS5CTEID, sess)
	pgw.canonicalRef.Store(canonicalName(imsi, apn), sess.LocalS5CTEID)
	pgw.setSessStats(1)

	sess.SubCtxLog.Infof("session created, local S5C TEID [0x%x]", sess.LocalS5CTEID)
	return sess, nil
}

func (pgw *PGWContext) SessionByTEID(teid uint32) *Session {
	if value, ok := pgw.sessionPool.Load(teid); ok {
		return value.(*Session)
	}
	return nil
}

func (pgw *PGWContext) SessionByIMSIAPN(imsi, apn string) *Session {
	if value, ok := pgw.canonicalRef.Load(canonicalName(imsi, apn)); ok {
		return pgw.SessionByTEID(value.(uint32))
	}
	return nil
}

// Sessions returns a snapshot ordered by local S5C TEID.
func (pgw *PGWContext) Sessions() []*Session {
	var list []*Session
	pgw.sessionPool.Range(func(_, value interface{}) bool {
		list = append(list, value.(*Session))
		return true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].LocalS5CTEID < list[j].LocalS5CTEID })
	return list
}

func (pgw *PGWContext) SessionsByIMSI(imsi string) []*Session {
	var list []*Session
	for _, sess := range pgw.Sessions() {
		if sess.IMSI == imsi {
			list = append(list, sess)
		}
	}
	return list
}

// RemoveSession drops the session, all its bearers and their filters.
func (pgw *PGWContext) RemoveSession(sess *Session) {
	if _, ok := pgw.sessionPool.LoadAndDelete(sess.LocalS5CTEID); !ok {
		return
	}
	pgw.canonicalRef.CompareAndDelete(canonicalName(sess.IMSI, sess.APN), sess.LocalS5CTEID)

	for _, bearer := range sess.Bearers() {
		pgw.releaseBearer(bearer)
	}
	sess.lock.Lock()
	sess.bearers = nil
	sess.lock.Unlock()

	pgw.s5cTEIDGenerator.FreeID(int64(sess.LocalS5CTEID))
	pgw.setSessStats(-1)
	sess.SubCtxLog.Infof("session released")
}

func (pgw *PGWContext) newBearer(sess *Session, ebi uint8) (*Bearer, error) {
	teid, err := pgw.s5uTEIDGenerator.Allocate()
	if err != nil {
		return nil, errors.Wrap(err, "allocate S5U TEID")
	}
	bearer := &Bearer{
		EBI:          ebi,
		LocalS5UTEID: uint32(teid),
		sess:         sess,
	}

	sess.lock.Lock()
	sess.bearers = append(sess.bearers, bearer)
	sess.lock.Unlock()

	pgw.bearerPool.Store(bearer.LocalS5UTEID, bearer)
	pgw.setBearerStats(1)
	return bearer, nil
}

// AddBearer allocates a dedicated bearer. Its EBI stays 0 until the peer
// assigns one.
func (pgw *PGWContext) AddBearer(sess *Session) (*Bearer, error) {
	bearer, err := pgw.newBearer(sess, 0)
	if err != nil {
		return nil, err
	}
	sess.SubCtxLog.Debugf("bearer added, local S5U TEID [0x%x]", bearer.LocalS5UTEID)
	return bearer, nil
}

func (pgw *PGWContext) BearerByS5UTEID(teid uint32) *Bearer {
	if value, ok := pgw.bearerPool.Load(teid); ok {
		return value.(*Bearer)
	}
	return nil
}

// RemoveBearer drops a dedicated bearer; the default bearer only goes with
// its session.
func (pgw *PGWContext) RemoveBearer(bearer *Bearer) error {
	sess := bearer.sess
	if bearer.IsDefault() {
		return errors.Wrapf(pgwerrors.ErrDefaultBearerNotRemovable, "EBI %d", bearer.EBI)
	}

	sess.lock.Lock()
	found := false
	for i, b := range sess.bearers {
		if b == bearer {
			sess.bearers = append(sess.bearers[:i], sess.bearers[i+1:]...)
			found = true
			break
		}
	}
	sess.lock.Unlock()
	if !found {
		return errors.Wrapf(pgwerrors.ErrContextNotFound, "bearer EBI %d", bearer.EBI)
	}

	pgw.releaseBearer(bearer)
	sess.SubCtxLog.Infof("bearer EBI [%d] removed", bearer.EBI)
	return nil
}

func (pgw *PGWContext) releaseBearer(bearer *Bearer) {
	bearer.PacketFilters.RemoveAll()
	if bearer.PeerNode != nil {
		pgw.Peers.Release(bearer.PeerNode)
		bearer.PeerNode = nil
	}
	pgw.bearerPool.Delete(bearer.LocalS5UTEID)
	pgw.s5uTEIDGenerator.FreeID(int64(bearer.LocalS5UTEID))
	pgw.setBearerStats(-1)
}

// S5CFTEID is the local control plane endpoint of the session.
func (pgw *PGWContext) S5CFTEID(sess *Session) *ies.FTEIDValue {
	return localFTEID(ies.InterfaceS5S8PGWGTPC, sess.LocalS5CTEID, pgw.GtpcAddr)
}

// S5UFTEID is the local user plane endpoint of the bearer.
func (pgw *PGWContext) S5UFTEID(bearer *Bearer) *ies.FTEIDValue {
	return localFTEID(ies.InterfaceS5S8PGWGTPU, bearer.LocalS5UTEID, pgw.GtpuAddr)
}

func localFTEID(iface uint8, teid uint32, addr net.IP) *ies.FTEIDValue {
	f := &ies.FTEIDValue{Interface: iface, TEID: teid}
	if v4 := addr.To4(); v4 != nil {
		f.IPv4 = v4
	} else {
		f.IPv6 = addr
	}
	return f
}
