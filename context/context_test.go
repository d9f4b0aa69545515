// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omec-project/pgwc/factory"
	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/pgwerrors"
	"github.com/omec-project/pgwc/tai"
)

func newTestContext() *PGWContext {
	return NewPGWContext("pgw-test", net.ParseIP("10.0.0.1"), net.ParseIP("10.0.1.1"), 1, 100)
}

func TestNewSession(t *testing.T) {
	pgw := newTestContext()

	sess, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)

	assert.NotEmpty(t, sess.Ref)
	assert.Same(t, sess, pgw.SessionByTEID(sess.LocalS5CTEID))
	assert.Same(t, sess, pgw.SessionByIMSIAPN("001010000000001", "internet"))
	assert.Nil(t, pgw.SessionByIMSIAPN("001010000000001", "ims"))

	def := sess.DefaultBearer()
	require.NotNil(t, def)
	assert.Equal(t, uint8(5), def.EBI)
	assert.True(t, def.IsDefault())
	assert.Same(t, def, pgw.BearerByS5UTEID(def.LocalS5UTEID))
	assert.Same(t, sess, def.Session())
}

func TestDedicatedBearer(t *testing.T) {
	pgw := newTestContext()
	sess, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)

	bearer, err := pgw.AddBearer(sess)
	require.NoError(t, err)
	assert.False(t, bearer.IsDefault())
	assert.NotEqual(t, sess.DefaultBearer().LocalS5UTEID, bearer.LocalS5UTEID)
	assert.Len(t, sess.Bearers(), 2)

	bearer.EBI = 6
	assert.Same(t, bearer, sess.BearerByEBI(6))

	require.NoError(t, pgw.RemoveBearer(bearer))
	assert.Nil(t, sess.BearerByEBI(6))
	assert.Nil(t, pgw.BearerByS5UTEID(bearer.LocalS5UTEID))
	assert.ErrorIs(t, pgw.RemoveBearer(bearer), pgwerrors.ErrContextNotFound)
}

func TestDefaultBearerNotRemovable(t *testing.T) {
	pgw := newTestContext()
	sess, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)

	err = pgw.RemoveBearer(sess.DefaultBearer())
	assert.ErrorIs(t, err, pgwerrors.ErrDefaultBearerNotRemovable)
	assert.Len(t, sess.Bearers(), 1)
}

func TestRemoveSession(t *testing.T) {
	pgw := newTestContext()
	sess, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)
	bearer, err := pgw.AddBearer(sess)
	require.NoError(t, err)

	node, err := pgw.Peers.FindOrCreate(&ies.FTEIDValue{TEID: 1, IPv4: net.ParseIP("192.0.2.1").To4()})
	require.NoError(t, err)
	bearer.PeerNode = node
	_, err = bearer.PacketFilters.Add(1, 10)
	require.NoError(t, err)

	pgw.RemoveSession(sess)
	assert.Nil(t, pgw.SessionByTEID(sess.LocalS5CTEID))
	assert.Nil(t, pgw.SessionByIMSIAPN("001010000000001", "internet"))
	assert.Nil(t, pgw.BearerByS5UTEID(bearer.LocalS5UTEID))
	assert.Zero(t, bearer.PacketFilters.Len())
	assert.Nil(t, pgw.Peers.Find("192.0.2.1"))
	assert.Empty(t, pgw.Sessions())

	// second removal is a no-op
	pgw.RemoveSession(sess)
}

func TestReplacedSessionKeepsNewIndex(t *testing.T) {
	pgw := newTestContext()
	old, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)
	fresh, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)

	pgw.RemoveSession(old)
	assert.Same(t, fresh, pgw.SessionByIMSIAPN("001010000000001", "internet"))
	assert.Len(t, pgw.SessionsByIMSI("001010000000001"), 1)
}

func TestTEIDExhaustion(t *testing.T) {
	pgw := NewPGWContext("pgw-test", net.ParseIP("10.0.0.1"), net.ParseIP("10.0.1.1"), 1, 2)
	a, err := pgw.NewSession("001010000000001", "a", 5)
	require.NoError(t, err)
	_, err = pgw.NewSession("001010000000002", "a", 5)
	require.NoError(t, err)
	_, err = pgw.NewSession("001010000000003", "a", 5)
	assert.Error(t, err)

	pgw.RemoveSession(a)
	_, err = pgw.NewSession("001010000000003", "a", 5)
	assert.NoError(t, err)
}

func TestSessionAMBRAndLocation(t *testing.T) {
	pgw := newTestContext()
	sess, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)

	assert.Nil(t, sess.EncodedAMBR)
	sess.SetAMBR(8700, 64)
	require.NotNil(t, sess.EncodedAMBR)
	dl, ul := sess.EncodedAMBR.Kbps()
	assert.Equal(t, uint64(8700), dl)
	assert.Equal(t, uint64(64), ul)

	plmn, err := tai.NewPlmnID("001", "01")
	require.NoError(t, err)
	sess.SetLocation(&ies.ULIValue{TAI: &tai.TAI{PlmnID: plmn, TAC: 7}})
	sess.SetLocation(&ies.ULIValue{ECGI: &ies.ECGI{PlmnID: plmn, CellID: 0x1234}})
	require.NotNil(t, sess.TAI)
	assert.Equal(t, uint16(7), sess.TAI.TAC)
	require.NotNil(t, sess.ECGI)
	assert.Equal(t, uint32(0x1234), sess.ECGI.CellID)
}

func TestLocalFTEID(t *testing.T) {
	pgw := newTestContext()
	sess, err := pgw.NewSession("001010000000001", "internet", 5)
	require.NoError(t, err)

	c := pgw.S5CFTEID(sess)
	assert.Equal(t, ies.InterfaceS5S8PGWGTPC, c.Interface)
	assert.Equal(t, sess.LocalS5CTEID, c.TEID)
	assert.Equal(t, "10.0.0.1", c.Addr())

	u := pgw.S5UFTEID(sess.DefaultBearer())
	assert.Equal(t, ies.InterfaceS5S8PGWGTPU, u.Interface)
	assert.Equal(t, "10.0.1.1", u.Addr())
}

func TestInitPgwContext(t *testing.T) {
	cfg := &factory.Config{Info: &factory.Info{Version: "1.0.0"}}
	cfg.ApplyDefaults()
	cfg.Configuration.PgwName = "pgw-init"
	cfg.Configuration.Gtpu.Addr = "not-an-ip"

	InitPgwContext(cfg)
	assert.Equal(t, "pgw-init", PGW_Self().Name)
	assert.Equal(t, factory.PGWC_DEFAULT_GTPC_ADDR, PGW_Self().GtpuAddr.String())
	assert.NotEmpty(t, PGW_Self().NfInstanceID)
}
