// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
	"github.com/omec-project/pgwc/pgwerrors"
	"github.com/omec-project/pgwc/tai"
	"github.com/omec-project/pgwc/transaction"
)

const (
	testIMSI       = "001010123456789"
	testAPN        = "internet"
	sgwS5CTEID     = 0x10
	sgwS5UTEID     = 0x20
	defaultEBI     = 5
	testAMBRUplink = 8700
	testAMBRDown   = 300000
)

var sgwAddr = net.IPv4(10, 0, 0, 2).To4()

type sent struct {
	txnId   uint32
	header  message.Header
	payload []byte
}

type recorder struct {
	msgs []sent
	err  error
}

func (r *recorder) Send(txnId uint32, h message.Header, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, sent{txnId, h, payload})
	return nil
}

type testEnv struct {
	h    *Handler
	txns *transaction.Manager
	out  *recorder
}

func newTestEnv() *testEnv {
	pgw := context.NewPGWContext("pgw-test", net.ParseIP("10.0.0.1"), net.ParseIP("10.0.1.1"), 1, 1000)
	out := &recorder{}
	txns := transaction.NewManager(out)
	return &testEnv{h: NewHandler(pgw, nil, txns), txns: txns, out: out}
}

func mustIE(t *testing.T, typ, instance uint8, v interface{ MarshalBinary() ([]byte, error) }) ies.IE {
	t.Helper()
	ie, err := ies.New(typ, instance, v)
	require.NoError(t, err)
	return ie
}

func findIE(t *testing.T, list []ies.IE, typ, instance uint8) *ies.IE {
	t.Helper()
	for i := range list {
		if list[i].Type == typ && list[i].Instance == instance {
			return &list[i]
		}
	}
	return nil
}

func decodeIEs(t *testing.T, b []byte) []ies.IE {
	t.Helper()
	list, err := ies.Decode(b)
	require.NoError(t, err)
	return list
}

func causeOf(t *testing.T, list []ies.IE) uint8 {
	t.Helper()
	ie := findIE(t, list, ies.Cause, 0)
	require.NotNil(t, ie)
	c, err := ies.ParseCause(ie.Value)
	require.NoError(t, err)
	return c.Value
}

type csrOptions struct {
	noULI  bool
	noAMBR bool
	noIMSI bool
	noAPN  bool
	noEBI  bool
}

func createSessionRequest(t *testing.T, o csrOptions) []byte {
	imsi, err := ies.EncodeIMSI(testIMSI)
	require.NoError(t, err)
	apn, err := ies.EncodeAPN(testAPN)
	require.NoError(t, err)
	plmn, err := tai.NewPlmnID("001", "01")
	require.NoError(t, err)

	var list []ies.IE
	if !o.noIMSI {
		list = append(list, ies.IE{Type: ies.IMSI, Value: imsi})
	}
	if !o.noAPN {
		list = append(list, ies.IE{Type: ies.APN, Value: apn})
	}
	list = append(list,
		mustIE(t, ies.FTEID, 0, &ies.FTEIDValue{Interface: ies.InterfaceS5S8SGWGTPC, TEID: sgwS5CTEID, IPv4: sgwAddr}))
	if !o.noAMBR {
		list = append(list, mustIE(t, ies.AMBR, 0, &ies.AMBRValue{Uplink: testAMBRUplink, Downlink: testAMBRDown}))
	}
	if !o.noULI {
		list = append(list, mustIE(t, ies.ULI, 0, &ies.ULIValue{
			TAI:  &tai.TAI{PlmnID: plmn, TAC: 1},
			ECGI: &ies.ECGI{PlmnID: plmn, CellID: 0x19b01},
		}))
	}
	var members []ies.IE
	if !o.noEBI {
		members = append(members, ies.NewEBI(defaultEBI))
	}
	members = append(members,
		mustIE(t, ies.FTEID, message.InstanceS5S8USGWFTEID,
			&ies.FTEIDValue{Interface: ies.InterfaceS5S8SGWGTPU, TEID: sgwS5UTEID, IPv4: sgwAddr}),
		mustIE(t, ies.BearerQoS, 0, &ies.BearerQoSValue{QCI: 9, PriorityLevel: 8, UplinkMBR: 0}),
	)
	list = append(list, ies.Grouped(ies.BearerContext, 0, members...))
	return ies.Encode(nil, list...)
}

func (e *testEnv) createSession(t *testing.T) *context.Session {
	t.Helper()
	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	require.NoError(t, e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
		createSessionRequest(t, csrOptions{})))
	sess := e.h.PGW.SessionByIMSIAPN(testIMSI, testAPN)
	require.NotNil(t, sess)
	e.out.msgs = nil
	return sess
}

func TestCreateSession(t *testing.T) {
	e := newTestEnv()
	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	require.NoError(t, e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
		createSessionRequest(t, csrOptions{})))

	sess := e.h.PGW.SessionByIMSIAPN(testIMSI, testAPN)
	require.NotNil(t, sess)
	assert.Equal(t, uint32(sgwS5CTEID), sess.PeerS5CTEID)
	require.NotNil(t, sess.TAI)
	assert.Equal(t, uint16(1), sess.TAI.TAC)
	require.NotNil(t, sess.ECGI)
	assert.Equal(t, uint32(0x19b01), sess.ECGI.CellID)
	assert.Equal(t, context.Bitrate{Downlink: testAMBRDown, Uplink: testAMBRUplink}, sess.AMBR)

	bearer := sess.DefaultBearer()
	assert.Equal(t, uint8(defaultEBI), bearer.EBI)
	assert.Equal(t, uint32(sgwS5UTEID), bearer.PeerS5UTEID)
	assert.Equal(t, uint8(9), bearer.QoS.QCI)
	require.NotNil(t, bearer.PeerNode)
	assert.Equal(t, "10.0.0.2", bearer.PeerNode.Addr)

	require.Len(t, e.out.msgs, 1)
	rsp := e.out.msgs[0]
	assert.Equal(t, gtpmsgtypes.CreateSessionResponse, rsp.header.Type)
	assert.Equal(t, uint32(sgwS5CTEID), rsp.header.TEID)
	assert.Equal(t, transaction.TxnStateClosed, xact.State())

	list := decodeIEs(t, rsp.payload)
	assert.Equal(t, pgwerrors.CauseRequestAccepted, causeOf(t, list))

	s5c := findIE(t, list, ies.FTEID, 1)
	require.NotNil(t, s5c)
	f, err := ies.ParseFTEID(s5c.Value)
	require.NoError(t, err)
	assert.Equal(t, sess.LocalS5CTEID, f.TEID)
	assert.Equal(t, "10.0.0.1", f.Addr())

	// AMBR goes back in the kbps the SGW signalled, unquantized
	ambrIE := findIE(t, list, ies.AMBR, 0)
	require.NotNil(t, ambrIE)
	ambr, err := ies.ParseAMBR(ambrIE.Value)
	require.NoError(t, err)
	assert.Equal(t, uint32(testAMBRDown), ambr.Downlink)
	assert.Equal(t, uint32(testAMBRUplink), ambr.Uplink)

	bc := findIE(t, list, ies.BearerContext, 0)
	require.NotNil(t, bc)
	members := decodeIEs(t, bc.Value)
	ebi := findIE(t, members, ies.EBI, 0)
	require.NotNil(t, ebi)
	assert.Equal(t, []byte{defaultEBI}, ebi.Value)
	s5u := findIE(t, members, ies.FTEID, 2)
	require.NotNil(t, s5u)
	f, err = ies.ParseFTEID(s5u.Value)
	require.NoError(t, err)
	assert.Equal(t, bearer.LocalS5UTEID, f.TEID)
	assert.Equal(t, "10.0.1.1", f.Addr())
	assert.NotNil(t, findIE(t, members, ies.BearerQoS, 0))
}

func TestCreateSessionWithoutULI(t *testing.T) {
	e := newTestEnv()
	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	err := e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
		createSessionRequest(t, csrOptions{noULI: true}))
	assert.ErrorIs(t, err, pgwerrors.ErrMandatoryIEMissing)

	assert.Empty(t, e.h.PGW.Sessions())
	require.Len(t, e.out.msgs, 1)
	assert.Equal(t, gtpmsgtypes.CreateSessionResponse, e.out.msgs[0].header.Type)
	assert.Equal(t, uint32(sgwS5CTEID), e.out.msgs[0].header.TEID)
	list := decodeIEs(t, e.out.msgs[0].payload)
	assert.Equal(t, pgwerrors.CauseMandatoryIEMissing, causeOf(t, list))
	assert.Len(t, list, 1)
}

func TestCreateSessionWithoutIMSI(t *testing.T) {
	e := newTestEnv()
	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	err := e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
		createSessionRequest(t, csrOptions{noIMSI: true}))
	assert.ErrorIs(t, err, pgwerrors.ErrMandatoryIEMissing)
	assert.Empty(t, e.h.PGW.Sessions())
}

// APN and EPS Bearer ID key the session and its default bearer
func TestCreateSessionWithoutSessionKeys(t *testing.T) {
	for name, o := range map[string]csrOptions{
		"no APN": {noAPN: true},
		"no EBI": {noEBI: true},
	} {
		t.Run(name, func(t *testing.T) {
			e := newTestEnv()
			xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
			err := e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
				createSessionRequest(t, o))
			assert.ErrorIs(t, err, pgwerrors.ErrMandatoryIEMissing)
			assert.Empty(t, e.h.PGW.Sessions())
			require.Len(t, e.out.msgs, 1)
			assert.Equal(t, pgwerrors.CauseMandatoryIEMissing, causeOf(t, decodeIEs(t, e.out.msgs[0].payload)))
		})
	}
}

func TestCreateSessionWithoutAMBR(t *testing.T) {
	e := newTestEnv()
	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	require.NoError(t, e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
		createSessionRequest(t, csrOptions{noAMBR: true})))

	sess := e.h.PGW.SessionByIMSIAPN(testIMSI, testAPN)
	require.NotNil(t, sess)
	assert.Nil(t, sess.EncodedAMBR)

	require.Len(t, e.out.msgs, 1)
	list := decodeIEs(t, e.out.msgs[0].payload)
	assert.Equal(t, pgwerrors.CauseRequestAccepted, causeOf(t, list))
	assert.Nil(t, findIE(t, list, ies.AMBR, 0))
}

func TestCreateSessionReplacesExisting(t *testing.T) {
	e := newTestEnv()
	old := e.createSession(t)
	fresh := e.createSession(t)

	assert.NotEqual(t, old.LocalS5CTEID, fresh.LocalS5CTEID)
	assert.Nil(t, e.h.PGW.SessionByTEID(old.LocalS5CTEID))
	assert.Len(t, e.h.PGW.Sessions(), 1)
	assert.Equal(t, 1, fresh.DefaultBearer().PeerNode.RefCount())
}

type fakePolicy struct {
	established []*context.Session
	terminated  []*context.Session
}

func (p *fakePolicy) EstablishSession(sess *context.Session, xact *transaction.Transaction) error {
	p.established = append(p.established, sess)
	return nil
}

func (p *fakePolicy) TerminateSession(sess *context.Session, xact *transaction.Transaction) error {
	p.terminated = append(p.terminated, sess)
	return nil
}

func TestCreateSessionWaitsForPolicy(t *testing.T) {
	e := newTestEnv()
	policy := &fakePolicy{}
	e.h.Policy = policy

	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	require.NoError(t, e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest},
		createSessionRequest(t, csrOptions{})))
	require.Len(t, policy.established, 1)
	assert.Empty(t, e.out.msgs)

	require.NoError(t, e.h.SendCreateSessionResponse(policy.established[0], xact))
	require.Len(t, e.out.msgs, 1)
	assert.Equal(t, gtpmsgtypes.CreateSessionResponse, e.out.msgs[0].header.Type)
}

func TestDeleteSession(t *testing.T) {
	e := newTestEnv()
	sess := e.createSession(t)

	xact := e.txns.Accept(gtpmsgtypes.DeleteSessionRequest)
	require.NoError(t, e.h.HandleMessage(xact,
		&message.Header{Type: gtpmsgtypes.DeleteSessionRequest, TEID: sess.LocalS5CTEID},
		ies.Encode(nil, ies.NewEBI(defaultEBI))))

	assert.Nil(t, e.h.PGW.SessionByTEID(sess.LocalS5CTEID))
	assert.Nil(t, e.h.Peers.(*context.PeerNodeRegistry).Find("10.0.0.2"))
	require.Len(t, e.out.msgs, 1)
	assert.Equal(t, gtpmsgtypes.DeleteSessionResponse, e.out.msgs[0].header.Type)
	assert.Equal(t, uint32(sgwS5CTEID), e.out.msgs[0].header.TEID)
	assert.Equal(t, pgwerrors.CauseRequestAccepted, causeOf(t, decodeIEs(t, e.out.msgs[0].payload)))
}

func TestDeleteSessionUnknown(t *testing.T) {
	e := newTestEnv()
	xact := e.txns.Accept(gtpmsgtypes.DeleteSessionRequest)
	err := e.h.HandleMessage(xact, &message.Header{Type: gtpmsgtypes.DeleteSessionRequest, TEID: 0x999}, nil)
	assert.ErrorIs(t, err, pgwerrors.ErrContextNotFound)

	require.Len(t, e.out.msgs, 1)
	assert.Equal(t, uint32(0), e.out.msgs[0].header.TEID)
	assert.Equal(t, pgwerrors.CauseContextNotFound, causeOf(t, decodeIEs(t, e.out.msgs[0].payload)))
}

func TestDeleteSessionWaitsForPolicy(t *testing.T) {
	e := newTestEnv()
	sess := e.createSession(t)
	policy := &fakePolicy{}
	e.h.Policy = policy

	xact := e.txns.Accept(gtpmsgtypes.DeleteSessionRequest)
	require.NoError(t, e.h.HandleDeleteSessionRequest(sess, xact, &message.DeleteSessionRequest{}))
	require.Len(t, policy.terminated, 1)
	assert.NotNil(t, e.h.PGW.SessionByTEID(sess.LocalS5CTEID))

	require.NoError(t, e.h.SendDeleteSessionResponse(sess, xact))
	assert.Nil(t, e.h.PGW.SessionByTEID(sess.LocalS5CTEID))
}

func TestDispatchUnexpected(t *testing.T) {
	e := newTestEnv()
	xact := e.txns.Accept(gtpmsgtypes.CreateSessionRequest)
	err := e.h.Dispatch(xact, &message.Header{Type: gtpmsgtypes.CreateSessionRequest}, &message.DeleteSessionRequest{})
	assert.ErrorIs(t, err, message.ErrUnexpectedMessage)

	err = e.h.Dispatch(xact, &message.Header{Type: gtpmsgtypes.BearerResourceFailureIndication}, struct{}{})
	assert.ErrorIs(t, err, message.ErrUnexpectedMessage)
}
