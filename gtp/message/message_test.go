// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
)

func mustIE(t *testing.T, typ, instance uint8, v interface{ MarshalBinary() ([]byte, error) }) ies.IE {
	ie, err := ies.New(typ, instance, v)
	require.NoError(t, err)
	return ie
}

func TestParseCreateSessionRequest(t *testing.T) {
	imsi, err := ies.EncodeIMSI("001010000000001")
	require.NoError(t, err)

	sgwU := &ies.FTEIDValue{Interface: ies.InterfaceS5S8SGWGTPU, TEID: 0x20, IPv4: net.IPv4(10, 0, 0, 2)}
	b := ies.Encode(nil,
		ies.IE{Type: ies.IMSI, Value: imsi},
		mustIE(t, ies.FTEID, 0, &ies.FTEIDValue{Interface: ies.InterfaceS5S8SGWGTPC, TEID: 0x10, IPv4: net.IPv4(10, 0, 0, 2)}),
		// PGW S5C address, instance 1, is not used
		mustIE(t, ies.FTEID, 1, &ies.FTEIDValue{Interface: ies.InterfaceS5S8PGWGTPC, IPv4: net.IPv4(10, 0, 0, 1)}),
		ies.Grouped(ies.BearerContext, 0,
			ies.NewEBI(5),
			mustIE(t, ies.FTEID, InstanceS5S8USGWFTEID, sgwU),
			mustIE(t, ies.BearerQoS, 0, &ies.BearerQoSValue{QCI: 9, PriorityLevel: 1}),
		),
	)

	msg, err := Parse(&Header{Type: gtpmsgtypes.CreateSessionRequest}, b)
	require.NoError(t, err)
	req, ok := msg.(*CreateSessionRequest)
	require.True(t, ok)

	assert.True(t, req.IMSI.Presence)
	assert.False(t, req.APN.Presence)
	assert.False(t, req.AggregateMaximumBitRate.Presence)
	assert.False(t, req.UserLocationInformation.Presence)

	f, err := ies.ParseFTEID(req.SenderFTEIDForControlPlane.Data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10), f.TEID)

	bc := req.BearerContextsToBeCreated
	assert.True(t, bc.Presence)
	ebi, err := bc.EBI.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(5), ebi)
	assert.True(t, bc.BearerLevelQoS.Presence)
	assert.True(t, bc.S5S8USGWFTEID.Presence)
	assert.False(t, bc.S5S8UPGWFTEID.Presence)
}

func TestParseUnexpected(t *testing.T) {
	_, err := Parse(&Header{Type: gtpmsgtypes.CreateSessionResponse}, nil)
	assert.ErrorIs(t, err, ErrUnexpectedMessage)

	_, err = Parse(&Header{Type: gtpmsgtypes.BearerResourceCommand}, []byte{73, 0, 9})
	assert.ErrorIs(t, err, ies.ErrMalformedIE)
}

func TestBuildCreateSessionResponse(t *testing.T) {
	b, err := BuildCreateSessionResponse(16,
		&ies.FTEIDValue{Interface: ies.InterfaceS5S8PGWGTPC, TEID: 1, IPv4: net.IPv4(10, 0, 0, 1)},
		&AMBR{Downlink: 300000, Uplink: 8700},
		&BearerContextIE{
			EBI:   5,
			Cause: 16,
			FTEID: &ies.FTEIDValue{Interface: ies.InterfaceS5S8PGWGTPU, TEID: 2, IPv4: net.IPv4(10, 0, 0, 1)},
			ARP:   ARP{PriorityLevel: 1},
			QoS:   &BearerQoS{QCI: 9, UplinkMBR: 600},
		})
	require.NoError(t, err)

	list, err := ies.Decode(b)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []uint8{ies.Cause, ies.FTEID, ies.AMBR, ies.BearerContext},
		[]uint8{list[0].Type, list[1].Type, list[2].Type, list[3].Type})
	assert.Equal(t, uint8(1), list[1].Instance)

	a, err := ies.ParseAMBR(list[2].Value)
	require.NoError(t, err)
	assert.Equal(t, uint32(300000), a.Downlink)
	assert.Equal(t, uint32(8700), a.Uplink)

	inner, err := ies.Decode(list[3].Value)
	require.NoError(t, err)
	require.Len(t, inner, 4)
	assert.Equal(t, uint8(2), inner[2].Instance)
	q, err := ies.ParseBearerQoS(inner[3].Value)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), q.QCI)
	assert.Equal(t, uint64(0), q.DownlinkMBR)
	assert.Equal(t, uint64(600), q.UplinkMBR)
}

func TestBuildUpdateBearerRequest(t *testing.T) {
	b, err := BuildUpdateBearerRequest(3, &AMBR{Downlink: 1000, Uplink: 1000}, &BearerContextIE{EBI: 6, TFT: []byte{0xc0}})
	require.NoError(t, err)

	list, err := ies.Decode(b)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ies.PTI, list[0].Type)
	assert.Equal(t, ies.BearerContext, list[1].Type)
	assert.Equal(t, ies.AMBR, list[2].Type)

	inner, err := ies.Decode(list[1].Value)
	require.NoError(t, err)
	require.Len(t, inner, 2)
	assert.Equal(t, ies.BearerTFT, inner[1].Type)
}

func TestBuildDeleteBearerRequest(t *testing.T) {
	list, err := ies.Decode(BuildDeleteBearerRequest(0, 6, 7))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ies.IE{Type: ies.EBI, Instance: 1, Value: []byte{7}}, list[1])
}

func TestBuildErrorMessage(t *testing.T) {
	assert.Equal(t, []byte{ies.Cause, 0, 2, 0, 70, 0}, BuildErrorMessage(70))
	list, err := ies.Decode(BuildBearerResourceFailureIndication(68, 5, 9))
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
