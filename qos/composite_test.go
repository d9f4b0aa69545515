// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package qos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAPNAMBRLength(t *testing.T) {
	testCases := []struct {
		dl, ul   uint64
		expected uint8
	}{
		{0, 0, 2},
		{1000, 0, 2},
		{1000, 9000, 4},
		{300000, 64, 6},
		{1 << 30, 1 << 30, 6},
	}

	for _, tc := range testCases {
		ambr := BuildAPNAMBR(tc.dl, tc.ul)
		assert.Equal(t, tc.expected, ambr.Length)
		assert.Equal(t, 2*max(ambr.Downlink.Length, ambr.Uplink.Length), ambr.Length)
	}
}

func TestAPNAMBRMarshalBinary(t *testing.T) {
	ambr := BuildAPNAMBR(8700, 64)
	b, err := ambr.MarshalBinary()
	require.NoError(t, err)
	// dl, ul, dl ext, ul ext
	assert.Equal(t, []byte{0x04, 0xfe, 0x40, 0x01, 0x00}, b)

	var decoded APNAMBR
	require.NoError(t, decoded.UnmarshalBinary(b))
	dl, ul := decoded.Kbps()
	assert.Equal(t, uint64(8700), dl)
	assert.Equal(t, uint64(64), ul)
}

func TestAPNAMBRUnmarshalInvalidLength(t *testing.T) {
	var ambr APNAMBR
	assert.ErrorIs(t, ambr.UnmarshalBinary(nil), ErrInvalidLength)
	assert.ErrorIs(t, ambr.UnmarshalBinary([]byte{0x03, 1, 2, 3}), ErrInvalidLength)
	assert.ErrorIs(t, ambr.UnmarshalBinary([]byte{0x04, 1, 2}), ErrInvalidLength)
}

func TestBuildEPSQoSLength(t *testing.T) {
	testCases := []struct {
		name                       string
		dlMBR, ulMBR, dlGBR, ulGBR uint64
		expected                   uint8
	}{
		{"no rates", 0, 0, 0, 0, 1},
		{"one octet", 500, 500, 0, 0, 5},
		{"extended", 500, 9000, 0, 0, 9},
		{"extended-2 on gbr", 0, 0, 300000, 64, 13},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := BuildEPSQoS(9, tc.dlMBR, tc.ulMBR, tc.dlGBR, tc.ulGBR)
			assert.Equal(t, tc.expected, q.Length)

			width := max(q.DownlinkMBR.Length, q.UplinkMBR.Length, q.DownlinkGBR.Length, q.UplinkGBR.Length)
			assert.Equal(t, 4*width+1, q.Length)
		})
	}
}

func TestEPSQoSAbsentRatesAreZeroFilled(t *testing.T) {
	q := BuildEPSQoS(1, 1000, 0, 0, 0)
	assert.Equal(t, EncodedRate{}, q.UplinkMBR)

	b, err := q.MarshalBinary()
	require.NoError(t, err)
	// length, qci, ul mbr, dl mbr, ul gbr, dl gbr
	assert.Equal(t, []byte{0x05, 0x01, 0x00, 0x86, 0x00, 0x00}, b)
}

func TestEPSQoSRoundTrip(t *testing.T) {
	q := BuildEPSQoS(5, 300000, 20000, 8700, 64)
	b, err := q.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 14)

	var decoded EPSQoS
	require.NoError(t, decoded.UnmarshalBinary(b))
	assert.Equal(t, uint8(5), decoded.QCI)

	dlMBR, ulMBR, dlGBR, ulGBR := decoded.Kbps()
	assert.Equal(t, uint64(299008), dlMBR)
	assert.Equal(t, uint64(19456), ulMBR)
	assert.Equal(t, uint64(8700), dlGBR)
	assert.Equal(t, uint64(64), ulGBR)
}
