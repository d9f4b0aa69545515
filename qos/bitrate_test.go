// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package qos_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omec-project/pgwc/qos"
)

func TestEncodeQoSRateBoundaries(t *testing.T) {
	testCases := []struct {
		kbps     uint64
		expected qos.EncodedRate
	}{
		{0, qos.EncodedRate{Base: 0xff, Length: 1}},
		{1, qos.EncodedRate{Base: 0x01, Length: 1}},
		{63, qos.EncodedRate{Base: 0x3f, Length: 1}},
		{64, qos.EncodedRate{Base: 0x40, Length: 1}},
		{71, qos.EncodedRate{Base: 0x40, Length: 1}},
		{72, qos.EncodedRate{Base: 0x41, Length: 1}},
		{568, qos.EncodedRate{Base: 0x7f, Length: 1}},
		{570, qos.EncodedRate{Base: 0x7f, Length: 1}},
		{575, qos.EncodedRate{Base: 0x7f, Length: 1}},
		{576, qos.EncodedRate{Base: 0x80, Length: 1}},
		{8640, qos.EncodedRate{Base: 0xfe, Length: 1}},
		{8699, qos.EncodedRate{Base: 0xfe, Length: 1}},
		{8700, qos.EncodedRate{Base: 0xfe, Extended: 0x01, Length: 2}},
		{16000, qos.EncodedRate{Base: 0xfe, Extended: 0x4a, Length: 2}},
		{17407, qos.EncodedRate{Base: 0xfe, Extended: 0x4a, Length: 2}},
		{17408, qos.EncodedRate{Base: 0xfe, Extended: 0x4b, Length: 2}},
		{131072, qos.EncodedRate{Base: 0xfe, Extended: 0xba, Length: 2}},
		{133119, qos.EncodedRate{Base: 0xfe, Extended: 0xba, Length: 2}},
		{133120, qos.EncodedRate{Base: 0xfe, Extended: 0xbb, Length: 2}},
		{262144, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Length: 2}},
		{266239, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Length: 2}},
		{266240, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0x01, Length: 3}},
		{512000, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0x3d, Length: 3}},
		{522239, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0x3d, Length: 3}},
		{522240, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0x3e, Length: 3}},
		{1536000, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0xa1, Length: 3}},
		{1638400, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0xa2, Length: 3}},
		{10240000, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0xf6, Length: 3}},
		{1 << 40, qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0xf6, Length: 3}},
	}

	for _, tc := range testCases {
		assert.Equalf(t, tc.expected, qos.EncodeQoSRate(tc.kbps), "kbps %d", tc.kbps)
	}
}

func TestEncodeAMBRRate(t *testing.T) {
	testCases := []struct {
		kbps     uint64
		expected qos.EncodedRate
	}{
		{0, qos.EncodedRate{Base: 0xff, Length: 1}},
		{8700, qos.EncodedRate{Base: 0xfe, Extended: 0x01, Length: 2}},
		{262143, qos.EncodedRate{Base: 0xfe, Extended: 0xf9, Length: 2}},
		// exactly 256 Mbps is carried by extended-2 alone
		{262144, qos.EncodedRate{Extended2: 0x01, Length: 3}},
		{262144 + 1000, qos.EncodedRate{Base: 0x86, Extended2: 0x01, Length: 3}},
		{2*262144 + 16000, qos.EncodedRate{Base: 0xfe, Extended: 0x4a, Extended2: 0x02, Length: 3}},
		{65300 * 1024, qos.EncodedRate{Base: 0xfe, Extended: 0x4e, Extended2: 0xfe, Length: 3}},
	}

	for _, tc := range testCases {
		assert.Equalf(t, tc.expected, qos.EncodeAMBRRate(tc.kbps), "kbps %d", tc.kbps)
	}
}

func TestDecodeRoundsDown(t *testing.T) {
	for k := uint64(0); k <= 568; k++ {
		got := qos.DecodeQoSRate(qos.EncodeQoSRate(k))
		want := k
		if k >= 64 {
			want = 64 + (k-64)/8*8
		}
		require.Equalf(t, want, got, "kbps %d", k)
		require.Equalf(t, want, qos.DecodeAMBRRate(qos.EncodeAMBRRate(k)), "kbps %d", k)
	}
}

func TestDecodeNeverExceedsInput(t *testing.T) {
	for _, k := range []uint64{600, 8641, 9999, 16001, 20000, 131073, 200000, 300000, 511999, 600000, 1500001, 5000000, 10240000} {
		got := qos.DecodeQoSRate(qos.EncodeQoSRate(k))
		assert.LessOrEqualf(t, got, k, "kbps %d", k)
	}
	for _, k := range []uint64{262144, 300000, 1000000, 10000000} {
		got := qos.DecodeAMBRRate(qos.EncodeAMBRRate(k))
		assert.LessOrEqualf(t, got, k, "kbps %d", k)
	}
}

func TestDecodeReservedExtendedValues(t *testing.T) {
	r := qos.EncodedRate{Base: 0xfe, Extended: 0xff, Length: 2}
	assert.Equal(t, uint64(262144), qos.DecodeQoSRate(r))

	r = qos.EncodedRate{Base: 0xfe, Extended: 0xfa, Extended2: 0xff, Length: 3}
	assert.Equal(t, uint64(10240000), qos.DecodeQoSRate(r))
}
