// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package qos

import (
	"github.com/omec-project/pgwc/logger"
)

// EncodedRate is a bit rate quantized into up to three octets, laid out as
// the "bit rate", "extended" and "extended-2" octets of TS 24.301 9.9.4.2
// and 9.9.4.3.
type EncodedRate struct {
	Base      uint8
	Extended  uint8
	Extended2 uint8
	// Length is the number of octets in use: 1, 2 or 3.
	Length uint8
}

const (
	RateZeroKbps uint8 = 0xff

	mbps = uint64(1024)

	// highest value carried in the extended octet, 256 Mbps
	extendedMax uint8 = 0xfa
	// highest value carried in the extended-2 octet of EPS QoS, 10 Gbps
	qosExtended2Max uint8 = 0xf6
	// highest value carried in the extended-2 octet of APN-AMBR, 65280 Mbps
	ambrExtended2Max uint8 = 0xfe
)

// encodeUpTo256Mbps covers the base and extended octet tiers shared by
// APN-AMBR and EPS QoS. Values outside 1..256 Mbps yield a zero-length rate.
func encodeUpTo256Mbps(kbps uint64) EncodedRate {
	switch {
	case kbps < 1:
		return EncodedRate{}
	case kbps <= 63:
		return EncodedRate{Base: uint8(kbps), Length: 1}
	case kbps <= 568:
		return EncodedRate{Base: uint8((kbps-64)/8) + 0x40, Length: 1}
	case kbps < 576:
		// 568 kbps
		return EncodedRate{Base: 0x7f, Length: 1}
	case kbps <= 8640:
		return EncodedRate{Base: uint8((kbps-576)/64) + 0x80, Length: 1}
	case kbps < 8700:
		// 8640 kbps
		return EncodedRate{Base: 0xfe, Length: 1}
	case kbps <= 16000:
		return EncodedRate{Base: 0xfe, Extended: uint8((kbps - 8600) / 100), Length: 2}
	case kbps < 17*mbps:
		// 16000 kbps
		return EncodedRate{Base: 0xfe, Extended: 0x4a, Length: 2}
	case kbps <= 128*mbps:
		return EncodedRate{Base: 0xfe, Extended: uint8((kbps-16*mbps)/mbps) + 0x4a, Length: 2}
	case kbps < 130*mbps:
		// 128 Mbps
		return EncodedRate{Base: 0xfe, Extended: 0xba, Length: 2}
	case kbps <= 256*mbps:
		return EncodedRate{Base: 0xfe, Extended: uint8((kbps-128*mbps)/(2*mbps)) + 0xba, Length: 2}
	}
	return EncodedRate{}
}

// EncodeQoSRate quantizes a maximum or guaranteed bit rate of an EPS bearer.
// Rates above 10 Gbps saturate to the highest encoding.
func EncodeQoSRate(kbps uint64) EncodedRate {
	if kbps < 1 {
		return EncodedRate{Base: RateZeroKbps, Length: 1}
	}
	if kbps <= 256*mbps {
		return encodeUpTo256Mbps(kbps)
	}

	r := EncodedRate{Base: 0xfe, Extended: extendedMax, Length: 3}
	switch {
	case kbps < 260*mbps:
		// 256 Mbps
		r.Length = 2
	case kbps <= 500*mbps:
		r.Extended2 = uint8((kbps - 256*mbps) / (4 * mbps))
	case kbps < 510*mbps:
		// 500 Mbps
		r.Extended2 = 0x3d
	case kbps <= 1500*mbps:
		r.Extended2 = uint8((kbps-500*mbps)/(10*mbps)) + 0x3d
	case kbps < 1600*mbps:
		// 1500 Mbps
		r.Extended2 = 0xa1
	case kbps <= 10*1000*mbps:
		r.Extended2 = uint8((kbps-1500*mbps)/(100*mbps)) + 0xa1
	default:
		logger.QosLog.Debugf("bit rate %d kbps above 10 Gbps, saturated", kbps)
		r.Extended2 = qosExtended2Max
	}
	return r
}

// EncodeAMBRRate quantizes one direction of an APN-AMBR. From 256 Mbps on,
// the extended-2 octet carries whole multiples of 256 Mbps and the remainder
// is encoded in the lower octets.
func EncodeAMBRRate(kbps uint64) EncodedRate {
	if kbps < 1 {
		return EncodedRate{Base: RateZeroKbps, Length: 1}
	}

	var ext2 uint8
	switch {
	case kbps > 65200*mbps:
		logger.QosLog.Debugf("APN-AMBR %d kbps above 65200 Mbps, saturated", kbps)
		ext2 = ambrExtended2Max
		kbps %= 256 * mbps
	case kbps >= 256*mbps:
		ext2 = uint8(kbps / (256 * mbps))
		kbps %= 256 * mbps
	}

	r := encodeUpTo256Mbps(kbps)
	if ext2 != 0 {
		r.Extended2 = ext2
		r.Length = 3
	}
	return r
}

func decodeBase(b uint8) uint64 {
	switch {
	case b == 0 || b == RateZeroKbps:
		return 0
	case b <= 0x3f:
		return uint64(b)
	case b <= 0x7f:
		return 64 + uint64(b-0x40)*8
	default:
		return 576 + uint64(b-0x80)*64
	}
}

func decodeExtended(e uint8) uint64 {
	// all other values shall be interpreted as 11111010
	if e > extendedMax {
		e = extendedMax
	}
	switch {
	case e <= 0x4a:
		return 8600 + uint64(e)*100
	case e <= 0xba:
		return 16*mbps + uint64(e-0x4a)*mbps
	default:
		return 128*mbps + uint64(e-0xba)*2*mbps
	}
}

func decodeUpTo256Mbps(r EncodedRate) uint64 {
	if r.Length >= 2 && r.Extended != 0 {
		return decodeExtended(r.Extended)
	}
	return decodeBase(r.Base)
}

// DecodeQoSRate is the inverse of EncodeQoSRate, returning the kbps value
// the encoding stands for.
func DecodeQoSRate(r EncodedRate) uint64 {
	if r.Length >= 3 && r.Extended2 != 0 {
		e := r.Extended2
		if e > qosExtended2Max {
			e = qosExtended2Max
		}
		switch {
		case e <= 0x3d:
			return 256*mbps + uint64(e)*4*mbps
		case e <= 0xa1:
			return 500*mbps + uint64(e-0x3d)*10*mbps
		default:
			return 1500*mbps + uint64(e-0xa1)*100*mbps
		}
	}
	return decodeUpTo256Mbps(r)
}

// DecodeAMBRRate is the inverse of EncodeAMBRRate.
func DecodeAMBRRate(r EncodedRate) uint64 {
	kbps := decodeUpTo256Mbps(r)
	if r.Length >= 3 {
		kbps += uint64(r.Extended2) * 256 * mbps
	}
	return kbps
}
