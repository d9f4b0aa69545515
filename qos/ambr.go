// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package qos

import (
	"bytes"

	"github.com/pkg/errors"
)

// APNAMBR is the APN aggregate maximum bit rate record of TS 24.301 9.9.4.2.
// Both directions always occupy the same number of octets.
type APNAMBR struct {
	Downlink EncodedRate
	Uplink   EncodedRate
	Length   uint8
}

const apnAMBRMaxLen = 6

var ErrInvalidLength = errors.New("invalid record length")

func BuildAPNAMBR(dlKbps, ulKbps uint64) APNAMBR {
	ambr := APNAMBR{
		Downlink: EncodeAMBRRate(dlKbps),
		Uplink:   EncodeAMBRRate(ulKbps),
	}
	ambr.Length = 2 * max(ambr.Downlink.Length, ambr.Uplink.Length)
	return ambr
}

// Kbps returns the downlink and uplink rates the record stands for.
func (a APNAMBR) Kbps() (dl, ul uint64) {
	return DecodeAMBRRate(a.Downlink), DecodeAMBRRate(a.Uplink)
}

func (a APNAMBR) octets() []byte {
	return []byte{
		a.Downlink.Base, a.Uplink.Base,
		a.Downlink.Extended, a.Uplink.Extended,
		a.Downlink.Extended2, a.Uplink.Extended2,
	}
}

// MarshalBinary writes the length octet followed by Length rate octets.
func (a APNAMBR) MarshalBinary() ([]byte, error) {
	if a.Length == 0 || a.Length > apnAMBRMaxLen || a.Length%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "APN-AMBR length %d", a.Length)
	}
	buf := bytes.NewBuffer(nil)
	buf.WriteByte(a.Length)
	buf.Write(a.octets()[:a.Length])
	return buf.Bytes(), nil
}

func (a *APNAMBR) UnmarshalBinary(b []byte) error {
	if len(b) < 1 {
		return errors.Wrap(ErrInvalidLength, "empty APN-AMBR")
	}
	length := b[0]
	if length == 0 || length > apnAMBRMaxLen || length%2 != 0 || len(b) < int(length)+1 {
		return errors.Wrapf(ErrInvalidLength, "APN-AMBR length %d", length)
	}
	o := make([]byte, apnAMBRMaxLen)
	copy(o, b[1:1+length])
	width := length / 2
	*a = APNAMBR{
		Downlink: EncodedRate{Base: o[0], Extended: o[2], Extended2: o[4], Length: width},
		Uplink:   EncodedRate{Base: o[1], Extended: o[3], Extended2: o[5], Length: width},
		Length:   length,
	}
	return nil
}
