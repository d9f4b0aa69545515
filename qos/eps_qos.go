// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package qos

import (
	"bytes"

	"github.com/pkg/errors"
)

// EPSQoS is the EPS quality of service record of TS 24.301 9.9.4.3.
// Rates are only encoded when non-zero; absent rates stay zero-filled.
type EPSQoS struct {
	QCI         uint8
	UplinkMBR   EncodedRate
	DownlinkMBR EncodedRate
	UplinkGBR   EncodedRate
	DownlinkGBR EncodedRate
	Length      uint8
}

const epsQoSMaxLen = 13

func BuildEPSQoS(qci uint8, dlMBR, ulMBR, dlGBR, ulGBR uint64) EPSQoS {
	q := EPSQoS{QCI: qci}

	var width uint8
	for _, r := range []struct {
		dst  *EncodedRate
		kbps uint64
	}{
		{&q.DownlinkMBR, dlMBR},
		{&q.UplinkMBR, ulMBR},
		{&q.DownlinkGBR, dlGBR},
		{&q.UplinkGBR, ulGBR},
	} {
		if r.kbps == 0 {
			continue
		}
		*r.dst = EncodeQoSRate(r.kbps)
		width = max(width, r.dst.Length)
	}

	q.Length = width*4 + 1
	return q
}

// Kbps returns the maximum and guaranteed rates the record stands for.
func (q EPSQoS) Kbps() (dlMBR, ulMBR, dlGBR, ulGBR uint64) {
	return DecodeQoSRate(q.DownlinkMBR), DecodeQoSRate(q.UplinkMBR),
		DecodeQoSRate(q.DownlinkGBR), DecodeQoSRate(q.UplinkGBR)
}

func (q EPSQoS) rates() []*EncodedRate {
	return []*EncodedRate{&q.UplinkMBR, &q.DownlinkMBR, &q.UplinkGBR, &q.DownlinkGBR}
}

func (q EPSQoS) MarshalBinary() ([]byte, error) {
	if q.Length == 0 || q.Length > epsQoSMaxLen || (q.Length-1)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "EPS QoS length %d", q.Length)
	}
	rates := q.rates()
	octets := []byte{q.QCI}
	for _, r := range rates {
		octets = append(octets, r.Base)
	}
	for _, r := range rates {
		octets = append(octets, r.Extended)
	}
	for _, r := range rates {
		octets = append(octets, r.Extended2)
	}

	buf := bytes.NewBuffer(nil)
	buf.WriteByte(q.Length)
	buf.Write(octets[:q.Length])
	return buf.Bytes(), nil
}

func (q *EPSQoS) UnmarshalBinary(b []byte) error {
	if len(b) < 1 {
		return errors.Wrap(ErrInvalidLength, "empty EPS QoS")
	}
	length := b[0]
	if length == 0 || length > epsQoSMaxLen || (length-1)%4 != 0 || len(b) < int(length)+1 {
		return errors.Wrapf(ErrInvalidLength, "EPS QoS length %d", length)
	}
	o := make([]byte, epsQoSMaxLen)
	copy(o, b[1:1+length])
	width := (length - 1) / 4

	rate := func(i int) EncodedRate {
		if width == 0 {
			return EncodedRate{}
		}
		return EncodedRate{Base: o[1+i], Extended: o[5+i], Extended2: o[9+i], Length: width}
	}
	*q = EPSQoS{
		QCI:         o[0],
		UplinkMBR:   rate(0),
		DownlinkMBR: rate(1),
		UplinkGBR:   rate(2),
		DownlinkGBR: rate(3),
		Length:      length,
	}
	return nil
}
