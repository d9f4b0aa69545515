// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package ies

import (
	"encoding/binary"
	"net"
	"strings"

	"github.com/omec-project/util_3gpp"
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/tai"
)

// F-TEID interface types, TS 29.274 Table 8.22-1
const (
	InterfaceS5S8SGWGTPU uint8 = 4
	InterfaceS5S8PGWGTPU uint8 = 5
	InterfaceS5S8SGWGTPC uint8 = 6
	InterfaceS5S8PGWGTPC uint8 = 7
)

type FTEIDValue struct {
	Interface uint8
	TEID      uint32
	IPv4      net.IP
	IPv6      net.IP
}

func ParseFTEID(b []byte) (*FTEIDValue, error) {
	if len(b) < 5 {
		return nil, errors.Wrapf(ErrMalformedIE, "F-TEID of %d octets", len(b))
	}
	f := &FTEIDValue{
		Interface: b[0] & 0x3f,
		TEID:      binary.BigEndian.Uint32(b[1:5]),
	}
	off := 5
	if b[0]&0x80 != 0 {
		if len(b) < off+net.IPv4len {
			return nil, errors.Wrap(ErrMalformedIE, "F-TEID IPv4 address truncated")
		}
		f.IPv4 = append(net.IP(nil), b[off:off+net.IPv4len]...)
		off += net.IPv4len
	}
	if b[0]&0x40 != 0 {
		if len(b) < off+net.IPv6len {
			return nil, errors.Wrap(ErrMalformedIE, "F-TEID IPv6 address truncated")
		}
		f.IPv6 = append(net.IP(nil), b[off:off+net.IPv6len]...)
	}
	if f.IPv4 == nil && f.IPv6 == nil {
		return nil, errors.Wrap(ErrMalformedIE, "F-TEID without address")
	}
	return f, nil
}

func (f *FTEIDValue) MarshalBinary() ([]byte, error) {
	flags := f.Interface & 0x3f
	if f.IPv4 != nil {
		flags |= 0x80
	}
	if f.IPv6 != nil {
		flags |= 0x40
	}
	b := binary.BigEndian.AppendUint32([]byte{flags}, f.TEID)
	if f.IPv4 != nil {
		b = append(b, f.IPv4.To4()...)
	}
	if f.IPv6 != nil {
		b = append(b, f.IPv6.To16()...)
	}
	return b, nil
}

// Addr is the endpoint address a peer is known by, IPv4 preferred.
func (f *FTEIDValue) Addr() string {
	if f.IPv4 != nil {
		return f.IPv4.String()
	}
	return f.IPv6.String()
}

// bit rates are 40-bit kbps values
func uint40(b []byte) uint64 {
	return uint64(b[0])<<32 | uint64(binary.BigEndian.Uint32(b[1:5]))
}

func appendUint40(b []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint32(append(b, byte(v>>32)), uint32(v))
}

// BearerQoSValue is the bearer level QoS of TS 29.274 8.15, rates in kbps.
type BearerQoSValue struct {
	PreEmptionCapability    bool
	PriorityLevel           uint8
	PreEmptionVulnerability bool
	QCI                     uint8
	UplinkMBR               uint64
	DownlinkMBR             uint64
	UplinkGBR               uint64
	DownlinkGBR             uint64
}

const bearerQoSLen = 22

func ParseBearerQoS(b []byte) (*BearerQoSValue, error) {
	if len(b) < bearerQoSLen {
		return nil, errors.Wrapf(ErrMalformedIE, "bearer QoS of %d octets", len(b))
	}
	return &BearerQoSValue{
		PreEmptionCapability:    b[0]&0x40 == 0,
		PriorityLevel:           b[0] >> 2 & 0x0f,
		PreEmptionVulnerability: b[0]&0x01 == 0,
		QCI:                     b[1],
		UplinkMBR:               uint40(b[2:]),
		DownlinkMBR:             uint40(b[7:]),
		UplinkGBR:               uint40(b[12:]),
		DownlinkGBR:             uint40(b[17:]),
	}, nil
}

func (q *BearerQoSValue) MarshalBinary() ([]byte, error) {
	arp := q.PriorityLevel & 0x0f << 2
	if !q.PreEmptionCapability {
		arp |= 0x40
	}
	if !q.PreEmptionVulnerability {
		arp |= 0x01
	}
	b := []byte{arp, q.QCI}
	for _, r := range []uint64{q.UplinkMBR, q.DownlinkMBR, q.UplinkGBR, q.DownlinkGBR} {
		b = appendUint40(b, r)
	}
	return b, nil
}

// FlowQoSValue is the flow QoS of TS 29.274 8.16, rates in kbps.
type FlowQoSValue struct {
	QCI         uint8
	UplinkMBR   uint64
	DownlinkMBR uint64
	UplinkGBR   uint64
	DownlinkGBR uint64
}

const flowQoSLen = 21

func ParseFlowQoS(b []byte) (*FlowQoSValue, error) {
	if len(b) < flowQoSLen {
		return nil, errors.Wrapf(ErrMalformedIE, "flow QoS of %d octets", len(b))
	}
	return &FlowQoSValue{
		QCI:         b[0],
		UplinkMBR:   uint40(b[1:]),
		DownlinkMBR: uint40(b[6:]),
		UplinkGBR:   uint40(b[11:]),
		DownlinkGBR: uint40(b[16:]),
	}, nil
}

func (q *FlowQoSValue) MarshalBinary() ([]byte, error) {
	b := []byte{q.QCI}
	for _, r := range []uint64{q.UplinkMBR, q.DownlinkMBR, q.UplinkGBR, q.DownlinkGBR} {
		b = appendUint40(b, r)
	}
	return b, nil
}

// AMBRValue carries both directions in kbps, TS 29.274 8.7.
type AMBRValue struct {
	Uplink   uint32
	Downlink uint32
}

func ParseAMBR(b []byte) (*AMBRValue, error) {
	if len(b) < 8 {
		return nil, errors.Wrapf(ErrMalformedIE, "AMBR of %d octets", len(b))
	}
	return &AMBRValue{
		Uplink:   binary.BigEndian.Uint32(b[0:4]),
		Downlink: binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

func (a *AMBRValue) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint32(binary.BigEndian.AppendUint32(nil, a.Uplink), a.Downlink), nil
}

type ECGI struct {
	PlmnID tai.PlmnID
	CellID uint32
}

// ULIValue keeps the parts of the user location the gateway tracks.
type ULIValue struct {
	TAI  *tai.TAI
	ECGI *ECGI
}

// ULI field flags and sizes in wire order
var uliFields = []struct {
	flag uint8
	size int
}{
	{0x01, 7}, // CGI
	{0x02, 7}, // SAI
	{0x04, 7}, // RAI
	{0x08, 5}, // TAI
	{0x10, 7}, // ECGI
	{0x20, 5}, // LAI
	{0x40, 6}, // macro eNodeB ID
	{0x80, 6}, // extended macro eNodeB ID
}

func ParseULI(b []byte) (*ULIValue, error) {
	if len(b) < 1 {
		return nil, errors.Wrap(ErrMalformedIE, "empty ULI")
	}
	flags := b[0]
	b = b[1:]

	u := &ULIValue{}
	for _, f := range uliFields {
		if flags&f.flag == 0 {
			continue
		}
		if len(b) < f.size {
			return nil, errors.Wrapf(ErrMalformedIE, "ULI field 0x%02x truncated", f.flag)
		}
		v := b[:f.size]
		switch f.flag {
		case 0x08:
			u.TAI = &tai.TAI{
				PlmnID: tai.PlmnIDFromNAS([tai.PlmnIDLen]byte(v[:3])),
				TAC:    binary.BigEndian.Uint16(v[3:5]),
			}
		case 0x10:
			u.ECGI = &ECGI{
				PlmnID: tai.PlmnIDFromNAS([tai.PlmnIDLen]byte(v[:3])),
				CellID: binary.BigEndian.Uint32(v[3:7]) & 0x0fffffff,
			}
		}
		b = b[f.size:]
	}
	return u, nil
}

func (u *ULIValue) MarshalBinary() ([]byte, error) {
	var flags uint8
	var b []byte
	if u.TAI != nil {
		flags |= 0x08
		nas := u.TAI.PlmnID.ToNAS()
		b = binary.BigEndian.AppendUint16(append(b, nas[:]...), u.TAI.TAC)
	}
	if u.ECGI != nil {
		flags |= 0x10
		nas := u.ECGI.PlmnID.ToNAS()
		b = binary.BigEndian.AppendUint32(append(b, nas[:]...), u.ECGI.CellID&0x0fffffff)
	}
	return append([]byte{flags}, b...), nil
}

// ParseIMSI decodes TBCD digits; a 0xf filler nibble ends the number.
func ParseIMSI(b []byte) (string, error) {
	if len(b) == 0 {
		return "", errors.Wrap(ErrMalformedIE, "empty IMSI")
	}
	var sb strings.Builder
	for _, o := range b {
		for _, d := range []byte{o & 0x0f, o >> 4} {
			if d == 0x0f {
				return sb.String(), nil
			}
			if d > 9 {
				return "", errors.Wrapf(ErrMalformedIE, "IMSI digit 0x%x", d)
			}
			sb.WriteByte('0' + d)
		}
	}
	return sb.String(), nil
}

func EncodeIMSI(imsi string) ([]byte, error) {
	b := make([]byte, 0, (len(imsi)+1)/2)
	for i := 0; i < len(imsi); i += 2 {
		lo := imsi[i] - '0'
		hi := byte(0x0f)
		if i+1 < len(imsi) {
			hi = imsi[i+1] - '0'
		}
		if lo > 9 || hi > 9 && hi != 0x0f {
			return nil, errors.Errorf("invalid IMSI %q", imsi)
		}
		b = append(b, hi<<4|lo)
	}
	return b, nil
}

// ParseAPN decodes the length-prefixed labels of an APN.
func ParseAPN(b []byte) (string, error) {
	var dnn util_3gpp.Dnn
	if err := dnn.UnmarshalBinary(b); err != nil {
		return "", errors.Wrap(ErrMalformedIE, err.Error())
	}
	return string(dnn), nil
}

func EncodeAPN(apn string) ([]byte, error) {
	dnn := util_3gpp.Dnn(apn)
	return dnn.MarshalBinary()
}

// CauseValue is the cause IE; the offending IE part is not generated.
type CauseValue struct {
	Value uint8
	// PCE, BCE and CS flags
	Flags uint8
}

func ParseCause(b []byte) (*CauseValue, error) {
	if len(b) < 2 {
		return nil, errors.Wrapf(ErrMalformedIE, "cause of %d octets", len(b))
	}
	return &CauseValue{Value: b[0], Flags: b[1] & 0x07}, nil
}

func NewCause(value uint8) IE {
	return IE{Type: Cause, Value: []byte{value, 0}}
}

func NewEBI(ebi uint8) IE {
	return Uint8(EBI, 0, ebi&0x0f)
}

func NewPTI(pti uint8) IE {
	return Uint8(PTI, 0, pti)
}

type marshaler interface {
	MarshalBinary() ([]byte, error)
}

// New builds an IE from any of the value types above.
func New(typ, instance uint8, v marshaler) (IE, error) {
	b, err := v.MarshalBinary()
	if err != nil {
		return IE{}, errors.Wrapf(err, "IE type %d", typ)
	}
	return IE{Type: typ, Instance: instance, Value: b}, nil
}
