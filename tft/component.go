// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package tft

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// ComponentType is the packet filter component type identifier of
// TS 24.008 Table 10.5.162.
type ComponentType uint8

const (
	IPv4RemoteAddressType       ComponentType = 0x10
	IPv4LocalAddressType        ComponentType = 0x11
	IPv6RemoteAddressType       ComponentType = 0x20
	IPv6RemoteAddressPrefixType ComponentType = 0x21
	IPv6LocalAddressType        ComponentType = 0x22
	IPv6LocalAddressPrefixType  ComponentType = 0x23
	ProtocolIdentifierType      ComponentType = 0x30
	SingleLocalPortType         ComponentType = 0x40
	LocalPortRangeType          ComponentType = 0x41
	SingleRemotePortType        ComponentType = 0x50
	RemotePortRangeType         ComponentType = 0x51
	SecurityParameterIndexType  ComponentType = 0x60
	TypeOfServiceType           ComponentType = 0x70
	FlowLabelType               ComponentType = 0x80
)

// value length of each known component type
var componentLen = map[ComponentType]int{
	IPv4RemoteAddressType:       8,
	IPv4LocalAddressType:        8,
	IPv6RemoteAddressType:       32,
	IPv6RemoteAddressPrefixType: 17,
	IPv6LocalAddressType:        32,
	IPv6LocalAddressPrefixType:  17,
	ProtocolIdentifierType:      1,
	SingleLocalPortType:         2,
	LocalPortRangeType:          4,
	SingleRemotePortType:        2,
	RemotePortRangeType:         4,
	SecurityParameterIndexType:  4,
	TypeOfServiceType:           2,
	FlowLabelType:               3,
}

func (t ComponentType) String() string {
	return fmt.Sprintf("0x%02x", uint8(t))
}

// Component is one packet filter component. The set of implementations
// is closed; Reconcile matches on the concrete type.
type Component interface {
	Type() ComponentType
	appendValue(b []byte) []byte
}

type ProtocolIdentifier struct {
	Protocol uint8
}

type IPv4RemoteAddress struct {
	Addr net.IP
	Mask net.IPMask
}

type IPv4LocalAddress struct {
	Addr net.IP
	Mask net.IPMask
}

type IPv6RemoteAddress struct {
	Addr net.IP
	Mask net.IPMask
}

type IPv6RemoteAddressPrefix struct {
	Addr      net.IP
	PrefixLen uint8
}

type IPv6LocalAddress struct {
	Addr net.IP
	Mask net.IPMask
}

type IPv6LocalAddressPrefix struct {
	Addr      net.IP
	PrefixLen uint8
}

type SingleLocalPort struct {
	Port uint16
}

type LocalPortRange struct {
	Low, High uint16
}

type SingleRemotePort struct {
	Port uint16
}

type RemotePortRange struct {
	Low, High uint16
}

type SecurityParameterIndex struct {
	SPI uint32
}

type TypeOfService struct {
	TOS, Mask uint8
}

// FlowLabel carries the 20-bit IPv6 flow label.
type FlowLabel struct {
	Label uint32
}

func (ProtocolIdentifier) Type() ComponentType      { return ProtocolIdentifierType }
func (IPv4RemoteAddress) Type() ComponentType       { return IPv4RemoteAddressType }
func (IPv4LocalAddress) Type() ComponentType        { return IPv4LocalAddressType }
func (IPv6RemoteAddress) Type() ComponentType       { return IPv6RemoteAddressType }
func (IPv6RemoteAddressPrefix) Type() ComponentType { return IPv6RemoteAddressPrefixType }
func (IPv6LocalAddress) Type() ComponentType        { return IPv6LocalAddressType }
func (IPv6LocalAddressPrefix) Type() ComponentType  { return IPv6LocalAddressPrefixType }
func (SingleLocalPort) Type() ComponentType         { return SingleLocalPortType }
func (LocalPortRange) Type() ComponentType          { return LocalPortRangeType }
func (SingleRemotePort) Type() ComponentType        { return SingleRemotePortType }
func (RemotePortRange) Type() ComponentType         { return RemotePortRangeType }
func (SecurityParameterIndex) Type() ComponentType  { return SecurityParameterIndexType }
func (TypeOfService) Type() ComponentType           { return TypeOfServiceType }
func (FlowLabel) Type() ComponentType               { return FlowLabelType }

func appendIP(b []byte, ip net.IP, size int) []byte {
	if size == net.IPv4len {
		ip = ip.To4()
	} else {
		ip = ip.To16()
	}
	if ip == nil {
		ip = make(net.IP, size)
	}
	return append(b, ip...)
}

func appendMask(b []byte, m net.IPMask, size int) []byte {
	if len(m) != size {
		m = make(net.IPMask, size)
	}
	return append(b, m...)
}

func (c ProtocolIdentifier) appendValue(b []byte) []byte {
	return append(b, c.Protocol)
}

func (c IPv4RemoteAddress) appendValue(b []byte) []byte {
	return appendMask(appendIP(b, c.Addr, net.IPv4len), c.Mask, net.IPv4len)
}

func (c IPv4LocalAddress) appendValue(b []byte) []byte {
	return appendMask(appendIP(b, c.Addr, net.IPv4len), c.Mask, net.IPv4len)
}

func (c IPv6RemoteAddress) appendValue(b []byte) []byte {
	return appendMask(appendIP(b, c.Addr, net.IPv6len), c.Mask, net.IPv6len)
}

func (c IPv6RemoteAddressPrefix) appendValue(b []byte) []byte {
	return append(appendIP(b, c.Addr, net.IPv6len), c.PrefixLen)
}

func (c IPv6LocalAddress) appendValue(b []byte) []byte {
	return appendMask(appendIP(b, c.Addr, net.IPv6len), c.Mask, net.IPv6len)
}

func (c IPv6LocalAddressPrefix) appendValue(b []byte) []byte {
	return append(appendIP(b, c.Addr, net.IPv6len), c.PrefixLen)
}

func (c SingleLocalPort) appendValue(b []byte) []byte {
	return binary.BigEndian.AppendUint16(b, c.Port)
}

func (c LocalPortRange) appendValue(b []byte) []byte {
	return binary.BigEndian.AppendUint16(binary.BigEndian.AppendUint16(b, c.Low), c.High)
}

func (c SingleRemotePort) appendValue(b []byte) []byte {
	return binary.BigEndian.AppendUint16(b, c.Port)
}

func (c RemotePortRange) appendValue(b []byte) []byte {
	return binary.BigEndian.AppendUint16(binary.BigEndian.AppendUint16(b, c.Low), c.High)
}

func (c SecurityParameterIndex) appendValue(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, c.SPI)
}

func (c TypeOfService) appendValue(b []byte) []byte {
	return append(b, c.TOS, c.Mask)
}

func (c FlowLabel) appendValue(b []byte) []byte {
	l := c.Label & 0x000fffff
	return append(b, byte(l>>16), byte(l>>8), byte(l))
}

// parseComponent decodes the first component of b, which belongs to the
// packet filter with wire identifier id.
func parseComponent(id uint8, b []byte) (Component, int, error) {
	typ := ComponentType(b[0])
	size, ok := componentLen[typ]
	if !ok {
		return nil, 0, &SemanticError{Identifier: id, Component: typ}
	}
	if len(b) < 1+size {
		return nil, 0, errors.Wrapf(ErrTFTSyntax, "component %s needs %d octets, have %d", typ, size, len(b)-1)
	}
	v := b[1 : 1+size]

	ip := func(n int) net.IP { return append(net.IP(nil), v[:n]...) }
	mask := func(n int) net.IPMask { return append(net.IPMask(nil), v[n:2*n]...) }
	u16 := func(off int) uint16 { return binary.BigEndian.Uint16(v[off:]) }

	var c Component
	switch typ {
	case IPv4RemoteAddressType:
		c = IPv4RemoteAddress{Addr: ip(net.IPv4len), Mask: mask(net.IPv4len)}
	case IPv4LocalAddressType:
		c = IPv4LocalAddress{Addr: ip(net.IPv4len), Mask: mask(net.IPv4len)}
	case IPv6RemoteAddressType:
		c = IPv6RemoteAddress{Addr: ip(net.IPv6len), Mask: mask(net.IPv6len)}
	case IPv6RemoteAddressPrefixType:
		c = IPv6RemoteAddressPrefix{Addr: ip(net.IPv6len), PrefixLen: v[net.IPv6len]}
	case IPv6LocalAddressType:
		c = IPv6LocalAddress{Addr: ip(net.IPv6len), Mask: mask(net.IPv6len)}
	case IPv6LocalAddressPrefixType:
		c = IPv6LocalAddressPrefix{Addr: ip(net.IPv6len), PrefixLen: v[net.IPv6len]}
	case ProtocolIdentifierType:
		c = ProtocolIdentifier{Protocol: v[0]}
	case SingleLocalPortType:
		c = SingleLocalPort{Port: u16(0)}
	case LocalPortRangeType:
		c = LocalPortRange{Low: u16(0), High: u16(2)}
	case SingleRemotePortType:
		c = SingleRemotePort{Port: u16(0)}
	case RemotePortRangeType:
		c = RemotePortRange{Low: u16(0), High: u16(2)}
	case SecurityParameterIndexType:
		c = SecurityParameterIndex{SPI: binary.BigEndian.Uint32(v)}
	case TypeOfServiceType:
		c = TypeOfService{TOS: v[0], Mask: v[1]}
	case FlowLabelType:
		c = FlowLabel{Label: (uint32(v[0])<<16 | uint32(v[1])<<8 | uint32(v[2])) & 0x000fffff}
	}
	return c, 1 + size, nil
}
