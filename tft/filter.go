// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package tft

import (
	"fmt"
	"net"
	"sort"

	"github.com/mohae/deepcopy"
	"github.com/omec-project/flowdesc"
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/pgwerrors"
)

var ErrPacketFilterListFull = errors.Wrap(pgwerrors.ErrNoResourcesAvailable, "packet filter list full")

type PortRange struct {
	Low  uint16 `json:"low"`
	High uint16 `json:"high"`
}

func (p PortRange) IsSet() bool {
	return p.Low != 0 || p.High != 0
}

func (p PortRange) String() string {
	if p.Low == p.High {
		return fmt.Sprintf("%d", p.Low)
	}
	return fmt.Sprintf("%d-%d", p.Low, p.High)
}

// Rule is the classifier a packet filter installs. A nil address
// matches any address.
type Rule struct {
	Protocol   uint8      `json:"protocol"`
	LocalAddr  *net.IPNet `json:"localAddr,omitempty"`
	RemoteAddr *net.IPNet `json:"remoteAddr,omitempty"`
	LocalPort  PortRange  `json:"localPort"`
	RemotePort PortRange  `json:"remotePort"`
}

func (r Rule) IPv4Local() bool  { return r.LocalAddr != nil && r.LocalAddr.IP.To4() != nil }
func (r Rule) IPv4Remote() bool { return r.RemoteAddr != nil && r.RemoteAddr.IP.To4() != nil }
func (r Rule) IPv6Local() bool  { return r.LocalAddr != nil && r.LocalAddr.IP.To4() == nil }
func (r Rule) IPv6Remote() bool { return r.RemoteAddr != nil && r.RemoteAddr.IP.To4() == nil }

// FlowDescription renders the rule as an IPFilterRule of TS 29.212, the
// form exchanged with the policy layer. Traffic toward the UE is "out",
// so the remote endpoint is the source.
func (r Rule) FlowDescription() (string, error) {
	fd := flowdesc.NewIPFilterRule()
	if err := fd.SetAction(flowdesc.Permit); err != nil {
		return "", err
	}
	if err := fd.SetDirection(flowdesc.Out); err != nil {
		return "", err
	}
	if r.Protocol != 0 {
		if err := fd.SetProtocol(r.Protocol); err != nil {
			return "", err
		}
	}

	src, dst := "any", "any"
	if r.RemoteAddr != nil {
		src = r.RemoteAddr.String()
	}
	if r.LocalAddr != nil {
		dst = r.LocalAddr.String()
	}
	if err := fd.SetSourceIP(src); err != nil {
		return "", errors.Wrap(err, "source")
	}
	if err := fd.SetDestinationIP(dst); err != nil {
		return "", errors.Wrap(err, "destination")
	}
	if r.RemotePort.IsSet() {
		if err := fd.SetSourcePorts(r.RemotePort.String()); err != nil {
			return "", errors.Wrap(err, "source ports")
		}
	}
	if r.LocalPort.IsSet() {
		if err := fd.SetDestinationPorts(r.LocalPort.String()); err != nil {
			return "", errors.Wrap(err, "destination ports")
		}
	}
	return flowdesc.Encode(fd)
}

func (r Rule) String() string {
	s, err := r.FlowDescription()
	if err != nil {
		return fmt.Sprintf("invalid rule: %v", err)
	}
	return s
}

// PacketFilter is a bearer packet filter. ID is the wire identifier plus
// one, leaving 0 unused.
type PacketFilter struct {
	ID         uint8     `json:"id"`
	Precedence uint8     `json:"precedence"`
	Direction  Direction `json:"direction"`
	Rule       Rule      `json:"rule"`
}

// PacketFilterList is the ordered, bounded set of filters of one bearer.
type PacketFilterList struct {
	filters []*PacketFilter
}

func (l *PacketFilterList) Len() int {
	return len(l.filters)
}

func (l *PacketFilterList) Find(id uint8) *PacketFilter {
	for _, pf := range l.filters {
		if pf.ID == id {
			return pf
		}
	}
	return nil
}

// Add appends a filter with the given id, or returns the existing one.
func (l *PacketFilterList) Add(id, precedence uint8) (*PacketFilter, error) {
	if pf := l.Find(id); pf != nil {
		return pf, nil
	}
	if len(l.filters) >= MaxNumOfPacketFilter {
		return nil, errors.Wrapf(ErrPacketFilterListFull, "adding packet filter %d", id)
	}
	pf := &PacketFilter{ID: id, Precedence: precedence}
	l.filters = append(l.filters, pf)
	return pf, nil
}

func (l *PacketFilterList) Remove(id uint8) bool {
	for i, pf := range l.filters {
		if pf.ID == id {
			l.filters = append(l.filters[:i], l.filters[i+1:]...)
			return true
		}
	}
	return false
}

func (l *PacketFilterList) RemoveAll() {
	l.filters = nil
}

// All returns the filters ordered by precedence.
func (l *PacketFilterList) All() []*PacketFilter {
	all := make([]*PacketFilter, len(l.filters))
	copy(all, l.filters)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Precedence < all[j].Precedence
	})
	return all
}

// Clone copies the list and every filter in it.
func (l *PacketFilterList) Clone() *PacketFilterList {
	c := &PacketFilterList{filters: make([]*PacketFilter, 0, len(l.filters))}
	for _, pf := range l.filters {
		c.filters = append(c.filters, deepcopy.Copy(pf).(*PacketFilter))
	}
	return c
}

// commit stores every staged filter, replacing filters with the same ID.
// Nothing is stored if the result would exceed the list capacity.
func (l *PacketFilterList) commit(staged []*PacketFilter) error {
	added := 0
	for _, pf := range staged {
		if l.Find(pf.ID) == nil {
			added++
		}
	}
	if len(l.filters)+added > MaxNumOfPacketFilter {
		return errors.Wrapf(ErrPacketFilterListFull, "%d filters, %d new", len(l.filters), added)
	}

	for _, pf := range staged {
		replaced := false
		for i := range l.filters {
			if l.filters[i].ID == pf.ID {
				l.filters[i] = pf
				replaced = true
				break
			}
		}
		if !replaced {
			l.filters = append(l.filters, pf)
		}
	}
	return nil
}
