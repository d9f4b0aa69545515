// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package tft

import (
	"fmt"
	"net"

	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/pgwerrors"
)

// SemanticError reports a packet filter component the rule model cannot
// apply.
type SemanticError struct {
	Identifier uint8
	Component  ComponentType
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("packet filter %d: cannot apply component type %s", e.Identifier, e.Component)
}

func (e *SemanticError) Unwrap() error {
	return pgwerrors.ErrSemanticErrorInTAD
}

func copyIP(ip net.IP) net.IP {
	if v4 := ip.To4(); v4 != nil {
		return append(net.IP(nil), v4...)
	}
	return append(net.IP(nil), ip...)
}

// applyComponents overwrites the rule fields named by each component, in
// order. It returns the number of components applied.
func applyComponents(pf *PacketFilter, components []Component) (int, error) {
	r := &pf.Rule
	for _, c := range components {
		switch c := c.(type) {
		case ProtocolIdentifier:
			r.Protocol = c.Protocol
		case IPv4RemoteAddress:
			r.RemoteAddr = &net.IPNet{IP: copyIP(c.Addr), Mask: append(net.IPMask(nil), c.Mask...)}
		case IPv4LocalAddress:
			r.LocalAddr = &net.IPNet{IP: copyIP(c.Addr), Mask: append(net.IPMask(nil), c.Mask...)}
		case IPv6RemoteAddress:
			r.RemoteAddr = &net.IPNet{IP: copyIP(c.Addr), Mask: append(net.IPMask(nil), c.Mask...)}
		case IPv6RemoteAddressPrefix:
			r.RemoteAddr = &net.IPNet{IP: copyIP(c.Addr), Mask: net.CIDRMask(int(c.PrefixLen), 8*net.IPv6len)}
		case IPv6LocalAddress:
			r.LocalAddr = &net.IPNet{IP: copyIP(c.Addr), Mask: append(net.IPMask(nil), c.Mask...)}
		case IPv6LocalAddressPrefix:
			r.LocalAddr = &net.IPNet{IP: copyIP(c.Addr), Mask: net.CIDRMask(int(c.PrefixLen), 8*net.IPv6len)}
		case SingleLocalPort:
			r.LocalPort = PortRange{Low: c.Port, High: c.Port}
		case SingleRemotePort:
			r.RemotePort = PortRange{Low: c.Port, High: c.Port}
		case LocalPortRange:
			r.LocalPort = PortRange{Low: c.Low, High: c.High}
		case RemotePortRange:
			r.RemotePort = PortRange{Low: c.Low, High: c.High}
		default:
			return 0, &SemanticError{Identifier: pf.ID - 1, Component: c.Type()}
		}
	}
	return len(components), nil
}

// Reconcile applies the packet filter operation of t to list. Replace
// updates existing filters only, add also creates the missing ones.
// Every descriptor is applied to a copy first; list is modified only when
// the whole TFT applies. changed reports whether any filter had a
// component applied; a new filter without components is not created.
func Reconcile(list *PacketFilterList, t *TrafficFlowTemplate) (changed bool, err error) {
	if t == nil {
		return false, nil
	}

	switch t.Operation {
	case OpAddPacketFilters, OpReplacePacketFilters:
	case OpDeletePacketFilters:
		return false, errors.Wrap(pgwerrors.ErrServiceNotSupported, "delete packet filters from existing TFT")
	default:
		logger.TftLog.Debugf("TFT operation %s leaves packet filters as they are", t.Operation)
		return false, nil
	}

	var staged []*PacketFilter
	stagedByID := make(map[uint8]*PacketFilter)

	for _, d := range t.Filters {
		id := d.Identifier + 1

		pf, ok := stagedByID[id]
		if !ok {
			if cur := list.Find(id); cur != nil {
				pf = deepcopy.Copy(cur).(*PacketFilter)
			} else if t.Operation == OpAddPacketFilters {
				if len(d.Components) == 0 {
					logger.TftLog.Debugf("packet filter %d has no components, not added", id)
					continue
				}
				pf = &PacketFilter{ID: id, Precedence: d.Precedence, Direction: d.Direction}
			} else {
				logger.TftLog.Debugf("no packet filter %d to replace", id)
				continue
			}
			stagedByID[id] = pf
			staged = append(staged, pf)
		}

		n, err := applyComponents(pf, d.Components)
		if err != nil {
			logger.TftLog.Errorf("TFT %s: %v", t.Operation, err)
			return false, err
		}
		if n > 0 {
			changed = true
		}
	}

	if err := list.commit(staged); err != nil {
		return false, err
	}
	return changed, nil
}
