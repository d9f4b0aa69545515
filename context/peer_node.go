// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/omec-project/pgwc/gtp/ies"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/metrics"
)

// PeerNode is a remote GTP-U endpoint shared by every bearer that
// tunnels to it.
type PeerNode struct {
	Addr     string `json:"addr"`
	IPv4     net.IP `json:"ipv4,omitempty"`
	IPv6     net.IP `json:"ipv6,omitempty"`
	refCount int
	reg      *PeerNodeRegistry
}

func (n *PeerNode) RefCount() int {
	if n.reg == nil {
		return n.refCount
	}
	n.reg.lock.Lock()
	defer n.reg.lock.Unlock()
	return n.refCount
}

type PeerNodeRegistry struct {
	lock  sync.Mutex
	nodes map[string]*PeerNode
}

func NewPeerNodeRegistry() *PeerNodeRegistry {
	return &PeerNodeRegistry{nodes: make(map[string]*PeerNode)}
}

// FindOrCreate returns the node for the F-TEID address and takes a
// reference on it.
func (r *PeerNodeRegistry) FindOrCreate(fteid *ies.FTEIDValue) (*PeerNode, error) {
	if fteid == nil || (fteid.IPv4 == nil && fteid.IPv6 == nil) {
		return nil, errors.New("F-TEID without address")
	}
	addr := fteid.Addr()

	r.lock.Lock()
	defer r.lock.Unlock()

	node, ok := r.nodes[addr]
	if !ok {
		node = &PeerNode{Addr: addr, IPv4: fteid.IPv4, IPv6: fteid.IPv6, reg: r}
		r.nodes[addr] = node
		logger.CtxLog.Infof("peer node [%s] added", addr)
		metrics.SetPeerNodeStats(len(r.nodes))
	}
	node.refCount++
	return node, nil
}

// Release drops one reference; the node goes away with the last one.
func (r *PeerNodeRegistry) Release(node *PeerNode) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.nodes[node.Addr] != node {
		return
	}
	node.refCount--
	if node.refCount <= 0 {
		delete(r.nodes, node.Addr)
		logger.CtxLog.Infof("peer node [%s] removed", node.Addr)
		metrics.SetPeerNodeStats(len(r.nodes))
	}
}

func (r *PeerNodeRegistry) Find(addr string) *PeerNode {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.nodes[addr]
}

func (r *PeerNodeRegistry) Nodes() []*PeerNode {
	r.lock.Lock()
	defer r.lock.Unlock()
	list := make([]*PeerNode, 0, len(r.nodes))
	for _, node := range r.nodes {
		list = append(list, node)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Addr < list[j].Addr })
	return list
}
