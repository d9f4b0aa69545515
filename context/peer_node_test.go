// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omec-project/pgwc/gtp/ies"
)

func TestPeerNodeRefCount(t *testing.T) {
	r := NewPeerNodeRegistry()
	f := &ies.FTEIDValue{TEID: 1, IPv4: net.ParseIP("192.0.2.7").To4()}

	a, err := r.FindOrCreate(f)
	require.NoError(t, err)
	b, err := r.FindOrCreate(&ies.FTEIDValue{TEID: 2, IPv4: net.ParseIP("192.0.2.7").To4()})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 2, a.RefCount())

	r.Release(a)
	assert.Same(t, a, r.Find("192.0.2.7"))
	r.Release(a)
	assert.Nil(t, r.Find("192.0.2.7"))

	// a stale node is ignored
	r.Release(a)
	assert.Empty(t, r.Nodes())
}

func TestPeerNodeWithoutAddress(t *testing.T) {
	r := NewPeerNodeRegistry()
	_, err := r.FindOrCreate(&ies.FTEIDValue{TEID: 1})
	assert.Error(t, err)
	_, err = r.FindOrCreate(nil)
	assert.Error(t, err)
}

func TestPeerNodeConcurrentFindOrCreate(t *testing.T) {
	r := NewPeerNodeRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.FindOrCreate(&ies.FTEIDValue{IPv6: net.ParseIP("2001:db8::1")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	nodes := r.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, 32, nodes[0].RefCount())
	assert.Equal(t, "2001:db8::1", nodes[0].Addr)
}
