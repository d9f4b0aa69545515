// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/msgtypes/gtpmsgtypes"
)

func cliContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("pgwc", flag.ContinueOnError)
	for _, f := range pgwcCLi {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

type recorder struct {
	types []gtpmsgtypes.GtpMsgType
}

func (r *recorder) Send(_ uint32, h message.Header, _ []byte) error {
	r.types = append(r.types, h.Type)
	return nil
}

func TestInitializeAndSetup(t *testing.T) {
	pgwc := &PGWC{}
	require.NoError(t, pgwc.Initialize(cliContext(t, "--pgwcfg", "../config/pgwcfg.yaml")))

	out := &recorder{}
	pgwc.Transport = out
	pgwc.Setup()
	require.NotNil(t, pgwc.Handler)
	assert.Same(t, context.PGW_Self(), pgwc.Handler.PGW)
	assert.Equal(t, "127.0.0.3", context.PGW_Self().GtpcAddr.String())
	assert.Equal(t, "127.0.0.4", context.PGW_Self().GtpuAddr.String())

	// a request without a session is answered through the transport
	xact := pgwc.Txns.Accept(gtpmsgtypes.DeleteSessionRequest)
	assert.Error(t, pgwc.Handler.HandleMessage(xact,
		&message.Header{Type: gtpmsgtypes.DeleteSessionRequest, TEID: 0x99}, nil))
	assert.Equal(t, []gtpmsgtypes.GtpMsgType{gtpmsgtypes.DeleteSessionResponse}, out.types)
}

func TestSweepExpired(t *testing.T) {
	pgwc := &PGWC{}
	require.NoError(t, pgwc.Initialize(cliContext(t, "--pgwcfg", "../config/pgwcfg.yaml")))
	pgwc.Transport = &recorder{}
	pgwc.Setup()

	_, err := pgwc.Txns.Open(message.Header{Type: gtpmsgtypes.UpdateBearerRequest, TEID: 0x99}, nil, "bearer")
	require.NoError(t, err)
	assert.Equal(t, 0, pgwc.sweepExpired(time.Hour))
	assert.Equal(t, 1, pgwc.Txns.Len())

	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, 1, pgwc.sweepExpired(time.Millisecond))
	assert.Equal(t, 0, pgwc.Txns.Len())
	assert.Equal(t, uint64(1), pgwc.Txns.Stats().Expired)
}

func TestExpireTransactionsStops(t *testing.T) {
	pgwc := &PGWC{}
	require.NoError(t, pgwc.Initialize(cliContext(t, "--pgwcfg", "../config/pgwcfg.yaml")))
	pgwc.Transport = &recorder{}
	pgwc.Setup()

	_, err := pgwc.Txns.Open(message.Header{Type: gtpmsgtypes.DeleteBearerRequest, TEID: 0x99}, nil, "bearer")
	require.NoError(t, err)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		pgwc.expireTransactions(2*time.Millisecond, stop)
		close(done)
	}()
	assert.Eventually(t, func() bool { return pgwc.Txns.Len() == 0 }, time.Second, time.Millisecond)
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expiry loop did not stop")
	}
}

func TestInitializeBadVersion(t *testing.T) {
	f := filepath.Join(t.TempDir(), "pgwcfg.yaml")
	require.NoError(t, os.WriteFile(f, []byte("info:\n  version: 0.9.0\n"), 0o600))
	assert.Error(t, (&PGWC{}).Initialize(cliContext(t, "--cfg", f)))
}

func TestInitializeMissingFile(t *testing.T) {
	assert.Error(t, (&PGWC{}).Initialize(cliContext(t, "--pgwcfg", "/nonexistent/pgwcfg.yaml")))
}

func TestSetupWithoutTransport(t *testing.T) {
	pgwc := &PGWC{}
	require.NoError(t, pgwc.Initialize(cliContext(t, "--pgwcfg", "../config/pgwcfg.yaml")))
	pgwc.Setup()
	xact := pgwc.Txns.Accept(gtpmsgtypes.DeleteSessionRequest)
	assert.Error(t, pgwc.Handler.HandleMessage(xact,
		&message.Header{Type: gtpmsgtypes.DeleteSessionRequest, TEID: 0x99}, nil))
	assert.Equal(t, 0, pgwc.Txns.Len())
}

func TestFilterCli(t *testing.T) {
	args := (&PGWC{}).FilterCli(cliContext(t, "--pgwcfg", "pgwcfg.yaml"))
	assert.Equal(t, []string{"--pgwcfg", "pgwcfg.yaml"}, args)
}
