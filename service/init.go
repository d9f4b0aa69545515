// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/omec-project/pgwc/context"
	"github.com/omec-project/pgwc/factory"
	"github.com/omec-project/pgwc/gtp/handler"
	"github.com/omec-project/pgwc/gtp/message"
	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/metrics"
	"github.com/omec-project/pgwc/oam"
	"github.com/omec-project/pgwc/profile"
	"github.com/omec-project/pgwc/transaction"
)

const defaultConfigPath = "./config/pgwcfg.yaml"

type PGWC struct {
	// Transport carries outbound GTP-C messages. Without one they are
	// logged and dropped.
	Transport transaction.Sender
	// Policy runs the policy stage of session setup and release.
	Policy handler.PolicyClient

	Handler *handler.Handler
	Txns    *transaction.Manager

	oamServer  *http.Server
	stopExpiry chan struct{}
}

type (
	// Config information.
	Config struct {
		pgwcfg string
	}
)

var config Config

var pgwcCLi = []cli.Flag{
	cli.StringFlag{
		Name:  "cfg",
		Usage: "common config file",
	},
	cli.StringFlag{
		Name:  "pgwcfg",
		Usage: "config file",
	},
}

var initLog *zap.SugaredLogger

func init() {
	initLog = logger.InitLog
}

func (*PGWC) GetCliCmd() (flags []cli.Flag) {
	return pgwcCLi
}

func (pgwc *PGWC) Initialize(c *cli.Context) error {
	config = Config{
		pgwcfg: c.String("pgwcfg"),
	}
	if config.pgwcfg == "" {
		config.pgwcfg = c.String("cfg")
	}
	if config.pgwcfg == "" {
		config.pgwcfg = defaultConfigPath
	}

	if err := factory.InitConfigFactory(config.pgwcfg); err != nil {
		return err
	}

	pgwc.setLogLevel()

	if err := factory.CheckConfigVersion(); err != nil {
		return err
	}
	return nil
}

func (pgwc *PGWC) setLogLevel() {
	if factory.PgwcConfig.Logger == nil || factory.PgwcConfig.Logger.PGWC == nil {
		initLog.Warnln("PGW-C config without log level setting!!!")
		return
	}

	if factory.PgwcConfig.Logger.PGWC.DebugLevel != "" {
		if level, err := zapcore.ParseLevel(factory.PgwcConfig.Logger.PGWC.DebugLevel); err != nil {
			initLog.Warnf("PGW-C Log level [%s] is invalid, set to [info] level",
				factory.PgwcConfig.Logger.PGWC.DebugLevel)
			logger.SetLogLevel(zap.InfoLevel)
		} else {
			initLog.Infof("PGW-C Log level is set to [%s] level", level)
			logger.SetLogLevel(level)
		}
	} else {
		initLog.Infoln("PGW-C Log level is default set to [info] level")
		logger.SetLogLevel(zap.InfoLevel)
	}
}

func (pgwc *PGWC) FilterCli(c *cli.Context) (args []string) {
	for _, flag := range pgwc.GetCliCmd() {
		name := flag.GetName()
		value := fmt.Sprint(c.Generic(name))
		if value == "" {
			continue
		}

		args = append(args, "--"+name, value)
	}
	return args
}

type dropSender struct{}

func (dropSender) Send(txnId uint32, h message.Header, payload []byte) error {
	logger.GtpLog.Warnf("txn %d: no GTP-C transport, dropping %s teid [0x%x] len [%d]", txnId, h.Type, h.TEID,
		len(payload))
	return nil
}

// Setup builds the context, the transaction manager and the message
// handler from the loaded configuration.
func (pgwc *PGWC) Setup() {
	context.InitPgwContext(&factory.PgwcConfig)

	sender := pgwc.Transport
	if sender == nil {
		initLog.Warnln("no GTP-C transport attached, outbound messages are dropped")
		sender = dropSender{}
	}
	pgwc.Txns = transaction.NewManager(sender)
	pgwc.Handler = handler.NewHandler(context.PGW_Self(), pgwc.Policy, pgwc.Txns)
}

func (pgwc *PGWC) Start() {
	initLog.Infoln("PGW-C app initialising...")

	// Initialise channel to stop PGW-C
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChannel
		pgwc.Terminate()
		os.Exit(0)
	}()

	pgwc.Setup()

	pgwc.stopExpiry = make(chan struct{})
	timeout := time.Duration(factory.PgwcConfig.Configuration.Gtpc.ResponseTimeout) * time.Second
	go pgwc.expireTransactions(timeout, pgwc.stopExpiry)

	// Initialise Statistics
	go metrics.InitMetrics(factory.PgwcConfig.Configuration.MetricsPort)

	// Init Kafka stream
	if err := metrics.InitialiseKafkaStream(factory.PgwcConfig.Configuration); err != nil {
		initLog.Errorf("initialise kafka stream failed, %v ", err.Error())
	}

	addr := fmt.Sprintf(":%d", factory.PgwcConfig.Configuration.OamPort)
	router := oam.NewRouter()
	if factory.PgwcConfig.Configuration.DebugProfile {
		profile.AddService(router)
	}
	pgwc.oamServer = &http.Server{Addr: addr, Handler: router}
	initLog.Infof("OAM server listening on %s", addr)
	if err := pgwc.oamServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		initLog.Fatalln("OAM server setup failed:", err)
	}
}

// expireTransactions sweeps the requests the peer left unanswered for
// longer than timeout until stop is closed.
func (pgwc *PGWC) expireTransactions(timeout time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pgwc.sweepExpired(timeout)
		}
	}
}

func (pgwc *PGWC) sweepExpired(timeout time.Duration) int {
	expired := pgwc.Txns.ExpireOlderThan(timeout)
	for _, e := range expired {
		pgwc.Handler.HandleExpired(e)
	}
	return len(expired)
}

func (pgwc *PGWC) Terminate() {
	logger.InitLog.Infof("Terminating PGW-C...")
	if pgwc.stopExpiry != nil {
		close(pgwc.stopExpiry)
		pgwc.stopExpiry = nil
	}
	if pgwc.Txns != nil {
		s := pgwc.Txns.Stats()
		logger.InitLog.Infof("transactions completed [%d] expired [%d] failed [%d] latency min [%v] max [%v] avg [%v]",
			s.Completed, s.Expired, s.Failed, s.Shortest, s.Longest, s.Average)
	}
	if err := metrics.CloseKafkaStream(); err != nil {
		logger.InitLog.Errorf("closing kafka stream: %v", err)
	}
	if pgwc.oamServer != nil {
		if err := pgwc.oamServer.Close(); err != nil {
			logger.InitLog.Errorf("closing OAM server: %v", err)
		}
	}
}
