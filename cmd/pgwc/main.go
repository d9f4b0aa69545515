// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/omec-project/pgwc/logger"
	"github.com/omec-project/pgwc/service"
)

var PGWC = &service.PGWC{}

var appLog *zap.SugaredLogger

func init() {
	appLog = logger.AppLog
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "pgwc"
	app.Usage = "-pgwcfg pgw-c configuration file"
	app.Action = action
	app.Flags = PGWC.GetCliCmd()
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "start the PGW-C",
			Flags:  PGWC.GetCliCmd(),
			Action: action,
		},
		encodeAMBRCommand,
		encodeQoSCommand,
		encodeTAICommand,
	}
	return app
}

func main() {
	app := newApp()
	appLog.Infoln(app.Name)
	if err := app.Run(os.Args); err != nil {
		appLog.Errorf("PGW-C Run error: %v", err)
		os.Exit(1)
	}
}

func action(c *cli.Context) error {
	if err := PGWC.Initialize(c); err != nil {
		logger.CfgLog.Errorf("%+v", err)
		return fmt.Errorf("failed to initialize")
	}

	PGWC.Start()

	return nil
}
