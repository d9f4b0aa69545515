// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log         *zap.Logger
	AppLog      *zap.SugaredLogger
	InitLog     *zap.SugaredLogger
	CfgLog      *zap.SugaredLogger
	CtxLog      *zap.SugaredLogger
	GtpLog      *zap.SugaredLogger
	QosLog      *zap.SugaredLogger
	TftLog      *zap.SugaredLogger
	NasLog      *zap.SugaredLogger
	TxnLog      *zap.SugaredLogger
	OamLog      *zap.SugaredLogger
	KafkaLog    *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
)

func init() {
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}

	AppLog = log.Sugar().With("component", "PGWC", "category", "App")
	InitLog = log.Sugar().With("component", "PGWC", "category", "Init")
	CfgLog = log.Sugar().With("component", "PGWC", "category", "CFG")
	CtxLog = log.Sugar().With("component", "PGWC", "category", "CTX")
	GtpLog = log.Sugar().With("component", "PGWC", "category", "GTPC")
	QosLog = log.Sugar().With("component", "PGWC", "category", "QoS")
	TftLog = log.Sugar().With("component", "PGWC", "category", "TFT")
	NasLog = log.Sugar().With("component", "PGWC", "category", "NAS")
	TxnLog = log.Sugar().With("component", "PGWC", "category", "Txn")
	OamLog = log.Sugar().With("component", "PGWC", "category", "OAM")
	KafkaLog = log.Sugar().With("component", "PGWC", "category", "Kafka")
}

func GetLogger() *zap.Logger {
	return log
}

// SetLogLevel: set the log level (panic|fatal|error|warn|info|debug)
func SetLogLevel(level zapcore.Level) {
	InitLog.Infoln("set log level:", level)
	atomicLevel.SetLevel(level)
}
