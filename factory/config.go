// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

/*
 * PGW-C Configuration Factory
 */

package factory

const (
	PGWC_EXPECTED_CONFIG_VERSION = "1.0.0"
)

type Config struct {
	Info          *Info          `yaml:"info"`
	Configuration *Configuration `yaml:"configuration"`
	Logger        *Logger        `yaml:"logger"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

const (
	PGWC_DEFAULT_NAME             = "pgwc"
	PGWC_DEFAULT_GTPC_ADDR        = "127.0.0.3"
	PGWC_DEFAULT_GTPC_PORT        = 2123
	PGWC_DEFAULT_RESPONSE_TIMEOUT = 12
	PGWC_DEFAULT_GTPU_PORT        = 2152
	PGWC_DEFAULT_OAM_PORT         = 5001
	PGWC_DEFAULT_METRICS_PORT     = 9089
	PGWC_DEFAULT_TEID_MIN         = 1
	PGWC_DEFAULT_TEID_MAX         = 0x7fffffff
	PGWC_DEFAULT_KAFKA_TOPIC      = "sdcore-data-source-pgwc"
)

type Configuration struct {
	PgwName      string     `yaml:"pgwName,omitempty"`
	Gtpc         *Gtpc      `yaml:"gtpc,omitempty"`
	Gtpu         *Gtpu      `yaml:"gtpu,omitempty"`
	Teid         *TeidRange `yaml:"teid,omitempty"`
	OamPort      int        `yaml:"oamPort,omitempty"`
	MetricsPort  int        `yaml:"metricsPort,omitempty"`
	DebugProfile bool       `yaml:"debugProfile,omitempty"`
	KafkaInfo    KafkaInfo  `yaml:"kafkaInfo,omitempty"`
}

type Gtpc struct {
	Addr string `yaml:"addr,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// ResponseTimeout is how long, in seconds, a request waits for the
	// peer before it expires
	ResponseTimeout int `yaml:"responseTimeout,omitempty"`
}

type Gtpu struct {
	Addr string `yaml:"addr,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// TeidRange bounds the local TEIDs handed out for S5/S8 control and user plane.
type TeidRange struct {
	Min int64 `yaml:"min,omitempty"`
	Max int64 `yaml:"max,omitempty"`
}

type KafkaInfo struct {
	EnableKafka *bool  `yaml:"enableKafka,omitempty"`
	BrokerUri   string `yaml:"brokerUri,omitempty"`
	BrokerPort  int    `yaml:"brokerPort,omitempty"`
	Topic       string `yaml:"topicName,omitempty"`
}

type Logger struct {
	PGWC *LogSetting `yaml:"PGWC,omitempty"`
}

type LogSetting struct {
	DebugLevel string `yaml:"debugLevel,omitempty"`
}

func (c *Config) GetVersion() string {
	if c.Info != nil && c.Info.Version != "" {
		return c.Info.Version
	}
	return ""
}

// KafkaEnabled reports whether session events should be streamed.
func (k *KafkaInfo) KafkaEnabled() bool {
	return k.EnableKafka != nil && *k.EnableKafka
}

// ApplyDefaults fills every field left empty in the yaml document.
func (c *Config) ApplyDefaults() {
	if c.Configuration == nil {
		c.Configuration = &Configuration{}
	}
	cfg := c.Configuration
	if cfg.PgwName == "" {
		cfg.PgwName = PGWC_DEFAULT_NAME
	}
	if cfg.Gtpc == nil {
		cfg.Gtpc = &Gtpc{}
	}
	if cfg.Gtpc.Addr == "" {
		cfg.Gtpc.Addr = PGWC_DEFAULT_GTPC_ADDR
	}
	if cfg.Gtpc.Port == 0 {
		cfg.Gtpc.Port = PGWC_DEFAULT_GTPC_PORT
	}
	if cfg.Gtpc.ResponseTimeout <= 0 {
		cfg.Gtpc.ResponseTimeout = PGWC_DEFAULT_RESPONSE_TIMEOUT
	}
	if cfg.Gtpu == nil {
		cfg.Gtpu = &Gtpu{Addr: cfg.Gtpc.Addr}
	}
	if cfg.Gtpu.Port == 0 {
		cfg.Gtpu.Port = PGWC_DEFAULT_GTPU_PORT
	}
	if cfg.Teid == nil {
		cfg.Teid = &TeidRange{}
	}
	if cfg.Teid.Min == 0 {
		cfg.Teid.Min = PGWC_DEFAULT_TEID_MIN
	}
	if cfg.Teid.Max == 0 {
		cfg.Teid.Max = PGWC_DEFAULT_TEID_MAX
	}
	if cfg.OamPort == 0 {
		cfg.OamPort = PGWC_DEFAULT_OAM_PORT
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = PGWC_DEFAULT_METRICS_PORT
	}
	if cfg.KafkaInfo.Topic == "" {
		cfg.KafkaInfo.Topic = PGWC_DEFAULT_KAFKA_TOPIC
	}
	if c.Logger == nil {
		c.Logger = &Logger{}
	}
	if c.Logger.PGWC == nil {
		c.Logger.PGWC = &LogSetting{DebugLevel: "info"}
	}
}
