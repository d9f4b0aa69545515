// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

/*
 * PGW-C Configuration Factory
 */

package factory

import (
	"os"
	"reflect"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/omec-project/pgwc/logger"
)

var PgwcConfig Config

func InitConfigFactory(f string) error {
	if content, err := os.ReadFile(f); err != nil {
		return errors.Wrapf(err, "read config %s", f)
	} else {
		PgwcConfig = Config{}

		if yamlErr := yaml.Unmarshal(content, &PgwcConfig); yamlErr != nil {
			return errors.Wrapf(yamlErr, "parse config %s", f)
		}
	}
	PgwcConfig.ApplyDefaults()

	return nil
}

func UpdatePgwcConfig(f string) error {
	if content, err := os.ReadFile(f); err != nil {
		return errors.Wrapf(err, "read config %s", f)
	} else {
		var pgwcConfig Config

		if yamlErr := yaml.Unmarshal(content, &pgwcConfig); yamlErr != nil {
			return errors.Wrapf(yamlErr, "parse config %s", f)
		}
		pgwcConfig.ApplyDefaults()

		// Checking which config has been changed
		if !reflect.DeepEqual(PgwcConfig.Configuration.PgwName, pgwcConfig.Configuration.PgwName) {
			logger.CfgLog.Infoln("updated PGW-C name", pgwcConfig.Configuration.PgwName)
		}
		if !reflect.DeepEqual(PgwcConfig.Configuration.Gtpc, pgwcConfig.Configuration.Gtpc) {
			logger.CfgLog.Infoln("updated GTP-C", *pgwcConfig.Configuration.Gtpc)
		}
		if !reflect.DeepEqual(PgwcConfig.Configuration.Teid, pgwcConfig.Configuration.Teid) {
			logger.CfgLog.Warnln("TEID range change ignored until restart", *pgwcConfig.Configuration.Teid)
		}
		if !reflect.DeepEqual(PgwcConfig.Configuration.KafkaInfo, pgwcConfig.Configuration.KafkaInfo) {
			logger.CfgLog.Infoln("updated kafka info", pgwcConfig.Configuration.KafkaInfo)
		}
		PgwcConfig = pgwcConfig
	}
	return nil
}

func CheckConfigVersion() error {
	currentVersion := PgwcConfig.GetVersion()

	if currentVersion != PGWC_EXPECTED_CONFIG_VERSION {
		return errors.Errorf("PGW-C config version is [%s], but expected is [%s]",
			currentVersion, PGWC_EXPECTED_CONFIG_VERSION)
	}

	logger.CfgLog.Infof("PGW-C config version [%s]", currentVersion)

	return nil
}
