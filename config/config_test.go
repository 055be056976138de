// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/triglat"
	"github.com/OpenPSG/triglat/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"TRIGLAT_CONFIG",
	"TRIGLAT_LOG_LEVEL",
	"TRIGLAT_CHANNEL",
	"TRIGLAT_EPOCH_START",
	"TRIGLAT_QUANTILE",
	"TRIGLAT_QUANTILE_METHOD",
	"TRIGLAT_DEVIATION",
	"TRIGLAT_ON_NO_CROSSING",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

// oneSilentTrial returns two trials of which only the first has a sample
// above the 0.95 quantile.
func oneSilentTrial() triglat.Matrix {
	m := triglat.Matrix{make([]float64, 20), make([]float64, 20)}
	m[0][5] = 1
	return m
}

func TestConfigNew(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the tutorial defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Channel, convey.ShouldEqual, "Audio")
			convey.So(cfg.EpochStart, convey.ShouldEqual, -0.2)
			convey.So(cfg.Quantile, convey.ShouldEqual, 0.95)
			convey.So(cfg.QuantileMethod, convey.ShouldEqual, "empirical")
			convey.So(cfg.Deviation, convey.ShouldEqual, "population")
			convey.So(cfg.OnNoCrossing, convey.ShouldEqual, "exclude")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading from a YAML file and the environment", func() {
			path := filepath.Join(t.TempDir(), "triglat.yaml")
			yamlContent := `
channel: "StimTrak"
epoch_start: -0.1
quantile: 0.9
quantile_method: linear
on_no_crossing: abort
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o644), convey.ShouldBeNil)
			_ = os.Setenv("TRIGLAT_CONFIG", path)
			_ = os.Setenv("TRIGLAT_QUANTILE", "0.99")
			_ = os.Setenv("TRIGLAT_DEVIATION", "sample")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then the environment overrides the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Channel, convey.ShouldEqual, "StimTrak")
				convey.So(cfg.EpochStart, convey.ShouldEqual, -0.1)
				convey.So(cfg.Quantile, convey.ShouldEqual, 0.99)
				convey.So(cfg.QuantileMethod, convey.ShouldEqual, "linear")
				convey.So(cfg.Deviation, convey.ShouldEqual, "sample")
				convey.So(cfg.OnNoCrossing, convey.ShouldEqual, "abort")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("TRIGLAT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the quantile is out of range", func() {
			_ = os.Setenv("TRIGLAT_QUANTILE", "1")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the crossing policy is unknown", func() {
			_ = os.Setenv("TRIGLAT_ON_NO_CROSSING", "retry")
			defer clearConfigEnvVars()

			_, err := config.Load()

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, triglat.ErrInvalidParameter), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigOptions(t *testing.T) {
	convey.Convey("Given a config requesting the abort policy", t, func() {
		cfg := config.New()
		cfg.OnNoCrossing = "abort"
		cfg.LogLevel = "warn"

		var buf bytes.Buffer
		opts, err := cfg.Options(cfg.Logger(&buf))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a trial has no crossing", func() {
			_, err := triglat.EstimateTriggerLatency(context.Background(), oneSilentTrial(), 1000, 0, opts...)

			convey.Convey("Then the estimate is aborted", func() {
				convey.So(errors.Is(err, triglat.ErrNoCrossingFound), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a config at warn level with the exclude policy", t, func() {
		cfg := config.New()
		cfg.LogLevel = "WARNING"

		var buf bytes.Buffer
		opts, err := cfg.Options(cfg.Logger(&buf))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a trial has no crossing", func() {
			res, err := triglat.EstimateTriggerLatency(context.Background(), oneSilentTrial(), 1000, 0, opts...)

			convey.Convey("Then the trial is excluded with a warning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Excluded, convey.ShouldResemble, []int{1})
				convey.So(buf.String(), convey.ShouldContainSubstring, "excluding trial without threshold crossing")
				convey.So(buf.String(), convey.ShouldNotContainSubstring, "estimated trigger latency")
			})
		})
	})
}

func TestParseLevel(t *testing.T) {
	convey.Convey("Given log level strings", t, func() {
		for _, level := range []string{"debug", "INFO", "", "warn", "warning", "error"} {
			_, err := config.ParseLevel(level)
			convey.So(err, convey.ShouldBeNil)
		}

		_, err := config.ParseLevel("verbose")
		convey.So(err, convey.ShouldNotBeNil)
	})
}
