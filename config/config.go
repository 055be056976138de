// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config loads estimator settings.
//
// Settings are layered, from lowest to highest precedence: defaults from
// New, an optional YAML file named by TRIGLAT_CONFIG, and TRIGLAT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/OpenPSG/triglat"
)

// ErrInvalidConfig is returned when a loaded setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains estimator settings.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Channel is the label of the signal holding the stimulus.
	Channel string `koanf:"channel"`

	// EpochStart is the time of the first sample relative to the trigger, in seconds.
	EpochStart float64 `koanf:"epoch_start"`

	// Quantile of all samples used as onset threshold.
	Quantile float64 `koanf:"quantile"`

	// QuantileMethod is empirical or linear.
	QuantileMethod string `koanf:"quantile_method"`

	// Deviation is population or sample.
	Deviation string `koanf:"deviation"`

	// OnNoCrossing is exclude or abort.
	OnNoCrossing string `koanf:"on_no_crossing"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Channel:        "Audio",
		EpochStart:     -0.2,
		Quantile:       triglat.DefaultQuantile,
		QuantileMethod: triglat.Empirical.String(),
		Deviation:      triglat.Population.String(),
		OnNoCrossing:   triglat.Exclude.String(),
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if strings.TrimSpace(c.Channel) == "" {
		return fmt.Errorf("%w: channel must not be empty", ErrInvalidConfig)
	}
	if !(c.Quantile > 0 && c.Quantile < 1) {
		return fmt.Errorf("%w: quantile %v outside (0,1)", ErrInvalidConfig, c.Quantile)
	}
	if _, err := c.Options(nil); err != nil {
		return err
	}
	return nil
}

// Options converts the settings into estimator options.
func (c *Config) Options(logger *slog.Logger) ([]triglat.Option, error) {
	method, err := triglat.ParseQuantileMethod(c.QuantileMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	dev, err := triglat.ParseDeviation(c.Deviation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	policy, err := triglat.ParseCrossingPolicy(c.OnNoCrossing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return []triglat.Option{
		triglat.WithQuantile(c.Quantile),
		triglat.WithQuantileMethod(method),
		triglat.WithDeviation(dev),
		triglat.WithCrossingPolicy(policy),
		triglat.WithLogger(logger),
	}, nil
}

// Logger returns a text logger writing to w at the configured level,
// falling back to info on an unknown level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel accepts debug, info, warn/warning and error, case-insensitively.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
