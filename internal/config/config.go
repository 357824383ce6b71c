// Copyright 2026 The xqpipe Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config defines the YAML configuration of the xqscope tool.
//
// A configuration file looks like this:
//
//	pipeline:
//	  batch_size: 64
//	  workers: 4
//	split:
//	  min: 16
//	  max: 1024
//	resolve:
//	  strict: false
//	log:
//	  level: info
//	  format: text
//
// Absent keys keep their default values; unknown keys are an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Split    SplitConfig    `yaml:"split"`
	Resolve  ResolveConfig  `yaml:"resolve"`
	Log      LogConfig      `yaml:"log"`
}

// PipelineConfig controls block execution.
type PipelineConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// SplitConfig bounds the division of iterators for parallel
// consumption. An iterator with no more than Min items is not divided.
type SplitConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type ResolveConfig struct {
	Strict bool `yaml:"strict"` // stop at the first unresolved reference
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{BatchSize: 64, Workers: 1},
		Split:    SplitConfig{Min: 16, Max: 1024},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration from YAML data, starting
// from the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports all the problems of the configuration in a single
// error.
func (c *Config) Validate() error {
	var errs []string
	if c.Pipeline.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.batch_size: %d (must be positive)", c.Pipeline.BatchSize))
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.workers: %d (must be positive)", c.Pipeline.Workers))
	}
	if c.Split.Min < 0 {
		errs = append(errs, fmt.Sprintf("split.min: %d (must not be negative)", c.Split.Min))
	}
	if c.Split.Max < c.Split.Min {
		errs = append(errs, fmt.Sprintf("split.max: %d (must not be less than split.min %d)", c.Split.Max, c.Split.Min))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format: unknown format %q", c.Log.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
}
