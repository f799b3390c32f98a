/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads queuesim settings from YAML files.
package config

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/mm1"
	"github.com/hyperledger-labs/queuesim/pkg/simulation"
)

type Simulation struct {
	ArrivalRate float64 `yaml:"arrivalRate"` // lambda, arrivals per unit of time
	ServiceRate float64 `yaml:"serviceRate"` // mu, completions per unit of busy time
	Samples     uint64  `yaml:"samples"`     // served customers after which a run halts
	Seed        int64   `yaml:"seed"`
	Source      string  `yaml:"source"` // "math" or "stream"
}

type Config struct {
	Simulation Simulation `yaml:"simulation"`

	Replications int `yaml:"replications"`
	Parallelism  int `yaml:"parallelism"` // goroutines running replications

	Trace    string `yaml:"trace"` // served-customer trace directory, empty to disable
	Store    string `yaml:"store"` // report archive directory, empty to disable
	Name     string `yaml:"name"`  // key of the report in the archive
	LogLevel string `yaml:"logLevel"`
}

// Default returns the settings used when no file is given: the half loaded
// queue with ten thousand samples.
func Default() *Config {
	return &Config{
		Simulation: Simulation{
			ArrivalRate: 1,
			ServiceRate: 2,
			Samples:     10000,
			Seed:        1,
			Source:      string(simulation.SourceMath),
		},
		Replications: 1,
		Parallelism:  1,
		LogLevel:     "info",
	}
}

// Parse reads YAML settings on top of the defaults.  Keys which do not
// correspond to a setting are rejected.
func Parse(data []byte) (*Config, error) {
	config := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && err != io.EOF {
		return nil, errors.WithMessage(err, "could not parse config")
	}

	return config, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not read config file %s", path)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not load config file %s", path)
	}

	return config, nil
}

// Spec converts the simulation section.
func (c *Config) Spec() simulation.Spec {
	return simulation.Spec{
		ArrivalRate: c.Simulation.ArrivalRate,
		ServiceRate: c.Simulation.ServiceRate,
		Samples:     c.Simulation.Samples,
		Seed:        c.Simulation.Seed,
		Source:      simulation.Source(c.Simulation.Source),
	}
}

func (c *Config) Level() (logging.LogLevel, error) {
	return logging.ParseLevel(c.LogLevel)
}

func (c *Config) Validate() error {
	if err := c.Spec().Validate(); err != nil {
		return err
	}

	if c.Replications < 1 {
		return errors.WithMessagef(mm1.ErrInvalidConfig, "replications must be positive, got %d", c.Replications)
	}

	if c.Parallelism < 1 {
		return errors.WithMessagef(mm1.ErrInvalidConfig, "parallelism must be positive, got %d", c.Parallelism)
	}

	if c.Trace != "" && c.Replications > 1 {
		return errors.WithMessage(mm1.ErrInvalidConfig, "a trace can only record a single replication")
	}

	if _, err := c.Level(); err != nil {
		return errors.WithMessagef(mm1.ErrInvalidConfig, "%v", err)
	}

	return nil
}
