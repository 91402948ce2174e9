// Copyright (c) 2020 The JaxNetwork developers
// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gitlab.com/logspace/mlsd/chainsource"
	"gitlab.com/logspace/mlsd/corelog"
	"gitlab.com/logspace/mlsd/mls"
)

// Source selectors for the run command.
const (
	sourceNode     = "node"
	sourceFile     = "file"
	sourceDB       = "db"
	sourceRandom   = "random"
	sourceScripted = "scripted"
)

// GeneratorConfig shapes the synthetic chain of the random and
// scripted sources.
type GeneratorConfig struct {
	Blocks int32   `yaml:"blocks"`
	P      float64 `yaml:"p"`
	Seed   int64   `yaml:"seed"`
	Levels []int   `yaml:"levels"`
}

type Config struct {
	Source      string              `yaml:"source"`
	NodeRPC     chainsource.NodeRPC `yaml:"node_rpc"`
	HeadersFile string              `yaml:"headers_file"`
	HeadersDB   string              `yaml:"headers_db"`
	MetricsFile string              `yaml:"metrics_file"`
	ProofFile   string              `yaml:"proof_file"`
	BreakAt     int32               `yaml:"break_at"`
	PrintStep   int32               `yaml:"print_step"`
	LogLevel    string              `yaml:"log_level"`
	Proof       mls.Params          `yaml:"proof"`
	Generator   GeneratorConfig     `yaml:"generator"`
	Logging     corelog.Config      `yaml:"logging"`
}

func defaultConfig() Config {
	return Config{
		Source:      sourceNode,
		HeadersFile: "headers.json",
		HeadersDB:   "headers.db",
		MetricsFile: "metrics.csv",
		PrintStep:   1000,
		LogLevel:    "info",
		Proof:       mls.DefaultParams(),
		Generator: GeneratorConfig{
			Blocks: 100000,
			P:      0.5,
			Seed:   42,
		},
		Logging: corelog.Config{}.Default(),
	}
}

func parseConfig(path string) (Config, error) {
	cfg := defaultConfig()

	rawFile, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// Missing config is fine, defaults plus flags carry a run.
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read configuration")
	}

	if err = yaml.Unmarshal(rawFile, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to decode configuration")
	}

	return cfg, nil
}
