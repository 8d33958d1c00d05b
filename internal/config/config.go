// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads weight, voting, and rule configuration from
// YAML. A missing or malformed file degrades to built-in defaults with
// a warning; configuration problems never stop document processing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"phi-arbiter/internal/observability"
	"phi-arbiter/internal/reasoner"
	"phi-arbiter/internal/scoring"
	"phi-arbiter/internal/spans"
	"phi-arbiter/internal/voting"
)

// Reasoner mode selection.
const (
	ReasonerDatalog = "datalog"
	ReasonerLegacy  = "legacy"
	ReasonerOff     = "off"
)

// Interval backend selection.
const (
	BackendTree   = "tree"
	BackendLinear = "linear"
)

// Config is the full engine configuration.
type Config struct {
	Scoring struct {
		Threshold float64         `yaml:"threshold"`
		Weights   scoring.Weights `yaml:"weights"`
	} `yaml:"scoring"`

	Voting struct {
		SignalWeights    map[string]float64 `yaml:"signal_weights"`
		RedactThreshold  float64            `yaml:"redact_threshold"`
		SkipThreshold    float64            `yaml:"skip_threshold"`
		MinimumAgreement int                `yaml:"minimum_agreement"`
		UseBayesian      bool               `yaml:"use_bayesian"`
		PHIPrior         float64            `yaml:"phi_prior"`
	} `yaml:"voting"`

	Reasoner struct {
		Mode            string       `yaml:"mode"`
		ProximityWindow int          `yaml:"proximity_window"`
		Rules           []RuleConfig `yaml:"rules"`
	} `yaml:"reasoner"`

	Arbitration struct {
		Backend string `yaml:"backend"`
	} `yaml:"arbitration"`

	Engine struct {
		Workers int `yaml:"workers"`
	} `yaml:"engine"`
}

// RuleConfig is the serialized form of a reasoner rule.
type RuleConfig struct {
	Name           string  `yaml:"name"`
	Type1          string  `yaml:"type1"`
	Type2          string  `yaml:"type2"`
	Relationship   string  `yaml:"relationship"`
	Strength       float64 `yaml:"strength"`
	ContextPattern string  `yaml:"context_pattern,omitempty"`
	Description    string  `yaml:"description,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Scoring.Threshold = scoring.DefaultThreshold
	cfg.Scoring.Weights = scoring.DefaultWeights()

	def := voting.DefaultVotingConfig()
	cfg.Voting.SignalWeights = make(map[string]float64, len(def.SignalWeights))
	for source, weight := range def.SignalWeights {
		cfg.Voting.SignalWeights[string(source)] = weight
	}
	cfg.Voting.RedactThreshold = def.RedactThreshold
	cfg.Voting.SkipThreshold = def.SkipThreshold
	cfg.Voting.MinimumAgreement = def.MinimumAgreement
	cfg.Voting.UseBayesian = def.UseBayesian
	cfg.Voting.PHIPrior = def.PHIPrior

	cfg.Reasoner.Mode = ReasonerDatalog
	cfg.Reasoner.ProximityWindow = reasoner.DefaultProximityWindow

	cfg.Arbitration.Backend = BackendTree
	cfg.Engine.Workers = 4

	return cfg
}

// LoadConfig loads configuration from the given path. An empty path
// returns defaults. A read or parse failure returns the error; callers
// are expected to warn and fall back to DefaultConfig.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigOrDefault loads the config file, falling back to defaults
// with an observer warning when the file is missing or malformed. A
// nil observer gets a metrics-level stderr observer so the warning is
// never silently swallowed.
func LoadConfigOrDefault(configPath string, observer *observability.StandardObserver) *Config {
	if observer == nil {
		observer = observability.NewStandardObserver(observability.LevelMetrics, nil)
	}

	path := configPath
	if path == "" {
		path = FindConfigFile()
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		observer.Warn("config", "load", fmt.Sprintf("%v; using default configuration", err))
		return DefaultConfig()
	}
	return cfg
}

// FindConfigFile looks for a configuration file in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"phi-arbiter.yaml",
		"phi-arbiter.yml",
		".phi-arbiter.yaml",
		".phi-arbiter.yml",
	}
	for _, name := range candidates {
		if fileExists(name) {
			return name
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".phi-arbiter.yaml")
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// VotingConfig translates the serialized voting section.
func (c *Config) VotingConfig() voting.VotingConfig {
	weights := make(map[voting.SignalSource]float64, len(c.Voting.SignalWeights))
	for source, weight := range c.Voting.SignalWeights {
		weights[voting.SignalSource(source)] = weight
	}
	return voting.VotingConfig{
		SignalWeights:    weights,
		RedactThreshold:  c.Voting.RedactThreshold,
		SkipThreshold:    c.Voting.SkipThreshold,
		MinimumAgreement: c.Voting.MinimumAgreement,
		UseBayesian:      c.Voting.UseBayesian,
		PHIPrior:         c.Voting.PHIPrior,
	}
}

// Rules compiles the serialized rule table. When the config carries no
// rules the built-in table is used. A rule with a bad relationship or
// an uncompilable context pattern is skipped with a warning rather
// than failing the load.
func (c *Config) Rules() []reasoner.Rule {
	if len(c.Reasoner.Rules) == 0 {
		return reasoner.DefaultRules()
	}

	rules := make([]reasoner.Rule, 0, len(c.Reasoner.Rules))
	for _, rc := range c.Reasoner.Rules {
		rel := reasoner.Relationship(rc.Relationship)
		if rel != reasoner.Exclusive && rel != reasoner.Supportive {
			fmt.Fprintf(os.Stderr, "Warning: skipping rule %q: unknown relationship %q\n", rc.Name, rc.Relationship)
			continue
		}

		rule := reasoner.Rule{
			Name:         rc.Name,
			Type1:        spans.FilterType(rc.Type1),
			Type2:        spans.FilterType(rc.Type2),
			Relationship: rel,
			Strength:     rc.Strength,
			Description:  rc.Description,
		}
		if rc.ContextPattern != "" {
			re, err := regexp.Compile(rc.ContextPattern)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: skipping rule %q: bad context pattern: %v\n", rc.Name, err)
				continue
			}
			rule.ContextPattern = re
		}
		rules = append(rules, rule)
	}
	return rules
}

func validate(cfg *Config) error {
	if cfg.Scoring.Threshold < 0 || cfg.Scoring.Threshold > 1 {
		return fmt.Errorf("scoring threshold %.2f outside [0,1]", cfg.Scoring.Threshold)
	}
	if cfg.Voting.RedactThreshold < cfg.Voting.SkipThreshold {
		return fmt.Errorf("redact threshold %.2f below skip threshold %.2f",
			cfg.Voting.RedactThreshold, cfg.Voting.SkipThreshold)
	}
	switch cfg.Reasoner.Mode {
	case ReasonerDatalog, ReasonerLegacy, ReasonerOff:
	default:
		return fmt.Errorf("unknown reasoner mode %q", cfg.Reasoner.Mode)
	}
	switch cfg.Arbitration.Backend {
	case BackendTree, BackendLinear:
	default:
		return fmt.Errorf("unknown arbitration backend %q", cfg.Arbitration.Backend)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
