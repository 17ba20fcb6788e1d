package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config. Flags override whatever the
// file sets.
type fileConfig struct {
	Respond struct {
		Addr         string        `yaml:"addr"`
		File         string        `yaml:"file"`
		TickInterval time.Duration `yaml:"tick_interval"`
	} `yaml:"respond"`
	Watch struct {
		Paths        []string      `yaml:"paths"`
		TickInterval time.Duration `yaml:"tick_interval"`
	} `yaml:"watch"`
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
