package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML overlay. Every value is a default that
// the matching environment variable still overrides.
type fileConfig struct {
	Port      int    `yaml:"port"`
	BasePath  string `yaml:"basePath"`
	Translate struct {
		URL    string `yaml:"url"`
		Source string `yaml:"source"`
		Pivot  string `yaml:"pivot"`
	} `yaml:"translate"`
	Claude struct {
		Command string `yaml:"command"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"claude"`
	Session struct {
		MaxExchanges *int `yaml:"maxExchanges"`
	} `yaml:"session"`
	Exposure struct {
		Auto bool   `yaml:"auto"`
		Tool string `yaml:"tool"`
	} `yaml:"exposure"`
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	if path == "" {
		return file, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}
