// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	// StateDir holds the history database. Defaults to .rivet.
	StateDir string `json:"state_dir"`

	LogLevel string `json:"log_level"` // debug, info, warn, error

	Tasks map[string]Task `json:"tasks"`
}

// Task declares the snapshotted file properties of one build task.
type Task struct {
	Inputs  []Property `json:"inputs"`
	Outputs []Property `json:"outputs"`
}

// Property declares one file collection of a task.
type Property struct {
	Label   string   `json:"label"`
	Root    string   `json:"root"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`

	// Normalize selects the cross-run identity: "absolute", "name" or
	// "relative". Defaults to "absolute".
	Normalize string `json:"normalize"`
}

func DefaultPath() string {
	if path := os.Getenv("RIVET_CONFIG"); path != "" {
		return path
	}
	return "rivet.json"
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if config.StateDir == "" {
		config.StateDir = ".rivet"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	return &config, nil
}
