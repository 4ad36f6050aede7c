package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the operational world parameters loaded from tuning.yaml.
type Tuning struct {
	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`

	HeartbeatMs   int `yaml:"heartbeat_ms"`
	GraceWindowMs int `yaml:"grace_window_ms"`

	SpawnAttempts int `yaml:"spawn_attempts"`
	HistoryCap    int `yaml:"history_cap"`
	MemoryCap     int `yaml:"memory_cap"`
	MaxHealth     int `yaml:"max_health"`
}

func Defaults() Tuning {
	return Tuning{
		GridWidth:     20,
		GridHeight:    11,
		HeartbeatMs:   5000,
		GraceWindowMs: 30000,
		SpawnAttempts: 100,
		HistoryCap:    20,
		MemoryCap:     500,
		MaxHealth:     10,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
