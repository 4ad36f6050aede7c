package world

import "time"

type WorldConfig struct {
	Width  int
	Height int

	MaxHealth     int
	HistoryCap    int
	SpawnAttempts int

	HeartbeatInterval time.Duration
	GraceWindow       time.Duration

	Seed int64
}

func (c *WorldConfig) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 20
	}
	if c.Height <= 0 {
		c.Height = 11
	}
	if c.MaxHealth <= 0 {
		c.MaxHealth = 10
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = 20
	}
	if c.SpawnAttempts <= 0 {
		c.SpawnAttempts = 100
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	if c.GraceWindow <= 0 {
		c.GraceWindow = 30 * time.Second
	}
}
