package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HUB_ADDR points at a running chat-hub instance, e.g. "http://localhost:8080".
	// Leaving it empty skips the end to end suite.
	HubAddr string `envconfig:"HUB_ADDR"`
	// E2E_DEBUG_JSON allows dumping full HTTP and WebSocket bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
