package completion

import (
	"fmt"

	"prodnorm/internal/config"
	"prodnorm/internal/port"
)

// ClientFactory is a function that creates a CompletionClient from a completion config.
type ClientFactory func(cfg *config.CompletionConfig) (port.CompletionClient, error)

// registry of completion provider factories, populated by init() in each provider
// package or explicitly via RegisterProvider.
var providers = map[string]ClientFactory{}

// RegisterProvider registers a completion provider factory by name.
func RegisterProvider(name string, factory ClientFactory) {
	providers[name] = factory
}

// NewClient creates a CompletionClient from a completion config using the
// registered factory.
func NewClient(cfg *config.CompletionConfig) (port.CompletionClient, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
