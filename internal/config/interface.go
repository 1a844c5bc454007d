package config

import "context"

// Loader is the interface for a format-specific settings loader.
type Loader interface {
	// Load reads settings from the given path and merges them over the
	// defaults. An empty path yields the defaults unchanged.
	Load(ctx context.Context, path string) (*Settings, error)
}
