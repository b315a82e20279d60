package config

import "context"

// Loader is the interface for a format-specific configuration loader. Load
// reads every configuration file reachable from the given paths and merges
// them into the unified model; later files override earlier ones for scalar
// settings and tier quotas.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
