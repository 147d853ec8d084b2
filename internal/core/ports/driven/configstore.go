package driven

import "github.com/creditrust-labs/trustline-cli/internal/core/domain"

// ConfigStore loads and persists pipeline configuration.
// Load must return a validated Config; validation failures are fatal at
// startup, never coerced.
type ConfigStore interface {
	Load() (domain.Config, error)
	Save(cfg domain.Config) error
}
