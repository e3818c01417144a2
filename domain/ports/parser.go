package ports

import "github.com/reglet-dev/sexpbridge/domain/entities"

// ConfigParser parses raw configuration bytes into a RuntimeConfig.
type ConfigParser interface {
	// Parse decodes data on top of base and returns the result.
	Parse(data []byte, base entities.RuntimeConfig) (entities.RuntimeConfig, error)
}
