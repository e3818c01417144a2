// Package config loads the runtime configuration from YAML.
//
// A document is checked in three steps: it must parse, match the JSON
// schema generated from entities.RuntimeConfig, and pass the struct
// validation rules on the merged result. Keys that are absent keep their
// defaults.
package config

import (
	stdErrors "errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/sexpbridge/application/schema"
	"github.com/reglet-dev/sexpbridge/application/validation"
	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
	"github.com/reglet-dev/sexpbridge/infrastructure/parser"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

var (
	schemaOnce      sync.Once
	schemaBytes     []byte
	schemaValidator *validation.SchemaValidator
	schemaErr       error
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func compiledSchema() ([]byte, *validation.SchemaValidator, error) {
	schemaOnce.Do(func() {
		schemaBytes, schemaErr = schema.GenerateSchema(&entities.RuntimeConfig{})
		if schemaErr != nil {
			return
		}
		schemaValidator, schemaErr = validation.NewSchemaValidator("runtime-config.json", schemaBytes)
	})
	return schemaBytes, schemaValidator, schemaErr
}

// Schema returns the JSON schema of the runtime configuration document.
func Schema() ([]byte, error) {
	b, _, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate config schema: %w", err)
	}
	return b, nil
}

// Load parses data onto the defaults and validates the result.
// Every failure is a *errors.ConfigError.
func Load(data []byte) (entities.RuntimeConfig, error) {
	_, sv, err := compiledSchema()
	if err != nil {
		return entities.RuntimeConfig{}, &errors.ConfigError{Err: err}
	}

	doc, err := parser.Document(data)
	if err != nil {
		return entities.RuntimeConfig{}, &errors.ConfigError{Err: err}
	}
	if err := sv.Validate(doc); err != nil {
		cerr := &errors.ConfigError{Err: err}
		var verr *validation.Error
		if stdErrors.As(err, &verr) && len(verr.Violations) > 0 {
			cerr.Field = strings.TrimPrefix(verr.Violations[0].Location, "/")
		}
		return entities.RuntimeConfig{}, cerr
	}

	cfg, err := parser.NewYAMLConfigParser().Parse(data, entities.DefaultRuntimeConfig())
	if err != nil {
		return entities.RuntimeConfig{}, &errors.ConfigError{Err: err}
	}
	if err := Validate(cfg); err != nil {
		return entities.RuntimeConfig{}, err
	}
	return cfg, nil
}

// LoadFile reads and loads the configuration at path.
func LoadFile(path string) (entities.RuntimeConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		return entities.RuntimeConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Load(data)
	if err != nil {
		return entities.RuntimeConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate applies the struct validation rules to cfg.
func Validate(cfg entities.RuntimeConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		return &errors.ConfigError{Field: verrs[0].Field(), Err: err}
	}
	return &errors.ConfigError{Err: err}
}
