package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Supported values, reported in ConfigError actions.
var (
	SupportedVendors   = []string{"postgresql", "oracle", "mysql", "sqlite"}
	SupportedLogLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their koanf path segment rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints and the connection settings that span fields.
// The first failure is returned as a *ConfigError.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	return validateConnection(&cfg.Database)
}

func validateConnection(cfg *DatabaseConfig) error {
	if cfg.ConnectionString != "" {
		return nil
	}
	if cfg.Vendor != "sqlite" && cfg.Host == "" {
		return NewMissingFieldError("database.host")
	}
	if cfg.Database == "" && (cfg.Vendor != "oracle" || cfg.ServiceName == "") {
		return NewMissingFieldError("database.database")
	}
	return nil
}

// fieldError converts a validator failure into a ConfigError with a dotted path.
func fieldError(fe validator.FieldError) *ConfigError {
	// Namespace is "Config.database.command.timeout"; drop the root struct name.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "gte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at least %s", fe.Param()), nil)
	case "lte":
		return NewInvalidFieldError(field, fmt.Sprintf("must be at most %s", fe.Param()), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s validation", fe.Tag()), nil)
	}
}
