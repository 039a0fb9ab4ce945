package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "missing field",
			err:  NewMissingFieldError("database.host"),
			want: "config_missing: database.host required set DBSHAPE_DATABASE_HOST env var or add database.host to the config file",
		},
		{
			name: "invalid with options",
			err:  NewInvalidFieldError("log.level", "unknown level", []string{"debug", "info"}),
			want: "config_invalid: log.level unknown level must be one of: debug, info",
		},
		{
			name: "invalid without options",
			err:  NewInvalidFieldError("database.port", "out of range", nil),
			want: "config_invalid: database.port out of range",
		},
		{
			name: "details",
			err:  &ConfigError{Message: "bad", Details: []string{"a", "b"}},
			want: "bad a; b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "DBSHAPE_DATABASE_TRACKING_SLOWQUERYTHRESHOLD", EnvVar("database.tracking.slowquerythreshold"))
	assert.Equal(t, "DBSHAPE_LOG_LEVEL", EnvVar("log.level"))
}
