package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the dbshape configuration structure.
// It covers logging, database connection and command options, and CSV export defaults.
type Config struct {
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Database DatabaseConfig `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Export   ExportConfig   `koanf:"export" json:"export" yaml:"export" mapstructure:"export"`

	k *koanf.Koanf // koanf instance for flexible access
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// DatabaseConfig holds database connection settings.
// Either ConnectionString or Host/Database must be provided.
type DatabaseConfig struct {
	Vendor           string `koanf:"vendor" json:"vendor" yaml:"vendor" mapstructure:"vendor" validate:"required,oneof=postgresql oracle mysql sqlite"`
	ConnectionString string `koanf:"connectionstring" json:"connectionString" yaml:"connectionstring" mapstructure:"connectionstring"`
	Host             string `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port             int    `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	Database         string `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Username         string `koanf:"username" json:"username" yaml:"username" mapstructure:"username"`
	Password         string `koanf:"password" json:"-" yaml:"password" mapstructure:"password"`

	// SSLMode is passed to PostgreSQL as sslmode and to MySQL as tls.
	SSLMode string `koanf:"sslmode" json:"sslMode" yaml:"sslmode" mapstructure:"sslmode"`

	// ServiceName selects an Oracle service; it takes precedence over Database for Oracle.
	ServiceName string `koanf:"servicename" json:"serviceName" yaml:"servicename" mapstructure:"servicename"`

	Command  CommandConfig  `koanf:"command" json:"command" yaml:"command" mapstructure:"command"`
	Tracking TrackingConfig `koanf:"tracking" json:"tracking" yaml:"tracking" mapstructure:"tracking"`
}

// CommandConfig holds per-command execution defaults.
type CommandConfig struct {
	// Timeout is the command timeout in seconds; zero means no limit.
	Timeout int  `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Prepare bool `koanf:"prepare" json:"prepare" yaml:"prepare" mapstructure:"prepare"`
}

// TrackingConfig holds settings for command logging and slow command detection.
type TrackingConfig struct {
	SlowQueryThreshold time.Duration `koanf:"slowquerythreshold" json:"slowQueryThreshold" yaml:"slowquerythreshold" mapstructure:"slowquerythreshold" validate:"gte=0"`
	LogParameters      bool          `koanf:"logparameters" json:"logParameters" yaml:"logparameters" mapstructure:"logparameters"`
	MaxQueryLength     int           `koanf:"maxquerylength" json:"maxQueryLength" yaml:"maxquerylength" mapstructure:"maxquerylength" validate:"gte=0"`
}

// ExportConfig holds CSV export defaults.
type ExportConfig struct {
	Header bool `koanf:"header" json:"header" yaml:"header" mapstructure:"header"`
	CRLF   bool `koanf:"crlf" json:"crlf" yaml:"crlf" mapstructure:"crlf"`
}
