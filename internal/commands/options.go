package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/dbshape/config"
	"github.com/gaborage/dbshape/database"
	"github.com/gaborage/dbshape/database/types"
	"github.com/gaborage/dbshape/logger"
)

// GlobalOptions holds the connection flags shared by every database command
type GlobalOptions struct {
	ConfigFile       string
	Vendor           string
	ConnectionString string
	Timeout          int
	Prepare          bool
}

func (o *GlobalOptions) bind(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.ConfigFile, "config", "c", "", "YAML config file")
	flags.StringVar(&o.Vendor, "vendor", "", "Database vendor (postgresql|oracle|mysql|sqlite)")
	flags.StringVar(&o.ConnectionString, "dsn", "", "Connection string (overrides host, port, database and credentials)")
	flags.IntVar(&o.Timeout, "timeout", 0, "Command timeout in seconds, 0 for no limit")
	flags.BoolVar(&o.Prepare, "prepare", false, "Prepare commands before execution")
}

// overrides returns the config keys set explicitly on the command line.
func (o *GlobalOptions) overrides(cmd *cobra.Command) map[string]any {
	out := make(map[string]any)
	if o.Vendor != "" {
		out["database.vendor"] = o.Vendor
	}
	if o.ConnectionString != "" {
		out["database.connectionstring"] = o.ConnectionString
	}
	if cmd.Flags().Changed("timeout") {
		out["database.command.timeout"] = o.Timeout
	}
	if cmd.Flags().Changed("prepare") {
		out["database.command.prepare"] = o.Prepare
	}
	return out
}

// session is what a database command needs once configuration is resolved.
type session struct {
	cfg    *config.Config
	log    logger.Logger
	driver types.Driver
	dsn    string
}

func (o *GlobalOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadWithOverrides(o.ConfigFile, o.overrides(cmd))
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty, nil)

	drv, err := database.NewDriver(&cfg.Database, log, nil)
	if err != nil {
		return nil, err
	}
	dsn, err := database.ConnectionString(&cfg.Database)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: log, driver: drv, dsn: dsn}, nil
}

// command applies the configured execution options to a command.
func (s *session) command(cmd database.Command) database.Command {
	cmd.TimeoutSeconds = s.cfg.Database.Command.Timeout
	cmd.Prepare = s.cfg.Database.Command.Prepare
	return cmd
}

// QueryOptions holds the flags of commands that run a single SQL command
type QueryOptions struct {
	Kind   string
	Params []string
}

func (o *QueryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Kind, "kind", "k", "text", "Command kind (text|procedure|table)")
	cmd.Flags().StringArrayVarP(&o.Params, "param", "p", nil, "Parameter as @name=value; @name alone binds NULL (repeatable)")
}

// build turns the command text and flags into a command descriptor.
func (o *QueryOptions) build(text string) (database.Command, error) {
	kind, err := parseKind(o.Kind)
	if err != nil {
		return database.Command{}, err
	}
	params, err := parseParams(o.Params)
	if err != nil {
		return database.Command{}, err
	}
	return database.Command{Text: text, Kind: kind, Parameters: params}, nil
}

func parseKind(kind string) (types.CommandKind, error) {
	switch strings.ToLower(kind) {
	case "text", "":
		return types.KindText, nil
	case "procedure", "sp", "stored_procedure":
		return types.KindStoredProcedure, nil
	case "table", "table_direct":
		return types.KindTableDirect, nil
	default:
		return 0, fmt.Errorf("unsupported command kind: %s (supported: text, procedure, table)", kind)
	}
}

func parseParams(flags []string) ([]*types.Parameter, error) {
	params := make([]*types.Parameter, 0, len(flags))
	for _, flag := range flags {
		name, value, hasValue := strings.Cut(flag, "=")
		var v any
		if hasValue {
			v = value
		}
		p, err := database.NewParameter(name, v)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// readInput reads the named file, or standard input for "" and "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// display renders a value for terminal output. NULL is printed as NULL and
// strings are printed unquoted; everything else uses the CSV rendering.
func display(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	default:
		return database.FormatCSVValue(val)
	}
}
