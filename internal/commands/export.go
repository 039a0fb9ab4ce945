package commands

import (
	"github.com/spf13/cobra"

	"github.com/gaborage/dbshape/database"
)

// ExportOptions holds options for the export command
type ExportOptions struct {
	QueryOptions
	OutputFile string
	Header     bool
	CRLF       bool
}

// NewExportCommand creates the export command
func NewExportCommand(global *GlobalOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <sql>",
		Short: "Export query results as CSV",
		Long: `Runs a query and writes its rows as CSV to a file or standard output.
Header and line terminator default to the export section of the configuration.`,
		Example: `  # Export to a file with CRLF line endings
  dbshape export "SELECT * FROM orders" -o orders.csv --crlf

  # Export a whole table to standard output without a header
  dbshape export orders --kind table --header=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, dbCmd, err := prepare(cmd, global, &opts.QueryOptions, args[0])
			if err != nil {
				return err
			}

			header := s.cfg.Export.Header
			if cmd.Flags().Changed("header") {
				header = opts.Header
			}
			crlf := s.cfg.Export.CRLF
			if cmd.Flags().Changed("crlf") {
				crlf = opts.CRLF
			}
			var exportOpts []database.ExportOption
			if crlf {
				exportOpts = append(exportOpts, database.WithCRLF())
			}

			if opts.OutputFile == "" || opts.OutputFile == "-" {
				return database.OpenExportCSV(cmd.Context(), s.driver, s.dsn, dbCmd, cmd.OutOrStdout(), header, exportOpts...)
			}
			return database.OpenExportCSVFile(cmd.Context(), s.driver, s.dsn, dbCmd, opts.OutputFile, header, exportOpts...)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file path, - for standard output")
	cmd.Flags().BoolVar(&opts.Header, "header", true, "Write a header line with the column names")
	cmd.Flags().BoolVar(&opts.CRLF, "crlf", false, "Terminate lines with CRLF")

	return cmd
}
