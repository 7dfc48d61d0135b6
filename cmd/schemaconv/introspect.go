package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemaconv"
	"github.com/tordrt/schemaconv/internal/formatter"
)

func (a *app) introspectCmd() *cobra.Command {
	var (
		dbURL      string
		mysqlURL   string
		sqlitePath string
		tables     string
		exclude    string
		schemaName string
		to         string
		output     string
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Read the schema of a live database and render it in any format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL(dbURL, mysqlURL, sqlitePath)
			if err != nil {
				return err
			}

			dir := stringFlag(cmd, "output-dir", outputDir, a.cfg.OutputDir)
			if dir != "" && output != "" {
				return errors.New("cannot use both --output-dir and --output flags")
			}
			target, err := schemaconv.ParseFormat(stringFlag(cmd, "to", to, a.cfg.To))
			if err != nil {
				return err
			}

			models, err := schemaconv.Introspect(cmd.Context(), url, &schemaconv.IntrospectOptions{
				Tables:        splitList(tables),
				ExcludeTables: splitList(exclude),
				SchemaName:    schemaName,
			})
			if err != nil {
				return fmt.Errorf("failed to extract schema: %w", err)
			}
			a.logger.Info("extracted schema", "tables", len(models))

			if dir != "" {
				written, err := a.writeSplit(dir, target, models)
				if err != nil {
					return err
				}
				a.logger.Info("wrote files", "dir", dir, "count", len(written))
				return nil
			}

			out, err := schemaconv.GenerateWithOptions(models, target, a.generateOptions())
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, out)
		},
	}

	cmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	cmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	cmd.Flags().StringVar(&tables, "tables", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Tables to skip (comma-separated, optional)")
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL, the DSN database for MySQL)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format (default: prisma)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Write one file per table plus an overview into this directory")
	return cmd
}

// databaseURL turns exactly one of the connection flags into an Introspect URL
func databaseURL(dbURL, mysqlURL, sqlitePath string) (string, error) {
	var urls []string
	if dbURL != "" {
		urls = append(urls, dbURL)
	}
	if mysqlURL != "" {
		urls = append(urls, "mysql://"+mysqlURL)
	}
	if sqlitePath != "" {
		urls = append(urls, "sqlite://"+sqlitePath)
	}

	switch len(urls) {
	case 0:
		return "", errors.New("one of --db-url, --mysql-url, or --sqlite must be specified")
	case 1:
		return urls[0], nil
	default:
		return "", errors.New("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}
}

func (a *app) writeSplit(dir string, target schemaconv.Format, models []schemaconv.Model) ([]string, error) {
	opts := formatter.Options{YAML: a.cfg.OpenAPIYAML}
	if a.cfg.Timestamp {
		opts.GeneratedAt = time.Now()
	}
	written, err := formatter.NewMultiFileFormatter(dir, target, opts).Write(models)
	if err != nil {
		return written, fmt.Errorf("failed to write %s: %w", dir, err)
	}
	return written, nil
}
