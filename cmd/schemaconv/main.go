package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemaconv"
	"github.com/tordrt/schemaconv/internal/config"
)

// app carries the loaded configuration and flag values for one invocation
type app struct {
	configPath  string
	logLevel    string
	timestamp   bool
	openapiYAML bool

	cfg    config.Config
	logger *slog.Logger
	prompt prompter
}

func newRootCmd() *cobra.Command {
	return (&app{prompt: surveyPrompter{}}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemaconv",
		Short: "Convert database schemas between formats",
		Long: `schemaconv converts schema definitions between Prisma, Mongoose, Sequelize,
SQL DDL, TypeScript, JSON Schema, Zod, GraphQL, OpenAPI and Django models. It can
also read the schema of a live PostgreSQL, MySQL or SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ./"+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&a.timestamp, "timestamp", false, "Stamp a generated-on comment into the output")
	rootCmd.PersistentFlags().BoolVar(&a.openapiYAML, "openapi-yaml", false, "Render OpenAPI documents as YAML instead of JSON")

	rootCmd.AddCommand(
		a.convertCmd(),
		a.detectCmd(),
		a.inspectCmd(),
		a.introspectCmd(),
		a.batchCmd(),
		a.serveCmd(),
		a.formatsCmd(),
	)
	return rootCmd
}

// load layers the config file and environment under any flags set explicitly
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("timestamp") {
		cfg.Timestamp = a.timestamp
	}
	if flags.Changed("openapi-yaml") {
		cfg.OpenAPIYAML = a.openapiYAML
	}
	a.cfg = cfg

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	return nil
}

func (a *app) generateOptions() schemaconv.GenerateOptions {
	return schemaconv.GenerateOptions{
		Timestamp:   a.cfg.Timestamp,
		OpenAPIYAML: a.cfg.OpenAPIYAML,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// stringFlag returns the flag value when set on the command line, else fallback
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

// readInput reads the named file, or stdin when no file is given or it is "-"
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}

// writeOutput writes to path, or to the command's stdout when path is empty
func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
