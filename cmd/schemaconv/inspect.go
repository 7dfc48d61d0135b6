package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemaconv"
	"github.com/tordrt/schemaconv/internal/formatter"
)

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file]",
		Short: "Print the detected format of a schema file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			format := schemaconv.DetectFormat(text)
			if format == "" {
				format = "none"
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), format)
			return nil
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	var from string
	var markdown bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the models parsed from a schema file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			source, err := a.sourceFormat(text, stringFlag(cmd, "from", from, a.cfg.From), false)
			if err != nil {
				return err
			}
			models, err := schemaconv.Parse(text, source)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", source, err)
			}

			if markdown {
				return formatter.NewMarkdownFormatter(cmd.OutOrStdout()).Format(models)
			}
			return formatter.NewTextFormatter(cmd.OutOrStdout()).Format(models)
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "Source format (default: detected)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print markdown instead of the compact text layout")
	return cmd
}

func (a *app) formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, info := range schemaconv.Formats() {
				_, _ = fmt.Fprintf(w, "%-12s %-9s %s\n", info.Format, info.Extension, info.Name)
			}
			_, _ = fmt.Fprintf(w, "\n%d formats\n", len(schemaconv.Formats()))
			return nil
		},
	}
}
