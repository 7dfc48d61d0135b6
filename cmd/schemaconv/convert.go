package main

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemaconv"
	"github.com/tordrt/schemaconv/internal/detect"
)

// prompter asks the user to confirm or override a detected format
type prompter interface {
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string, def string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	prompt := &survey.Select{Message: message, Options: options}
	if def != "" {
		prompt.Default = def
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errors.New("cancelled")
	}
	return err
}

func (a *app) convertCmd() *cobra.Command {
	var from, to, output string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a schema file (or stdin) to another format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			source, err := a.sourceFormat(text, stringFlag(cmd, "from", from, a.cfg.From), interactive)
			if err != nil {
				return err
			}
			target, err := schemaconv.ParseFormat(stringFlag(cmd, "to", to, a.cfg.To))
			if err != nil {
				return err
			}

			out, err := schemaconv.ConvertWithOptions(text, source, target, a.generateOptions())
			if err != nil {
				return err
			}
			a.logger.Debug("converted", "from", source, "to", target, "bytes", len(out))
			return writeOutput(cmd, output, out)
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "Source format (default: detected)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format (default: prisma)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Confirm or override the detected source format")
	return cmd
}

// sourceFormat resolves the source format: an explicit tag wins, otherwise the
// detected one, optionally confirmed by the user
func (a *app) sourceFormat(text, explicit string, interactive bool) (schemaconv.Format, error) {
	if explicit != "" {
		return schemaconv.ParseFormat(explicit)
	}

	detected := schemaconv.DetectFormat(text)
	if interactive {
		return a.confirmFormat(text, detected)
	}
	if detected == "" {
		return "", errors.New("could not detect the source format; pass --from")
	}
	a.logger.Info("detected source format", "format", detected)
	return detected, nil
}

func (a *app) confirmFormat(text string, detected schemaconv.Format) (schemaconv.Format, error) {
	if detected != "" {
		ok, err := a.prompt.Confirm(fmt.Sprintf("Input looks like %s. Convert from %s?", detected, detected), true)
		if err != nil {
			return "", err
		}
		if ok {
			return detected, nil
		}
	}

	chosen, err := a.prompt.Select("Source format:", formatOptions(text), string(detected))
	if err != nil {
		return "", err
	}
	return schemaconv.ParseFormat(chosen)
}

// formatOptions lists every format tag, the ones whose markers appear in text first
func formatOptions(text string) []string {
	seen := make(map[schemaconv.Format]bool)
	var options []string
	for _, f := range detect.Candidates(text) {
		seen[f] = true
		options = append(options, string(f))
	}
	for _, info := range schemaconv.Formats() {
		if !seen[info.Format] {
			options = append(options, string(info.Format))
		}
	}
	return options
}
