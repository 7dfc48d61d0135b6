package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/schemaconv"
	"github.com/tordrt/schemaconv/internal/formatter"
)

type batchResult struct {
	input  string
	from   schemaconv.Format
	output []string
}

func (a *app) batchCmd() *cobra.Command {
	var from, to, outputDir string
	var workers int
	var split bool

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Convert every schema file in a directory concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := schemaconv.ParseFormat(stringFlag(cmd, "to", to, a.cfg.To))
			if err != nil {
				return err
			}
			dir := stringFlag(cmd, "output-dir", outputDir, a.cfg.OutputDir)
			if dir == "" {
				return errors.New("--output-dir is required")
			}
			n := workers
			if !cmd.Flags().Changed("workers") {
				n = a.cfg.Batch.Workers
			}
			if n < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", n)
			}

			inputs, err := listInputs(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			results, err := a.runBatch(cmd.Context(), inputs, batchJob{
				from:   stringFlag(cmd, "from", from, a.cfg.From),
				to:     target,
				outDir: dir,
				split:  split,
			}, n)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, r := range results {
				_, _ = fmt.Fprintf(w, "%s (%s) -> %s\n", r.input, r.from, strings.Join(r.output, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", "", "Source format of every file (default: detected per file)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format (default: prisma)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Directory for converted files")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of files converted concurrently")
	cmd.Flags().BoolVar(&split, "split", false, "Write one file per model into <output-dir>/<input name>/")
	return cmd
}

// listInputs returns the regular, non-hidden files of dir in name order.
// Outputs are named after the input without its extension, so two inputs
// sharing a base name are rejected.
func listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var inputs []string
	bases := make(map[string]string)
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		base := outputBase(e.Name())
		if prev, ok := bases[base]; ok {
			return nil, fmt.Errorf("%s and %s would both be written as %s; convert them separately", prev, e.Name(), base)
		}
		bases[base] = e.Name()
		inputs = append(inputs, filepath.Join(dir, e.Name()))
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input files in %s", dir)
	}
	return inputs, nil
}

type batchJob struct {
	from   string
	to     schemaconv.Format
	outDir string
	split  bool
}

// runBatch converts inputs with at most workers conversions in flight. The
// first failure cancels the remaining files.
func (a *app) runBatch(ctx context.Context, inputs []string, job batchJob, workers int) ([]batchResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	results := make([]batchResult, 0, len(inputs))
	for _, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := a.convertFile(input, job)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			a.logger.Info("converted file", "input", input, "from", r.from, "to", job.to)

			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].input < results[j].input })
	return results, nil
}

func (a *app) convertFile(input string, job batchJob) (batchResult, error) {
	r := batchResult{input: input}

	b, err := os.ReadFile(input)
	if err != nil {
		return r, err
	}
	text := string(b)

	r.from, err = a.sourceFormat(text, job.from, false)
	if err != nil {
		return r, err
	}

	base := outputBase(input)
	if job.split {
		models, err := schemaconv.Parse(text, r.from)
		if err != nil {
			return r, &schemaconv.ConversionError{Err: err}
		}
		r.output, err = a.writeSplit(filepath.Join(job.outDir, base), job.to, models)
		return r, err
	}

	out, err := schemaconv.ConvertWithOptions(text, r.from, job.to, a.generateOptions())
	if err != nil {
		return r, err
	}
	path := filepath.Join(job.outDir, base+formatter.Extension(job.to))
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return r, fmt.Errorf("failed to write output file: %w", err)
	}
	r.output = []string{path}
	return r, nil
}

func outputBase(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
