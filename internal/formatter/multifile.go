package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

const overviewFile = "_overview.md"

// MultiFileFormatter writes each model to its own file in a directory
type MultiFileFormatter struct {
	OutputDir string
	Format    schema.Format
	Options   Options
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string, format schema.Format, opts Options) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir: outputDir,
		Format:    format,
		Options:   opts,
	}
}

// Write writes the overview and one file per model, returning the paths written
func (f *MultiFileFormatter) Write(models []schema.Model) ([]string, error) {
	if !f.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", schema.ErrUnrecognizedFormat, f.Format)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	overview := filepath.Join(f.OutputDir, overviewFile)
	if err := f.writeOverview(overview, models); err != nil {
		return nil, fmt.Errorf("failed to write overview: %w", err)
	}
	written := []string{overview}

	// Write per-model files
	for _, m := range models {
		path, err := f.writeModelFile(m, models)
		if err != nil {
			return written, fmt.Errorf("failed to write model file for %s: %w", m.Name, err)
		}
		written = append(written, path)
	}

	return written, nil
}

// writeOverview lists every model with its outgoing and incoming relations
func (f *MultiFileFormatter) writeOverview(filename string, models []schema.Model) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
	_, _ = fmt.Fprintf(file, "Format: %s. Each model has a corresponding file: `<Model>%s`\n\n", DisplayName(f.Format), Extension(f.Format))
	_, _ = fmt.Fprintf(file, "## Models\n\n")

	// Sort models alphabetically
	sorted := make([]schema.Model, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	set := schema.NewModelSet(models)
	for _, m := range sorted {
		_, _ = fmt.Fprintf(file, "- **%s**", m.Name)

		// Show outgoing relationships
		var targets []string
		for _, field := range m.Fields {
			if set.IsRelation(field) {
				targets = append(targets, field.Type)
			}
		}
		if len(targets) > 0 {
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}

		if incoming := findIncomingRelations(m.Name, models); len(incoming) > 0 {
			sources := make([]string, len(incoming))
			for i, rel := range incoming {
				sources[i] = rel.SourceModel + "." + rel.SourceField
			}
			_, _ = fmt.Fprintf(file, " (referenced by: %s)", strings.Join(sources, ", "))
		}
		_, _ = fmt.Fprintf(file, "\n")
	}
	_, _ = fmt.Fprintln(file)

	md := NewMarkdownFormatter(file)
	for _, m := range sorted {
		md.FormatModel(m, set)
	}

	return file.Close()
}

// writeModelFile renders a single model in the target format
func (f *MultiFileFormatter) writeModelFile(m schema.Model, models []schema.Model) (string, error) {
	filename := filepath.Join(f.OutputDir, ident(m.Name)+Extension(f.Format))

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	// Sibling models stay relation targets
	opts := f.Options
	opts.External = append([]string(nil), f.Options.External...)
	for _, other := range models {
		if other.Name != m.Name {
			opts.External = append(opts.External, other.Name)
		}
	}

	out, err := New(f.Format, file, opts)
	if err != nil {
		return "", err
	}
	if err := out.Format([]schema.Model{m}); err != nil {
		return "", err
	}
	return filename, file.Close()
}

// IncomingRelation represents a relation field pointing at a model
type IncomingRelation struct {
	SourceModel string
	SourceField string
	TargetModel string
	Cardinality string
}

// findIncomingRelations finds all relation fields pointing to this model
func findIncomingRelations(name string, models []schema.Model) []IncomingRelation {
	var incoming []IncomingRelation

	for _, m := range models {
		for _, field := range m.Fields {
			if field.Type == name {
				incoming = append(incoming, IncomingRelation{
					SourceModel: m.Name,
					SourceField: field.Name,
					TargetModel: name,
					Cardinality: Cardinality(field),
				})
			}
		}
	}

	return incoming
}
