// Package formatter renders the shared model list in each supported target syntax.
package formatter

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/tordrt/schemaconv/internal/schema"
)

// Formatter writes a model list to its underlying writer
type Formatter interface {
	Format(models []schema.Model) error
}

// Options tune generated output
type Options struct {
	// GeneratedAt is stamped into a header comment; the zero time omits it
	GeneratedAt time.Time
	// YAML selects YAML instead of JSON for OpenAPI documents
	YAML bool
	// External names models rendered elsewhere that fields may still reference
	External []string
}

// modelSet indexes the relation targets visible to a formatter
func (o Options) modelSet(models []schema.Model) schema.ModelSet {
	set := schema.NewModelSet(models)
	for _, name := range o.External {
		set[name] = true
	}
	return set
}

// New returns the formatter for format writing to w
func New(format schema.Format, w io.Writer, opts Options) (Formatter, error) {
	switch format {
	case schema.FormatPrisma:
		return NewPrismaFormatter(w, opts), nil
	case schema.FormatMongoose:
		return NewMongooseFormatter(w, opts), nil
	case schema.FormatSequelize:
		return NewSequelizeFormatter(w, opts), nil
	case schema.FormatSQL:
		return NewSQLFormatter(w, opts), nil
	case schema.FormatTypeScript:
		return NewTypeScriptFormatter(w, opts), nil
	case schema.FormatJSONSchema:
		return NewJSONSchemaFormatter(w, opts), nil
	case schema.FormatZod:
		return NewZodFormatter(w, opts), nil
	case schema.FormatGraphQL:
		return NewGraphQLFormatter(w, opts), nil
	case schema.FormatOpenAPI:
		return NewOpenAPIFormatter(w, opts), nil
	case schema.FormatDjango:
		return NewDjangoFormatter(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnrecognizedFormat, format)
	}
}

type formatMeta struct {
	name string
	ext  string
}

var formatMetas = map[schema.Format]formatMeta{
	schema.FormatPrisma:     {"Prisma Schema", ".prisma"},
	schema.FormatMongoose:   {"Mongoose Models", ".js"},
	schema.FormatSequelize:  {"Sequelize Models", ".js"},
	schema.FormatSQL:        {"Raw SQL DDL", ".sql"},
	schema.FormatTypeScript: {"TypeScript Interfaces", ".ts"},
	schema.FormatJSONSchema: {"JSON Schema", ".json"},
	schema.FormatZod:        {"Zod Validation", ".ts"},
	schema.FormatGraphQL:    {"GraphQL Schema", ".graphql"},
	schema.FormatOpenAPI:    {"OpenAPI/Swagger", ".yaml"},
	schema.FormatDjango:     {"Django Models", ".py"},
}

// DisplayName returns the human-readable name of format
func DisplayName(format schema.Format) string {
	return formatMetas[format].name
}

// Extension returns the conventional file extension of format, with its leading dot
func Extension(format schema.Format) string {
	if meta, ok := formatMetas[format]; ok {
		return meta.ext
	}
	return ".txt"
}

// headerLines returns the title comment and, when set, the timestamp comment
func headerLines(opts Options, prefix, title string) []string {
	lines := []string{fmt.Sprintf("%s %s", prefix, title)}
	if !opts.GeneratedAt.IsZero() {
		lines = append(lines, prefix+" "+generatedOn(opts))
	}
	return lines
}

func generatedOn(opts Options) string {
	return "Generated on " + opts.GeneratedAt.UTC().Format(time.RFC3339)
}

func writeHeader(w io.Writer, opts Options, prefix, title string) {
	for _, line := range headerLines(opts, prefix, title) {
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintln(w)
}

// primaryKey names the field acting as the model's key: the first IsID field,
// else a field literally named id, else ""
func primaryKey(m schema.Model) string {
	for _, f := range m.Fields {
		if f.IsID {
			return f.Name
		}
	}
	for _, f := range m.Fields {
		if f.Name == "id" {
			return f.Name
		}
	}
	return ""
}

// ident sanitizes a model or field name for code-like targets
func ident(name string) string {
	return schema.SanitizeIdentifier(name)
}

// enumName picks the enum type name for an enum-annotated field: the declared
// name when the model carries a matching declaration, else Model+Field
func enumName(model schema.Model, field schema.Field) string {
	for _, name := range model.EnumNames() {
		if equalStrings(model.Enums[name], field.Enum) {
			return ident(name)
		}
	}
	return ident(model.Name) + schema.Capitalize(ident(field.Name))
}

type enumDecl struct {
	Name   string
	Values []string
}

// collectEnums lists every enum type referenced by a field, first use wins
func collectEnums(models []schema.Model) []enumDecl {
	seen := make(map[string]bool)
	var decls []enumDecl
	for _, m := range models {
		for _, f := range m.Fields {
			if len(f.Enum) == 0 {
				continue
			}
			name := enumName(m, f)
			if seen[name] {
				continue
			}
			seen[name] = true
			decls = append(decls, enumDecl{Name: name, Values: f.Enum})
		}
	}
	return decls
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// quoteSingle renders s as a single-quoted literal
func quoteSingle(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '\'')
	for _, r := range s {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}

var numberRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

// defaultText returns the field's default value, with numeric literals for
// numeric kinds in canonical form: 007 becomes 7 and 00.50 becomes 0.50
func defaultText(field schema.Field) string {
	v := *field.DefaultValue
	if (field.Type != schema.KindNumber && field.Type != schema.KindFloat) || !numberRe.MatchString(v) {
		return v
	}
	sign, digits := "", v
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	whole, frac, hasFrac := strings.Cut(digits, ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	if hasFrac {
		return sign + whole + "." + frac
	}
	return sign + whole
}

// isLiteral reports whether a default value can be emitted unquoted for kind
func isLiteral(kind, value string) bool {
	switch kind {
	case schema.KindNumber, schema.KindFloat:
		return numberRe.MatchString(value)
	case schema.KindBoolean:
		return value == "true" || value == "false"
	}
	return false
}

// autoIncrement reports whether a numeric key is database generated
func autoIncrement(field schema.Field) bool {
	if !field.IsID || field.Type != schema.KindNumber {
		return false
	}
	return field.DefaultValue == nil || strings.EqualFold(*field.DefaultValue, "autoincrement()")
}
