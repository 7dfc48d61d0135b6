package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	graphQLTypeRe  = regexp.MustCompile(`(?m)^\s*type\s+(\w+)(?:\s+implements\s+[\w\s&,]+?)?\s*(?:@\w+(?:\([^)]*\))?\s*)*\{`)
	graphQLEnumRe  = regexp.MustCompile(`(?m)^\s*enum\s+(\w+)\s*\{`)
	graphQLFieldRe = regexp.MustCompile(`^(\w+)\s*(?:\([^)]*\))?\s*:\s*(\[)?\s*(\w+)\s*(!)?\s*(\])?\s*(!)?\s*(.*)$`)
)

var graphQLKinds = map[string]string{
	"String":   schema.KindString,
	"ID":       schema.KindString,
	"Int":      schema.KindNumber,
	"Float":    schema.KindFloat,
	"Boolean":  schema.KindBoolean,
	"DateTime": schema.KindDate,
	"Date":     schema.KindDate,
	"JSON":     schema.KindMixed,
}

// operation roots are not data models
var graphQLRoots = map[string]bool{"Query": true, "Mutation": true, "Subscription": true}

func parseGraphQL(text string) []schema.Model {
	text = stripHashComments(text)

	enums := make(map[string][]string)
	for _, b := range findBlocks(text, graphQLEnumRe) {
		enums[b.Name] = strings.Fields(strings.ReplaceAll(b.Body, ",", " "))
	}

	var blocks []block
	for _, b := range findBlocks(text, graphQLTypeRe) {
		if !graphQLRoots[b.Name] {
			blocks = append(blocks, b)
		}
	}
	names := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		names[b.Name] = true
	}

	var models []schema.Model
	for _, b := range blocks {
		model := schema.Model{Name: b.Name}
		for _, line := range bodyLines(b.Body) {
			m := graphQLFieldRe.FindStringSubmatch(strings.TrimSuffix(line, ","))
			if m == nil {
				continue
			}
			field := schema.Field{
				Name:    m[1],
				IsArray: m[2] != "" && m[5] != "",
				Unique:  strings.Contains(m[7], "@unique"),
			}
			if field.IsArray {
				field.Required = m[6] != ""
			} else {
				field.Required = m[4] != ""
			}

			switch typ := m[3]; {
			case typ == "ID":
				field.Type = schema.KindString
				field.IsID = true
			case enums[typ] != nil:
				field.Type = schema.KindString
				field.Enum = enums[typ]
				if model.Enums == nil {
					model.Enums = make(map[string][]string)
				}
				model.Enums[typ] = enums[typ]
			case names[typ]:
				field.Type = typ
			default:
				field.Type = lookupKind(graphQLKinds, typ)
			}
			model.Fields = append(model.Fields, field)
		}
		models = append(models, model)
	}
	return orPlaceholder(models)
}

// stripHashComments drops # comments outside of quoted strings
func stripHashComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if idx := strings.IndexByte(line, '#'); idx >= 0 && strings.Count(line[:idx], `"`)%2 == 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
