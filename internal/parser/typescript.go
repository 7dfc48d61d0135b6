package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	tsInterfaceRe = regexp.MustCompile(`\binterface\s+(\w+)(?:\s+extends\s+[\w\s,<>]+?)?\s*\{`)
	tsTypeAliasRe = regexp.MustCompile(`\btype\s+(\w+)\s*=\s*\{`)
	tsFieldRe     = regexp.MustCompile(`^(?:readonly\s+)?['"]?(\w+)['"]?(\?)?\s*:\s*(.+)$`)
	tsArrayRe     = regexp.MustCompile(`^(?:Array<(.+)>|(.+)\[\])$`)
)

var typeScriptKinds = map[string]string{
	"string":  schema.KindString,
	"number":  schema.KindNumber,
	"bigint":  schema.KindNumber,
	"boolean": schema.KindBoolean,
	"Date":    schema.KindDate,
	"any":     schema.KindMixed,
	"unknown": schema.KindMixed,
	"object":  schema.KindMixed,
}

func parseTypeScript(text string) []schema.Model {
	blocks := append(findBlocks(text, tsInterfaceRe), findBlocks(text, tsTypeAliasRe)...)
	names := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		names[b.Name] = true
	}

	var models []schema.Model
	for _, b := range blocks {
		model := schema.Model{Name: b.Name}
		for _, member := range tsMembers(b.Body) {
			m := tsFieldRe.FindStringSubmatch(member)
			if m == nil {
				continue
			}
			field := schema.Field{Name: m[1], Required: m[2] == ""}
			typ := strings.TrimSpace(m[3])

			// T | null and T | undefined mark the member optional
			var parts []string
			for _, p := range splitTopLevel(typ, '|') {
				if p == "null" || p == "undefined" {
					field.Required = false
					continue
				}
				parts = append(parts, p)
			}
			if len(parts) > 1 && allQuoted(parts) {
				field.Type = schema.KindString
				field.Enum = stringList(strings.Join(parts, ","))
				model.Fields = append(model.Fields, field)
				continue
			}
			if len(parts) == 0 {
				parts = []string{"any"}
			}
			typ = parts[0]

			if am := tsArrayRe.FindStringSubmatch(typ); am != nil {
				field.IsArray = true
				typ = am[1] + am[2]
			}
			typ = strings.Trim(typ, "() ")
			if names[typ] {
				field.Type = typ
			} else {
				field.Type = lookupKind(typeScriptKinds, typ)
			}
			if strings.HasPrefix(typ, "Record<") || strings.HasPrefix(typ, "{") {
				field.Type = schema.KindMixed
			}
			model.Fields = append(model.Fields, field)
		}
		models = append(models, model)
	}
	return orPlaceholder(models)
}

// tsMembers splits an interface body on semicolons and newlines at the top level
func tsMembers(body string) []string {
	var members []string
	for _, line := range splitTopLevel(stripLineComments(body), '\n') {
		for _, m := range splitTopLevel(line, ';') {
			m = strings.TrimSuffix(strings.TrimSpace(m), ",")
			if m != "" && !strings.HasPrefix(m, "/*") && !strings.HasPrefix(m, "*") {
				members = append(members, m)
			}
		}
	}
	return members
}

func allQuoted(parts []string) bool {
	for _, p := range parts {
		if unquote(p) == p {
			return false
		}
	}
	return true
}
