package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	prismaModelRe = regexp.MustCompile(`(?m)^\s*model\s+(\w+)\s*\{`)
	prismaEnumRe  = regexp.MustCompile(`(?m)^\s*enum\s+(\w+)\s*\{`)
	prismaFieldRe = regexp.MustCompile(`^(\w+)\s+(\w+)(\[\])?(\?)?\s*(@.*)?$`)
	prismaAttrRe  = regexp.MustCompile(`@(\w+)`)
)

var prismaKinds = map[string]string{
	"String":   schema.KindString,
	"Int":      schema.KindNumber,
	"BigInt":   schema.KindNumber,
	"Float":    schema.KindFloat,
	"Decimal":  schema.KindFloat,
	"Boolean":  schema.KindBoolean,
	"DateTime": schema.KindDate,
	"Json":     schema.KindMixed,
	"Bytes":    schema.KindString,
}

func parsePrisma(text string) []schema.Model {
	enums := make(map[string][]string)
	for _, b := range findBlocks(text, prismaEnumRe) {
		var values []string
		for _, line := range bodyLines(b.Body) {
			if strings.HasPrefix(line, "@@") {
				continue
			}
			for _, tok := range strings.Fields(line) {
				if strings.HasPrefix(tok, "@") {
					break
				}
				if tok = strings.Trim(tok, ","); tok != "" {
					values = append(values, tok)
				}
			}
		}
		enums[b.Name] = values
	}

	blocks := findBlocks(text, prismaModelRe)
	names := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		names[b.Name] = true
	}

	var models []schema.Model
	for _, b := range blocks {
		model := schema.Model{Name: b.Name}
		for _, line := range bodyLines(b.Body) {
			if strings.HasPrefix(line, "@@") {
				continue
			}
			m := prismaFieldRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			attrs := m[5]
			field := schema.Field{
				Name:     m[1],
				IsArray:  m[3] != "",
				Required: m[4] == "",
			}
			for _, a := range prismaAttrRe.FindAllStringSubmatch(attrs, -1) {
				switch a[1] {
				case "id":
					field.IsID = true
				case "unique":
					field.Unique = true
				}
			}
			if def, ok := prismaAttrArgs(attrs, "@default"); ok {
				field.DefaultValue = schema.StrPtr(unquote(def))
			}

			switch typ := m[2]; {
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
				field.Type = lookupKind(prismaKinds, typ)
			}
			model.Fields = append(model.Fields, field)
		}
		models = append(models, model)
	}
	return orPlaceholder(models)
}

// prismaAttrArgs returns the balanced argument text of attribute name in attrs
func prismaAttrArgs(attrs, name string) (string, bool) {
	idx := strings.Index(attrs, name+"(")
	if idx < 0 {
		return "", false
	}
	return callArgs(attrs, idx)
}
