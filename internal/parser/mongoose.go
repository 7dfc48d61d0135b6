package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	mongooseSchemaRe = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*new\s+(?:mongoose\.)?Schema\s*\(`)
	mongooseModelRe  = regexp.MustCompile(`mongoose\.model\(\s*['"` + "`" + `](\w+)['"` + "`" + `]\s*,\s*(\w+)`)
	jsConstRe        = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*([\[{])`)
)

var mongooseKinds = map[string]string{
	"string":     schema.KindString,
	"number":     schema.KindNumber,
	"boolean":    schema.KindBoolean,
	"date":       schema.KindDate,
	"buffer":     schema.KindString,
	"objectid":   schema.KindString,
	"uuid":       schema.KindString,
	"decimal128": schema.KindFloat,
	"double":     schema.KindFloat,
	"int32":      schema.KindNumber,
	"bigint":     schema.KindNumber,
	"mixed":      schema.KindMixed,
	"map":        schema.KindMixed,
	"object":     schema.KindMixed,
}

func parseMongoose(text string) []schema.Model {
	// mongoose.model('User', userSchema) names the model behind a schema variable
	modelNames := make(map[string]string)
	for _, m := range mongooseModelRe.FindAllStringSubmatch(text, -1) {
		modelNames[m[2]] = m[1]
	}
	consts := jsConstants(text)

	type schemaDecl struct {
		variable string
		body     string
	}
	var decls []schemaDecl
	for _, loc := range mongooseSchemaRe.FindAllStringSubmatchIndex(text, -1) {
		args, ok := callArgs(text, loc[1]-1)
		if !ok {
			continue
		}
		parts := splitTopLevel(args, ',')
		if len(parts) == 0 {
			continue
		}
		body, ok := innerOf(parts[0], '{', '}')
		if !ok {
			continue
		}
		decls = append(decls, schemaDecl{variable: text[loc[2]:loc[3]], body: body})
	}

	// schema variable -> model name
	refs := make(map[string]string, len(decls))
	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		name := modelNames[d.variable]
		if name == "" {
			name = schema.Capitalize(strings.TrimSuffix(d.variable, "Schema"))
		}
		refs[d.variable] = name
		names[name] = true
	}

	p := mongooseParser{refs: refs, names: names, consts: consts}
	var models []schema.Model
	for _, d := range decls {
		model := schema.Model{Name: refs[d.variable]}
		for _, e := range objectEntries(d.body) {
			model.Fields = append(model.Fields, p.field(e.Key, e.Value))
		}
		models = append(models, model)
	}
	return orPlaceholder(models)
}

type mongooseParser struct {
	refs   map[string]string
	names  map[string]bool
	consts map[string]string
}

func (p mongooseParser) field(name, value string) schema.Field {
	field := schema.Field{Name: name}

	if inner, ok := innerOf(value, '[', ']'); ok {
		inner = strings.TrimSpace(inner)
		if inner == "" {
			field.Type = schema.KindMixed
		} else {
			field = p.field(name, inner)
		}
		field.IsArray = true
		return field
	}

	bag, ok := innerOf(value, '{', '}')
	if !ok {
		field.Type = p.kind(value)
		return field
	}

	opts := make(map[string]string)
	for _, e := range objectEntries(bag) {
		opts[e.Key] = e.Value
	}
	typ, hasType := opts["type"]
	if !hasType {
		// a nested path without a type key is a subdocument
		field.Type = schema.KindMixed
		return field
	}
	if inner, ok := innerOf(typ, '[', ']'); ok {
		field.IsArray = true
		typ = inner
		if bagInner, ok := innerOf(typ, '{', '}'); ok {
			for _, e := range objectEntries(bagInner) {
				if _, seen := opts[e.Key]; !seen {
					opts[e.Key] = e.Value
				}
			}
			typ = opts["type"]
			if inner, ok := innerOf(typ, '[', ']'); ok {
				typ = inner
			}
		}
	}
	field.Type = p.kind(typ)
	if ref, ok := opts["ref"]; ok {
		if target := unquote(ref); p.names[target] {
			field.Type = target
		}
	}

	if req, ok := opts["required"]; ok {
		field.Required = strings.HasPrefix(strings.TrimPrefix(req, "["), "true")
	}
	if uniq, ok := opts["unique"]; ok {
		field.Unique = uniq == "true"
	}
	if def, ok := opts["default"]; ok {
		field.DefaultValue = schema.StrPtr(unquote(def))
	}
	if enum, ok := opts["enum"]; ok {
		field.Enum = p.enumValues(enum)
		if len(field.Enum) > 0 {
			field.Type = schema.KindString
		}
	}
	if name == "_id" {
		field.IsID = true
	}
	return field
}

// kind resolves a shorthand type expression
func (p mongooseParser) kind(expr string) string {
	expr = strings.TrimSpace(expr)
	if target, ok := p.refs[expr]; ok {
		return target
	}
	if strings.HasSuffix(expr, "Schema") {
		if name := schema.Capitalize(strings.TrimSuffix(expr, "Schema")); p.names[name] {
			return name
		}
	}
	if idx := strings.LastIndexByte(expr, '.'); idx >= 0 {
		expr = expr[idx+1:]
	}
	return lookupKind(mongooseKinds, strings.ToLower(unquote(expr)))
}

// enumValues accepts ['a', 'b'], { values: [...] }, or a constant holding either
func (p mongooseParser) enumValues(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, ".values") {
		raw = strings.TrimSuffix(raw, ".values")
	}
	if val, ok := p.consts[raw]; ok {
		raw = val
	}
	if bag, ok := innerOf(raw, '{', '}'); ok {
		for _, e := range objectEntries(bag) {
			if e.Key == "values" {
				return p.enumValues(e.Value)
			}
		}
		return nil
	}
	if _, ok := innerOf(raw, '[', ']'); ok {
		return stringList(raw)
	}
	return nil
}

// jsConstants maps top-level const names to their array or object literal text
func jsConstants(text string) map[string]string {
	consts := make(map[string]string)
	for _, loc := range jsConstRe.FindAllStringSubmatchIndex(text, -1) {
		open := loc[4]
		end := matchClose(text, open)
		if end < 0 {
			continue
		}
		consts[text[loc[2]:loc[3]]] = text[open : end+1]
	}
	return consts
}
