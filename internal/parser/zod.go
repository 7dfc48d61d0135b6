package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	zodObjectRe = regexp.MustCompile(`(?:export\s+)?(?:const|let|var)\s+(\w+)\s*(?::\s*[\w.<>]+\s*)?=\s*z\s*\.\s*object\s*\(`)
	zodCallRe   = regexp.MustCompile(`^\.?\s*(\w+)\s*`)
	zodLazyRe   = regexp.MustCompile(`^\(\s*\)\s*=>`)
)

var zodKinds = map[string]string{
	"string":     schema.KindString,
	"number":     schema.KindNumber,
	"bigint":     schema.KindNumber,
	"boolean":    schema.KindBoolean,
	"date":       schema.KindDate,
	"any":        schema.KindMixed,
	"unknown":    schema.KindMixed,
	"object":     schema.KindMixed,
	"record":     schema.KindMixed,
	"map":        schema.KindMixed,
	"literal":    schema.KindString,
	"nativeEnum": schema.KindString,
}

type zodDecl struct {
	variable string
	name     string
	body     string
}

func parseZod(text string) []schema.Model {
	var decls []zodDecl
	for _, loc := range zodObjectRe.FindAllStringSubmatchIndex(text, -1) {
		args, ok := callArgs(text, loc[1]-1)
		if !ok {
			continue
		}
		body, ok := innerOf(args, '{', '}')
		if !ok {
			continue
		}
		variable := text[loc[2]:loc[3]]
		decls = append(decls, zodDecl{
			variable: variable,
			name:     schema.Capitalize(strings.TrimSuffix(variable, "Schema")),
			body:     body,
		})
	}

	refs := make(map[string]string, len(decls))
	for _, d := range decls {
		refs[d.variable] = d.name
	}

	var models []schema.Model
	for _, d := range decls {
		model := schema.Model{Name: d.name}
		for _, e := range objectEntries(d.body) {
			field := schema.Field{Name: e.Key, Required: true}
			zodChain(&field, e.Value, refs)
			model.Fields = append(model.Fields, field)
		}
		models = append(models, model)
	}
	return orPlaceholder(models)
}

// zodChain applies a validator chain such as z.string().email().optional() to field
func zodChain(field *schema.Field, expr string, refs map[string]string) {
	expr = strings.TrimSpace(expr)
	if target, ok := refs[expr]; ok {
		field.Type = target
		return
	}
	if strings.HasPrefix(expr, "z.") {
		expr = expr[2:]
	} else if idx := strings.IndexByte(expr, '.'); idx > 0 {
		// SomeSchema.optional()
		if target, ok := refs[expr[:idx]]; ok {
			field.Type = target
			expr = expr[idx:]
		}
	}
	first := field.Type == ""
	if first {
		field.Type = schema.KindString
	}

	for expr != "" {
		m := zodCallRe.FindStringSubmatch(expr)
		if m == nil {
			return
		}
		name := m[1]
		rest := expr[len(m[0]):]
		args := ""
		if strings.HasPrefix(rest, "(") {
			end := matchClose(rest, 0)
			if end < 0 {
				return
			}
			args = rest[1:end]
			rest = rest[end+1:]
		}
		expr = strings.TrimSpace(rest)

		if first {
			// z.coerce.date(): the next call carries the kind
			first = name == "coerce"
			zodBase(field, name, args, refs)
			continue
		}
		switch name {
		case "optional", "nullable", "nullish":
			field.Required = false
		case "default":
			field.DefaultValue = schema.StrPtr(unquote(args))
			field.Required = false
		case "array":
			field.IsArray = true
		}
	}
}

// zodBase handles the leading z.<kind>(...) call
func zodBase(field *schema.Field, name, args string, refs map[string]string) {
	switch name {
	case "coerce":
		return
	case "enum":
		field.Type = schema.KindString
		field.Enum = stringList(args)
	case "array":
		inner := schema.Field{Required: true}
		zodChain(&inner, args, refs)
		field.Type = inner.Type
		field.Enum = inner.Enum
		field.IsArray = true
	case "lazy":
		if loc := zodLazyRe.FindStringIndex(strings.TrimSpace(args)); loc != nil {
			inner := schema.Field{Required: true}
			zodChain(&inner, args[strings.Index(args, "=>")+2:], refs)
			field.Type = inner.Type
			field.IsArray = inner.IsArray
		}
	case "optional", "nullable":
		inner := schema.Field{Required: true}
		zodChain(&inner, args, refs)
		field.Type = inner.Type
		field.IsArray = inner.IsArray
		field.Required = false
	default:
		field.Type = lookupKind(zodKinds, name)
	}
}
