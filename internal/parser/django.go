package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	djangoClassRe = regexp.MustCompile(`(?m)^([ \t]*)class\s+(\w+)\s*\(([^)]*)\)\s*:`)
	djangoFieldRe = regexp.MustCompile(`(?m)^[ \t]+(\w+)\s*=\s*(?:models\.)?(\w+Field|ForeignKey|OneToOneField)\s*\(`)
	djangoKwargRe = regexp.MustCompile(`^(\w+)\s*=\s*(.+)$`)
)

var djangoKinds = map[string]string{
	"CharField":             schema.KindString,
	"TextField":             schema.KindString,
	"EmailField":            schema.KindString,
	"URLField":              schema.KindString,
	"SlugField":             schema.KindString,
	"UUIDField":             schema.KindString,
	"GenericIPAddressField": schema.KindString,
	"FileField":             schema.KindString,
	"ImageField":            schema.KindString,
	"IntegerField":          schema.KindNumber,
	"BigIntegerField":       schema.KindNumber,
	"SmallIntegerField":     schema.KindNumber,
	"PositiveIntegerField":  schema.KindNumber,
	"AutoField":             schema.KindNumber,
	"BigAutoField":          schema.KindNumber,
	"FloatField":            schema.KindFloat,
	"DecimalField":          schema.KindFloat,
	"BooleanField":          schema.KindBoolean,
	"DateField":             schema.KindDate,
	"DateTimeField":         schema.KindDate,
	"TimeField":             schema.KindDate,
	"JSONField":             schema.KindMixed,
}

var djangoRelations = map[string]bool{
	"ForeignKey":      false,
	"OneToOneField":   false,
	"ManyToManyField": true,
}

type djangoClass struct {
	name string
	body string
}

func parseDjango(text string) []schema.Model {
	classes := djangoClasses(text)
	names := make(map[string]bool, len(classes))
	for _, c := range classes {
		names[c.name] = true
	}

	var models []schema.Model
	for _, c := range classes {
		model := schema.Model{Name: c.name}
		for _, loc := range djangoFieldRe.FindAllStringSubmatchIndex(c.body, -1) {
			args, ok := callArgs(c.body, loc[1]-1)
			if !ok {
				continue
			}
			name := c.body[loc[2]:loc[3]]
			ctor := c.body[loc[4]:loc[5]]
			model.Fields = append(model.Fields, djangoField(c.name, name, ctor, args, names))
		}
		models = append(models, model)
	}
	return orPlaceholder(models)
}

func djangoField(owner, name, ctor, args string, names map[string]bool) schema.Field {
	field := schema.Field{Name: name, Required: true}

	var positional []string
	kwargs := make(map[string]string)
	for _, arg := range splitTopLevel(stripHashComments(args), ',') {
		if m := djangoKwargRe.FindStringSubmatch(arg); m != nil {
			kwargs[m[1]] = strings.TrimSpace(m[2])
		} else {
			positional = append(positional, arg)
		}
	}

	if many, isRelation := djangoRelations[ctor]; isRelation {
		target := kwargs["to"]
		if target == "" && len(positional) > 0 {
			target = positional[0]
		}
		target = unquote(target)
		if idx := strings.LastIndexByte(target, '.'); idx >= 0 {
			target = target[idx+1:]
		}
		if target == "self" {
			target = owner
		}
		if names[target] {
			field.Type = target
		} else {
			field.Type = schema.KindString
		}
		field.IsArray = many
		field.Required = !many
		field.Unique = ctor == "OneToOneField"
	} else {
		field.Type = lookupKind(djangoKinds, ctor)
		if ctor == "AutoField" || ctor == "BigAutoField" {
			field.IsID = true
		}
	}

	if kwargs["null"] == "True" || kwargs["blank"] == "True" {
		field.Required = false
	}
	if kwargs["unique"] == "True" {
		field.Unique = true
	}
	if kwargs["primary_key"] == "True" {
		field.IsID = true
		field.Unique = true
	}
	if def, ok := kwargs["default"]; ok {
		field.DefaultValue = schema.StrPtr(unquote(def))
	}
	if choices, ok := kwargs["choices"]; ok {
		field.Enum = djangoChoices(choices)
		if len(field.Enum) > 0 {
			field.Type = schema.KindString
		}
	}
	return field
}

// djangoChoices extracts stored values from an inline choices list of pairs
func djangoChoices(raw string) []string {
	inner, ok := innerOf(raw, '[', ']')
	if !ok {
		if inner, ok = innerOf(raw, '(', ')'); !ok {
			return nil
		}
	}
	var values []string
	for _, pair := range splitTopLevel(inner, ',') {
		tuple, ok := innerOf(pair, '(', ')')
		if !ok {
			tuple, ok = innerOf(pair, '[', ']')
		}
		if !ok {
			continue
		}
		if parts := splitTopLevel(tuple, ','); len(parts) > 0 {
			values = append(values, unquote(parts[0]))
		}
	}
	return values
}

// djangoClasses finds model classes and their indented bodies
func djangoClasses(text string) []djangoClass {
	matches := djangoClassRe.FindAllStringSubmatchIndex(text, -1)
	var classes []djangoClass
	for _, loc := range matches {
		bases := text[loc[6]:loc[7]]
		if !strings.Contains(bases, "Model") {
			continue
		}
		indent := len(text[loc[2]:loc[3]])
		body := indentedBody(text[loc[1]:], indent)
		classes = append(classes, djangoClass{name: text[loc[4]:loc[5]], body: body})
	}
	return classes
}

// indentedBody returns the lines following a class header that are indented deeper than indent
func indentedBody(rest string, indent int) string {
	lines := strings.Split(rest, "\n")
	var body []string
	for i, line := range lines {
		if i == 0 {
			// remainder of the header line
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			body = append(body, line)
			continue
		}
		if len(line)-len(strings.TrimLeft(line, " \t")) <= indent {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}
