package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	sequelizeDefineRe = regexp.MustCompile(`\.define\s*\(`)
	sequelizeInitRe   = regexp.MustCompile(`\b(\w+)\.init\s*\(`)
	sequelizeAssocRe  = regexp.MustCompile(`\b(\w+)\.(hasMany|belongsToMany|belongsTo|hasOne)\s*\(\s*(\w+)`)
	sequelizeTypeRe   = regexp.MustCompile(`^(?:DataTypes|Sequelize|Sequelize\.DataTypes)\.(\w+)`)
)

var sequelizeKinds = map[string]string{
	"STRING":    schema.KindString,
	"TEXT":      schema.KindString,
	"CHAR":      schema.KindString,
	"UUID":      schema.KindString,
	"UUIDV1":    schema.KindString,
	"UUIDV4":    schema.KindString,
	"CITEXT":    schema.KindString,
	"INTEGER":   schema.KindNumber,
	"BIGINT":    schema.KindNumber,
	"SMALLINT":  schema.KindNumber,
	"TINYINT":   schema.KindNumber,
	"MEDIUMINT": schema.KindNumber,
	"FLOAT":     schema.KindFloat,
	"DOUBLE":    schema.KindFloat,
	"DECIMAL":   schema.KindFloat,
	"REAL":      schema.KindFloat,
	"BOOLEAN":   schema.KindBoolean,
	"DATE":      schema.KindDate,
	"DATEONLY":  schema.KindDate,
	"TIME":      schema.KindDate,
	"NOW":       schema.KindDate,
	"JSON":      schema.KindMixed,
	"JSONB":     schema.KindMixed,
	"BLOB":      schema.KindMixed,
}

func parseSequelize(text string) []schema.Model {
	var models []schema.Model

	// sequelize.define('User', { ... })
	for _, loc := range sequelizeDefineRe.FindAllStringIndex(text, -1) {
		args, ok := callArgs(text, loc[1]-1)
		if !ok {
			continue
		}
		parts := splitTopLevel(args, ',')
		if len(parts) < 2 {
			continue
		}
		body, ok := innerOf(parts[1], '{', '}')
		if !ok {
			continue
		}
		models = append(models, sequelizeModel(unquote(parts[0]), body))
	}

	// class User extends Model {}; User.init({ ... }, { sequelize })
	for _, loc := range sequelizeInitRe.FindAllStringSubmatchIndex(text, -1) {
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
		models = append(models, sequelizeModel(text[loc[2]:loc[3]], body))
	}

	index := make(map[string]int, len(models))
	for i, m := range models {
		index[m.Name] = i
	}
	for _, m := range sequelizeAssocRe.FindAllStringSubmatch(text, -1) {
		owner, assoc, target := m[1], m[2], m[3]
		i, ok := index[owner]
		if !ok {
			continue
		}
		if _, ok := index[target]; !ok {
			continue
		}
		field := schema.Field{Name: schema.Lower(target), Type: target}
		if assoc == "hasMany" || assoc == "belongsToMany" {
			field.Name += "s"
			field.IsArray = true
		}
		models[i].Fields = append(models[i].Fields, field)
	}
	return orPlaceholder(models)
}

func sequelizeModel(name, body string) schema.Model {
	model := schema.Model{Name: name}
	for _, e := range objectEntries(body) {
		model.Fields = append(model.Fields, sequelizeField(e.Key, e.Value))
	}
	return model
}

func sequelizeField(name, value string) schema.Field {
	field := schema.Field{Name: name}

	bag, ok := innerOf(value, '{', '}')
	if !ok {
		sequelizeType(&field, value)
		return field
	}
	opts := make(map[string]string)
	for _, e := range objectEntries(bag) {
		opts[e.Key] = e.Value
	}
	sequelizeType(&field, opts["type"])
	if opts["allowNull"] == "false" {
		field.Required = true
	}
	if opts["primaryKey"] == "true" {
		field.IsID = true
		field.Unique = true
		field.Required = true
	}
	// unique may also carry a composite index name
	if uniq, ok := opts["unique"]; ok && uniq != "false" {
		field.Unique = true
	}
	if def, ok := opts["defaultValue"]; ok {
		field.DefaultValue = schema.StrPtr(unquote(def))
	}
	if values, ok := opts["values"]; ok && len(field.Enum) == 0 {
		field.Enum = stringList(values)
		field.Type = schema.KindString
	}
	return field
}

// sequelizeType fills the type, array and enum attributes from a DataTypes expression
func sequelizeType(field *schema.Field, expr string) {
	expr = strings.TrimSpace(expr)
	m := sequelizeTypeRe.FindStringSubmatch(expr)
	if m == nil {
		field.Type = schema.KindString
		return
	}
	name := m[1]
	args, hasArgs := "", false
	if rest := expr[len(m[0]):]; strings.HasPrefix(strings.TrimSpace(rest), "(") {
		args, hasArgs = callArgs(rest, 0)
	}
	switch name {
	case "ENUM":
		field.Type = schema.KindString
		if hasArgs {
			field.Enum = stringList(args)
		}
	case "ARRAY":
		field.IsArray = true
		if hasArgs {
			sequelizeType(field, args)
			field.IsArray = true
		} else {
			field.Type = schema.KindString
		}
	default:
		field.Type = lookupKind(sequelizeKinds, name)
	}
}
