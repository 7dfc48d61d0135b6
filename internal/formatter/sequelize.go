package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

var sequelizeTypes = map[string]string{
	schema.KindString:  "DataTypes.STRING",
	schema.KindNumber:  "DataTypes.INTEGER",
	schema.KindFloat:   "DataTypes.FLOAT",
	schema.KindBoolean: "DataTypes.BOOLEAN",
	schema.KindDate:    "DataTypes.DATE",
	schema.KindMixed:   "DataTypes.JSON",
}

// SequelizeFormatter renders models as sequelize.define calls
type SequelizeFormatter struct {
	writer io.Writer
	opts   Options
}

// NewSequelizeFormatter creates a new Sequelize formatter
func NewSequelizeFormatter(w io.Writer, opts Options) *SequelizeFormatter {
	return &SequelizeFormatter{writer: w, opts: opts}
}

// Format writes the model definitions followed by their associations
func (f *SequelizeFormatter) Format(models []schema.Model) error {
	writeHeader(f.writer, f.opts, "//", "Sequelize models generated by schemaconv")
	_, _ = fmt.Fprintln(f.writer, "const { Sequelize, DataTypes } = require('sequelize');")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "const sequelize = new Sequelize(process.env.DATABASE_URL);")

	set := f.opts.modelSet(models)
	names := []string{"sequelize"}
	var associations []string
	for _, m := range models {
		name := ident(m.Name)
		names = append(names, name)

		var attrs []string
		if !m.HasID() {
			attrs = append(attrs, "  id: {\n    type: DataTypes.INTEGER,\n    primaryKey: true,\n    autoIncrement: true\n  }")
		}
		pk := primaryKey(m)
		for _, field := range m.Fields {
			field.IsID = field.Name == pk
			if set.IsRelation(field) {
				call := "belongsTo"
				if field.IsArray {
					call = "hasMany"
				}
				associations = append(associations,
					fmt.Sprintf("%s.%s(%s, { as: '%s' });", name, call, ident(field.Type), ident(field.Name)))
				continue
			}
			attrs = append(attrs, formatSequelizeAttribute(field))
		}

		_, _ = fmt.Fprintf(f.writer, "\nconst %s = sequelize.define('%s', {\n", name, name)
		if len(attrs) > 0 {
			_, _ = fmt.Fprintln(f.writer, strings.Join(attrs, ",\n"))
		}
		_, _ = fmt.Fprintln(f.writer, "}, {")
		_, _ = fmt.Fprintf(f.writer, "  tableName: '%s',\n", TableName(m.Name))
		_, _ = fmt.Fprintln(f.writer, "  timestamps: true")
		_, _ = fmt.Fprintln(f.writer, "});")
	}

	if len(associations) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		for _, a := range associations {
			_, _ = fmt.Fprintln(f.writer, a)
		}
	}
	_, _ = fmt.Fprintf(f.writer, "\nmodule.exports = { %s };\n", strings.Join(names, ", "))
	return nil
}

func formatSequelizeAttribute(field schema.Field) string {
	typ, ok := sequelizeTypes[field.Type]
	if !ok {
		typ = "DataTypes.STRING"
	}
	if len(field.Enum) > 0 {
		typ = fmt.Sprintf("DataTypes.ENUM(%s)", quotedList(field.Enum, quoteSingle))
	}
	if field.IsArray {
		typ = fmt.Sprintf("DataTypes.ARRAY(%s)", typ)
	}

	opts := []string{"type: " + typ}
	if field.IsID {
		opts = append(opts, "primaryKey: true")
		if autoIncrement(field) {
			opts = append(opts, "autoIncrement: true")
		}
	} else if field.Required {
		opts = append(opts, "allowNull: false")
	}
	if field.Unique && !field.IsID {
		opts = append(opts, "unique: true")
	}
	if def := sequelizeDefault(field); def != "" {
		opts = append(opts, "defaultValue: "+def)
	}

	name := ident(field.Name)
	if len(opts) == 1 {
		return fmt.Sprintf("  %s: %s", name, typ)
	}
	return fmt.Sprintf("  %s: {\n    %s\n  }", name, strings.Join(opts, ",\n    "))
}

func sequelizeDefault(field schema.Field) string {
	if field.DefaultValue == nil {
		return ""
	}
	v := defaultText(field)
	switch {
	case strings.HasPrefix(v, "DataTypes."):
		return v
	case strings.HasSuffix(v, "()"):
		switch strings.ToLower(strings.TrimSuffix(v, "()")) {
		case "now":
			return "DataTypes.NOW"
		case "uuid":
			return "DataTypes.UUIDV4"
		}
		return ""
	case isLiteral(field.Type, v):
		return v
	}
	return quoteSingle(v)
}
