package parser

import (
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/tordrt/schemaconv/internal/schema"
)

var (
	sqlCreateRe  = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:TEMPORARY\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w."` + "`" + `\[\]]+)\s*\(`)
	sqlColumnRe  = regexp.MustCompile(`(?s)^([\w"` + "`" + `\[\]]+)\s+([A-Za-z][\w ]*?)(\([^)]*\))?(\[\])?(?:\s+(.*))?$`)
	sqlDefaultRe = regexp.MustCompile(`(?i)\bDEFAULT\s+('(?:[^']|'')*'|\([^)]*\)|[\w.:+-]+(?:\(\))?)`)
	sqlRefRe     = regexp.MustCompile(`(?i)\bREFERENCES\s+([\w."` + "`" + `]+)`)
	sqlFKRe      = regexp.MustCompile(`(?i)FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+([\w."` + "`" + `]+)`)
	sqlKeyListRe = regexp.MustCompile(`(?i)^(?:CONSTRAINT\s+\S+\s+)?(PRIMARY\s+KEY|UNIQUE(?:\s+(?:KEY|INDEX))?)\s*(?:\w+\s*)?\(([^)]*)\)`)
)

// multi-word spellings reported by information_schema are matched before the first word
var sqlKinds = map[string]string{
	"varchar":                     schema.KindString,
	"char":                        schema.KindString,
	"character":                   schema.KindString,
	"character varying":           schema.KindString,
	"nvarchar":                    schema.KindString,
	"nchar":                       schema.KindString,
	"text":                        schema.KindString,
	"tinytext":                    schema.KindString,
	"mediumtext":                  schema.KindString,
	"longtext":                    schema.KindString,
	"citext":                      schema.KindString,
	"uuid":                        schema.KindString,
	"binary":                      schema.KindString,
	"varbinary":                   schema.KindString,
	"int":                         schema.KindNumber,
	"integer":                     schema.KindNumber,
	"bigint":                      schema.KindNumber,
	"smallint":                    schema.KindNumber,
	"tinyint":                     schema.KindNumber,
	"mediumint":                   schema.KindNumber,
	"serial":                      schema.KindNumber,
	"bigserial":                   schema.KindNumber,
	"smallserial":                 schema.KindNumber,
	"decimal":                     schema.KindFloat,
	"numeric":                     schema.KindFloat,
	"float":                       schema.KindFloat,
	"double":                      schema.KindFloat,
	"double precision":            schema.KindFloat,
	"real":                        schema.KindFloat,
	"money":                       schema.KindFloat,
	"boolean":                     schema.KindBoolean,
	"bool":                        schema.KindBoolean,
	"bit":                         schema.KindBoolean,
	"date":                        schema.KindDate,
	"datetime":                    schema.KindDate,
	"timestamp":                   schema.KindDate,
	"timestamptz":                 schema.KindDate,
	"timestamp with time zone":    schema.KindDate,
	"timestamp without time zone": schema.KindDate,
	"time":                        schema.KindDate,
	"year":                        schema.KindDate,
	"json":                        schema.KindMixed,
	"jsonb":                       schema.KindMixed,
	"blob":                        schema.KindMixed,
	"tinyblob":                    schema.KindMixed,
	"mediumblob":                  schema.KindMixed,
	"longblob":                    schema.KindMixed,
	"bytea":                       schema.KindMixed,
}

// SQLKind maps a SQL column type spelling to a canonical kind
func SQLKind(typ string) string {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if idx := strings.IndexByte(typ, '('); idx >= 0 {
		typ = strings.TrimSpace(typ[:idx])
	}
	typ = strings.TrimSuffix(typ, " unsigned")
	if kind, ok := sqlKinds[typ]; ok {
		return kind
	}
	if fields := strings.Fields(typ); len(fields) > 0 {
		return lookupKind(sqlKinds, fields[0])
	}
	return schema.KindString
}

// sqlForeignKey records a FOREIGN KEY or REFERENCES clause for relation synthesis
type sqlForeignKey struct {
	table  string
	column string
	target string
}

func parseSQL(text string) []schema.Model {
	var models []schema.Model
	var fks []sqlForeignKey
	for _, stmt := range splitTopLevel(stripSQLComments(text), ';') {
		if !sqlCreateRe.MatchString(stmt) {
			continue
		}
		model, keys, ok := parseCreateTable(stmt)
		if !ok {
			model, keys, ok = scanCreateTable(stmt)
		}
		if ok {
			models = append(models, model)
			fks = append(fks, keys...)
		}
	}
	return orPlaceholder(addForeignKeyRelations(models, fks))
}

// parseCreateTable runs a statement through the MySQL grammar
func parseCreateTable(stmt string) (schema.Model, []sqlForeignKey, bool) {
	stmts, _, err := parser.New().Parse(stmt, "", "")
	if err != nil || len(stmts) != 1 {
		return schema.Model{}, nil, false
	}
	create, ok := stmts[0].(*ast.CreateTableStmt)
	if !ok {
		return schema.Model{}, nil, false
	}

	model := schema.Model{Name: create.Table.Name.String()}
	var fks []sqlForeignKey
	for _, col := range create.Cols {
		field := schema.Field{Name: col.Name.Name.String()}
		field.Type = SQLKind(col.Tp.CompactStr())
		switch col.Tp.GetType() {
		case mysql.TypeTiny:
			// BOOLEAN is stored as TINYINT(1)
			if col.Tp.GetFlen() == 1 {
				field.Type = schema.KindBoolean
			}
		case mysql.TypeEnum:
			field.Type = schema.KindString
			field.Enum = col.Tp.GetElems()
		}

		for _, opt := range col.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				field.Required = true
			case ast.ColumnOptionPrimaryKey:
				field.IsID = true
				field.Unique = true
				field.Required = true
			case ast.ColumnOptionUniqKey:
				field.Unique = true
			case ast.ColumnOptionDefaultValue:
				if opt.Expr != nil {
					field.DefaultValue = schema.StrPtr(restoreExpr(opt.Expr))
				}
			case ast.ColumnOptionReference:
				if opt.Refer != nil {
					fks = append(fks, sqlForeignKey{
						table:  model.Name,
						column: field.Name,
						target: opt.Refer.Table.Name.String(),
					})
				}
			}
		}
		model.Fields = append(model.Fields, field)
	}

	for _, c := range create.Constraints {
		columns := indexColumns(c.Keys)
		switch c.Tp {
		case ast.ConstraintPrimaryKey:
			markColumns(&model, columns, func(f *schema.Field) {
				f.IsID = len(columns) == 1
				f.Unique = len(columns) == 1
				f.Required = true
			})
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			if len(columns) == 1 {
				markColumns(&model, columns, func(f *schema.Field) { f.Unique = true })
			}
		case ast.ConstraintForeignKey:
			if c.Refer != nil && len(columns) == 1 {
				fks = append(fks, sqlForeignKey{
					table:  model.Name,
					column: columns[0],
					target: c.Refer.Table.Name.String(),
				})
			}
		}
	}
	return model, fks, true
}

func indexColumns(keys []*ast.IndexPartSpecification) []string {
	columns := make([]string, 0, len(keys))
	for _, key := range keys {
		if key.Column != nil {
			columns = append(columns, key.Column.Name.String())
		}
	}
	return columns
}

// restoreExpr prints a default expression back to SQL, without string quotes
func restoreExpr(expr ast.ExprNode) string {
	if fn, ok := expr.(*ast.FuncCallExpr); ok {
		return fn.FnName.O + "()"
	}
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags|format.RestoreStringWithoutCharset, &sb)
	if err := expr.Restore(ctx); err != nil {
		return ""
	}
	return unquote(sb.String())
}

// scanCreateTable extracts columns from a statement the MySQL grammar rejects
// (PostgreSQL or SQLite dialects)
func scanCreateTable(stmt string) (schema.Model, []sqlForeignKey, bool) {
	loc := sqlCreateRe.FindStringSubmatchIndex(stmt)
	if loc == nil {
		return schema.Model{}, nil, false
	}
	body, ok := callArgs(stmt, loc[1]-1)
	if !ok {
		return schema.Model{}, nil, false
	}
	model := schema.Model{Name: sqlIdent(stmt[loc[2]:loc[3]])}

	var fks []sqlForeignKey
	var tableKeys []string
	for _, def := range splitTopLevel(body, ',') {
		upper := strings.ToUpper(def)
		switch {
		case strings.HasPrefix(upper, "PRIMARY KEY"), strings.HasPrefix(upper, "UNIQUE"),
			strings.HasPrefix(upper, "CONSTRAINT"), strings.HasPrefix(upper, "FOREIGN KEY"),
			strings.HasPrefix(upper, "KEY "), strings.HasPrefix(upper, "INDEX "),
			strings.HasPrefix(upper, "CHECK"):
			tableKeys = append(tableKeys, def)
			continue
		}

		m := sqlColumnRe.FindStringSubmatch(def)
		if m == nil {
			continue
		}
		typ := strings.TrimSpace(m[2])
		rest := m[5]
		restUpper := strings.ToUpper(rest)
		field := schema.Field{
			Name:    sqlIdent(m[1]),
			Type:    SQLKind(typ),
			IsArray: m[4] != "",
		}
		if strings.EqualFold(typ, "enum") && m[3] != "" {
			field.Enum = stringList(strings.Trim(m[3], "()"))
		}
		if strings.Contains(restUpper, "NOT NULL") {
			field.Required = true
		}
		if strings.Contains(restUpper, "PRIMARY KEY") {
			field.IsID = true
			field.Unique = true
			field.Required = true
		}
		if strings.Contains(restUpper, "UNIQUE") {
			field.Unique = true
		}
		if dm := sqlDefaultRe.FindStringSubmatch(rest); dm != nil {
			field.DefaultValue = schema.StrPtr(unquote(dm[1]))
		}
		if rm := sqlRefRe.FindStringSubmatch(rest); rm != nil {
			fks = append(fks, sqlForeignKey{table: model.Name, column: field.Name, target: sqlIdent(rm[1])})
		}
		model.Fields = append(model.Fields, field)
	}

	for _, def := range tableKeys {
		if m := sqlKeyListRe.FindStringSubmatch(def); m != nil {
			columns := sqlIdentList(m[2])
			primary := strings.HasPrefix(strings.ToUpper(m[1]), "PRIMARY")
			markColumns(&model, columns, func(f *schema.Field) {
				if primary {
					f.Required = true
					f.IsID = len(columns) == 1
				}
				f.Unique = f.Unique || len(columns) == 1
			})
		}
		if m := sqlFKRe.FindStringSubmatch(def); m != nil {
			if columns := sqlIdentList(m[1]); len(columns) == 1 {
				fks = append(fks, sqlForeignKey{table: model.Name, column: columns[0], target: sqlIdent(m[2])})
			}
		}
	}
	return model, fks, true
}

func markColumns(model *schema.Model, columns []string, mark func(*schema.Field)) {
	for _, col := range columns {
		for i := range model.Fields {
			if strings.EqualFold(model.Fields[i].Name, col) {
				mark(&model.Fields[i])
			}
		}
	}
}

// addForeignKeyRelations adds a to-one relation field for each single-column
// foreign key whose target table was parsed
func addForeignKeyRelations(models []schema.Model, fks []sqlForeignKey) []schema.Model {
	names := schema.NewModelSet(models)
	for _, fk := range fks {
		if !names[fk.target] {
			continue
		}
		name := RelationName(fk.column, fk.target)
		for i := range models {
			if models[i].Name != fk.table || hasField(models[i], name) {
				continue
			}
			models[i].Fields = append(models[i].Fields, schema.Field{Name: name, Type: fk.target})
		}
	}
	return models
}

// RelationName names the to-one relation field derived from a foreign key
// column: the column minus its _id or Id suffix, else the lower-cased target
func RelationName(column, target string) string {
	name := strings.TrimSuffix(strings.TrimSuffix(column, "_id"), "Id")
	if name == column || name == "" {
		name = schema.Lower(target)
	}
	return name
}

func hasField(model schema.Model, name string) bool {
	for _, f := range model.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// sqlIdent strips identifier quoting and any schema qualifier
func sqlIdent(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "`\"[]")
	if idx := strings.LastIndexByte(s, '.'); idx >= 0 {
		s = strings.Trim(s[idx+1:], "`\"[]")
	}
	return s
}

func sqlIdentList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := sqlIdent(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// stripSQLComments removes -- line comments outside of quoted strings
func stripSQLComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		var quote byte
		for j := 0; j < len(line); j++ {
			c := line[j]
			if quote != 0 {
				if c == quote {
					quote = 0
				}
				continue
			}
			if c == '\'' || c == '"' || c == '`' {
				quote = c
			} else if c == '-' && j+1 < len(line) && line[j+1] == '-' {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
