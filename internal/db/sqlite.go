package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// SQLiteExtractor reads table metadata through SQLite PRAGMA statements
type SQLiteExtractor struct {
	db *sql.DB
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{db: client.db}
}

// ExtractTables extracts the requested tables, or every user table when tables is empty
func (e *SQLiteExtractor) ExtractTables(ctx context.Context, tables []string) ([]Table, error) {
	names := tables
	if len(names) == 0 {
		var err error
		names, err = queryStrings(ctx, e.db, `
			SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name
		`)
		if err != nil {
			return nil, fmt.Errorf("failed to get table names: %w", err)
		}
	}

	out := make([]Table, 0, len(names))
	for _, name := range names {
		table, err := e.extractTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		out = append(out, table)
	}
	return out, nil
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, name string) (Table, error) {
	table := Table{Name: name}

	columns, pk, err := e.extractColumns(ctx, name)
	if err != nil {
		return table, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	unique, err := e.uniqueColumns(ctx, name)
	if err != nil {
		return table, fmt.Errorf("failed to extract indexes: %w", err)
	}
	for i := range table.Columns {
		if unique[table.Columns[i].Name] {
			table.Columns[i].Unique = true
		}
	}

	fks, err := e.extractForeignKeys(ctx, name)
	if err != nil {
		return table, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	return table, nil
}

// extractColumns reads PRAGMA table_info, which also carries the primary key position
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]Column, []string, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	type pkColumn struct {
		name string
		pos  int
	}
	var columns []Column
	var pkCols []pkColumn
	for rows.Next() {
		var cid, notNull, pkPos int
		var col Column
		var defaultVal sql.NullString
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &pkPos); err != nil {
			return nil, nil, err
		}
		col.Nullable = notNull == 0 && pkPos == 0
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		if pkPos > 0 {
			pkCols = append(pkCols, pkColumn{name: col.Name, pos: pkPos})
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].pos < pkCols[j].pos })
	pk := make([]string, len(pkCols))
	for i, c := range pkCols {
		pk[i] = c.name
	}
	return columns, pk, nil
}

// uniqueColumns returns the columns covered by a single-column unique index
func (e *SQLiteExtractor) uniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var indexes []string
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, err
		}
		// the primary key index is already reported by table_info
		if unique == 1 && origin != "pk" {
			indexes = append(indexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	result := make(map[string]bool)
	for _, index := range indexes {
		cols, err := e.indexColumns(ctx, index)
		if err != nil {
			return nil, err
		}
		if len(cols) == 1 {
			result[cols[0]] = true
		}
	}
	return result, nil
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		cols = append(cols, name.String)
	}
	return cols, rows.Err()
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	// composite keys share an id; only single-column references become relations
	counts := make(map[int]int)
	byID := make(map[int]ForeignKey)
	var order []int
	for rows.Next() {
		var id, seq int
		var fk ForeignKey
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &fk.TargetTable, &fk.Column, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk.TargetColumn = to.String
		if _, seen := byID[id]; !seen {
			order = append(order, id)
			byID[id] = fk
		}
		counts[id]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []ForeignKey
	for _, id := range order {
		if counts[id] == 1 {
			fks = append(fks, byID[id])
		}
	}
	return fks, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
