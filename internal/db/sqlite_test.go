package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemaconv/internal/schema"
)

const sqliteFixture = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	active BOOLEAN DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX idx_users_email ON users(email);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	total DECIMAL(10,2),
	status TEXT DEFAULT 'pending'
);
CREATE TABLE order_items (
	order_id INTEGER NOT NULL,
	line INTEGER NOT NULL,
	quantity INTEGER NOT NULL,
	PRIMARY KEY (order_id, line),
	FOREIGN KEY (order_id) REFERENCES orders(id)
);
`

func newSQLiteFixture(t *testing.T) *SQLiteClient {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fixture.db")
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.ExecContext(ctx, sqliteFixture)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	client, err := NewSQLiteClient(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func findTable(t *testing.T, tables []Table, name string) Table {
	t.Helper()
	for _, table := range tables {
		if table.Name == name {
			return table
		}
	}
	t.Fatalf("table %s not found", name)
	return Table{}
}

func findColumn(t *testing.T, table Table, name string) Column {
	t.Helper()
	for _, col := range table.Columns {
		if col.Name == name {
			return col
		}
	}
	t.Fatalf("column %s not found in %s", name, table.Name)
	return Column{}
}

func TestSQLiteExtractTables(t *testing.T) {
	extractor := NewSQLiteExtractor(newSQLiteFixture(t))

	tables, err := extractor.ExtractTables(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, table := range tables {
		names = append(names, table.Name)
	}
	assert.Equal(t, []string{"order_items", "orders", "users"}, names)

	users := findTable(t, tables, "users")
	assert.Equal(t, []string{"id"}, users.PrimaryKey)
	assert.True(t, findColumn(t, users, "username").Unique)
	assert.True(t, findColumn(t, users, "email").Unique)
	assert.False(t, findColumn(t, users, "email").Nullable)
	assert.True(t, findColumn(t, users, "active").Nullable)
	require.NotNil(t, findColumn(t, users, "created_at").Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", *findColumn(t, users, "created_at").Default)

	orders := findTable(t, tables, "orders")
	assert.Equal(t, []ForeignKey{{Column: "user_id", TargetTable: "users", TargetColumn: "id"}}, orders.ForeignKeys)

	items := findTable(t, tables, "order_items")
	assert.Equal(t, []string{"order_id", "line"}, items.PrimaryKey)
	assert.Len(t, items.ForeignKeys, 1)
}

func TestSQLiteExtractModels(t *testing.T) {
	extractor := NewSQLiteExtractor(newSQLiteFixture(t))

	models, err := ExtractModels(context.Background(), extractor, []string{"users", "orders"})
	require.NoError(t, err)
	require.Len(t, models, 2)

	users := models[0]
	assert.Equal(t, "users", users.Name)
	id := findField(t, users, "id")
	assert.True(t, id.IsID)
	assert.Equal(t, schema.KindNumber, id.Type)
	assert.Equal(t, schema.KindBoolean, findField(t, users, "active").Type)
	created := findField(t, users, "created_at")
	assert.Equal(t, schema.KindDate, created.Type)
	require.NotNil(t, created.DefaultValue)
	assert.Equal(t, "now()", *created.DefaultValue)

	orders := models[1]
	assert.Equal(t, "users", findField(t, orders, "user").Type)
	status := findField(t, orders, "status")
	require.NotNil(t, status.DefaultValue)
	assert.Equal(t, "pending", *status.DefaultValue)
}

func TestSQLiteExtractMissingTable(t *testing.T) {
	extractor := NewSQLiteExtractor(newSQLiteFixture(t))

	tables, err := extractor.ExtractTables(context.Background(), []string{"nope"})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Empty(t, tables[0].Columns)
}
