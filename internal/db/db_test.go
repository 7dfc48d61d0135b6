package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemaconv/internal/schema"
)

func blogTables() []Table {
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: "integer", Default: schema.StrPtr("nextval('users_id_seq'::regclass)")},
				{Name: "email", Type: "varchar(255)", Unique: true},
				{Name: "active", Type: "tinyint(1)", Nullable: true, Default: schema.StrPtr("1")},
				{Name: "role", Type: "user_role", EnumValues: []string{"admin", "member"}, Default: schema.StrPtr("'member'::user_role")},
				{Name: "tags", Type: "text[]", Nullable: true},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "posts",
			Columns: []Column{
				{Name: "id", Type: "integer"},
				{Name: "user_id", Type: "integer"},
				{Name: "editor_id", Type: "integer", Nullable: true},
				{Name: "published_at", Type: "timestamp", Nullable: true, Default: schema.StrPtr("CURRENT_TIMESTAMP")},
				{Name: "score", Type: "numeric(10,2)", Nullable: true},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Column: "user_id", TargetTable: "users", TargetColumn: "id"},
				{Column: "editor_id", TargetTable: "editors", TargetColumn: "id"},
			},
		},
	}
}

func findField(t *testing.T, m schema.Model, name string) schema.Field {
	t.Helper()
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not found in %s", name, m.Name)
	return schema.Field{}
}

func TestBuildModels(t *testing.T) {
	models := BuildModels(blogTables())
	require.Len(t, models, 2)

	users := models[0]
	assert.Equal(t, "users", users.Name)

	id := findField(t, users, "id")
	assert.Equal(t, schema.KindNumber, id.Type)
	assert.True(t, id.IsID)
	assert.True(t, id.Unique)
	assert.True(t, id.Required)
	require.NotNil(t, id.DefaultValue)
	assert.Equal(t, "autoincrement()", *id.DefaultValue)

	email := findField(t, users, "email")
	assert.Equal(t, schema.KindString, email.Type)
	assert.True(t, email.Required)
	assert.True(t, email.Unique)
	assert.False(t, email.IsID)

	active := findField(t, users, "active")
	assert.Equal(t, schema.KindBoolean, active.Type)
	assert.False(t, active.Required)

	role := findField(t, users, "role")
	assert.Equal(t, schema.KindString, role.Type)
	assert.Equal(t, []string{"admin", "member"}, role.Enum)
	require.NotNil(t, role.DefaultValue)
	assert.Equal(t, "member", *role.DefaultValue)
	assert.Equal(t, map[string][]string{"user_role": {"admin", "member"}}, users.Enums)

	tags := findField(t, users, "tags")
	assert.Equal(t, schema.KindString, tags.Type)
	assert.True(t, tags.IsArray)

	posts := models[1]
	published := findField(t, posts, "published_at")
	assert.Equal(t, schema.KindDate, published.Type)
	require.NotNil(t, published.DefaultValue)
	assert.Equal(t, "now()", *published.DefaultValue)

	assert.Equal(t, schema.KindFloat, findField(t, posts, "score").Type)

	user := findField(t, posts, "user")
	assert.Equal(t, "users", user.Type)
	assert.False(t, user.IsArray)

	// editors is not part of the extracted set
	for _, f := range posts.Fields {
		assert.NotEqual(t, "editor", f.Name)
	}
}

func TestBuildModelsCompositePrimaryKey(t *testing.T) {
	models := BuildModels([]Table{{
		Name: "memberships",
		Columns: []Column{
			{Name: "user_id", Type: "integer"},
			{Name: "group_id", Type: "integer"},
		},
		PrimaryKey: []string{"user_id", "group_id"},
	}})
	require.Len(t, models, 1)
	for _, f := range models[0].Fields {
		assert.False(t, f.IsID, f.Name)
		assert.True(t, f.Required, f.Name)
	}
}

func TestBuildModelsKeepsExistingFieldName(t *testing.T) {
	models := BuildModels([]Table{
		{Name: "teams", Columns: []Column{{Name: "id", Type: "int"}}, PrimaryKey: []string{"id"}},
		{
			Name: "players",
			Columns: []Column{
				{Name: "id", Type: "int"},
				{Name: "team", Type: "text"},
				{Name: "team_id", Type: "int"},
			},
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{{Column: "team_id", TargetTable: "teams", TargetColumn: "id"}},
		},
	})
	require.Len(t, models, 2)
	assert.Len(t, models[1].Fields, 3)
	assert.Equal(t, schema.KindString, findField(t, models[1], "team").Type)
}

func TestNormalizeDefault(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "nextval('users_id_seq'::regclass)", want: "autoincrement()"},
		{raw: "now()", want: "now()"},
		{raw: "CURRENT_TIMESTAMP", want: "now()"},
		{raw: "current_timestamp()", want: "now()"},
		{raw: "'draft'::character varying", want: "draft"},
		{raw: "'it''s'", want: "it's"},
		{raw: "0", want: "0"},
		{raw: " true ", want: "true"},
		{raw: "'a::b'", want: "a::b"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDefault(tt.raw))
		})
	}
}

func TestMySQLEnumValues(t *testing.T) {
	assert.Equal(t, []string{"small", "large", "o'clock"}, mysqlEnumValues("enum('small','large','o''clock')"))
	assert.Nil(t, mysqlEnumValues("varchar"))
}

func TestNormalizePostgresType(t *testing.T) {
	length := 120
	assert.Equal(t, "timestamptz", normalizePostgresType("timestamp with time zone", "timestamptz", nil))
	assert.Equal(t, "varchar(120)", normalizePostgresType("character varying", "varchar", &length))
	assert.Equal(t, "varchar", normalizePostgresType("character varying", "varchar", nil))
	assert.Equal(t, "integer[]", normalizePostgresType("ARRAY", "_int4", nil))
	assert.Equal(t, "mood", normalizePostgresType("USER-DEFINED", "mood", nil))
	assert.Equal(t, "integer", normalizePostgresType("integer", "int4", nil))
}

func TestParseDatabaseName(t *testing.T) {
	name, err := ParseDatabaseName("root:secret@tcp(localhost:3306)/shop?parseTime=true")
	require.NoError(t, err)
	assert.Equal(t, "shop", name)

	_, err = ParseDatabaseName("root:secret@tcp(localhost:3306)/")
	assert.Error(t, err)
}
