package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaconv/internal/schema"
)

func userModel() []schema.Model {
	return []schema.Model{{
		Name: "User",
		Fields: []schema.Field{
			{Name: "id", Type: schema.KindString, IsID: true, Required: true},
			{Name: "email", Type: schema.KindString, Unique: true, Required: true},
			{Name: "name", Type: schema.KindString},
		},
	}}
}

func blogModels() []schema.Model {
	return []schema.Model{
		{
			Name: "Author",
			Fields: []schema.Field{
				{Name: "id", Type: schema.KindNumber, IsID: true, Required: true},
				{Name: "role", Type: schema.KindString, Required: true, Enum: []string{"admin", "writer"}, DefaultValue: schema.StrPtr("writer")},
				{Name: "posts", Type: "Post", IsArray: true},
			},
		},
		{
			Name: "Post",
			Fields: []schema.Field{
				{Name: "title", Type: schema.KindString, Required: true},
				{Name: "score", Type: schema.KindFloat},
				{Name: "published", Type: schema.KindBoolean, DefaultValue: schema.StrPtr("false")},
				{Name: "createdAt", Type: schema.KindDate, DefaultValue: schema.StrPtr("now()")},
				{Name: "author", Type: "Author"},
			},
		},
	}
}

func render(t *testing.T, format schema.Format, models []schema.Model, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	f, err := New(format, &buf, opts)
	require.NoError(t, err)
	require.NoError(t, f.Format(models))
	return buf.String()
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(schema.Format("cobol"), &bytes.Buffer{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrUnrecognizedFormat))
}

func TestEveryFormatRendersEdgeModels(t *testing.T) {
	inputs := map[string][]schema.Model{
		"placeholder": schema.Placeholder(),
		"zero fields": {{Name: "Empty"}},
		"blog":        blogModels(),
	}
	for _, format := range schema.Formats() {
		for name, models := range inputs {
			t.Run(string(format)+"/"+name, func(t *testing.T) {
				out := render(t, format, models, Options{})
				assert.NotEmpty(t, strings.TrimSpace(out))
			})
		}
	}
}

func TestTimestampHeader(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, format := range schema.Formats() {
		t.Run(string(format), func(t *testing.T) {
			assert.NotContains(t, render(t, format, userModel(), Options{}), "Generated on")
			assert.Contains(t, render(t, format, userModel(), Options{GeneratedAt: stamp}), "Generated on 2024-03-01T12:00:00Z")
		})
	}
}

func TestPrismaUserExample(t *testing.T) {
	want := `// Prisma schema generated by schemaconv

generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

model User {
  id String @id
  email String @unique
  name String?
}
`
	if diff := cmp.Diff(want, render(t, schema.FormatPrisma, userModel(), Options{})); diff != "" {
		t.Errorf("prisma output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrismaEnumsDefaultsAndSynthesizedID(t *testing.T) {
	out := render(t, schema.FormatPrisma, blogModels(), Options{})
	assert.Contains(t, out, "enum AuthorRole {\n  admin\n  writer\n}")
	assert.Contains(t, out, "id Int @id @default(autoincrement())")
	assert.Contains(t, out, "role AuthorRole @default(writer)")
	assert.Contains(t, out, "published Boolean? @default(false)")
	assert.Contains(t, out, "createdAt DateTime? @default(now())")
	// Post has no key of its own
	assert.Contains(t, out, "model Post {\n  id Int @id @default(autoincrement())\n  title String\n")
}

func TestMongooseUserExample(t *testing.T) {
	want := `// Mongoose models generated by schemaconv

const mongoose = require('mongoose');

const userSchema = new mongoose.Schema({
  id: {
    type: String,
    required: true
  },
  email: {
    type: String,
    required: true,
    unique: true
  },
  name: String
}, { timestamps: true });

const User = mongoose.model('User', userSchema);

module.exports = { User };
`
	if diff := cmp.Diff(want, render(t, schema.FormatMongoose, userModel(), Options{})); diff != "" {
		t.Errorf("mongoose output mismatch (-want +got):\n%s", diff)
	}
}

func TestMongooseEnumConstants(t *testing.T) {
	out := render(t, schema.FormatMongoose, blogModels(), Options{})
	assert.Contains(t, out, "const AuthorRole = {\n  values: ['admin', 'writer'],")
	assert.Contains(t, out, "enum: AuthorRole.values")
	assert.Contains(t, out, "default: 'writer'")
	assert.Contains(t, out, "default: Date.now")
	// the numeric id is left to MongoDB
	assert.NotContains(t, out, "id: {\n    type: Number")
}

func TestMongooseSharedEnumDeclaredOnce(t *testing.T) {
	role := []string{"ADMIN", "USER"}
	enums := map[string][]string{"Role": role}
	models := []schema.Model{
		{Name: "User", Enums: enums, Fields: []schema.Field{
			{Name: "id", Type: schema.KindString, IsID: true, Required: true},
			{Name: "role", Type: schema.KindString, Required: true, Enum: role},
		}},
		{Name: "Admin", Enums: enums, Fields: []schema.Field{
			{Name: "id", Type: schema.KindString, IsID: true, Required: true},
			{Name: "role", Type: schema.KindString, Required: true, Enum: role},
		}},
	}

	out := render(t, schema.FormatMongoose, models, Options{})
	assert.Equal(t, 1, strings.Count(out, "const Role ="))
	assert.Equal(t, 2, strings.Count(out, "enum: Role.values"))
	// constants precede the schemas that use them
	assert.Less(t, strings.Index(out, "const Role ="), strings.Index(out, "const userSchema"))
}

func TestToManyRendering(t *testing.T) {
	tests := []struct {
		format schema.Format
		want   string
	}{
		{schema.FormatPrisma, "posts Post[]"},
		{schema.FormatMongoose, "posts: [{ type: mongoose.Schema.Types.ObjectId, ref: 'Post' }]"},
		{schema.FormatSequelize, "Author.hasMany(Post, { as: 'posts' });"},
		{schema.FormatSQL, "-- authors.posts: one-to-many, the foreign key lives on posts"},
		{schema.FormatTypeScript, "posts?: Post[];"},
		{schema.FormatJSONSchema, `"$ref": "#/definitions/Post"`},
		{schema.FormatZod, "posts: z.lazy(() => PostSchema).array().optional(),"},
		{schema.FormatGraphQL, "posts: [Post!]!"},
		{schema.FormatOpenAPI, `"$ref": "#/components/schemas/Post"`},
		{schema.FormatDjango, "posts = models.ManyToManyField('Post', blank=True)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Contains(t, render(t, tt.format, blogModels(), Options{}), tt.want)
		})
	}
}

func TestToOneRendering(t *testing.T) {
	tests := []struct {
		format schema.Format
		want   string
	}{
		{schema.FormatPrisma, "author Author?"},
		{schema.FormatMongoose, "author: { type: mongoose.Schema.Types.ObjectId, ref: 'Author' }"},
		{schema.FormatSequelize, "Post.belongsTo(Author, { as: 'author' });"},
		{schema.FormatSQL, "FOREIGN KEY (author_id) REFERENCES authors(id)"},
		{schema.FormatTypeScript, "author?: Author;"},
		{schema.FormatZod, "author: z.lazy(() => AuthorSchema).optional(),"},
		{schema.FormatGraphQL, "author: Author\n"},
		{schema.FormatDjango, "author = models.ForeignKey('Author', on_delete=models.CASCADE, blank=True, null=True)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Contains(t, render(t, tt.format, blogModels(), Options{}), tt.want)
		})
	}
}

func TestSQLTables(t *testing.T) {
	want := `-- SQL DDL generated by schemaconv

CREATE TABLE users (
  id VARCHAR(255) PRIMARY KEY,
  email VARCHAR(255) NOT NULL UNIQUE,
  name VARCHAR(255)
);
`
	if diff := cmp.Diff(want, render(t, schema.FormatSQL, userModel(), Options{})); diff != "" {
		t.Errorf("sql output mismatch (-want +got):\n%s", diff)
	}

	out := render(t, schema.FormatSQL, blogModels(), Options{})
	assert.Contains(t, out, "id INT PRIMARY KEY AUTO_INCREMENT")
	assert.Contains(t, out, "role VARCHAR(255) NOT NULL DEFAULT 'writer' CHECK (role IN ('admin', 'writer'))")
	assert.Contains(t, out, "createdAt TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	assert.Contains(t, out, "author_id INT")
}

func TestSequelizeDefinitions(t *testing.T) {
	out := render(t, schema.FormatSequelize, blogModels(), Options{})
	assert.Contains(t, out, "const Author = sequelize.define('Author', {")
	assert.Contains(t, out, "type: DataTypes.INTEGER,\n    primaryKey: true,\n    autoIncrement: true")
	assert.Contains(t, out, "type: DataTypes.ENUM('admin', 'writer'),\n    allowNull: false,\n    defaultValue: 'writer'")
	assert.Contains(t, out, "defaultValue: DataTypes.NOW")
	assert.Contains(t, out, "tableName: 'posts',")
	assert.Contains(t, out, "module.exports = { sequelize, Author, Post };")
}

func TestTypeScriptInterfaces(t *testing.T) {
	out := render(t, schema.FormatTypeScript, blogModels(), Options{})
	assert.Contains(t, out, "export interface Author {\n  id: number;\n  role: 'admin' | 'writer';\n")
	assert.Contains(t, out, "score?: number;")
	assert.Contains(t, out, "createdAt?: Date;")
}

func TestZodSchemas(t *testing.T) {
	out := render(t, schema.FormatZod, blogModels(), Options{})
	assert.Contains(t, out, "import { z } from 'zod';")
	assert.Contains(t, out, "role: z.enum(['admin', 'writer']).default('writer'),")
	assert.Contains(t, out, "published: z.boolean().default(false),")
	assert.Contains(t, out, "export type Post = z.infer<typeof PostSchema>;")
}

func TestGraphQLRoots(t *testing.T) {
	out := render(t, schema.FormatGraphQL, blogModels(), Options{})
	assert.Contains(t, out, "scalar DateTime")
	assert.Contains(t, out, "enum AuthorRole {")
	assert.Contains(t, out, "type Author {\n  id: ID!\n  role: AuthorRole!\n")
	assert.Contains(t, out, "input PostInput {")
	assert.Contains(t, out, "authorId: ID")
	assert.Contains(t, out, "authors: [Author!]!")
	assert.Contains(t, out, "createPost(input: PostInput!): Post!")
}

func TestDjangoClasses(t *testing.T) {
	out := render(t, schema.FormatDjango, blogModels(), Options{})
	assert.Contains(t, out, "from django.db import models")
	assert.Contains(t, out, "role = models.CharField(max_length=255, default='writer', choices=[('admin', 'Admin'), ('writer', 'Writer')])")
	assert.Contains(t, out, "published = models.BooleanField(blank=True, null=True, default=False)")
	assert.Contains(t, out, "db_table = 'posts'")
	// implicit integer key is left to Django
	assert.NotContains(t, out, "id = models.IntegerField")
}

func TestJSONSchemaDocument(t *testing.T) {
	out := render(t, schema.FormatJSONSchema, blogModels(), Options{})

	var doc struct {
		Schema      string `json:"$schema"`
		Definitions map[string]struct {
			Type       string                    `json:"type"`
			Properties map[string]map[string]any `json:"properties"`
			Required   []string                  `json:"required"`
		} `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, jsonSchemaDraft, doc.Schema)

	author := doc.Definitions["Author"]
	assert.Equal(t, "object", author.Type)
	assert.Equal(t, []string{"id", "role"}, author.Required)
	assert.Equal(t, "integer", author.Properties["id"]["type"])
	assert.Equal(t, "writer", author.Properties["role"]["default"])
	assert.Equal(t, "array", author.Properties["posts"]["type"])

	post := doc.Definitions["Post"]
	assert.Equal(t, "number", post.Properties["score"]["type"])
	assert.Equal(t, false, post.Properties["published"]["default"])
	assert.Equal(t, "date-time", post.Properties["createdAt"]["format"])
	assert.Equal(t, "#/definitions/Author", post.Properties["author"]["$ref"])

	// members keep field order
	assert.Less(t, strings.Index(out, `"title"`), strings.Index(out, `"score"`))
}

func TestOpenAPIJSONAndYAML(t *testing.T) {
	jsonOut := render(t, schema.FormatOpenAPI, blogModels(), Options{})
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &doc))
	assert.Equal(t, "3.0.0", doc["openapi"])
	assert.Contains(t, jsonOut, `"/authors/{id}"`)

	yamlOut := render(t, schema.FormatOpenAPI, blogModels(), Options{YAML: true})
	assert.True(t, strings.HasPrefix(yamlOut, "# OpenAPI document generated by schemaconv\n"))
	var node map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(yamlOut), &node))
	assert.Equal(t, "3.0.0", node["openapi"])
	components := node["components"].(map[string]any)["schemas"].(map[string]any)
	assert.Contains(t, components, "Author")
	assert.Contains(t, components, "Post")
}

func TestNumericDefaultsWithLeadingZeros(t *testing.T) {
	models := []schema.Model{{
		Name: "Coupon",
		Fields: []schema.Field{
			{Name: "code", Type: schema.KindNumber, Required: true, DefaultValue: schema.StrPtr("007")},
			{Name: "ratio", Type: schema.KindFloat, DefaultValue: schema.StrPtr("-00.50")},
		},
	}}

	var doc struct {
		Definitions map[string]struct {
			Properties map[string]map[string]any `json:"properties"`
		} `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(render(t, schema.FormatJSONSchema, models, Options{})), &doc))
	assert.Equal(t, float64(7), doc.Definitions["Coupon"].Properties["code"]["default"])
	assert.Equal(t, -0.5, doc.Definitions["Coupon"].Properties["ratio"]["default"])

	var api struct {
		Components struct {
			Schemas map[string]struct {
				Properties map[string]map[string]any `json:"properties"`
			} `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal([]byte(render(t, schema.FormatOpenAPI, models, Options{})), &api))
	assert.Equal(t, float64(7), api.Components.Schemas["Coupon"].Properties["code"]["default"])

	assert.Contains(t, render(t, schema.FormatPrisma, models, Options{}), "@default(7)")
	assert.Contains(t, render(t, schema.FormatZod, models, Options{}), ".default(-0.50)")
}

func TestSanitizedIdentifiers(t *testing.T) {
	models := []schema.Model{{
		Name:   "order-item",
		Fields: []schema.Field{{Name: "2nd value", Type: schema.KindString, Required: true}},
	}}
	out := render(t, schema.FormatTypeScript, models, Options{})
	assert.Contains(t, out, "export interface order_item {\n  _2nd_value: string;\n}")
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(blogModels()))
	out := buf.String()
	assert.Contains(t, out, "MODEL Author (PK: id)")
	assert.Contains(t, out, "  role: string (admin|writer) REQUIRED DEFAULT writer")
	assert.Contains(t, out, "    posts → Post (one-to-many)")
	assert.Contains(t, out, "    author → Author (many-to-one)")
}

func TestMultiFileFormatter(t *testing.T) {
	dir := t.TempDir()
	written, err := NewMultiFileFormatter(dir, schema.FormatPrisma, Options{}).Write(blogModels())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "_overview.md"),
		filepath.Join(dir, "Author.prisma"),
		filepath.Join(dir, "Post.prisma"),
	}, written)

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.md"))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "- **Author** (references: Post) (referenced by: Post.author)")
	assert.Contains(t, string(overview), "## Post")

	// sibling models remain relations in split files
	post, err := os.ReadFile(filepath.Join(dir, "Post.prisma"))
	require.NoError(t, err)
	assert.Contains(t, string(post), "author Author?")
}

func TestMultiFileFormatterUnknownFormat(t *testing.T) {
	_, err := NewMultiFileFormatter(t.TempDir(), schema.Format("xml"), Options{}).Write(blogModels())
	assert.True(t, errors.Is(err, schema.ErrUnrecognizedFormat))
}
