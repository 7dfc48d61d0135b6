package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prismaUser = `model User {
  id    Int     @id @default(autoincrement())
  email String  @unique
  name  String?
}
`

const sqlPosts = `CREATE TABLE posts (
  id INT PRIMARY KEY,
  title VARCHAR(255) NOT NULL
);
`

type fakePrompter struct {
	confirm  bool
	selected string
	asked    []string
	options  []string
}

func (p *fakePrompter) Confirm(message string, def bool) (bool, error) {
	p.asked = append(p.asked, message)
	return p.confirm, nil
}

func (p *fakePrompter) Select(message string, options []string, def string) (string, error) {
	p.asked = append(p.asked, message)
	p.options = options
	return p.selected, nil
}

// run executes the CLI with stdin and returns what it wrote to stdout
func run(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	if a == nil {
		a = &app{prompt: &fakePrompter{}}
	}
	cmd := a.rootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

// isolate runs the test in an empty directory so no config file is picked up
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestConvertStdin(t *testing.T) {
	isolate(t)

	out, err := run(t, nil, prismaUser, "convert", "--to", "typescript")
	require.NoError(t, err)
	assert.Contains(t, out, "interface User {")
	assert.Contains(t, out, "email: string;")
}

func TestConvertFileToOutput(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "schema.sql")
	output := filepath.Join(dir, "schema.prisma")
	writeFile(t, input, sqlPosts)

	out, err := run(t, nil, "", "convert", input, "-f", "sql", "-t", "prisma", "-o", output)
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(b), "model posts {")
}

func TestConvertErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{name: "undetectable input", stdin: "just some words", args: []string{"convert"}, wantErr: "could not detect"},
		{name: "unknown target", stdin: prismaUser, args: []string{"convert", "-t", "cobol"}, wantErr: "unrecognized format"},
		{name: "missing file", args: []string{"convert", "missing.prisma"}, wantErr: "failed to read input"},
		{name: "bad log level", stdin: prismaUser, args: []string{"convert", "--log-level", "loud"}, wantErr: "invalid log level"},
		{name: "missing config", stdin: prismaUser, args: []string{"convert", "--config", "nope.yaml"}, wantErr: "nope.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, nil, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConvertInteractive(t *testing.T) {
	isolate(t)

	t.Run("confirm detected format", func(t *testing.T) {
		p := &fakePrompter{confirm: true}
		out, err := run(t, &app{prompt: p}, prismaUser, "convert", "-i", "-t", "graphql")
		require.NoError(t, err)
		assert.Contains(t, out, "type User {")
		require.Len(t, p.asked, 1)
		assert.Contains(t, p.asked[0], "prisma")
	})

	t.Run("override detected format", func(t *testing.T) {
		p := &fakePrompter{confirm: false, selected: "prisma"}
		_, err := run(t, &app{prompt: p}, prismaUser, "convert", "-i", "-t", "sql")
		require.NoError(t, err)
		assert.Len(t, p.asked, 2)
	})

	t.Run("nothing detected", func(t *testing.T) {
		p := &fakePrompter{selected: "sql"}
		_, err := run(t, &app{prompt: p}, "", "convert", "-i", "-t", "prisma")
		require.NoError(t, err)
		assert.Equal(t, []string{"Source format:"}, p.asked)
	})
}

func TestFormatOptions(t *testing.T) {
	mixed := "model Post {\n  id Int @id\n  title String\n}\ntype X { a: String }"

	options := formatOptions(mixed)
	require.Len(t, options, 10)
	assert.Equal(t, "prisma", options[0])
	assert.Less(t, indexOf(options, "graphql"), indexOf(options, "mongoose"))

	p := &fakePrompter{confirm: false, selected: "graphql"}
	_, err := run(t, &app{prompt: p}, mixed, "convert", "-i", "-t", "typescript")
	require.NoError(t, err)
	assert.Equal(t, options, p.options)

	assert.Len(t, formatOptions("plain words"), 10)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestConfigPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "to: sql\n")

	out, err := run(t, nil, prismaUser, "convert", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE users (")

	out, err = run(t, nil, prismaUser, "convert", "--config", path, "--to", "zod")
	require.NoError(t, err)
	assert.Contains(t, out, "z.object(")

	t.Setenv("SCHEMACONV_TO", "graphql")
	out, err = run(t, nil, prismaUser, "convert", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "type User {")
}

func TestDetect(t *testing.T) {
	isolate(t)

	out, err := run(t, nil, prismaUser, "detect")
	require.NoError(t, err)
	assert.Equal(t, "prisma\n", out)

	out, err = run(t, nil, "nothing to see", "detect")
	require.NoError(t, err)
	assert.Equal(t, "none\n", out)
}

func TestInspect(t *testing.T) {
	isolate(t)

	out, err := run(t, nil, prismaUser, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL User (PK: id)")

	out, err = run(t, nil, prismaUser, "inspect", "--markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "## User")
}

func TestFormats(t *testing.T) {
	isolate(t)

	out, err := run(t, nil, "", "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "prisma")
	assert.Contains(t, out, "django")
	assert.Contains(t, out, "10 formats")
}

func newUsersDatabase(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "app.db")
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	_, err = conn.Exec(`
CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE);
CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id), title TEXT);
CREATE TABLE schema_migrations (version TEXT PRIMARY KEY);
`)
	require.NoError(t, err)
	return path
}

func TestIntrospect(t *testing.T) {
	dir := isolate(t)
	dbPath := newUsersDatabase(t, dir)

	out, err := run(t, nil, "", "introspect", "--sqlite", dbPath, "--exclude", "schema_migrations", "-t", "typescript")
	require.NoError(t, err)
	assert.Contains(t, out, "interface users {")
	assert.Contains(t, out, "interface posts {")
	assert.NotContains(t, out, "schema_migrations")

	outDir := filepath.Join(dir, "models")
	_, err = run(t, nil, "", "introspect", "--sqlite", dbPath, "--tables", "users,posts", "-d", outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "_overview.md"))
	assert.FileExists(t, filepath.Join(outDir, "users.prisma"))
	assert.FileExists(t, filepath.Join(outDir, "posts.prisma"))

	_, err = run(t, nil, "", "introspect", "--sqlite", dbPath, "-d", outDir, "-o", "out.prisma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot use both")
}

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		dbURL    string
		mysqlURL string
		sqlite   string
		want     string
		wantErr  string
	}{
		{name: "postgres", dbURL: "postgres://localhost/app", want: "postgres://localhost/app"},
		{name: "mysql", mysqlURL: "root@tcp(localhost:3306)/app", want: "mysql://root@tcp(localhost:3306)/app"},
		{name: "sqlite", sqlite: "app.db", want: "sqlite://app.db"},
		{name: "none", wantErr: "must be specified"},
		{name: "two", dbURL: "postgres://localhost/app", sqlite: "app.db", wantErr: "only one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := databaseURL(tt.dbURL, tt.mysqlURL, tt.sqlite)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatch(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeFile(t, filepath.Join(in, "user.prisma"), prismaUser)
	writeFile(t, filepath.Join(in, "posts.sql"), sqlPosts)
	writeFile(t, filepath.Join(in, ".hidden"), "ignored")

	stdout, err := run(t, nil, "", "batch", in, "-t", "typescript", "-d", out, "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(prisma)")
	assert.Contains(t, stdout, "(sql)")

	b, err := os.ReadFile(filepath.Join(out, "user.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "interface User {")
	assert.FileExists(t, filepath.Join(out, "posts.ts"))
	assert.NoFileExists(t, filepath.Join(out, ".hidden.ts"))
}

func TestBatchSplit(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeFile(t, filepath.Join(in, "user.prisma"), prismaUser)

	_, err := run(t, nil, "", "batch", in, "-t", "django", "-d", out, "--split")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "user", "_overview.md"))
	assert.FileExists(t, filepath.Join(out, "user", "User.py"))
}

func TestBatchErrors(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in")
	require.NoError(t, os.Mkdir(in, 0755))

	_, err := run(t, nil, "", "batch", in, "-d", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")

	writeFile(t, filepath.Join(in, "notes.txt"), "plain words")
	_, err = run(t, nil, "", "batch", in, "-d", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.txt")

	_, err = run(t, nil, "", "batch", in, "-w", "0", "-d", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--workers")

	_, err = run(t, nil, "", "batch", in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-dir")
}

func TestBatchRejectsSharedBaseNames(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeFile(t, filepath.Join(in, "user.prisma"), prismaUser)
	writeFile(t, filepath.Join(in, "user.sql"), sqlPosts)

	_, err := run(t, nil, "", "batch", in, "-t", "typescript", "-d", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.prisma and user.sql")
	assert.NoDirExists(t, out)
}
