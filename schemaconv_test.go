package schemaconv

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormats(t *testing.T) {
	infos := Formats()
	require.Len(t, infos, 10)
	assert.Equal(t, FormatInfo{Format: FormatPrisma, Name: "Prisma Schema", Extension: ".prisma"}, infos[0])
	assert.Equal(t, FormatDjango, infos[9].Format)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name, info.Format)
		assert.True(t, strings.HasPrefix(info.Extension, "."), info.Format)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("zod")
	require.NoError(t, err)
	assert.Equal(t, FormatZod, f)

	_, err = ParseFormat("cobol")
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPrisma, DetectFormat("model User {\n  id String @id\n}"))
	assert.Equal(t, FormatPrisma, DetectFormat("model Tag { name String @unique }"))
	assert.Equal(t, Format(""), DetectFormat("The quick brown fox jumps over the lazy dog."))
	assert.Equal(t, Format(""), DetectFormat(""))
}

func TestConvertEmptyInputEveryPair(t *testing.T) {
	for _, from := range Formats() {
		for _, to := range Formats() {
			t.Run(string(from.Format)+"->"+string(to.Format), func(t *testing.T) {
				out, err := Convert("", from.Format, to.Format)
				require.NoError(t, err)
				assert.NotEmpty(t, strings.TrimSpace(out))
				assert.Contains(t, strings.ToLower(out), "example")
			})
		}
	}
}

func TestKindRoundTrip(t *testing.T) {
	models := []Model{{
		Name: "Item",
		Fields: []Field{
			{Name: "label", Type: "string", Required: true},
			{Name: "quantity", Type: "number", Required: true},
			{Name: "active", Type: "boolean", Required: true},
			{Name: "createdAt", Type: "date", Required: true},
		},
	}}

	for _, info := range Formats() {
		t.Run(string(info.Format), func(t *testing.T) {
			text, err := Generate(models, info.Format)
			require.NoError(t, err)

			parsed, err := Parse(text, info.Format)
			require.NoError(t, err)

			var item *Model
			for i := range parsed {
				// SQL names the table after the pluralized model
				if parsed[i].Name == "Item" || parsed[i].Name == "items" {
					item = &parsed[i]
				}
			}
			require.NotNil(t, item, "no Item model in:\n%s", text)

			kinds := make(map[string]string)
			for _, f := range item.Fields {
				kinds[f.Name] = f.Type
			}
			for _, want := range models[0].Fields {
				assert.Equal(t, want.Type, kinds[want.Name], "field %s in:\n%s", want.Name, text)
			}
		})
	}
}

func TestParsePrismaUser(t *testing.T) {
	models, err := Parse("model User { id String @id\n email String @unique\n name String? }", FormatPrisma)
	require.NoError(t, err)
	require.Len(t, models, 1)

	user := models[0]
	assert.Equal(t, "User", user.Name)
	require.Len(t, user.Fields, 3)
	assert.Equal(t, Field{Name: "id", Type: "string", IsID: true, Required: true}, user.Fields[0])
	assert.Equal(t, Field{Name: "email", Type: "string", Unique: true, Required: true}, user.Fields[1])
	assert.Equal(t, Field{Name: "name", Type: "string"}, user.Fields[2])
}

func TestConvertPrismaUserToMongoose(t *testing.T) {
	out, err := Convert("model User { id String @id\n email String @unique\n name String? }", FormatPrisma, FormatMongoose)
	require.NoError(t, err)

	assert.Contains(t, out, "email: {\n    type: String,\n    required: true,\n    unique: true\n  }")
	assert.Contains(t, out, "  name: String")
	assert.NotContains(t, out, "name: {")
}

func TestParseSQLUsers(t *testing.T) {
	models, err := Parse("CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(255) NOT NULL);", FormatSQL)
	require.NoError(t, err)
	require.Len(t, models, 1)

	users := models[0]
	assert.Equal(t, "users", users.Name)
	require.Len(t, users.Fields, 2)
	assert.True(t, users.Fields[0].IsID)
	assert.True(t, users.Fields[0].Unique)
	assert.Equal(t, "name", users.Fields[1].Name)
	assert.True(t, users.Fields[1].Required)
	assert.Equal(t, "string", users.Fields[1].Type)
}

func TestConvertToManyRelation(t *testing.T) {
	src := `model Author {
  id    Int    @id
  posts Post[]
}

model Post {
  id    Int    @id
  title String
}`
	out, err := Convert(src, FormatPrisma, FormatTypeScript)
	require.NoError(t, err)
	assert.Contains(t, out, "posts: Post[];")

	out, err = Convert(src, FormatPrisma, FormatDjango)
	require.NoError(t, err)
	assert.Contains(t, out, "models.ManyToManyField('Post'")
}

func TestConvertUnknownFormat(t *testing.T) {
	out, err := Convert("model User {}", Format("cobol"), FormatSQL)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, ErrUnrecognizedFormat))
	assert.True(t, IsConversionError(err))
	assert.True(t, strings.HasPrefix(err.Error(), "conversion failed: "))

	_, err = Convert("model User {}", FormatPrisma, Format("cobol"))
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, convErr.Err, ErrUnrecognizedFormat)
}

func TestConvertMalformedDocument(t *testing.T) {
	out, err := Convert(`{"type": "object", "properties": {`, FormatJSONSchema, FormatPrisma)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrMalformedDocument)
	assert.True(t, IsConversionError(err))
}

func TestGenerateWithOptions(t *testing.T) {
	models := []Model{{Name: "Tag", Fields: []Field{{Name: "label", Type: "string"}}}}

	plain, err := Generate(models, FormatSQL)
	require.NoError(t, err)
	assert.NotContains(t, plain, "Generated on")

	stamped, err := GenerateWithOptions(models, FormatSQL, GenerateOptions{Timestamp: true})
	require.NoError(t, err)
	assert.Contains(t, stamped, "-- Generated on ")

	yamlDoc, err := GenerateWithOptions(models, FormatOpenAPI, GenerateOptions{OpenAPIYAML: true})
	require.NoError(t, err)
	assert.Contains(t, yamlDoc, "openapi: 3.0.0")
}
