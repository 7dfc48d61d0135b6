// Package detect classifies raw schema text into a format tag.
package detect

import (
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

type rule struct {
	format schema.Format
	match  func(text, upper string) bool
}

// rules are evaluated in order; the first match wins
var rules = []rule{
	{schema.FormatPrisma, func(s, _ string) bool {
		return strings.Contains(s, "model ") &&
			containsAny(s, "@id", "@unique", "@@map")
	}},
	{schema.FormatMongoose, func(s, _ string) bool {
		return containsAny(s, "mongoose.Schema", "new Schema", "mongoose.model")
	}},
	{schema.FormatSequelize, func(s, _ string) bool {
		return containsAny(s, "sequelize.define", "DataTypes.", "Sequelize.")
	}},
	{schema.FormatSQL, func(_, u string) bool {
		return containsAny(u, "CREATE TABLE", "ALTER TABLE", "DROP TABLE")
	}},
	{schema.FormatTypeScript, func(s, _ string) bool {
		return strings.Contains(s, "interface ") && containsAll(s, "{", "}", ":")
	}},
	{schema.FormatJSONSchema, func(s, _ string) bool {
		return containsAll(s, `"type":`, `"properties":`) &&
			containsAny(s, `"string"`, `"object"`) &&
			!containsAny(s, `"openapi":`, `"swagger":`)
	}},
	{schema.FormatZod, func(s, _ string) bool {
		return containsAny(s, "z.object", "z.string", "z.number", "zod")
	}},
	{schema.FormatGraphQL, func(s, _ string) bool {
		return strings.Contains(s, "type ") && strings.Contains(s, "{") &&
			containsAny(s, "String", "Int", "Boolean")
	}},
	{schema.FormatOpenAPI, func(s, _ string) bool {
		return containsAny(s, "openapi:", "swagger:", `"openapi":`, `"swagger":`) ||
			(strings.Contains(s, "components:") && strings.Contains(s, "schemas:"))
	}},
	{schema.FormatDjango, func(s, _ string) bool {
		return containsAny(s, "models.Model", "models.CharField", "models.IntegerField")
	}},
}

// Detect returns the first format whose markers appear in text, or "" when none do
func Detect(text string) schema.Format {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	upper := strings.ToUpper(text)
	for _, r := range rules {
		if r.match(text, upper) {
			return r.format
		}
	}
	return ""
}

// Candidates returns every format whose markers appear in text, in priority order
func Candidates(text string) []schema.Format {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	upper := strings.ToUpper(text)
	var out []schema.Format
	for _, r := range rules {
		if r.match(text, upper) {
			out = append(out, r.format)
		}
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
