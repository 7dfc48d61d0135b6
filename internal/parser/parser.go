// Package parser lifts schema text in any supported format into the shared model.
//
// Parsers are best-effort pattern extractors. They never fail on unrecognized
// input: when no construct is found they return schema.Placeholder(). Only the
// structured-document formats (JSON Schema, OpenAPI) report decode errors.
package parser

import (
	"fmt"

	"github.com/tordrt/schemaconv/internal/schema"
)

// Parse converts text written in format into a freshly built model list
func Parse(text string, format schema.Format) ([]schema.Model, error) {
	switch format {
	case schema.FormatPrisma:
		return parsePrisma(text), nil
	case schema.FormatMongoose:
		return parseMongoose(text), nil
	case schema.FormatSequelize:
		return parseSequelize(text), nil
	case schema.FormatSQL:
		return parseSQL(text), nil
	case schema.FormatTypeScript:
		return parseTypeScript(text), nil
	case schema.FormatJSONSchema:
		return parseJSONSchema(text)
	case schema.FormatZod:
		return parseZod(text), nil
	case schema.FormatGraphQL:
		return parseGraphQL(text), nil
	case schema.FormatOpenAPI:
		return parseOpenAPI(text)
	case schema.FormatDjango:
		return parseDjango(text), nil
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnrecognizedFormat, format)
	}
}

// lookupKind maps a source spelling through table, defaulting to string
func lookupKind(table map[string]string, spelling string) string {
	if kind, ok := table[spelling]; ok {
		return kind
	}
	return schema.KindString
}
