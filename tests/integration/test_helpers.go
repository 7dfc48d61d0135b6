//go:build integration
// +build integration

package integration

import (
	"testing"

	"github.com/tordrt/schemaconv/internal/schema"
)

// fixtureTables are created by every database fixture
var fixtureTables = []string{"order_items", "orders", "products", "users"}

// verifyModelsExist checks that exactly the expected models are present
func verifyModelsExist(t *testing.T, models []schema.Model, expected []string) {
	t.Helper()

	if len(models) != len(expected) {
		t.Errorf("Expected %d models, got %d", len(expected), len(models))
	}

	names := make(map[string]bool)
	for _, m := range models {
		names[m.Name] = true
	}

	for _, name := range expected {
		if !names[name] {
			t.Errorf("Expected model %s not found", name)
		}
	}
}

// verifyField checks a field's kind and flags
func verifyField(t *testing.T, models []schema.Model, modelName string, want schema.Field) {
	t.Helper()

	field := findField(t, models, modelName, want.Name)
	if field.Type != want.Type {
		t.Errorf("%s.%s: expected type %s, got %s", modelName, want.Name, want.Type, field.Type)
	}
	if field.IsID != want.IsID {
		t.Errorf("%s.%s: expected IsID %v, got %v", modelName, want.Name, want.IsID, field.IsID)
	}
	if field.Required != want.Required {
		t.Errorf("%s.%s: expected Required %v, got %v", modelName, want.Name, want.Required, field.Required)
	}
	if field.Unique != want.Unique {
		t.Errorf("%s.%s: expected Unique %v, got %v", modelName, want.Name, want.Unique, field.Unique)
	}
}

// verifyEnumValues checks that a field carries the expected enum labels
func verifyEnumValues(t *testing.T, models []schema.Model, modelName, fieldName string, expected []string) {
	t.Helper()

	field := findField(t, models, modelName, fieldName)
	if len(field.Enum) != len(expected) {
		t.Fatalf("%s.%s: expected enum %v, got %v", modelName, fieldName, expected, field.Enum)
	}
	for i, v := range expected {
		if field.Enum[i] != v {
			t.Errorf("%s.%s: expected enum %v, got %v", modelName, fieldName, expected, field.Enum)
			return
		}
	}
}

// verifyRelation checks that a foreign key became a to-one relation field
func verifyRelation(t *testing.T, models []schema.Model, modelName, fieldName, target string) {
	t.Helper()

	field := findField(t, models, modelName, fieldName)
	if field.Type != target || field.IsArray {
		t.Errorf("Expected %s.%s to reference %s, got type %s (array %v)", modelName, fieldName, target, field.Type, field.IsArray)
	}
}

func findField(t *testing.T, models []schema.Model, modelName, fieldName string) schema.Field {
	t.Helper()

	for _, m := range models {
		if m.Name != modelName {
			continue
		}
		for _, f := range m.Fields {
			if f.Name == fieldName {
				return f
			}
		}
		t.Fatalf("Field %s not found in model %s", fieldName, modelName)
	}
	t.Fatalf("Model %s not found", modelName)
	return schema.Field{}
}
