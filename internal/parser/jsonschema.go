package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaconv/internal/schema"
)

func parseJSONSchema(text string) ([]schema.Model, error) {
	if strings.TrimSpace(text) == "" {
		return schema.Placeholder(), nil
	}
	root, err := decodeDocument(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedDocument, err)
	}
	return walkDefinitions(root), nil
}

// walkDefinitions builds one model per definitions, $defs or components.schemas
// entry, plus one for the root object when it declares properties
func walkDefinitions(root *yaml.Node) []schema.Model {
	defs := mappingValue(root, "definitions")
	if defs == nil {
		defs = mappingValue(root, "$defs")
	}
	if defs == nil {
		defs = mappingValue(mappingValue(root, "components"), "schemas")
	}
	names := mappingKeys(defs)

	rootNode := yamlNode{root}
	rootName := ""
	if len(rootNode.Properties()) > 0 {
		rootName = "Schema"
		if title := mappingValue(root, "title"); title != nil && title.Value != "" {
			rootName = schema.SanitizeIdentifier(title.Value)
		}
		names = append(names, rootName)
	}

	w := newTreeWalker(names)
	if rootName != "" {
		w.model(rootName, rootNode)
	}
	for _, name := range mappingKeys(defs) {
		w.model(name, yamlNode{mappingValue(defs, name)})
	}
	return orPlaceholder(w.models)
}
