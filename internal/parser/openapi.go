package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaconv/internal/schema"
)

func parseOpenAPI(text string) ([]schema.Model, error) {
	if strings.TrimSpace(text) == "" {
		return schema.Placeholder(), nil
	}
	root, err := decodeDocument(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedDocument, err)
	}

	// Swagger 2 keeps its schemas under definitions
	if mappingValue(root, "swagger") != nil || mappingValue(root, "openapi") == nil {
		return walkDefinitions(root), nil
	}

	doc, err := openapi3.NewLoader().LoadFromData([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedDocument, err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return schema.Placeholder(), nil
	}

	src := mappingValue(mappingValue(root, "components"), "schemas")
	names := orderedKeys(src, doc.Components.Schemas)
	w := newTreeWalker(names)
	for _, name := range names {
		w.model(name, openapiNode{ref: doc.Components.Schemas[name], src: mappingValue(src, name)})
	}
	return orPlaceholder(w.models), nil
}

// openapiNode adapts a loaded schema to treeNode. src is the matching node of
// the raw document and only supplies property order.
type openapiNode struct {
	ref *openapi3.SchemaRef
	src *yaml.Node
}

func (o openapiNode) value() *openapi3.Schema {
	if o.ref == nil || o.ref.Value == nil {
		return &openapi3.Schema{}
	}
	return o.ref.Value
}

func (o openapiNode) Ref() string {
	if o.ref == nil {
		return ""
	}
	return o.ref.Ref
}

func (o openapiNode) Types() []string {
	if t := o.value().Type; t != nil {
		return t.Slice()
	}
	return nil
}

func (o openapiNode) Format() string {
	return o.value().Format
}

func (o openapiNode) Properties() []treeProperty {
	props := o.value().Properties
	if len(props) == 0 {
		return nil
	}
	srcProps := mappingValue(o.src, "properties")
	var out []treeProperty
	for _, name := range orderedKeys(srcProps, props) {
		out = append(out, treeProperty{
			Name: name,
			Node: openapiNode{ref: props[name], src: mappingValue(srcProps, name)},
		})
	}
	return out
}

func (o openapiNode) Items() treeNode {
	items := o.value().Items
	if items == nil {
		return nil
	}
	return openapiNode{ref: items, src: mappingValue(o.src, "items")}
}

func (o openapiNode) Required() []string {
	return o.value().Required
}

func (o openapiNode) Enum() []string {
	var out []string
	for _, v := range o.value().Enum {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func (o openapiNode) Default() (string, bool) {
	def := o.value().Default
	if def == nil {
		return "", false
	}
	return fmt.Sprint(def), true
}

// orderedKeys lists the keys of schemas in source document order, followed by
// any keys the source node does not mention in sorted order
func orderedKeys(src *yaml.Node, schemas openapi3.Schemas) []string {
	seen := make(map[string]bool, len(schemas))
	var keys []string
	for _, k := range mappingKeys(src) {
		if _, ok := schemas[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range schemas {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
