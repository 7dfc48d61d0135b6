package parser

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaconv/internal/schema"
)

// treeNode is one schema object of a JSON Schema or OpenAPI document
type treeNode interface {
	Ref() string
	Types() []string
	Format() string
	Properties() []treeProperty
	Items() treeNode
	Required() []string
	Enum() []string
	Default() (string, bool)
}

type treeProperty struct {
	Name string
	Node treeNode
}

var treeKinds = map[string]string{
	"string":  schema.KindString,
	"integer": schema.KindNumber,
	"number":  schema.KindFloat,
	"boolean": schema.KindBoolean,
	"object":  schema.KindMixed,
	"array":   schema.KindMixed,
	"null":    schema.KindMixed,
}

// treeWalker flattens nested schema objects into a model list. Child models are
// appended after their parent and referenced by name.
type treeWalker struct {
	names  map[string]bool
	models []schema.Model
}

func newTreeWalker(names []string) *treeWalker {
	w := &treeWalker{names: make(map[string]bool, len(names))}
	for _, n := range names {
		w.names[n] = true
	}
	return w
}

// model adds a model named name built from the properties of node
func (w *treeWalker) model(name string, node treeNode) {
	w.names[name] = true
	idx := len(w.models)
	w.models = append(w.models, schema.Model{Name: name})

	required := make(map[string]bool)
	for _, r := range node.Required() {
		required[r] = true
	}

	var fields []schema.Field
	for _, prop := range node.Properties() {
		field := schema.Field{Name: prop.Name, Required: required[prop.Name]}
		w.fieldType(&field, name+schema.Capitalize(prop.Name), prop.Node)
		fields = append(fields, field)
	}
	w.models[idx].Fields = fields
}

// fieldType sets the type, array, enum and default attributes of field from node.
// childName names the synthetic model created for a nested object.
func (w *treeWalker) fieldType(field *schema.Field, childName string, node treeNode) {
	if def, ok := node.Default(); ok {
		field.DefaultValue = schema.StrPtr(def)
	}
	if ref := node.Ref(); ref != "" {
		field.Type = w.refTarget(ref)
		return
	}

	switch typ := primaryType(node); {
	case typ == "array":
		field.IsArray = true
		items := node.Items()
		if items == nil {
			field.Type = schema.KindMixed
			return
		}
		if ref := items.Ref(); ref != "" {
			field.Type = w.refTarget(ref)
			return
		}
		w.scalarOrChild(field, childName+"Item", items)
	default:
		w.scalarOrChild(field, childName, node)
	}
}

func (w *treeWalker) scalarOrChild(field *schema.Field, childName string, node treeNode) {
	typ := primaryType(node)
	if typ == "object" || (typ == "" && len(node.Properties()) > 0) {
		if len(node.Properties()) == 0 {
			field.Type = schema.KindMixed
			return
		}
		w.model(childName, node)
		field.Type = childName
		return
	}

	if values := node.Enum(); len(values) > 0 {
		field.Type = schema.KindString
		field.Enum = values
		return
	}
	switch node.Format() {
	case "date", "date-time", "time":
		field.Type = schema.KindDate
		return
	}
	if typ == "" {
		field.Type = schema.KindString
		return
	}
	field.Type = lookupKind(treeKinds, typ)
}

// refTarget resolves a $ref to a known model name, or degrades to string
func (w *treeWalker) refTarget(ref string) string {
	name := ref[strings.LastIndexByte(ref, '/')+1:]
	if w.names[name] {
		return name
	}
	return schema.KindString
}

// primaryType returns the first non-null declared type
func primaryType(node treeNode) string {
	for _, t := range node.Types() {
		if t != "null" {
			return t
		}
	}
	return ""
}

// yamlNode adapts a decoded JSON or YAML mapping to treeNode
type yamlNode struct {
	n *yaml.Node
}

func (y yamlNode) value(key string) *yaml.Node {
	return mappingValue(y.n, key)
}

func (y yamlNode) Ref() string {
	if v := y.value("$ref"); v != nil {
		return v.Value
	}
	return ""
}

func (y yamlNode) Types() []string {
	v := y.value("type")
	if v == nil {
		return nil
	}
	if v.Kind == yaml.SequenceNode {
		return scalarValues(v)
	}
	return []string{v.Value}
}

func (y yamlNode) Format() string {
	if v := y.value("format"); v != nil {
		return v.Value
	}
	return ""
}

func (y yamlNode) Properties() []treeProperty {
	props := y.value("properties")
	if props == nil || props.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]treeProperty, 0, len(props.Content)/2)
	for i := 0; i+1 < len(props.Content); i += 2 {
		out = append(out, treeProperty{Name: props.Content[i].Value, Node: yamlNode{props.Content[i+1]}})
	}
	return out
}

func (y yamlNode) Items() treeNode {
	v := y.value("items")
	if v == nil {
		return nil
	}
	if v.Kind == yaml.SequenceNode {
		if len(v.Content) == 0 {
			return nil
		}
		v = v.Content[0]
	}
	return yamlNode{v}
}

func (y yamlNode) Required() []string {
	return scalarValues(y.value("required"))
}

func (y yamlNode) Enum() []string {
	return scalarValues(y.value("enum"))
}

func (y yamlNode) Default() (string, bool) {
	v := y.value("default")
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// mappingValue returns the value stored under key in a mapping node
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func mappingKeys(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

func scalarValues(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	var out []string
	for _, c := range n.Content {
		if c.Kind == yaml.ScalarNode {
			out = append(out, c.Value)
		}
	}
	return out
}

// decodeDocument parses JSON or YAML text into its root node
func decodeDocument(text string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	return &doc, nil
}
