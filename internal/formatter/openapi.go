package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemaconv/internal/schema"
)

const openAPIRefPrefix = "#/components/schemas/"

// OpenAPIFormatter renders models as an OpenAPI 3.0 document with CRUD paths
type OpenAPIFormatter struct {
	writer io.Writer
	opts   Options
}

// NewOpenAPIFormatter creates a new OpenAPI formatter
func NewOpenAPIFormatter(w io.Writer, opts Options) *OpenAPIFormatter {
	return &OpenAPIFormatter{writer: w, opts: opts}
}

// Format writes the document as JSON, or YAML when Options.YAML is set
func (f *OpenAPIFormatter) Format(models []schema.Model) error {
	doc := f.document(models)

	if !f.opts.YAML {
		return writeJSON(f.writer, doc)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert OpenAPI document to YAML: %w", err)
	}
	blockStyle(&node)

	writeHeader(f.writer, f.opts, "#", "OpenAPI document generated by schemaconv")
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("failed to write OpenAPI YAML: %w", err)
	}
	return enc.Close()
}

func (f *OpenAPIFormatter) document(models []schema.Model) *openapi3.T {
	description := "API schema generated by schemaconv"
	if !f.opts.GeneratedAt.IsZero() {
		description += ". " + generatedOn(f.opts)
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "Generated API",
			Version:     "1.0.0",
			Description: description,
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}

	set := f.opts.modelSet(models)
	for _, m := range models {
		name := ident(m.Name)
		doc.Components.Schemas[name] = openAPIModel(m, set).NewRef()
		addCRUDPaths(doc.Paths, name)
	}
	return doc
}

func openAPIModel(m schema.Model, set schema.ModelSet) *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	pk := primaryKey(m)
	for _, field := range m.Fields {
		name := ident(field.Name)
		obj.Properties[name] = openAPIProperty(field, set)
		if field.Required || field.Name == pk {
			obj.Required = append(obj.Required, name)
		}
	}
	return obj
}

func openAPIProperty(field schema.Field, set schema.ModelSet) *openapi3.SchemaRef {
	var item *openapi3.SchemaRef
	if set.IsRelation(field) {
		item = openapi3.NewSchemaRef(openAPIRefPrefix+ident(field.Type), nil)
	} else {
		s := openAPIScalar(field.Type)
		for _, v := range field.Enum {
			s.Enum = append(s.Enum, v)
		}
		if v, ok := jsonDefault(field); ok {
			s.Default = v
		}
		item = s.NewRef()
	}

	if !field.IsArray {
		return item
	}
	arr := openapi3.NewArraySchema()
	arr.Items = item
	return arr.NewRef()
}

func openAPIScalar(kind string) *openapi3.Schema {
	switch kind {
	case schema.KindNumber:
		return openapi3.NewIntegerSchema()
	case schema.KindFloat:
		return openapi3.NewFloat64Schema()
	case schema.KindBoolean:
		return openapi3.NewBoolSchema()
	case schema.KindDate:
		return openapi3.NewDateTimeSchema()
	case schema.KindMixed:
		return openapi3.NewObjectSchema()
	}
	return openapi3.NewStringSchema()
}

// addCRUDPaths registers list, create, read, update and delete operations for a model
func addCRUDPaths(paths *openapi3.Paths, name string) {
	ref := openapi3.NewSchemaRef(openAPIRefPrefix+name, nil)
	list := openapi3.NewArraySchema()
	list.Items = ref
	collection := "/" + strings.ToLower(name) + "s"

	idParam := openapi3.Parameters{{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())}}
	body := &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchemaRef(ref).WithRequired(true)}

	paths.Set(collection, &openapi3.PathItem{
		Get:  operation("list"+name+"s", "List "+name+" records", http.StatusOK, list.NewRef()),
		Post: withBody(operation("create"+name, "Create a "+name, http.StatusCreated, ref), body),
	})
	paths.Set(collection+"/{id}", &openapi3.PathItem{
		Parameters: idParam,
		Get:        operation("get"+name, "Get a "+name+" by id", http.StatusOK, ref),
		Put:        withBody(operation("update"+name, "Update a "+name, http.StatusOK, ref), body),
		Delete:     operation("delete"+name, "Delete a "+name, http.StatusNoContent, nil),
	})
}

func operation(id, summary string, status int, result *openapi3.SchemaRef) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary
	resp := openapi3.NewResponse().WithDescription(http.StatusText(status))
	if result != nil {
		resp = resp.WithJSONSchemaRef(result)
	}
	op.Responses = openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{Value: resp}))
	return op
}

func withBody(op *openapi3.Operation, body *openapi3.RequestBodyRef) *openapi3.Operation {
	op.RequestBody = body
	return op
}

// blockStyle clears the flow and quoting styles a JSON-decoded node carries
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
