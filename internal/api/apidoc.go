package api

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// Document is the subset of OpenAPI 3.0 the route table can describe.
type Document struct {
	OpenAPI    string                          `json:"openapi"`
	Info       DocInfo                         `json:"info"`
	Paths      map[string]map[string]Operation `json:"paths"`
	Components Components                      `json:"components"`
	Tags       []DocTag                        `json:"tags,omitempty"`
}

type DocInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type DocTag struct {
	Name string `json:"name"`
}

type Components struct {
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes"`
}

type SecurityScheme struct {
	Type         string `json:"type"`
	Scheme       string `json:"scheme"`
	BearerFormat string `json:"bearerFormat,omitempty"`
}

type Operation struct {
	Summary     string                `json:"summary,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Parameters  []Parameter           `json:"parameters,omitempty"`
	RequestBody *RequestBody          `json:"requestBody,omitempty"`
	Responses   map[string]DocMessage `json:"responses"`
	// Security is always present: empty for public routes, Bearer otherwise.
	Security []map[string][]string `json:"security"`
}

type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
	Schema   Schema `json:"schema"`
}

type Schema struct {
	Type        string `json:"type"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
}

type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

type MediaType struct {
	Schema Schema `json:"schema"`
}

type DocMessage struct {
	Description string `json:"description"`
}

const bearerScheme = "Bearer"

var pathParam = regexp.MustCompile(`\{([^}/]+)\}`)

// BuildDocument describes every route. Authenticated operations carry the
// Bearer requirement and the 401/403 responses.
func BuildDocument(title, version string, routes []Route) *Document {
	if title == "" {
		title = "VMS Inventory API"
	}
	if version == "" {
		version = "v1"
	}
	doc := &Document{
		OpenAPI: "3.0.3",
		Info:    DocInfo{Title: title, Version: version},
		Paths:   make(map[string]map[string]Operation),
		Components: Components{SecuritySchemes: map[string]SecurityScheme{
			bearerScheme: {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		}},
	}

	tags := map[string]bool{}
	for _, rt := range routes {
		op := Operation{
			Summary:   rt.Summary,
			Responses: responsesFor(rt.Method),
			Security:  []map[string][]string{},
		}
		if rt.Tag != "" {
			op.Tags = []string{rt.Tag}
			tags[rt.Tag] = true
		}
		for _, m := range pathParam.FindAllStringSubmatch(rt.Pattern, -1) {
			op.Parameters = append(op.Parameters, Parameter{
				Name: m[1], In: "path", Required: true, Schema: Schema{Type: "integer", Format: "int64"},
			})
		}
		for _, q := range rt.Query {
			op.Parameters = append(op.Parameters, Parameter{Name: q, In: "query", Schema: Schema{Type: "integer"}})
		}
		if rt.Body != "" {
			op.RequestBody = &RequestBody{
				Required: true,
				Content: map[string]MediaType{
					"application/json": {Schema: Schema{Type: bodyType(rt.Body), Description: rt.Body}},
				},
			}
		}
		if !rt.Public {
			op.Security = []map[string][]string{{bearerScheme: {}}}
			op.Responses["401"] = DocMessage{Description: "Unauthorized"}
			op.Responses["403"] = DocMessage{Description: "Forbidden"}
		}

		if doc.Paths[rt.Pattern] == nil {
			doc.Paths[rt.Pattern] = make(map[string]Operation)
		}
		doc.Paths[rt.Pattern][strings.ToLower(rt.Method)] = op
	}

	for name := range tags {
		doc.Tags = append(doc.Tags, DocTag{Name: name})
	}
	sort.Slice(doc.Tags, func(i, j int) bool { return doc.Tags[i].Name < doc.Tags[j].Name })
	return doc
}

func responsesFor(method string) map[string]DocMessage {
	resp := map[string]DocMessage{
		"400": {Description: "Bad Request"},
		"500": {Description: "Internal Server Error"},
	}
	switch method {
	case http.MethodPut, http.MethodDelete:
		resp["204"] = DocMessage{Description: "No Content"}
		resp["404"] = DocMessage{Description: "Not Found"}
	default:
		resp["200"] = DocMessage{Description: "OK"}
	}
	return resp
}

// bodyType reads a leading "[]" in the body name as an array payload.
func bodyType(body string) string {
	if strings.HasPrefix(body, "[]") {
		return "array"
	}
	return "object"
}
