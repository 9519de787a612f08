package generator

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"

	"github.com/mcncl/yapigen/internal/errors"
)

var pathParamRegex = regexp.MustCompile(`\{([^{}]+)\}`)

// RequestInfo is the data a RequestTemplate receives.
type RequestInfo struct {
	FnName  string
	Comment string
	// Method is the lower-case HTTP verb.
	Method string

	ReqQueryType     string
	ReqQueryTypeName string
	ReqBodyType      string
	ReqBodyTypeName  string
	ResBodyType      string
	ResTypeName      string

	// APIPath is the path as documented; Path has {name} placeholders
	// rewritten to ${name}.
	APIPath    string
	Path       string
	PathParams []string

	// Params is the function parameter list and ParamsData the trailing
	// request arguments, both ready to paste into a call.
	Params     string
	ParamsData string
}

// HasQuery reports whether a query type was generated.
func (r RequestInfo) HasQuery() bool { return r.ReqQueryType != "" }

// HasBody reports whether a body type was generated.
func (r RequestInfo) HasBody() bool { return r.ReqBodyType != "" }

// RequestTemplate renders the request function block.
type RequestTemplate interface {
	Render(info RequestInfo) (string, error)
}

// RequestFunc adapts a function to RequestTemplate.
type RequestFunc func(info RequestInfo) (string, error)

// Render calls f.
func (f RequestFunc) Render(info RequestInfo) (string, error) {
	return f(info)
}

// TextTemplate is a RequestTemplate backed by text/template.
type TextTemplate struct {
	tmpl *template.Template
}

// NewTextTemplate parses src as a request template.
func NewTextTemplate(src string) (*TextTemplate, error) {
	tmpl, err := template.New("request").Parse(src)
	if err != nil {
		return nil, errors.NewGenerateError("failed to parse request template", fmt.Errorf("%w: %v", errors.ErrInvalidTemplate, err))
	}
	return &TextTemplate{tmpl: tmpl}, nil
}

// Render executes the template.
func (t *TextTemplate) Render(info RequestInfo) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, info); err != nil {
		return "", errors.NewGenerateError("failed to execute request template", err)
	}
	return buf.String(), nil
}

// rewritePath converts {name} placeholders to ${name} and returns the
// placeholder names in order of first appearance. Names that are not
// identifiers are camel-cased.
func rewritePath(path string) (string, []string) {
	var names []string
	seen := make(map[string]bool)
	rewritten := pathParamRegex.ReplaceAllStringFunc(path, func(m string) string {
		name := strings.TrimSpace(m[1 : len(m)-1])
		if !identifierRegex.MatchString(name) {
			name = strcase.ToLowerCamel(name)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return "${" + name + "}"
	})
	return rewritten, names
}

// fillParams composes Params and ParamsData from the generated types,
// method and path placeholders.
func (r *RequestInfo) fillParams() {
	var params []string
	if r.HasQuery() {
		params = append(params, "params: "+r.ReqQueryTypeName)
	}
	if r.HasBody() {
		params = append(params, "data: "+r.ReqBodyTypeName)
	}
	for _, p := range r.PathParams {
		params = append(params, p+": string")
	}
	r.Params = strings.Join(params, ", ")

	switch r.Method {
	case "post", "put", "patch":
		if !r.HasQuery() && !r.HasBody() {
			r.ParamsData = ""
			return
		}
		data := "undefined"
		if r.HasBody() {
			data = "data"
		}
		r.ParamsData = ", " + data
		if r.HasQuery() {
			r.ParamsData += ", { params }"
		}
	default:
		var parts []string
		if r.HasQuery() {
			parts = append(parts, "params")
		}
		if r.HasBody() {
			parts = append(parts, "data")
		}
		if len(parts) > 0 {
			r.ParamsData = ", { " + strings.Join(parts, ", ") + " }"
		}
	}
}
