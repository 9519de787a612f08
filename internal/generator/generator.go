package generator

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	"github.com/mcncl/yapigen/internal/analyzer"
	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/logging"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/parser"
	"github.com/mcncl/yapigen/internal/schema"
)

// Comment sections passed to the interface comment template.
const (
	SectionRequest  = "request"
	SectionResponse = "response"
)

var pathSplitRegex = regexp.MustCompile(`[/.]`)

// APICode holds the generated blocks for one interface. Empty strings mean
// the interface has no such part.
type APICode struct {
	Name           string
	ReqQueryType   string
	ReqBodyType    string
	ResBodyType    string
	RequestContent string
}

// String joins the blocks in output order.
func (c *APICode) String() string {
	out := c.RequestContent + c.ReqQueryType + c.ReqBodyType + c.ResBodyType
	return strings.TrimSpace(out) + "\n"
}

// Generator is responsible for generating declaration code from YApi
// interface descriptions
type Generator struct {
	cfg              *config.Config
	logger           *zap.Logger
	analyzer         *analyzer.Analyzer
	request          RequestTemplate
	interfaceComment *template.Template
	apiComment       *template.Template
}

// NewGenerator creates a new Generator instance with default settings
func NewGenerator() *Generator {
	g, err := NewGeneratorWithConfig(config.NewConfig(), nil)
	if err != nil {
		panic(fmt.Sprintf("default generator config is invalid: %v", err))
	}
	return g
}

// NewGeneratorWithConfig creates a Generator from configuration.
func NewGeneratorWithConfig(cfg *config.Config, logger *zap.Logger) (*Generator, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	g := &Generator{
		cfg:      cfg,
		logger:   logging.OrNop(logger),
		analyzer: analyzer.NewAnalyzerWithConfig(cfg, logger),
	}

	var err error
	if g.interfaceComment, err = parseComment("interface", cfg.Comments.Interface); err != nil {
		return nil, err
	}
	if g.apiComment, err = parseComment("api", cfg.Comments.API); err != nil {
		return nil, err
	}
	if cfg.Request.Enabled {
		tmpl, err := NewTextTemplate(cfg.Request.Template)
		if err != nil {
			return nil, err
		}
		g.request = tmpl
	}
	return g, nil
}

func parseComment(name, src string) (*template.Template, error) {
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, errors.NewGenerateError(
			fmt.Sprintf("failed to parse %s comment template", name),
			fmt.Errorf("%w: %v", errors.ErrInvalidTemplate, err),
		)
	}
	return tmpl, nil
}

// WithRequestTemplate replaces the request template. A nil template turns
// request generation off.
func (g *Generator) WithRequestTemplate(t RequestTemplate) *Generator {
	g.request = t
	return g
}

// APIName derives a lower camel case name from the last two path segments.
func APIName(path string) string {
	var segs []string
	for _, s := range pathSplitRegex.Split(path, -1) {
		s = strings.NewReplacer("{", "", "}", "").Replace(s)
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return "api"
	}
	if len(segs) > 2 {
		segs = segs[len(segs)-2:]
	}
	return strcase.ToLowerCamel(strings.Join(segs, "_"))
}

// APIURL returns the documentation page path of an interface.
func APIURL(info models.InterfaceInfo) string {
	return fmt.Sprintf("/project/%d/interface/api/%d", info.ProjectID, info.ID)
}

// GenerateAPI renders the query, body and response declarations of an
// interface and, when enabled, its request function.
func (g *Generator) GenerateAPI(info models.InterfaceInfo) (*APICode, error) {
	name := APIName(info.Path)
	code := &APICode{Name: name}

	queryName := g.cfg.TypeName(name, g.cfg.Naming.QuerySuffix)
	bodyName := g.cfg.TypeName(name, g.cfg.Naming.ParamsSuffix)
	resName := g.cfg.TypeName(name, g.cfg.Naming.ResSuffix)

	reqComment, err := g.sectionComment(info, SectionRequest)
	if err != nil {
		return nil, err
	}

	if len(info.ReqQuery) > 0 {
		code.ReqQueryType = reqComment + QueryDeclaration(queryName, info.ReqQuery)
	}

	switch info.ReqBodyType {
	case models.BodyTypeForm:
		if len(info.ReqBodyForm) > 0 {
			code.ReqBodyType = reqComment + QueryDeclaration(bodyName, info.ReqBodyForm)
		}
	case models.BodyTypeJSON:
		if strings.TrimSpace(info.ReqBodyOther) != "" {
			decl, err := g.documentDeclaration(bodyName, info.ReqBodyOther, info.ReqBodyIsJSONSchema, nil)
			if err != nil {
				return nil, errors.NewGenerateError("failed to generate request body type", err)
			}
			code.ReqBodyType = reqComment + decl
		}
	}

	if strings.TrimSpace(info.ResBody) != "" {
		resComment, err := g.sectionComment(info, SectionResponse)
		if err != nil {
			return nil, err
		}
		decl, err := g.documentDeclaration(resName, info.ResBody, info.ResBodyIsJSONSchema, g.cfg.ResponsePath())
		if err != nil {
			return nil, errors.NewGenerateError("failed to generate response body type", err)
		}
		code.ResBodyType = resComment + decl
	}

	if g.request != nil {
		req := RequestInfo{
			FnName:           name,
			Method:           strings.ToLower(info.Method),
			ReqQueryType:     code.ReqQueryType,
			ReqQueryTypeName: queryName,
			ReqBodyType:      code.ReqBodyType,
			ReqBodyTypeName:  bodyName,
			ResBodyType:      code.ResBodyType,
			ResTypeName:      resName,
			APIPath:          info.Path,
		}
		if code.ResBodyType == "" {
			req.ResTypeName = "any"
		}
		if req.Comment, err = g.execute(g.apiComment, apiCommentData{
			Title:  info.Title,
			URL:    APIURL(info),
			Method: info.Method,
			Path:   info.Path,
			Desc:   info.Desc,
		}); err != nil {
			return nil, err
		}
		req.Path, req.PathParams = rewritePath(info.Path)
		req.fillParams()

		content, err := g.request.Render(req)
		if err != nil {
			return nil, err
		}
		code.RequestContent = content
	}

	g.logger.Debug("generated api code", zap.String("name", name), zap.String("path", info.Path))
	return code, nil
}

type sectionCommentData struct {
	Title   string
	Section string
}

type apiCommentData struct {
	Title  string
	URL    string
	Method string
	Path   string
	Desc   string
}

func (g *Generator) sectionComment(info models.InterfaceInfo, section string) (string, error) {
	return g.execute(g.interfaceComment, sectionCommentData{Title: info.Title, Section: section})
}

func (g *Generator) execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.NewGenerateError(fmt.Sprintf("failed to execute %s template", tmpl.Name()), err)
	}
	return buf.String(), nil
}

// documentDeclaration parses a body document, narrows it along path and
// renders it under name. Documents that are not schemas are read as
// samples.
func (g *Generator) documentDeclaration(name, doc string, isSchema bool, path []string) (string, error) {
	node, err := g.Schema(doc, isSchema)
	if err != nil {
		return "", err
	}
	node = Narrow(node, path)
	typeNode, err := FromSchema(node, g.cfg.Limits.MaxDepth)
	if err != nil {
		return "", err
	}
	return Declaration(name, typeNode), nil
}

// Schema reads a body document as a schema, inferring one from a sample
// when isSchema is false.
func (g *Generator) Schema(doc string, isSchema bool) (*schema.Node, error) {
	if isSchema {
		return schema.ParseString(doc, g.cfg.Limits.MaxDepth)
	}
	ir, err := parser.NewParser(g.cfg.Limits.MaxDepth).ParseLenient(doc)
	if err != nil {
		return nil, err
	}
	return g.analyzer.Infer(ir.Root)
}

// Narrow follows path through object properties. A missing segment leaves
// the current node in place.
func Narrow(n *schema.Node, path []string) *schema.Node {
	for _, seg := range path {
		if p, ok := n.Property(seg); ok {
			n = p
		}
	}
	return n
}
