// Package yapi exposes the outer entry points over a YApi interface
// description. Failures never escape: each entry point logs one warning and
// returns an empty result.
package yapi

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/formatter"
	"github.com/mcncl/yapigen/internal/generator"
	"github.com/mcncl/yapigen/internal/logging"
	"github.com/mcncl/yapigen/internal/mock"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/projector"
	"github.com/mcncl/yapigen/internal/schema"
	"github.com/mcncl/yapigen/internal/table"
)

// StatusDone is the status YApi reports for finished interfaces.
const StatusDone = "done"

// MockSchema is a directive tree tagged with the interface it came from.
type MockSchema struct {
	ID        int              `json:"id"`
	ProjectID int              `json:"projectid"`
	Title     string           `json:"title"`
	Path      string           `json:"path"`
	Method    string           `json:"method"`
	Schema    models.JSONValue `json:"schema"`
}

// Service wires the transformation components together.
type Service struct {
	cfg       *config.Config
	logger    *zap.Logger
	generator *generator.Generator
	builder   *table.Builder
	mocker    *mock.Mocker
	formatter *formatter.Formatter
}

// NewService creates a Service. expander may be nil when no mock data is
// needed.
func NewService(cfg *config.Config, logger *zap.Logger, expander mock.Expander) (*Service, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger = logging.OrNop(logger)
	gen, err := generator.NewGeneratorWithConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		generator: gen,
		builder:   table.NewBuilder(cfg, logger),
		mocker:    mock.NewMocker(cfg, expander, logger),
		formatter: formatter.NewFormatterWithConfig(cfg),
	}, nil
}

func (s *Service) warn(msg string, info models.InterfaceInfo, err error) {
	s.logger.Warn(msg,
		zap.Int("id", info.ID),
		zap.String("path", info.Path),
		zap.Error(err),
	)
}

// responseSchema reads the response body as a schema, or infers one when
// the body is a sample.
func (s *Service) responseSchema(info models.InterfaceInfo) (*schema.Node, error) {
	isSchema := info.ResBodyType == models.BodyTypeJSON && info.ResBodyIsJSONSchema
	return s.generator.Schema(info.ResBody, isSchema)
}

// ResponseTemplate returns the types-only template of the whole response
// body, or nil when the body cannot be read.
func (s *Service) ResponseTemplate(info models.InterfaceInfo) models.JSONValue {
	node, err := s.responseSchema(info)
	if err != nil {
		s.warn("failed to read response body", info, err)
		return nil
	}
	rows, err := s.builder.Normalize(node)
	if err != nil {
		s.warn("failed to normalize response body", info, err)
		return nil
	}
	return projector.Project(rows, projector.Options{TypesOnly: true})
}

// MockSchema builds the directive tree of the response template.
func (s *Service) MockSchema(info models.InterfaceInfo) *MockSchema {
	tmpl := s.ResponseTemplate(info)
	if tmpl == nil {
		return nil
	}
	tree, err := s.mocker.Directives(tmpl)
	if err != nil {
		s.warn("failed to build mock schema", info, err)
		return nil
	}
	return &MockSchema{
		ID:        info.ID,
		ProjectID: info.ProjectID,
		Title:     info.Title,
		Path:      info.Path,
		Method:    info.Method,
		Schema:    tree,
	}
}

// MockData expands the response template into concrete data.
func (s *Service) MockData(ctx context.Context, info models.InterfaceInfo) models.JSONValue {
	tmpl := s.ResponseTemplate(info)
	if tmpl == nil {
		return nil
	}
	out, err := s.mocker.RunJSONMock(ctx, tmpl)
	if err != nil {
		s.warn("failed to expand mock data", info, err)
		return nil
	}
	return out
}

// BodyDescription renders a schema body as annotated JSON text with array
// descriptions as comments. It returns "" when the body cannot be read.
func (s *Service) BodyDescription(body string) string {
	text, err := s.bodyDescription(body)
	if err != nil {
		s.logger.Warn("failed to describe body", zap.Error(err))
		return ""
	}
	return text
}

func (s *Service) bodyDescription(body string) (string, error) {
	node, err := schema.ParseString(body, s.cfg.Limits.MaxDepth)
	if err != nil {
		return "", err
	}
	rows, err := s.builder.Normalize(node)
	if err != nil {
		return "", err
	}
	value := projector.Project(rows, projector.Options{ArrayComments: s.cfg.Output.ArrayComments})
	return s.formatter.Format(value)
}

// APICode generates the declarations and request function of an interface.
func (s *Service) APICode(info models.InterfaceInfo) *generator.APICode {
	code, err := s.generator.GenerateAPI(info)
	if err != nil {
		s.warn("failed to generate api code", info, err)
		return nil
	}
	return code
}

// Describe renders a readable overview of an interface: its route, request
// parameters and bodies, and response.
func (s *Service) Describe(info models.InterfaceInfo) string {
	var b strings.Builder
	status := "undone"
	if info.Status == StatusDone {
		status = "done"
	}
	fmt.Fprintf(&b, "[title]: %s\n", info.Title)
	fmt.Fprintf(&b, "[path]: %s\n", info.Path)
	fmt.Fprintf(&b, "[method]: %s\n", info.Method)
	fmt.Fprintf(&b, "[status]: %s\n", status)
	fmt.Fprintf(&b, "[doc]: %s\n", generator.APIURL(info))

	b.WriteString("\n>>> request\n")
	s.describeParams(&b, "Url", info.ReqParams)
	s.describeParams(&b, "Query", info.ReqQuery)

	switch info.ReqBodyType {
	case models.BodyTypeForm:
		s.describeParams(&b, "Body-"+info.ReqBodyType, info.ReqBodyForm)
	case models.BodyTypeJSON:
		if info.ReqBodyOther != "" && info.ReqBodyIsJSONSchema {
			s.describeText(&b, "Body-"+info.ReqBodyType, s.BodyDescription(info.ReqBodyOther))
		}
	default:
		if info.ReqBodyOther != "" {
			s.describeText(&b, "Body-"+info.ReqBodyType, info.ReqBodyOther)
		}
	}

	b.WriteString("\n>>> response\n\n")
	if info.ResBodyType == models.BodyTypeJSON && info.ResBodyIsJSONSchema {
		b.WriteString(s.BodyDescription(info.ResBody))
	} else {
		b.WriteString(info.ResBody)
	}
	b.WriteString("\n")
	return b.String()
}

func (s *Service) describeParams(b *strings.Builder, title string, params []models.Param) {
	if len(params) == 0 {
		return
	}
	obj := models.NewJSONObject()
	for _, p := range params {
		obj.Set(p.Name, p.Desc)
	}
	text, err := s.formatter.Format(obj)
	if err != nil {
		s.logger.Warn("failed to format parameters", zap.String("section", title), zap.Error(err))
		return
	}
	s.describeText(b, title, text)
}

func (s *Service) describeText(b *strings.Builder, title, text string) {
	fmt.Fprintf(b, "\n--- %s ---\n\n%s\n", title, text)
}
