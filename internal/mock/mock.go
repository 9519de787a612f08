package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/logging"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/schema"
)

// Directive tokens understood by the expansion engine.
const (
	DirectiveString  = "@string"
	DirectiveNumber  = "@float(0,1000,0,3)"
	DirectiveBoolean = "@boolean"
	DirectiveInteger = "@integer(0,1000)"
	DirectiveDate    = "@date"
)

// RepeatSuffix is appended to array-valued keys so the engine repeats the
// single template element between one and twenty times.
const RepeatSuffix = "|1-20"

// Date-like strings, most specific first.
var (
	rfc3339Regex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
	iso8601Regex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?([+-]\d{2}:\d{2}|Z|[+-]\d{4})?$`)
	dateOnlyRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`)
)

// keywordDirectives lets a types-only template stand in for a sample.
var keywordDirectives = map[string]string{
	"string":  DirectiveString,
	"number":  DirectiveNumber,
	"integer": DirectiveInteger,
	"boolean": DirectiveBoolean,
	"date":    DirectiveDate,
	"long":    DirectiveInteger,
}

// Expander turns a directive tree into concrete data.
type Expander interface {
	Expand(ctx context.Context, template models.JSONValue) (models.JSONValue, error)
}

// ExpanderFunc adapts a function to Expander.
type ExpanderFunc func(ctx context.Context, template models.JSONValue) (models.JSONValue, error)

// Expand calls f.
func (f ExpanderFunc) Expand(ctx context.Context, template models.JSONValue) (models.JSONValue, error) {
	return f(ctx, template)
}

// Mocker builds directive trees and hands them to an Expander.
type Mocker struct {
	expander Expander
	maxDepth int
	logger   *zap.Logger
}

// NewMocker creates a Mocker. A nil expander is allowed; only the Run
// methods need one.
func NewMocker(cfg *config.Config, expander Expander, logger *zap.Logger) *Mocker {
	maxDepth := schema.DefaultMaxDepth
	if cfg != nil && cfg.Limits.MaxDepth > 0 {
		maxDepth = cfg.Limits.MaxDepth
	}
	return &Mocker{
		expander: expander,
		maxDepth: maxDepth,
		logger:   logging.OrNop(logger),
	}
}

// Directives mirrors a sample with default limits.
func Directives(v models.JSONValue) (models.JSONValue, error) {
	return NewMocker(nil, nil, nil).Directives(v)
}

// Directives mirrors v, replacing every scalar leaf with its directive and
// suffixing array-valued keys with RepeatSuffix. Object key order is kept.
func (m *Mocker) Directives(v models.JSONValue) (models.JSONValue, error) {
	return m.directives(v, "$", 0)
}

func (m *Mocker) directives(v models.JSONValue, path string, depth int) (models.JSONValue, error) {
	if depth > m.maxDepth {
		return nil, errors.NewRecursionError(
			fmt.Sprintf("sample at %s is nested deeper than %d levels", path, m.maxDepth),
			errors.ErrDepthExceeded,
		)
	}

	switch val := v.(type) {
	case *models.JSONObject:
		out := models.NewJSONObject()
		for _, key := range val.Keys() {
			raw, _ := val.Get(key)
			child, err := m.directives(raw, path+"."+key, depth+1)
			if err != nil {
				return nil, err
			}
			if _, ok := raw.(models.JSONArray); ok {
				key += RepeatSuffix
			}
			out.Set(key, child)
		}
		return out, nil
	case models.JSONArray:
		if len(val) == 0 {
			return models.JSONArray{}, nil
		}
		item, err := m.directives(val[0], path+"[0]", depth+1)
		if err != nil {
			return nil, err
		}
		return models.JSONArray{item}, nil
	case nil:
		return nil, nil
	default:
		return directive(val), nil
	}
}

// directive maps one scalar to its token.
func directive(v models.JSONValue) string {
	switch val := v.(type) {
	case bool:
		return DirectiveBoolean
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return DirectiveInteger
		}
		return DirectiveNumber
	case int, int64:
		return DirectiveInteger
	case float64:
		if val == float64(int64(val)) {
			return DirectiveInteger
		}
		return DirectiveNumber
	case string:
		if d, ok := keywordDirectives[val]; ok {
			return d
		}
		if isDate(val) {
			return DirectiveDate
		}
		return DirectiveString
	default:
		return DirectiveString
	}
}

func isDate(s string) bool {
	return rfc3339Regex.MatchString(s) ||
		iso8601Regex.MatchString(s) ||
		dateOnlyRegex.MatchString(s) ||
		dateTimeRegex.MatchString(s)
}

// RunJSONMock builds the directive tree of a sample and expands it.
func (m *Mocker) RunJSONMock(ctx context.Context, sample models.JSONValue) (models.JSONValue, error) {
	tree, err := m.Directives(sample)
	if err != nil {
		return nil, err
	}
	return m.RunSchemaMock(ctx, tree)
}

// RunSchemaMock expands an already built directive tree.
func (m *Mocker) RunSchemaMock(ctx context.Context, template models.JSONValue) (models.JSONValue, error) {
	if m.expander == nil {
		return nil, errors.NewGenerateError("cannot expand mock template", errors.ErrNoExpander)
	}
	out, err := m.expander.Expand(ctx, template)
	if err != nil {
		return nil, errors.NewGenerateError("mock expansion failed", err)
	}
	m.logger.Debug("expanded mock template")
	return out, nil
}
