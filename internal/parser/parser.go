package parser

import (
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/mcncl/yapigen/internal/errors" // Custom errors package
	"github.com/mcncl/yapigen/internal/models"
)

// DefaultMaxDepth bounds structural nesting when no explicit limit is
// configured.
const DefaultMaxDepth = 64

// Parser decodes JSON documents and fails once raw nesting passes the
// bound derived from its structural depth limit.
type Parser struct {
	maxNesting int
}

// NewParser creates a Parser for documents whose structure is at most
// maxDepth levels deep. A schema member sits two JSON levels below its
// parent (properties, then the member), so raw nesting is bounded by
// 2*maxDepth+2. A maxDepth of zero or less uses DefaultMaxDepth.
func NewParser(maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Parser{maxNesting: 2*maxDepth + 2}
}

var defaultParser = NewParser(DefaultMaxDepth)

// Parse converts JSON data from an io.Reader into an IntermediateRepresentation.
// Object keys keep their document order.
func Parse(reader io.Reader) (models.IntermediateRepresentation, error) {
	return defaultParser.Parse(reader)
}

// Parse converts JSON data from an io.Reader into an IntermediateRepresentation.
func (p *Parser) Parse(reader io.Reader) (models.IntermediateRepresentation, error) {
	d := &decoder{dec: gojson.NewDecoder(reader), maxNesting: p.maxNesting}
	d.dec.UseNumber()

	rootValue, err := d.value(0)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return models.IntermediateRepresentation{}, err
		}
		if stderrors.Is(err, io.EOF) {
			return models.IntermediateRepresentation{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		var syntaxError *gojson.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return models.IntermediateRepresentation{}, errors.NewParsingError(
				fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
				errors.ErrInvalidJSON,
			)
		}
		if stderrors.Is(err, errors.ErrInvalidJSON) {
			return models.IntermediateRepresentation{}, errors.NewParsingError(err.Error(), errors.ErrInvalidJSON)
		}
		return models.IntermediateRepresentation{}, errors.NewParsingError("failed to decode JSON", err)
	}

	// Anything but whitespace after the first value is rejected.
	if _, err := d.dec.Token(); err == nil {
		return models.IntermediateRepresentation{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	} else if !stderrors.Is(err, io.EOF) {
		return models.IntermediateRepresentation{}, errors.NewParsingError("invalid trailing data after first JSON value", err)
	}

	return newIR(rootValue), nil
}

func newIR(root models.JSONValue) models.IntermediateRepresentation {
	_, isArray := root.(models.JSONArray)
	return models.IntermediateRepresentation{
		Root:        root,
		RootIsArray: isArray,
	}
}

func depthError(maxNesting int) error {
	return errors.NewRecursionError(
		fmt.Sprintf("document is nested deeper than %d levels", maxNesting),
		errors.ErrDepthExceeded,
	)
}

type decoder struct {
	dec        *gojson.Decoder
	maxNesting int
}

// value reads one complete JSON value from the token stream.
func (d *decoder) value(depth int) (models.JSONValue, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}
	return d.from(tok, depth)
}

func (d *decoder) from(tok gojson.Token, depth int) (models.JSONValue, error) {
	if depth > d.maxNesting {
		return nil, depthError(d.maxNesting)
	}
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			obj := models.NewJSONObject()
			for d.dec.More() {
				keyTok, err := d.dec.Token()
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("%w: object key must be a string, got %T", errors.ErrInvalidJSON, keyTok)
				}
				val, err := d.value(depth + 1)
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				obj.Set(key, val)
			}
			if _, err := d.dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return obj, nil
		case '[':
			arr := models.JSONArray{}
			for d.dec.More() {
				val, err := d.value(depth + 1)
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				arr = append(arr, val)
			}
			if _, err := d.dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("%w: unexpected delimiter %q", errors.ErrInvalidJSON, rune(v))
		}
	case gojson.Number:
		return models.Number(string(v)), nil
	case string, bool, nil:
		return v, nil
	case float64:
		return models.Number(fmt.Sprint(v)), nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %T", errors.ErrInvalidJSON, tok)
	}
}

// unexpectedEOF turns an EOF inside a container into a syntax failure so it
// is not mistaken for empty input.
func unexpectedEOF(err error) error {
	if stderrors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of input", errors.ErrInvalidJSON)
	}
	return err
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.IntermediateRepresentation, error) {
	return defaultParser.ParseString(jsonString)
}

// ParseString parses JSON from a string
func (p *Parser) ParseString(jsonString string) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	reader := strings.NewReader(jsonString)
	return p.Parse(reader)
}

// ParseLenient parses strict JSON first and falls back to a relaxed reading
// for hand-written documents such as `{a: 1, 'b': [1, 2]}`. The strict
// error is returned when the relaxed reading fails too.
func ParseLenient(content string) (models.IntermediateRepresentation, error) {
	return defaultParser.ParseLenient(content)
}

// ParseLenient is the package ParseLenient with this parser's depth limit.
// A document that is too deep fails without a relaxed retry.
func (p *Parser) ParseLenient(content string) (models.IntermediateRepresentation, error) {
	ir, err := p.ParseString(content)
	if err == nil || stderrors.Is(err, errors.ErrEmptyInput) || stderrors.Is(err, errors.ErrDepthExceeded) {
		return ir, err
	}
	root, yerr := parseRelaxed(content, p.maxNesting)
	if yerr != nil {
		if stderrors.Is(yerr, errors.ErrDepthExceeded) {
			return models.IntermediateRepresentation{}, yerr
		}
		return models.IntermediateRepresentation{}, err
	}
	return newIR(root), nil
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.IntermediateRepresentation, error) {
	return defaultParser.ParseFile(filePath)
}

// ParseFile parses JSON from a file path
func (p *Parser) ParseFile(filePath string) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.IntermediateRepresentation{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return p.Parse(file)
}
