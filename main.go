package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mcncl/yapigen/internal/analyzer"
	"github.com/mcncl/yapigen/internal/config"
	"github.com/mcncl/yapigen/internal/errors"
	"github.com/mcncl/yapigen/internal/formatter"
	"github.com/mcncl/yapigen/internal/generator"
	"github.com/mcncl/yapigen/internal/logging"
	"github.com/mcncl/yapigen/internal/mock"
	"github.com/mcncl/yapigen/internal/models"
	"github.com/mcncl/yapigen/internal/parser"
	"github.com/mcncl/yapigen/internal/projector"
	"github.com/mcncl/yapigen/internal/schema"
	"github.com/mcncl/yapigen/internal/table"
	"github.com/mcncl/yapigen/internal/yapi"
)

// Version information
const (
	Version = "0.1.0"
)

// Document read modes
const (
	ModeAuto   = "auto"
	ModeSchema = "schema"
	ModeSample = "sample"
)

// CLI defines the command-line interface
type CLI struct {
	Config  string           `help:"Path to config file. Defaults to .yapigen.yml in the current directory or a parent." short:"c" type:"path"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Infer    InferCmd    `cmd:"" help:"Infer a schema from a JSON sample."`
	Table    TableCmd    `cmd:"" help:"Print the normalized table tree of a document."`
	JSON     JSONCmd     `cmd:"" name:"json" help:"Print the JSON template of a document."`
	Types    TypesCmd    `cmd:"" help:"Print the TypeScript declaration of a document."`
	Mock     MockCmd     `cmd:"" help:"Print the mock directive tree of a JSON sample."`
	API      APICmd      `cmd:"" name:"api" help:"Generate request code from YApi interface descriptions."`
	Describe DescribeCmd `cmd:"" help:"Print a readable overview of a YApi interface description."`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *zap.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// IOFlags select where a command reads and writes.
type IOFlags struct {
	Input  string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	Output string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
}

// DocumentFlags select a schema or sample document.
type DocumentFlags struct {
	IOFlags `embed:""`
	Mode    string `help:"How to read the document: auto, schema or sample." enum:"auto,schema,sample" default:"auto"`
}

// InferCmd infers a schema from a sample.
type InferCmd struct {
	IOFlags `embed:""`
}

// Run executes the command
func (c *InferCmd) Run(ctx *Context) error {
	ir, err := readDocument(ctx, c.Input)
	if err != nil {
		return err
	}
	node, err := analyzer.NewAnalyzerWithConfig(ctx.Config, ctx.Logger).Infer(ir.Root)
	if err != nil {
		return err
	}
	return writeValue(ctx, c.Output, node.Value(), false)
}

// TableCmd prints normalized rows.
type TableCmd struct {
	DocumentFlags `embed:""`
}

// Run executes the command
func (c *TableCmd) Run(ctx *Context) error {
	rows, err := loadRows(ctx, c.DocumentFlags)
	if err != nil {
		return err
	}
	out, err := gojson.MarshalIndent(rows, "", ctx.Config.IndentString())
	if err != nil {
		return errors.NewFormatError("failed to encode table", err)
	}
	return writeOutput(ctx, c.Output, string(out))
}

// JSONCmd prints the JSON template.
type JSONCmd struct {
	DocumentFlags `embed:""`
	TypesOnly     bool `help:"Print bare type names." short:"t"`
	NoComments    bool `help:"Leave out array description comments."`
	Strict        bool `help:"Keep comment elements as strings so the output is valid JSON."`
}

// Run executes the command
func (c *JSONCmd) Run(ctx *Context) error {
	rows, err := loadRows(ctx, c.DocumentFlags)
	if err != nil {
		return err
	}
	value := projector.Project(rows, projector.Options{
		TypesOnly:     c.TypesOnly,
		ArrayComments: ctx.Config.Output.ArrayComments && !c.NoComments,
	})
	return writeValue(ctx, c.Output, value, !c.Strict)
}

// TypesCmd prints a declaration.
type TypesCmd struct {
	DocumentFlags `embed:""`
	Name          string `help:"Name of the declared type." short:"n" default:"Root"`
}

// Run executes the command
func (c *TypesCmd) Run(ctx *Context) error {
	node, err := loadSchema(ctx, c.DocumentFlags)
	if err != nil {
		return err
	}
	typeNode, err := generator.FromSchema(node, ctx.Config.Limits.MaxDepth)
	if err != nil {
		return errors.NewGenerateError("failed to build declaration", err)
	}
	return writeOutput(ctx, c.Output, generator.Declaration(ctx.Config.TypeName(c.Name, ""), typeNode))
}

// MockCmd prints a directive tree.
type MockCmd struct {
	IOFlags   `embed:""`
	Interface bool `help:"Read a YApi interface description and mock its response body."`
}

// Run executes the command
func (c *MockCmd) Run(ctx *Context) error {
	if c.Interface {
		return c.runInterface(ctx)
	}
	ir, err := readDocument(ctx, c.Input)
	if err != nil {
		return err
	}
	tree, err := mock.NewMocker(ctx.Config, nil, ctx.Logger).Directives(ir.Root)
	if err != nil {
		return err
	}
	return writeValue(ctx, c.Output, tree, false)
}

func (c *MockCmd) runInterface(ctx *Context) error {
	svc, infos, err := loadInterfaces(ctx, c.Input)
	if err != nil {
		return err
	}
	var schemas []*yapi.MockSchema
	for _, info := range infos {
		if ms := svc.MockSchema(info); ms != nil {
			schemas = append(schemas, ms)
		}
	}
	if len(schemas) == 0 {
		return errors.NewGenerateError("no interface response could be mocked", nil)
	}
	var v any = schemas
	if len(schemas) == 1 {
		v = schemas[0]
	}
	out, err := gojson.MarshalIndent(v, "", ctx.Config.IndentString())
	if err != nil {
		return errors.NewFormatError("failed to encode mock schema", err)
	}
	return writeOutput(ctx, c.Output, string(out))
}

// APICmd generates request code.
type APICmd struct {
	IOFlags `embed:""`
}

// Run executes the command
func (c *APICmd) Run(ctx *Context) error {
	svc, infos, err := loadInterfaces(ctx, c.Input)
	if err != nil {
		return err
	}
	var blocks []string
	for _, info := range infos {
		if code := svc.APICode(info); code != nil {
			blocks = append(blocks, code.String())
		}
	}
	if len(blocks) == 0 {
		return errors.NewGenerateError("no interface could be converted", nil)
	}
	return writeOutput(ctx, c.Output, strings.Join(blocks, "\n"))
}

// DescribeCmd prints interface overviews.
type DescribeCmd struct {
	IOFlags `embed:""`
}

// Run executes the command
func (c *DescribeCmd) Run(ctx *Context) error {
	svc, infos, err := loadInterfaces(ctx, c.Input)
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(infos))
	for _, info := range infos {
		parts = append(parts, svc.Describe(info))
	}
	return writeOutput(ctx, c.Output, strings.Join(parts, "\n"))
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("yapigen"),
		kong.Description("A tool to turn YApi schemas and JSON samples into tables, templates, TypeScript and mock directives"),
		kong.UsageOnError(),
		kong.Vars{"version": "yapigen version " + Version},
	)

	ctx, err := newContext(&cli, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	err = kctx.Run(ctx)
	_ = ctx.Logger.Sync()
	if err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: yapigen --help\n")
		os.Exit(1)
	}
}

// newContext loads configuration and builds the logger.
func newContext(cli *CLI, stdin io.Reader, stdout, stderr io.Writer) (*Context, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	debug := cli.Debug || cfg.Dev.Debug
	logger, err := logging.New(debug)
	if err != nil {
		logger = zap.NewNop()
	}
	return &Context{
		Debug:  debug,
		Config: cfg,
		Logger: logger,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}, nil
}

// loadSchema reads a document and returns its schema. In auto mode an
// object carrying a type keyword is read as a schema, anything else as a
// sample.
func loadSchema(ctx *Context, flags DocumentFlags) (*schema.Node, error) {
	ir, err := readDocument(ctx, flags.Input)
	if err != nil {
		return nil, err
	}
	mode := flags.Mode
	if mode == "" || mode == ModeAuto {
		mode = ModeSample
		if obj, ok := ir.Root.(*models.JSONObject); ok && analyzer.Classify(obj) == analyzer.SchemaLiteral {
			mode = ModeSchema
		}
	}
	ctx.Logger.Debug("reading document", zap.String("mode", mode))
	if mode == ModeSchema {
		return schema.FromValue(ir.Root, ctx.Config.Limits.MaxDepth)
	}
	return analyzer.NewAnalyzerWithConfig(ctx.Config, ctx.Logger).Infer(ir.Root)
}

func loadRows(ctx *Context, flags DocumentFlags) ([]*table.Node, error) {
	node, err := loadSchema(ctx, flags)
	if err != nil {
		return nil, err
	}
	return table.NewBuilder(ctx.Config, ctx.Logger).Normalize(node)
}

// loadInterfaces reads one interface description or a list of them.
func loadInterfaces(ctx *Context, path string) (*yapi.Service, []models.InterfaceInfo, error) {
	text, err := readInput(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var infos []models.InterfaceInfo
	if strings.HasPrefix(strings.TrimSpace(text), "[") {
		err = gojson.Unmarshal([]byte(text), &infos)
	} else {
		var info models.InterfaceInfo
		err = gojson.Unmarshal([]byte(text), &info)
		infos = append(infos, info)
	}
	if err != nil {
		return nil, nil, errors.NewParsingError("failed to decode interface description", fmt.Errorf("%w: %v", errors.ErrInvalidJSON, err))
	}
	svc, err := yapi.NewService(ctx.Config, ctx.Logger, nil)
	if err != nil {
		return nil, nil, err
	}
	return svc, infos, nil
}

// readDocument parses the input leniently.
func readDocument(ctx *Context, path string) (models.IntermediateRepresentation, error) {
	text, err := readInput(ctx, path)
	if err != nil {
		return models.IntermediateRepresentation{}, err
	}
	return parser.NewParser(ctx.Config.Limits.MaxDepth).ParseLenient(text)
}

// readInput reads text from file or stdin
func readInput(ctx *Context, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.NewInputError(fmt.Sprintf("file '%s' not found", path), errors.ErrFileNotFound)
			}
			return "", errors.NewInputError(fmt.Sprintf("failed to read file '%s'", path), err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", errors.NewInputError(fmt.Sprintf("file '%s' is empty", path), errors.ErrFileEmpty)
		}
		return string(data), nil
	}

	if ctx.Stdin == nil {
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}
	if f, ok := ctx.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return "", errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			// Terminal is interactive (not piped)
			return readInteractiveInput(ctx)
		}
	}

	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// readInteractiveInput lets users paste a document and signal completion
// with Ctrl+D (EOF)
func readInteractiveInput(ctx *Context) (string, error) {
	fmt.Fprintln(ctx.Stderr, "yapigen interactive mode")
	fmt.Fprintln(ctx.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(ctx.Stdin)
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		b.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.NewInputError("error reading input", err)
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}
	return b.String(), nil
}

// writeValue formats a JSON value and writes it.
func writeValue(ctx *Context, path string, v models.JSONValue, comments bool) error {
	text, err := formatter.NewFormatterWithConfig(ctx.Config).WithComments(comments).Format(v)
	if err != nil {
		return err
	}
	return writeOutput(ctx, path, text)
}

// writeOutput writes text to file or stdout
func writeOutput(ctx *Context, path, text string) error {
	text = strings.TrimSpace(text) + "\n"
	if path != "" {
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(ctx.Stderr, "Output written to %s\n", path)
		return nil
	}
	if _, err := io.WriteString(ctx.Stdout, text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
