package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/iancoleman/strcase"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// ResponseKeyAll disables narrowing of the response body.
const ResponseKeyAll = "all"

// DefaultRequestTemplate renders a request function from a RequestInfo.
const DefaultRequestTemplate = `
{{.Comment}}
export const {{.FnName}} = ({{.Params}}) => {
  return request.{{.Method}}<any, API<{{.ResTypeName}}>>(` + "`{{.Path}}`" + `{{.ParamsData}})
}
`

// DefaultInterfaceComment renders the comment placed above each generated
// type. Fields: .Title, .Section.
const DefaultInterfaceComment = `
/**
 * {{.Title}} - {{.Section}}
 */
`

// DefaultAPIComment renders the comment placed above the request function.
// Fields: .Title, .URL.
const DefaultAPIComment = `/**
 * {{.Title}}
 * @url {{.URL}}
 */`

// Config represents the complete configuration for yapigen
type Config struct {
	Naming   NamingConfig   `yaml:"naming"`
	Response ResponseConfig `yaml:"response"`
	Comments CommentsConfig `yaml:"comments"`
	Request  RequestConfig  `yaml:"request"`
	Output   OutputConfig   `yaml:"output"`
	Limits   LimitsConfig   `yaml:"limits"`
	Dev      DevConfig      `yaml:"dev"`
}

// NamingConfig controls generated type names
type NamingConfig struct {
	QuerySuffix  string `yaml:"query_suffix" env:"YAPIGEN_QUERY_SUFFIX"`
	ParamsSuffix string `yaml:"params_suffix" env:"YAPIGEN_PARAMS_SUFFIX"`
	ResSuffix    string `yaml:"res_suffix" env:"YAPIGEN_RES_SUFFIX"`
}

// ResponseConfig controls which part of a response body is typed
type ResponseConfig struct {
	// Key is a dotted property path such as "data" or "data.list", or "all".
	Key string `yaml:"key" env:"YAPIGEN_RESPONSE_KEY"`
}

// CommentsConfig holds text/template sources for generated comments
type CommentsConfig struct {
	Interface string `yaml:"interface"`
	API       string `yaml:"api"`
}

// RequestConfig controls request function generation
type RequestConfig struct {
	Enabled      bool   `yaml:"enabled" env:"YAPIGEN_REQUEST_ENABLED"`
	Template     string `yaml:"template"`
	TemplateFile string `yaml:"template_file" env:"YAPIGEN_REQUEST_TEMPLATE_FILE"`
}

// OutputConfig controls JSON text output
type OutputConfig struct {
	Indent        int  `yaml:"indent" env:"YAPIGEN_INDENT"`
	ArrayComments bool `yaml:"array_comments" env:"YAPIGEN_ARRAY_COMMENTS"`
}

// LimitsConfig bounds recursion over input documents
type LimitsConfig struct {
	MaxDepth int `yaml:"max_depth" env:"YAPIGEN_MAX_DEPTH"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug" env:"YAPIGEN_DEBUG"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Naming: NamingConfig{
			QuerySuffix:  "Query",
			ParamsSuffix: "Params",
			ResSuffix:    "Res",
		},
		Response: ResponseConfig{
			Key: "data",
		},
		Comments: CommentsConfig{
			Interface: DefaultInterfaceComment,
			API:       DefaultAPIComment,
		},
		Request: RequestConfig{
			Enabled:  true,
			Template: DefaultRequestTemplate,
		},
		Output: OutputConfig{
			Indent:        2,
			ArrayComments: true,
		},
		Limits: LimitsConfig{
			MaxDepth: 64,
		},
	}
}

// LoadConfig loads configuration from a YAML file. Environment variables
// override file values.
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.finish(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault returns the defaults with environment overrides applied.
func LoadDefault() (*Config, error) {
	cfg := NewConfig()
	if err := cfg.finish(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path when set, otherwise the discovered config
// file, otherwise the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return LoadDefault()
	}
	return LoadConfig(path)
}

// finish applies environment overrides, loads a template file relative to
// baseDir and validates the result.
func (c *Config) finish(baseDir string) error {
	if err := cleanenv.UpdateEnv(c); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if c.Request.TemplateFile != "" {
		p := c.Request.TemplateFile
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read request template: %w", err)
		}
		c.Request.Template = string(data)
	}

	return c.Validate()
}

// Validate checks values and compiles the templates so mistakes surface at
// load time.
func (c *Config) Validate() error {
	if c.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits.max_depth must be positive, got %d", c.Limits.MaxDepth)
	}
	if c.Output.Indent < 0 {
		return fmt.Errorf("output.indent must not be negative, got %d", c.Output.Indent)
	}
	if strings.TrimSpace(c.Response.Key) == "" {
		c.Response.Key = ResponseKeyAll
	}
	templates := map[string]string{
		"comments.interface": c.Comments.Interface,
		"comments.api":       c.Comments.API,
		"request.template":   c.Request.Template,
	}
	for name, src := range templates {
		if _, err := template.New(name).Parse(src); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".yapigen.yml", ".yapigen.yaml", "yapigen.yml", "yapigen.yaml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// TypeName joins a base name and suffix into an exported type name.
func (c *Config) TypeName(base, suffix string) string {
	return strcase.ToCamel(base) + suffix
}

// IndentString returns the indentation unit for JSON output.
func (c *Config) IndentString() string {
	return strings.Repeat(" ", c.Output.Indent)
}

// ResponsePath splits the response key into property names. It returns nil
// when the whole body is wanted.
func (c *Config) ResponsePath() []string {
	key := strings.TrimSpace(c.Response.Key)
	if key == "" || key == ResponseKeyAll {
		return nil
	}
	return strings.Split(key, ".")
}
