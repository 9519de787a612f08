package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// yapigen runs the CLI with stdin and returns stdout, stderr and the exit
// error.
func yapigen(t *testing.T, stdin string, env []string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command("go", append([]string{"run", "../../main.go"}, args...)...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TestCLI_FileInputOutput tests the CLI with file input and output
func TestCLI_FileInputOutput(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"name": "John Doe",
		"*age": 30,
		"address": {
			"street": "123 Main St",
			"zip": "12345"
		},
		"phones": [
			{"type": "home", "number": "555-1234"}
		],
		"active": true
	}`
	jsonFile := filepath.Join(tempDir, "test.json")
	require.NoError(t, os.WriteFile(jsonFile, []byte(jsonContent), 0644))
	outputFile := filepath.Join(tempDir, "output.d.ts")

	_, stderr, err := yapigen(t, "", nil, "types", "-i", jsonFile, "-o", outputFile, "-n", "person")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	generated, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	expected := `interface Person {
  name?: string;
  age: number;
  address?: {
    street?: string;
    zip?: string;
  };
  phones?: {
    type?: string;
    number?: string;
  }[];
  active?: boolean;
}
`
	assert.Equal(t, expected, string(generated))
}

// TestCLI_StdinStdout tests the CLI with stdin input and stdout output
func TestCLI_StdinStdout(t *testing.T) {
	stdout, stderr, err := yapigen(t, `{"name": "Jane", "tags": ["a"]}`, nil, "mock")
	require.NoError(t, err, "CLI command failed: %s", stderr)

	assert.Equal(t, "{\n  \"name\": \"@string\",\n  \"tags|1-20\": [\n    \"@string\"\n  ]\n}\n", stdout)
}

// TestCLI_ConfigFile tests that a config file changes the output
func TestCLI_ConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), ".yapigen.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("output:\n  indent: 4\n"), 0644))

	stdout, stderr, err := yapigen(t, `{"a": {"b": 1}}`, nil, "-c", configFile, "json", "-t")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Equal(t, "{\n    \"a\": {\n        \"b\": \"integer\"\n    }\n}\n", stdout)
}

// TestCLI_EnvOverride tests environment overrides
func TestCLI_EnvOverride(t *testing.T) {
	stdout, stderr, err := yapigen(t, `{"a": [1]}`, []string{"YAPIGEN_INDENT=0"}, "mock")
	require.NoError(t, err, "CLI command failed: %s", stderr)
	assert.Equal(t, "{\"a|1-20\":[\"@integer(0,1000)\"]}\n", stdout)
}

// TestCLI_InvalidJSON tests the CLI with invalid JSON input
func TestCLI_InvalidJSON(t *testing.T) {
	_, stderr, err := yapigen(t, `{"name": "Invalid JSON, "age": 30`, nil, "types")
	assert.Error(t, err, "CLI should fail with invalid JSON")
	assert.Contains(t, stderr, "JSON parsing error")
	assert.Contains(t, stderr, "For help, run: yapigen --help")
}

// TestCLI_EmptyInput tests the CLI with empty input
func TestCLI_EmptyInput(t *testing.T) {
	_, stderr, err := yapigen(t, "", nil, "infer")
	assert.Error(t, err, "CLI should fail with empty input")
	assert.Contains(t, stderr, "empty input")
}

// TestCLI_Version tests the version flag
func TestCLI_Version(t *testing.T) {
	stdout, _, err := yapigen(t, "", nil, "-v")
	require.NoError(t, err)
	assert.Contains(t, stdout, "yapigen version")
}

// TestCLI_Help tests the help output
func TestCLI_Help(t *testing.T) {
	stdout, _, err := yapigen(t, "", nil, "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Usage:")
	for _, cmd := range []string{"infer", "table", "json", "types", "mock", "api", "describe"} {
		assert.Contains(t, stdout, cmd)
	}
	assert.Contains(t, stdout, "-c, --config")
}
