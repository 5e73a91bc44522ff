package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates tests from any .env in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("HOME", dir)
	t.Setenv("OPENROUTER_API_KEY", "")

	c, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.DefaultProvider)
	assert.Equal(t, "deepseek-r1:14b", c.DefaultModel)
	assert.Equal(t, 0.7, c.Temperature)
	assert.Equal(t, 3, c.RetryMaxAttempts)
	assert.Equal(t, "http://127.0.0.1:11434", c.OllamaHost)
}

func TestLoadPrecedence(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_path: from-file.csv\nmax_tokens: 256\ndefault_model: llama3:latest\n"), 0o644))
	t.Setenv("GIGSTATS_MAX_TOKENS", "512")
	t.Setenv("OPENROUTER_API_KEY", "sk-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file.csv", c.DataPath)
	assert.Equal(t, "llama3:latest", c.DefaultModel)
	assert.Equal(t, 512, c.MaxTokens, "env overrides file")
	assert.Equal(t, "sk-env", c.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("HOME", dir)
	t.Setenv("GIGSTATS_DATA_PATH", "")
	require.NoError(t, os.Unsetenv("GIGSTATS_DATA_PATH"))
	t.Cleanup(func() { _ = os.Unsetenv("GIGSTATS_DATA_PATH") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GIGSTATS_DATA_PATH=dotenv.csv\n"), 0o644))

	c, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dotenv.csv", c.DataPath)
}

func TestSaveAndReload(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.yaml")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("data_path", "freelancers.csv"))
	require.NoError(t, c.Set("default_provider", "Local"))
	require.NoError(t, c.Set("retry_max_attempts", "5"))
	require.NoError(t, Save(c, path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "freelancers.csv", again.DataPath)
	assert.Equal(t, "ollama", again.DefaultProvider)
	assert.Equal(t, 5, again.RetryMaxAttempts)
}

func TestSetValidation(t *testing.T) {
	c := &Global{}
	assert.Error(t, c.Set("default_provider", "bedrock"))
	assert.Error(t, c.Set("temperature", "hot"))
	assert.Error(t, c.Set("max_tokens", "-1"))
	assert.Error(t, c.Set("nope", "1"))
	require.NoError(t, c.Set("context_tokens", "2048"))
	assert.Equal(t, 2048, c.ContextTokens)
}

func TestGet(t *testing.T) {
	c := &Global{APIKey: "sk-or-1234567890", Temperature: 0.7, MaxTokens: 300}
	for _, k := range Keys {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
	v, _ := c.Get("api_key")
	assert.Equal(t, "sk-****890", v)
	v, _ = c.Get("temperature")
	assert.Equal(t, "0.7", v)
	v, _ = c.Get("max_tokens")
	assert.Equal(t, "300", v)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}
