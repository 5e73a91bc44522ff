package ai

import (
	"sort"
	"strings"
)

// ModelInfo describes a model well enough to budget prompt context.
type ModelInfo struct {
	Name          string `json:"name" yaml:"name"`
	Provider      string `json:"provider" yaml:"provider"`
	ContextTokens int    `json:"context_tokens" yaml:"context_tokens"`
}

// fallbackContextTokens is assumed for models missing from the catalog.
const fallbackContextTokens = 8192

var models = map[string]ModelInfo{
	// Local (Ollama) tags
	"deepseek-r1:14b":       {Name: "deepseek-r1:14b", Provider: ProviderOllama, ContextTokens: 131072},
	"deepseek-r1:7b":        {Name: "deepseek-r1:7b", Provider: ProviderOllama, ContextTokens: 131072},
	"llama3.1:8b":           {Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 131072},
	"llama3:latest":         {Name: "llama3:latest", Provider: ProviderOllama, ContextTokens: 8192},
	"mistral:7b":            {Name: "mistral:7b", Provider: ProviderOllama, ContextTokens: 32768},
	"qwen2.5:14b":           {Name: "qwen2.5:14b", Provider: ProviderOllama, ContextTokens: 32768},
	"phi3:mini-4k-instruct": {Name: "phi3:mini-4k-instruct", Provider: ProviderOllama, ContextTokens: 4096},
	// OpenRouter
	"deepseek/deepseek-r1:free":   {Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"deepseek/deepseek-r1":        {Name: "deepseek/deepseek-r1", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"openai/gpt-4o-mini":          {Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"anthropic/claude-3.5-sonnet": {Name: "anthropic/claude-3.5-sonnet", Provider: ProviderOpenRouter, ContextTokens: 200000},
	"google/gemini-1.5-flash":     {Name: "google/gemini-1.5-flash", Provider: ProviderOpenRouter, ContextTokens: 1000000},
}

var defaultModels = map[string]string{
	ProviderOllama:     "deepseek-r1:14b",
	ProviderOpenRouter: "deepseek/deepseek-r1:free",
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func DefaultModel(provider string) string {
	return defaultModels[NormalizeProvider(provider)]
}

// ContextWindow returns the model's context size, falling back to a
// conservative default for unknown models.
func ContextWindow(model string) int {
	if mi, ok := models[model]; ok && mi.ContextTokens > 0 {
		return mi.ContextTokens
	}
	return fallbackContextTokens
}

// Models lists catalog entries for a provider ("" for all), sorted by name.
func Models(provider string) []ModelInfo {
	provider = strings.TrimSpace(provider)
	if provider != "" {
		provider = NormalizeProvider(provider)
	}
	out := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		if provider == "" || m.Provider == provider {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
