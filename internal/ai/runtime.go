package ai

import (
	"context"
	"strings"
)

// Runtime generates a chat completion. Implemented by the OpenRouter and
// Ollama clients.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// StreamRuntime is an optional extension that supports streaming output.
// onDelta receives each partial content chunk in order.
type StreamRuntime interface {
	GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error
}

// Provider identifiers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// NormalizeProvider maps user spellings and aliases onto a registered provider name.
func NormalizeProvider(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "local", "ollama":
		return ProviderOllama
	case "openai", "anthropic", "google", "gemini", "meta", "llama", "deepseek":
		return ProviderOpenRouter
	default:
		return n
	}
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the provider-neutral chat request.
type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

// GenerateResponse is the provider-neutral chat response.
type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Content returns the first choice's text, or "" when there is none.
func (r *GenerateResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
