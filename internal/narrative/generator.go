// Package narrative turns query results into prose by prompting an LLM runtime.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/ai"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	"github.com/apex/log"
)

// Defaults mirror the settings the CLI ships with.
const (
	DefaultModel       = "deepseek-r1:14b"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// ErrEmptyResponse is wrapped in a GenerationError when the model returns no text.
var ErrEmptyResponse = errors.New("no content returned from model")

// GenerationError reports a failed narrative step. The underlying runtime
// error is available through errors.As.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("narrative generation with %s failed: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Options configures a Generator. Zero values select defaults; a nil
// Temperature selects DefaultTemperature so an explicit 0 is kept.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	// ContextTokens caps the data context; 0 derives it from the model's window.
	ContextTokens int
}

// Generator explains query results. It performs a single request per call;
// retries are left to the runtime's HTTP policy.
type Generator struct {
	runtime       ai.Runtime
	model         string
	maxTokens     int
	temperature   float64
	contextTokens int
}

// New returns a Generator that sends requests through rt.
func New(rt ai.Runtime, opt Options) *Generator {
	g := &Generator{
		runtime:       rt,
		model:         opt.Model,
		maxTokens:     opt.MaxTokens,
		temperature:   DefaultTemperature,
		contextTokens: opt.ContextTokens,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if opt.Temperature != nil && *opt.Temperature >= 0 {
		g.temperature = *opt.Temperature
	}
	if g.contextTokens <= 0 {
		// leave room for the reply and the fixed prompt text
		g.contextTokens = ai.ContextWindow(g.model) - g.maxTokens - utils.CountTokens(SystemPrompt) - 64
		if g.contextTokens < 256 {
			g.contextTokens = 256
		}
	}
	return g
}

// Model returns the model requests are sent to.
func (g *Generator) Model() string { return g.model }

// Request builds the runtime request for question and data.
func (g *Generator) Request(question string, data any) (ai.GenerateRequest, error) {
	dc, err := DataContext(data)
	if err != nil {
		return ai.GenerateRequest{}, &GenerationError{Model: g.model, Err: err}
	}
	return ai.GenerateRequest{
		Model:       g.model,
		Messages:    BuildMessages(question, dc, g.contextTokens),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}, nil
}

// Explain returns a natural-language explanation of data as an answer to question.
func (g *Generator) Explain(ctx context.Context, question string, data any) (string, error) {
	req, err := g.Request(question, data)
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"model": g.model, "prompt_tokens": promptTokens(req)}).Debug("narrative request")
	resp, err := g.runtime.Generate(ctx, req)
	if err != nil {
		return "", &GenerationError{Model: g.model, Err: err}
	}
	if resp.RequestID != "" {
		log.WithField("request_id", resp.RequestID).Debug("narrative response")
	}
	text := strings.TrimSpace(resp.Content())
	if text == "" {
		return "", &GenerationError{Model: g.model, Err: ErrEmptyResponse}
	}
	return text, nil
}

// ExplainStream is Explain with incremental output. Runtimes without
// streaming support fall back to a single delta carrying the full reply.
// The accumulated text is returned.
func (g *Generator) ExplainStream(ctx context.Context, question string, data any, onDelta func(string)) (string, error) {
	sr, ok := g.runtime.(ai.StreamRuntime)
	if !ok {
		text, err := g.Explain(ctx, question, data)
		if err != nil {
			return "", err
		}
		onDelta(text)
		return text, nil
	}
	req, err := g.Request(question, data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	err = sr.GenerateStream(ctx, req, func(d string) {
		b.WriteString(d)
		onDelta(d)
	})
	if err != nil {
		return b.String(), &GenerationError{Model: g.model, Err: err}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", &GenerationError{Model: g.model, Err: ErrEmptyResponse}
	}
	return b.String(), nil
}

func promptTokens(req ai.GenerateRequest) int {
	n := 0
	for _, m := range req.Messages {
		n += utils.CountTokens(m.Content)
	}
	return n
}
