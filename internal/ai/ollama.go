package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultOllamaHost is used when no host is configured.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// OllamaClient is a minimal HTTP client for a local Ollama runtime.
type OllamaClient struct {
	httpClient *http.Client
	host       string
	retry      retryPolicy
}

// NewOllamaClient creates a client targeting host (e.g. http://127.0.0.1:11434).
func NewOllamaClient(host string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *OllamaClient {
	if host == "" {
		host = DefaultOllamaHost
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 2
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 1 * time.Second
	}
	return &OllamaClient{
		httpClient: &http.Client{Timeout: httpTimeout},
		host:       strings.TrimRight(host, "/"),
		retry:      retryPolicy{attempts: retryMax, base: baseDelay, max: maxDelay},
	}
}

// Host returns the base URL the client targets.
func (c *OllamaClient) Host() string { return c.host }

// Structures aligned with Ollama /api/chat
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

func newOllamaRequest(req GenerateRequest, stream bool) (ollamaChatRequest, error) {
	if req.Model == "" {
		return ollamaChatRequest{}, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return ollamaChatRequest{}, errors.New("messages cannot be empty")
	}
	msgs := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = ollamaChatMessage(m)
	}
	oreq := ollamaChatRequest{Model: req.Model, Messages: msgs, Stream: stream, Options: map[string]any{}}
	if req.Temperature >= 0 {
		oreq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.Options["num_predict"] = req.MaxTokens
	}
	return oreq, nil
}

func (c *OllamaClient) post(ctx context.Context, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(httpReq)
}

// Generate sends a non-streaming chat request. Ollama has no request ids, so
// responses carry a generated one for log correlation.
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	oreq, err := newOllamaRequest(req, false)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var out *GenerateResponse
	err = c.retry.run(ctx, func() (time.Duration, error) {
		resp, err := c.post(ctx, payload)
		if err != nil {
			wait := time.Duration(-1)
			if isRetryableNetErr(err) {
				wait = 0
			}
			return wait, &UnreachableError{Host: c.host, Err: err}
		}
		res, wait, err := c.readResponse(resp)
		out = res
		return wait, err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readResponse decodes one reply. Only 5xx answers are worth another attempt.
func (c *OllamaClient) readResponse(resp *http.Response) (*GenerateResponse, time.Duration, error) {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		wait := time.Duration(-1)
		if resp.StatusCode >= 500 {
			wait = 0
		}
		return nil, wait, classifyOllamaError(readAPIError(resp))
	}
	var oresp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oresp); err != nil {
		return nil, -1, fmt.Errorf("decode response: %w", err)
	}
	id := "ollama_" + uuid.NewString()
	return &GenerateResponse{
		ID:      id,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: oresp.Message.Content}}},
		Usage: Usage{
			PromptTokens:     oresp.PromptEvalCount,
			CompletionTokens: oresp.EvalCount,
			TotalTokens:      oresp.PromptEvalCount + oresp.EvalCount,
		},
		RequestID: id,
	}, 0, nil
}

// GenerateStream streams NDJSON deltas from /api/chat.
func (c *OllamaClient) GenerateStream(ctx context.Context, req GenerateRequest, onDelta func(string)) error {
	oreq, err := newOllamaRequest(req, true)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(oreq)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	resp, err := c.post(ctx, payload)
	if err != nil {
		return &UnreachableError{Host: c.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyOllamaError(readAPIError(resp))
	}

	dec := json.NewDecoder(resp.Body)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var oresp ollamaChatResponse
		if err := dec.Decode(&oresp); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode stream: %w", err)
		}
		if msg := oresp.Message.Content; msg != "" {
			onDelta(msg)
		}
		if oresp.Done {
			return nil
		}
	}
}
