package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/gigstats-cli/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRuntime struct {
	reply string
	err   error
	got   ai.GenerateRequest
	calls int
}

func (s *stubRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.calls++
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: s.reply}}}}, nil
}

type streamStub struct {
	stubRuntime
	deltas []string
}

func (s *streamStub) GenerateStream(_ context.Context, req ai.GenerateRequest, onDelta func(string)) error {
	s.got = req
	for _, d := range s.deltas {
		onDelta(d)
	}
	return s.err
}

func TestExplainBuildsPrompt(t *testing.T) {
	rt := &stubRuntime{reply: "  Crypto earns more.  "}
	g := New(rt, Options{})
	out, err := g.Explain(context.Background(), "what about crypto payments", map[string]any{
		"crypto_avg_earnings": 80.0,
		"correlation":         nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "Crypto earns more.", out)
	assert.Equal(t, 1, rt.calls)

	req := rt.got
	assert.Equal(t, DefaultModel, req.Model)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, SystemPrompt, req.Messages[0].Content)
	user := req.Messages[1].Content
	assert.True(t, strings.HasPrefix(user, "Question: what about crypto payments\n\nData Context: "))
	assert.Contains(t, user, "crypto_avg_earnings: 80")
	assert.Contains(t, user, "correlation: null")
}

func TestNewKeepsZeroTemperature(t *testing.T) {
	zero := 0.0
	g := New(&stubRuntime{}, Options{Temperature: &zero})
	req, err := g.Request("q", "ctx")
	require.NoError(t, err)
	assert.Equal(t, 0.0, req.Temperature)

	custom := 1.3
	req, err = New(&stubRuntime{}, Options{Temperature: &custom}).Request("q", "ctx")
	require.NoError(t, err)
	assert.Equal(t, 1.3, req.Temperature)
}

func TestExplainPassesStringContextThrough(t *testing.T) {
	rt := &stubRuntime{reply: "ok"}
	_, err := New(rt, Options{Model: "llama3:latest"}).Explain(context.Background(), "q", "Dataset contains 5 freelancers.")
	require.NoError(t, err)
	assert.Equal(t, "llama3:latest", rt.got.Model)
	assert.True(t, strings.HasSuffix(rt.got.Messages[1].Content, "Data Context: Dataset contains 5 freelancers."))
}

func TestExplainWrapsRuntimeErrors(t *testing.T) {
	cause := &ai.UnreachableError{Host: "http://127.0.0.1:11434", Err: errors.New("connection refused")}
	g := New(&stubRuntime{err: cause}, Options{Model: "deepseek-r1:14b"})
	_, err := g.Explain(context.Background(), "q", map[string]any{"a": 1})

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "deepseek-r1:14b", ge.Model)
	var unreach *ai.UnreachableError
	assert.ErrorAs(t, err, &unreach)
}

func TestExplainEmptyReply(t *testing.T) {
	_, err := New(&stubRuntime{reply: "   "}, Options{}).Explain(context.Background(), "q", "ctx")
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestContextIsTruncatedToBudget(t *testing.T) {
	rt := &stubRuntime{reply: "ok"}
	g := New(rt, Options{ContextTokens: 50})
	big := strings.Repeat("row: value\n", 500)
	_, err := g.Explain(context.Background(), "q", big)
	require.NoError(t, err)
	user := rt.got.Messages[1].Content
	assert.Contains(t, user, "data context truncated")
	assert.Less(t, len(user), len(big))
}

func TestExplainStream(t *testing.T) {
	rt := &streamStub{deltas: []string{"Crypto ", "earns ", "more."}}
	var got []string
	out, err := New(rt, Options{}).ExplainStream(context.Background(), "q", "ctx", func(d string) { got = append(got, d) })
	require.NoError(t, err)
	assert.Equal(t, "Crypto earns more.", out)
	assert.Equal(t, rt.deltas, got)
}

func TestExplainStreamFallsBackWithoutStreaming(t *testing.T) {
	rt := &stubRuntime{reply: "whole reply"}
	var got []string
	out, err := New(rt, Options{}).ExplainStream(context.Background(), "q", "ctx", func(d string) { got = append(got, d) })
	require.NoError(t, err)
	assert.Equal(t, "whole reply", out)
	assert.Equal(t, []string{"whole reply"}, got)
}

func TestExplainStreamError(t *testing.T) {
	rt := &streamStub{deltas: []string{"partial"}}
	rt.err = errors.New("stream broke")
	out, err := New(rt, Options{}).ExplainStream(context.Background(), "q", "ctx", func(string) {})
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "partial", out)
}
