package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/gigstats-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/gigstats-cli/internal/config"
	"github.com/KaramelBytes/gigstats-cli/internal/narrative"
)

type runtimeOptions struct {
	ProviderFlag string
	OllamaHost   string
}

// newRuntime is swapped out in tests.
var newRuntime = buildRuntime

func buildRuntime(cfg *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	rc := ai.RuntimeConfig{
		HTTPTimeout: 60 * time.Second,
		RetryMax:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
	}
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			rc.RetryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			rc.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			rc.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
		rc.APIKey = cfg.APIKey
	}

	providerName := opts.ProviderFlag
	if strings.TrimSpace(providerName) == "" && cfg != nil {
		providerName = cfg.DefaultProvider
	}
	providerName = ai.NormalizeProvider(providerName)
	if providerName == "" {
		providerName = ai.ProviderOllama
	}

	if providerName == ai.ProviderOllama {
		rc.Host = strings.TrimSpace(opts.OllamaHost)
		if rc.Host == "" && cfg != nil {
			rc.Host = cfg.OllamaHost
		}
		if rc.Host == "" {
			rc.Host = ai.DefaultOllamaHost
		}
		// local models are slow to load; the Ollama timeout replaces the generic one
		if cfg != nil && cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
		}
	}

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use %s)", providerName, strings.Join(ai.Providers(), "|"))
	}
	return client, providerName, nil
}

// selectModel picks the model: flag, then config, then the provider default.
func selectModel(cfg *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.DefaultModel != "" {
		// a configured local tag is meaningless to OpenRouter and vice versa
		if mi, ok := ai.LookupModel(cfg.DefaultModel); !ok || mi.Provider == provider {
			return cfg.DefaultModel
		}
	}
	if m := ai.DefaultModel(provider); m != "" {
		return m
	}
	return narrative.DefaultModel
}

func narrativeOptions(cfg *cfgpkg.Global, model string) narrative.Options {
	opt := narrative.Options{Model: model}
	if cfg != nil {
		opt.MaxTokens = cfg.MaxTokens
		temp := cfg.Temperature
		opt.Temperature = &temp
		opt.ContextTokens = cfg.ContextTokens
	}
	return opt
}

// generationHint explains a failed narrative step in terms of what the user
// can change. It returns "" when there is nothing specific to say.
func generationHint(err error, provider, model string) string {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.As(err, &unreach):
		if provider == ai.ProviderOllama {
			return fmt.Sprintf("Ollama not reachable at %s. Ensure Ollama is running (see https://ollama.com) and the host is correct; set --ollama-host, GIGSTATS_OLLAMA_HOST or config 'ollama_host'.", unreach.Host)
		}
		return "Endpoint unreachable. Check your network and provider settings."
	case errors.As(err, &authErr):
		return "Authentication failed: set OPENROUTER_API_KEY or add api_key in config (~/.gigstats/config.yaml)."
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Sprintf("Rate limited, try again in ~%ds.", int(rlErr.RetryAfter.Seconds()))
		}
		return "Rate limited by provider, please retry."
	case errors.As(err, &nfErr):
		if provider == ai.ProviderOllama {
			return fmt.Sprintf("Local model not available (%s). Install it with 'ollama pull %s' or choose another with --model.", model, model)
		}
		return fmt.Sprintf("Model not found (%s). Verify the name; 'gigstats models' lists known models.", model)
	case errors.As(err, &brErr):
		return "Request rejected. Try a smaller context_tokens or max_tokens."
	case errors.As(err, &qErr):
		return "Quota/billing issue. Check your provider account."
	case errors.As(err, &sErr):
		return "Provider appears unavailable (server error). Please retry later."
	case errors.Is(err, narrative.ErrEmptyResponse):
		return "The model returned an empty reply. Try again or pick another model."
	}
	return ""
}
