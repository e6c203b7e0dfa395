// Package summarizer asks an LLM for a root-cause narrative over a set of
// pipeline failure messages. It is best-effort: callers get a Result that
// says whether a summary is available, never an error.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sivakumaru2002/devops-ease-access/infrastructure/circuitbreaker"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
)

const (
	ProviderAzureOpenAI = "azure-openai"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderNone        = "none"

	ReasonNotConfigured = "not_configured"
	ReasonNoInput       = "no_input"
	ReasonProviderError = "provider_error"
	ReasonCircuitOpen   = "circuit_open"

	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1024
	DefaultAPIVersion  = "2024-02-15-preview"

	systemPrompt = "You are an expert DevOps SRE assistant."
	promptHeader = "Summarize these Azure DevOps pipeline failures, identify likely root causes, " +
		"and suggest concise remediations:\n\n"
)

// Result is the outcome of a summarization attempt. Text is set only when
// Available is true; otherwise Reason says why not.
type Result struct {
	Text      string
	Available bool
	Reason    string
}

// Summarizer produces a narrative for failure messages.
type Summarizer interface {
	Summarize(ctx context.Context, messages []string) Result
	Name() string
}

// Config selects and configures the provider.
type Config struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	// OnResult, when set, is called after every attempt.
	OnResult func(provider string, r Result)
}

// completer is the single request/response call each provider implements.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// New returns the configured summarizer, or a Disabled one when the
// provider is unset or missing required settings.
func New(cfg Config, log infralogger.Logger) Summarizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	var (
		provider completer
		err      error
	)
	switch cfg.Provider {
	case ProviderAzureOpenAI:
		provider, err = newAzureOpenAI(cfg)
	case ProviderOpenAI:
		provider, err = newOpenAI(cfg)
	case ProviderAnthropic:
		provider, err = newAnthropic(cfg)
	case "", ProviderNone:
		err = errNotConfigured
	default:
		err = fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	if err != nil {
		log.Info("AI summarizer disabled",
			infralogger.String("provider", cfg.Provider),
			infralogger.String("reason", err.Error()),
		)
		return Disabled{}
	}

	log.Info("AI summarizer enabled", infralogger.String("provider", cfg.Provider))
	return newGuarded(cfg.Provider, provider, cfg, log)
}

var errNotConfigured = errors.New("no provider configured")

// BuildPrompt renders the user prompt for messages.
func BuildPrompt(messages []string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(m)
	}
	return b.String()
}

// Disabled never summarizes.
type Disabled struct{}

func (Disabled) Summarize(context.Context, []string) Result {
	return Result{Reason: ReasonNotConfigured}
}

func (Disabled) Name() string { return ProviderNone }

// guarded wraps a provider with a per-call timeout and a circuit breaker.
type guarded struct {
	name     string
	provider completer
	breaker  *circuitbreaker.Breaker
	timeout  time.Duration
	onResult func(string, Result)
	log      infralogger.Logger
}

const (
	breakerFailures = 3
	breakerCooldown = time.Minute
)

func newGuarded(name string, provider completer, cfg Config, log infralogger.Logger) *guarded {
	onResult := cfg.OnResult
	if onResult == nil {
		onResult = func(string, Result) {}
	}

	return &guarded{
		name:     name,
		provider: provider,
		timeout:  cfg.Timeout,
		onResult: onResult,
		log:      log,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: breakerFailures,
			Timeout:          breakerCooldown,
			OnStateChange: func(from, to circuitbreaker.State) {
				log.Warn("AI summarizer circuit changed state",
					infralogger.String("provider", name),
					infralogger.String("from", from.String()),
					infralogger.String("to", to.String()),
				)
			},
		}),
	}
}

func (g *guarded) Name() string { return g.name }

func (g *guarded) Summarize(ctx context.Context, messages []string) Result {
	if len(messages) == 0 {
		return Result{Reason: ReasonNoInput}
	}

	result := g.attempt(ctx, messages)
	g.onResult(g.name, result)
	return result
}

func (g *guarded) attempt(ctx context.Context, messages []string) Result {
	var text string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		out, callErr := g.provider.complete(callCtx, systemPrompt, BuildPrompt(messages))
		if callErr != nil {
			return callErr
		}
		text = strings.TrimSpace(out)
		return nil
	})

	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return Result{Reason: ReasonCircuitOpen}
	case err != nil:
		infralogger.FromContext(ctx).Warn("AI summarizer call failed",
			infralogger.String("provider", g.name),
			infralogger.Error(err),
		)
		return Result{Reason: ReasonProviderError}
	case text == "":
		return Result{Reason: ReasonProviderError}
	default:
		return Result{Text: text, Available: true}
	}
}
