package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// GeneratorConfig contains the parameters for constructing a Generator.
type GeneratorConfig struct {
	Genkit    *genkit.Genkit
	ModelName string // Provider-qualified model name (e.g., "googleai/gemini-2.5-flash")
	Timeout   time.Duration
	Retry     RetryConfig   // Zero value uses DefaultRetryConfig
	Limiter   *rate.Limiter // Optional proactive rate limiting (nil = default)
	Logger    *slog.Logger
}

// Generator invokes the language model with an assembled prompt. It is
// stateless per invocation: the only side effect is the outbound model call.
//
// Transient failures (timeouts, 5xx, rate limiting) retry with exponential
// backoff up to a fixed cap; non-transient failures fail immediately.
type Generator struct {
	g           *genkit.Genkit
	modelName   string
	timeout     time.Duration
	retryConfig RetryConfig
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Genkit == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	retryConfig := cfg.Retry
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		g:           cfg.Genkit,
		modelName:   cfg.ModelName,
		timeout:     timeout,
		retryConfig: retryConfig,
		rateLimiter: limiter,
		logger:      logger,
	}, nil
}

// Generate produces the answer text for an assembled prompt.
//
// Exhausting the request timeout surfaces ErrGenerationTimeout; any other
// failure after bounded retries surfaces ErrGenerationFailure.
func (gn *Generator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, gn.timeout)
	defer cancel()

	resp, err := gn.executeWithRetry(genCtx, prompt)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w after %v: %v", ErrGenerationTimeout, gn.timeout, err)
		case errors.Is(err, context.Canceled):
			// Caller disconnected or deadline elapsed upstream; propagate
			// cancellation rather than reporting a generator fault.
			return "", fmt.Errorf("generation canceled: %w", err)
		default:
			return "", fmt.Errorf("%w: %v", ErrGenerationFailure, err)
		}
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: model returned an empty response", ErrGenerationFailure)
	}
	return text, nil
}

// executeWithRetry executes the model call with exponential backoff.
// Each attempt is rate limited so retries after 429s do not pile on.
func (gn *Generator) executeWithRetry(ctx context.Context, prompt Prompt) (*ai.ModelResponse, error) {
	var lastErr error
	delay := gn.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= gn.retryConfig.MaxRetries; attempt++ {
		if err := gn.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := genkit.Generate(ctx, gn.g,
			ai.WithModelName(gn.modelName),
			ai.WithSystem(prompt.System),
			ai.WithMessages(ai.NewUserTextMessage(prompt.User)),
		)
		if err == nil {
			gn.logger.Debug("generation succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp, nil
		}

		lastErr = err

		// Non-retryable error - fail immediately.
		if !retryableError(err) {
			return nil, fmt.Errorf("generating answer: %w", err)
		}

		if attempt == gn.retryConfig.MaxRetries {
			break
		}

		gn.logger.Debug("retrying generation after error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, gn.retryConfig.MaxInterval)
		}
	}

	return nil, fmt.Errorf("generating answer after %d retries (elapsed: %v): %w",
		gn.retryConfig.MaxRetries, time.Since(start), lastErr)
}
