package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenav/carenav/internal/testutil"
)

func newTestGenerator(t *testing.T, mock *testutil.MockLLM, cfg GeneratorConfig) *Generator {
	t.Helper()

	g := genkit.Init(context.Background())
	require.NotNil(t, g)
	mock.RegisterModel(g)

	cfg.Genkit = g
	cfg.ModelName = "mock/test-model"
	if cfg.Logger == nil {
		cfg.Logger = testutil.DiscardLogger()
	}

	gen, err := NewGenerator(cfg)
	require.NoError(t, err)
	return gen
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := NewGenerator(GeneratorConfig{ModelName: "m"})
	assert.Error(t, err, "genkit instance is required")

	g := genkit.Init(context.Background())
	_, err = NewGenerator(GeneratorConfig{Genkit: g})
	assert.Error(t, err, "model name is required")
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	prompt := Prompt{System: "system instruction", User: "What services exist?"}

	t.Run("success", func(t *testing.T) {
		mock := testutil.NewMockLLM("fallback")
		mock.AddResponse("services", "Several state programs are available.")
		gen := newTestGenerator(t, mock, GeneratorConfig{Retry: fastRetry()})

		answer, err := gen.Generate(ctx, prompt)
		require.NoError(t, err)
		assert.Equal(t, "Several state programs are available.", answer)

		calls := mock.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "system instruction", calls[0].System)
		assert.Equal(t, "What services exist?", calls[0].UserMessage)
	})

	t.Run("transient errors retried", func(t *testing.T) {
		mock := testutil.NewMockLLM("recovered answer")
		mock.FailNext(
			errors.New("429 rate limit exceeded"),
			errors.New("503 service unavailable"),
		)
		gen := newTestGenerator(t, mock, GeneratorConfig{Retry: fastRetry()})

		answer, err := gen.Generate(ctx, prompt)
		require.NoError(t, err)
		assert.Equal(t, "recovered answer", answer)
	})

	t.Run("non-retryable error fails immediately", func(t *testing.T) {
		mock := testutil.NewMockLLM("never reached")
		mock.FailNext(errors.New("401 invalid API key"))
		gen := newTestGenerator(t, mock, GeneratorConfig{Retry: fastRetry()})

		_, err := gen.Generate(ctx, prompt)
		require.ErrorIs(t, err, ErrGenerationFailure)
		assert.Empty(t, mock.Calls(), "no successful call should have been recorded")
	})

	t.Run("retries exhausted", func(t *testing.T) {
		mock := testutil.NewMockLLM("never reached")
		mock.FailNext(
			errors.New("503 unavailable"),
			errors.New("503 unavailable"),
			errors.New("503 unavailable"),
			errors.New("503 unavailable"),
		)
		gen := newTestGenerator(t, mock, GeneratorConfig{Retry: fastRetry()})

		_, err := gen.Generate(ctx, prompt)
		require.ErrorIs(t, err, ErrGenerationFailure)
	})

	t.Run("timeout surfaces ErrGenerationTimeout", func(t *testing.T) {
		mock := testutil.NewMockLLM("never reached")
		// Make every attempt fail with a retryable error so the deadline
		// elapses during backoff.
		mock.FailNext(
			errors.New("503 unavailable"),
			errors.New("503 unavailable"),
			errors.New("503 unavailable"),
		)
		gen := newTestGenerator(t, mock, GeneratorConfig{
			Timeout: 20 * time.Millisecond,
			Retry: RetryConfig{
				MaxRetries:      3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     100 * time.Millisecond,
			},
		})

		_, err := gen.Generate(ctx, prompt)
		require.ErrorIs(t, err, ErrGenerationTimeout)
	})

	t.Run("empty model response is a failure", func(t *testing.T) {
		mock := testutil.NewMockLLM("")
		gen := newTestGenerator(t, mock, GeneratorConfig{Retry: fastRetry()})

		_, err := gen.Generate(ctx, prompt)
		require.ErrorIs(t, err, ErrGenerationFailure)
	})

	t.Run("caller cancellation propagates", func(t *testing.T) {
		mock := testutil.NewMockLLM("answer")
		gen := newTestGenerator(t, mock, GeneratorConfig{Retry: fastRetry()})

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := gen.Generate(canceled, prompt)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrGenerationFailure)
	})
}
