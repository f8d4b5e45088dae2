package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenav/carenav/internal/knowledge"
)

func TestPromptAssembler_Assemble(t *testing.T) {
	assembler := PromptAssembler{}
	examples := DefaultFewShotExamples()

	chunks := []knowledge.RetrievedChunk{
		{DocumentTitle: "NC Innovations Waiver Guide", Text: "The Innovations Waiver provides home and community-based services."},
		{DocumentTitle: "Early Intervention Handbook", Text: "Children under 3 are served by the NC Infant-Toddler Program."},
	}

	t.Run("provider persona", func(t *testing.T) {
		prompt, err := assembler.Assemble("What is the waiver?", chunks, ViewProvider, examples)
		require.NoError(t, err)

		assert.Contains(t, prompt.System, "healthcare providers")
		assert.NotContains(t, prompt.System, "warm, plain language")
		assert.Equal(t, "What is the waiver?", prompt.User)
	})

	t.Run("patient persona", func(t *testing.T) {
		prompt, err := assembler.Assemble("What is the waiver?", chunks, ViewPatient, examples)
		require.NoError(t, err)

		assert.Contains(t, prompt.System, "plain language")
		assert.NotContains(t, prompt.System, "clinical terminology")
	})

	t.Run("chunks tagged with source titles", func(t *testing.T) {
		prompt, err := assembler.Assemble("question", chunks, ViewProvider, nil)
		require.NoError(t, err)

		assert.Contains(t, prompt.System, "[Source: NC Innovations Waiver Guide]")
		assert.Contains(t, prompt.System, "[Source: Early Intervention Handbook]")
		assert.Contains(t, prompt.System, "The Innovations Waiver provides")
	})

	t.Run("few-shot examples match persona only", func(t *testing.T) {
		mixed := []FewShotExample{
			{View: ViewProvider, Question: "provider question", Answer: "provider answer"},
			{View: ViewPatient, Question: "patient question", Answer: "patient answer"},
		}

		prompt, err := assembler.Assemble("q", chunks, ViewProvider, mixed)
		require.NoError(t, err)
		assert.Contains(t, prompt.System, "provider question")
		assert.NotContains(t, prompt.System, "patient question")

		prompt, err = assembler.Assemble("q", chunks, ViewPatient, mixed)
		require.NoError(t, err)
		assert.Contains(t, prompt.System, "patient question")
		assert.NotContains(t, prompt.System, "provider question")
	})

	t.Run("empty context gets explicit instruction", func(t *testing.T) {
		prompt, err := assembler.Assemble("q", nil, ViewPatient, examples)
		require.NoError(t, err)

		assert.Contains(t, prompt.System, "No relevant information was found")
		assert.NotContains(t, prompt.System, "[Source:")
	})

	t.Run("grounding rules always present", func(t *testing.T) {
		withContext, err := assembler.Assemble("q", chunks, ViewProvider, nil)
		require.NoError(t, err)
		withoutContext, err := assembler.Assemble("q", nil, ViewProvider, nil)
		require.NoError(t, err)

		for _, p := range []Prompt{withContext, withoutContext} {
			assert.Contains(t, p.System, "Ground every statement")
		}
	})

	t.Run("invalid view fails", func(t *testing.T) {
		_, err := assembler.Assemble("q", chunks, ViewType(0), examples)
		require.ErrorIs(t, err, ErrInvalidViewType)
	})

	t.Run("user query passed through unchanged", func(t *testing.T) {
		query := "  What about  SSI benefits?\n"
		prompt, err := assembler.Assemble(query, chunks, ViewPatient, examples)
		require.NoError(t, err)
		assert.Equal(t, query, prompt.User)
		assert.False(t, strings.Contains(prompt.System, query), "query belongs to the user message, not the system prompt")
	})
}

func TestDefaultFewShotExamples(t *testing.T) {
	examples := DefaultFewShotExamples()
	require.NotEmpty(t, examples)

	var providers, patients int
	for _, ex := range examples {
		require.True(t, ex.View.Valid())
		require.NotEmpty(t, ex.Question)
		require.NotEmpty(t, ex.Answer)
		switch ex.View {
		case ViewProvider:
			providers++
		case ViewPatient:
			patients++
		}
	}
	assert.Positive(t, providers)
	assert.Positive(t, patients)
}
