package crisis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier_Classify(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		crisis bool
	}{
		{
			name:   "ordinary services question",
			text:   "How do I get my son evaluated for autism in Wake County?",
			crisis: false,
		},
		{
			name:   "therapy question",
			text:   "What ABA therapy providers accept Medicaid near Charlotte?",
			crisis: false,
		},
		{
			name:   "single crisis term",
			text:   "I feel hopeless about all of this",
			crisis: true,
		},
		{
			name:   "crisis term uppercase",
			text:   "My daughter talked about SUICIDE yesterday",
			crisis: true,
		},
		{
			name:   "crisis phrase",
			text:   "sometimes I want to die",
			crisis: true,
		},
		{
			name:   "phrase with punctuation",
			text:   "I can't go on, nothing helps.",
			crisis: true,
		},
		{
			name:   "hyphenated self-harm",
			text:   "my teenager mentioned self-harm",
			crisis: true,
		},
		{
			name:   "self harm as two words",
			text:   "worried about self harm behaviors",
			crisis: true,
		},
		{
			name:   "substring does not match token",
			text:   "is there a pharmacy that stocks this medication",
			crisis: false,
		},
		{
			name:   "suicidal inside another sentence",
			text:   "he has been suicidal before",
			crisis: true,
		},
		{
			name:   "empty query",
			text:   "",
			crisis: false,
		},
	}

	classifier := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.crisis, got)
		})
	}
}

func TestKeywordClassifier_Deterministic(t *testing.T) {
	classifier := KeywordClassifier{}
	const text = "I feel hopeless and need help"

	first, err := classifier.Classify(context.Background(), text)
	require.NoError(t, err)

	for range 10 {
		got, err := classifier.Classify(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Want To DIE", "want to die"},
		{"strips punctuation", "end. my! life?", "end my life"},
		{"keeps hyphens", "self-harm", "self-harm"},
		{"keeps apostrophes", "can't go on", "can't go on"},
		{"collapses whitespace", "  in \t crisis \n", "in crisis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}
