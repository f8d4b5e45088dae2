package crisis

import (
	"context"
	"strings"
	"unicode"
)

// Classifier decides whether query text indicates a potential crisis.
// Implementations must be deterministic for identical input.
type Classifier interface {
	Classify(ctx context.Context, text string) (bool, error)
}

// crisisTerms are single words matched against whole tokens of the query.
// Token matching avoids false positives from substrings ("harm" inside
// "pharmacy").
var crisisTerms = map[string]struct{}{
	"suicide":   {},
	"suicidal":  {},
	"hopeless":  {},
	"overdose":  {},
	"self-harm": {},
	"selfharm":  {},
}

// crisisPhrases are multi-word phrases matched by substring against the
// normalized query text.
var crisisPhrases = []string{
	"kill myself",
	"killing myself",
	"end my life",
	"ending my life",
	"want to die",
	"wants to die",
	"hurt myself",
	"hurting myself",
	"harm myself",
	"harming myself",
	"self harm",
	"no reason to live",
	"better off dead",
	"can't go on",
	"cannot go on",
	"hurt my child",
	"harm my child",
	"in crisis",
	"crisis situation",
	"emergency help",
}

// KeywordClassifier is a local lexical classifier. It is a pure function of
// the query text, so detection can run concurrently with retrieval without
// an external call.
type KeywordClassifier struct{}

// Classify reports whether text contains crisis language.
func (KeywordClassifier) Classify(_ context.Context, text string) (bool, error) {
	normalized := normalize(text)

	for _, phrase := range crisisPhrases {
		if strings.Contains(normalized, phrase) {
			return true, nil
		}
	}

	for _, token := range strings.Fields(normalized) {
		if _, ok := crisisTerms[token]; ok {
			return true, nil
		}
	}

	return false, nil
}

// normalize lowercases text and maps punctuation (except intra-word hyphens
// and apostrophes) to spaces so token matching is stable.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
