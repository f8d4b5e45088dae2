package rag

import (
	"fmt"
	"strings"

	"github.com/carenav/carenav/internal/knowledge"
)

// Prompt is the assembled input for the generator: a persona-specific system
// instruction (including few-shot examples and retrieved context) and the raw
// user query.
type Prompt struct {
	System string
	User   string
}

// FewShotExample is a persona-matched question/answer pair embedded in the
// prompt to anchor tone and format.
type FewShotExample struct {
	View     ViewType
	Question string
	Answer   string
}

const providerInstruction = `You are a clinical information assistant for healthcare providers in North Carolina working with autistic patients and their families.
Answer in a professional, evidence-based tone. Cite clinical guidance and state-specific programs precisely. Use standard clinical terminology.`

const patientInstruction = `You are a supportive guide for families and individuals in North Carolina navigating autism services.
Answer in warm, plain language. Avoid jargon; when a technical term is unavoidable, explain it simply. Be encouraging and practical.`

const groundingRules = `Ground every statement in the provided context. If the context does not contain the answer, say so plainly rather than guessing.
Do not invent phone numbers, eligibility rules, waiting times, or program names.`

const noContextInstruction = `No relevant information was found for this question in the knowledge base.
Tell the user clearly that you could not find relevant information about their question, and suggest they contact the Autism Society of North Carolina or their local CAP agency for direct assistance. Do not fabricate an answer.`

// PromptAssembler builds the generator prompt from retrieved chunks, the
// persona, and few-shot examples. It is stateless and safe for concurrent
// use.
type PromptAssembler struct{}

// Assemble builds the prompt for a query.
//
// The persona switch is exhaustive over the closed ViewType variant; an
// unrecognized view fails with ErrInvalidViewType. When retrievedChunks is
// empty the prompt still instructs the generator explicitly, so an empty
// retrieval can never produce an unconstrained answer.
func (PromptAssembler) Assemble(queryText string, retrievedChunks []knowledge.RetrievedChunk, view ViewType, examples []FewShotExample) (Prompt, error) {
	var persona string
	switch view {
	case ViewProvider:
		persona = providerInstruction
	case ViewPatient:
		persona = patientInstruction
	default:
		return Prompt{}, fmt.Errorf("%w: %s", ErrInvalidViewType, view)
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(groundingRules)

	if matched := matchExamples(examples, view); len(matched) > 0 {
		b.WriteString("\n\nExample exchanges:\n")
		for _, ex := range matched {
			fmt.Fprintf(&b, "\nQ: %s\nA: %s\n", ex.Question, ex.Answer)
		}
	}

	b.WriteString("\n\n")
	if len(retrievedChunks) == 0 {
		b.WriteString(noContextInstruction)
	} else {
		b.WriteString("Context from the knowledge base:\n")
		for _, chunk := range retrievedChunks {
			// Each chunk is tagged with its source title for traceability.
			fmt.Fprintf(&b, "\n[Source: %s]\n%s\n", chunk.DocumentTitle, chunk.Text)
		}
	}

	return Prompt{System: b.String(), User: queryText}, nil
}

// matchExamples returns the subset of examples matching the persona,
// preserving order.
func matchExamples(examples []FewShotExample, view ViewType) []FewShotExample {
	matched := make([]FewShotExample, 0, len(examples))
	for _, ex := range examples {
		if ex.View == view {
			matched = append(matched, ex)
		}
	}
	return matched
}
