package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carenav/carenav/internal/crisis"
	"github.com/carenav/carenav/internal/knowledge"
)

// ChunkRetriever is the retrieval surface the orchestrator depends on.
// *Retriever satisfies it.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, queryText string) ([]knowledge.RetrievedChunk, error)
}

// CrisisDetector is the detection surface the orchestrator depends on.
// *crisis.Detector satisfies it. Detect never fails: classifier errors are
// converted to a positive detection inside the detector.
type CrisisDetector interface {
	Detect(ctx context.Context, queryText string) (bool, []crisis.Resource)
}

// AnswerGenerator is the synthesis surface the orchestrator depends on.
// *Generator satisfies it.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Request is one user query.
type Request struct {
	Query     string
	View      ViewType
	SessionID string // opaque correlation identifier, passed through unchanged
}

// Response is the final answer for one query. CrisisDetected and
// CrisisResources are populated whenever detection triggers, regardless of
// whether generation succeeded.
type Response struct {
	Answer          string
	Citations       []Citation
	CrisisDetected  bool
	CrisisResources []crisis.Resource
	SessionID       string
}

// Orchestrator sequences the query pipeline and owns the request lifecycle.
//
// Each query is an independent, stateless unit of work; the orchestrator
// holds no cross-request mutable state and is safe for concurrent use.
type Orchestrator struct {
	retriever ChunkRetriever
	detector  CrisisDetector
	generator AnswerGenerator
	assembler PromptAssembler
	examples  []FewShotExample
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator. examples defaults to
// DefaultFewShotExamples when nil.
func NewOrchestrator(retriever ChunkRetriever, detector CrisisDetector, generator AnswerGenerator, examples []FewShotExample, logger *slog.Logger) (*Orchestrator, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if detector == nil {
		return nil, fmt.Errorf("crisis detector is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if examples == nil {
		examples = DefaultFewShotExamples()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		detector:  detector,
		generator: generator,
		examples:  examples,
		logger:    logger,
	}, nil
}

// Answer runs one query through the pipeline.
//
// Retrieval and crisis detection run concurrently and are joined before
// synthesis — both results are required, completion order must not change
// the response. A retrieval failure degrades to an empty-context prompt so
// the user still receives an answer; a generation failure is returned as an
// error, but the Response still carries the crisis flag and resources so the
// safety net never depends on the generator's health.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Response{SessionID: req.SessionID}, ErrEmptyQuery
	}
	if !req.View.Valid() {
		return Response{SessionID: req.SessionID}, fmt.Errorf("%w: %s", ErrInvalidViewType, req.View)
	}

	logger := o.logger.With("session_id", req.SessionID, "view", req.View.String())
	logger.Debug("query received", "query_len", len(req.Query))

	type retrievalResult struct {
		chunks []knowledge.RetrievedChunk
		err    error
	}
	type crisisResult struct {
		detected  bool
		resources []crisis.Resource
	}

	// Buffered channels (cap 1) let the goroutines exit after a single send
	// even if the caller returns early on context error.
	retrievalCh := make(chan retrievalResult, 1)
	crisisCh := make(chan crisisResult, 1)

	go func() {
		chunks, err := o.retriever.Retrieve(ctx, req.Query)
		retrievalCh <- retrievalResult{chunks, err}
	}()

	go func() {
		detected, resources := o.detector.Detect(ctx, req.Query)
		crisisCh <- crisisResult{detected, resources}
	}()

	// Explicit join: both branches are awaited, not raced.
	rr := <-retrievalCh
	cr := <-crisisCh

	if err := ctx.Err(); err != nil {
		return Response{SessionID: req.SessionID}, fmt.Errorf("query canceled: %w", err)
	}

	chunks := rr.chunks
	if rr.err != nil {
		// Degrade to an empty-context prompt rather than failing the whole
		// query; the assembler instructs the generator accordingly.
		logger.Warn("retrieval failed, degrading to empty context", "error", rr.err)
		chunks = nil
	}

	resp := Response{
		CrisisDetected:  cr.detected,
		CrisisResources: cr.resources,
		SessionID:       req.SessionID,
	}

	prompt, err := o.assembler.Assemble(req.Query, chunks, req.View, o.examples)
	if err != nil {
		// View validity was checked at entry; reaching this is a bug, but the
		// caller still gets the crisis outcome.
		return resp, err
	}

	logger.Debug("synthesizing answer", "chunks", len(chunks), "crisis", cr.detected)

	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		// No partial answer; crisis information still travels with the error.
		logger.Error("generation failed", "error", err)
		return resp, err
	}

	resp.Answer = answer
	resp.Citations = BuildCitations(chunks)

	logger.Info("query answered",
		"citations", len(resp.Citations),
		"crisis", resp.CrisisDetected,
		"degraded", rr.err != nil,
	)
	return resp, nil
}

// IsClientError reports whether err is a caller-input error that should map
// to a 4xx response at the API boundary.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrInvalidViewType)
}
