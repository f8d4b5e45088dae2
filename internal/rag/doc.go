// Package rag implements the query-time retrieval-augmented generation
// pipeline: embedding the query, ranking document chunks by vector
// similarity, detecting crisis intent, assembling a persona-tailored prompt,
// invoking the generator, and building citations back to source documents.
//
// The Orchestrator sequences these stages for one request. Retrieval and
// crisis detection run concurrently and are joined before synthesis — both
// results are required, not merely the first to complete. Internal failures
// degrade toward "best available answer plus guaranteed crisis safety net";
// only caller-input errors surface as client failures.
package rag
