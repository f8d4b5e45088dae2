package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// VectorDimension is the fixed embedding dimension for document chunks.
// The document_chunks schema declares vector(384); any other length is
// rejected before it reaches the database.
const VectorDimension = 384

// Document is a source document as stored by the ingestion pipeline.
// The query service reads documents but never mutates them.
type Document struct {
	ID          uuid.UUID
	Title       string
	SourceURL   string // empty when the document has no public URL
	ContentType string
	FilePath    string
	Metadata    map[string]any
	UploadDate  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is a contiguous slice of a document's text with its embedding.
// ChunkIndex is 0-based and unique per document; it preserves original
// document order.
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Text       string
	ChunkIndex int32
	Embedding  []float32
	Metadata   map[string]any
	CreatedAt  time.Time
}

// RetrievedChunk is a chunk returned by a similarity search, joined with its
// parent document's title and source URL. It exists only for the lifetime of
// a single query.
type RetrievedChunk struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Text       string
	ChunkIndex int32
	Metadata   map[string]any

	// Similarity is 1 - cosine_distance, strictly above the search threshold.
	Similarity float64

	DocumentTitle     string
	DocumentSourceURL string
}
