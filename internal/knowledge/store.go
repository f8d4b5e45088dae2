// Package knowledge manages the document chunk index backed by
// PostgreSQL + pgvector.
//
// The Store exposes nearest-neighbor search over chunk embeddings and a
// minimal write path used by tests and the admin side. All reads join the
// parent document so results carry a verifiable source title and URL.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Sentinel errors, checkable with errors.Is().
var (
	// ErrDimensionMismatch indicates an embedding whose length is not
	// VectorDimension. Never silently truncated.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexUnavailable indicates the underlying vector store could not
	// be reached or the search query failed.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)

// searchTimeout bounds a single vector search so a slow index cannot block
// the whole query pipeline.
const searchTimeout = 10 * time.Second

// searchChunksSQL ranks chunks by ascending cosine distance. Ties between
// equally distant chunks break on chunk_index, then document_id, so output
// order is deterministic. The similarity comparison is strict: chunks exactly
// at the threshold are excluded.
const searchChunksSQL = `
	SELECT c.id, c.document_id, c.chunk_text, c.chunk_index, c.metadata,
	       1 - (c.embedding <=> $1) AS similarity,
	       d.title, d.source_url
	FROM document_chunks c
	JOIN documents d ON d.id = c.document_id
	WHERE 1 - (c.embedding <=> $1) > $2
	ORDER BY c.embedding <=> $1, c.chunk_index, c.document_id
	LIMIT $3`

// Store manages document chunks with vector search capabilities.
//
// Store is safe for concurrent use by multiple goroutines; every call is
// independent and holds no state beyond the connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a chunk Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Search returns the chunks most similar to queryEmbedding, joined with their
// parent document. Only chunks with similarity strictly greater than threshold
// are returned, ordered by descending similarity, at most limit rows.
//
// Fails with ErrDimensionMismatch before touching the database when the query
// embedding is not VectorDimension long, and with ErrIndexUnavailable when the
// store cannot be reached.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, threshold float64, limit int) ([]RetrievedChunk, error) {
	if len(queryEmbedding) != VectorDimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(queryEmbedding), VectorDimension)
	}
	if limit <= 0 {
		return []RetrievedChunk{}, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec := pgvector.NewVector(queryEmbedding)
	rows, err := s.pool.Query(searchCtx, searchChunksSQL, vec, threshold, limit)
	if err != nil {
		s.logger.Error("vector search failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer rows.Close()

	results := make([]RetrievedChunk, 0, limit)
	for rows.Next() {
		var (
			rc          RetrievedChunk
			metadataRaw []byte
			sourceURL   pgtype.Text
		)
		if err := rows.Scan(&rc.ChunkID, &rc.DocumentID, &rc.Text, &rc.ChunkIndex,
			&metadataRaw, &rc.Similarity, &rc.DocumentTitle, &sourceURL); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		if len(metadataRaw) > 0 {
			if err := json.Unmarshal(metadataRaw, &rc.Metadata); err != nil {
				s.logger.Warn("failed to parse chunk metadata", "chunk_id", rc.ChunkID, "error", err)
				rc.Metadata = map[string]any{}
			}
		}
		if sourceURL.Valid {
			rc.DocumentSourceURL = sourceURL.String
		}
		results = append(results, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	s.logger.Debug("vector search completed",
		"results", len(results), "threshold", threshold, "limit", limit)
	return results, nil
}

// UpsertDocument inserts or updates a source document. Used by tests and the
// admin upload side; the query pipeline never calls it.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling document metadata: %w", err)
	}

	var sourceURL pgtype.Text
	if doc.SourceURL != "" {
		sourceURL = pgtype.Text{String: doc.SourceURL, Valid: true}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, source_url, content_type, file_path, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title, metadata = EXCLUDED.metadata, updated_at = now()`,
		doc.ID, doc.Title, sourceURL, doc.ContentType, doc.FilePath, metadataJSON)
	if err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("upserted document", "id", doc.ID, "title", doc.Title)
	return nil
}

// InsertChunk inserts a document chunk. The embedding must be exactly
// VectorDimension long; a mismatch is a fatal ingestion error.
func (s *Store) InsertChunk(ctx context.Context, chunk Chunk) error {
	if len(chunk.Embedding) != VectorDimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(chunk.Embedding), VectorDimension)
	}
	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("chunk_index must be >= 0, got %d", chunk.ChunkIndex)
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling chunk metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO document_chunks (id, document_id, chunk_text, chunk_index, embedding, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID, chunk.DocumentID, chunk.Text, chunk.ChunkIndex,
		pgvector.NewVector(chunk.Embedding), metadataJSON)
	if err != nil {
		return fmt.Errorf("inserting chunk %q: %w", chunk.ID, err)
	}
	return nil
}

// DocumentByID fetches a single document. The wrapped error matches
// pgx.ErrNoRows when the document does not exist.
func (s *Store) DocumentByID(ctx context.Context, id uuid.UUID) (Document, error) {
	var (
		doc         Document
		metadataRaw []byte
		sourceURL   pgtype.Text
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, source_url, content_type, file_path, metadata,
		        upload_date, created_at, updated_at
		 FROM documents WHERE id = $1`, id).
		Scan(&doc.ID, &doc.Title, &sourceURL, &doc.ContentType, &doc.FilePath,
			&metadataRaw, &doc.UploadDate, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	if err != nil {
		return Document{}, fmt.Errorf("fetching document %s: %w", id, err)
	}
	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &doc.Metadata)
	}
	if sourceURL.Valid {
		doc.SourceURL = sourceURL.String
	}
	return doc, nil
}
