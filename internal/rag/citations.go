package rag

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"github.com/carenav/carenav/internal/knowledge"
)

// Citation attributes part of a generated answer to a source document.
type Citation struct {
	Title          string  `json:"title"`
	URL            string  `json:"url,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// BuildCitations deduplicates retrieved chunks into one citation per distinct
// source document. A document's relevance score is the maximum similarity
// among its contributing chunks — the strongest matching passage determines
// citation relevance, not an average. Citations are ordered by descending
// relevance score, ties broken by ascending document id.
func BuildCitations(chunks []knowledge.RetrievedChunk) []Citation {
	if len(chunks) == 0 {
		return []Citation{}
	}

	type docEntry struct {
		id       uuid.UUID
		citation Citation
	}

	byDoc := make(map[uuid.UUID]*docEntry, len(chunks))
	for _, chunk := range chunks {
		entry, ok := byDoc[chunk.DocumentID]
		if !ok {
			byDoc[chunk.DocumentID] = &docEntry{
				id: chunk.DocumentID,
				citation: Citation{
					Title:          chunk.DocumentTitle,
					URL:            chunk.DocumentSourceURL,
					RelevanceScore: chunk.Similarity,
				},
			}
			continue
		}
		if chunk.Similarity > entry.citation.RelevanceScore {
			entry.citation.RelevanceScore = chunk.Similarity
		}
	}

	entries := make([]*docEntry, 0, len(byDoc))
	for _, entry := range byDoc {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].citation.RelevanceScore != entries[j].citation.RelevanceScore {
			return entries[i].citation.RelevanceScore > entries[j].citation.RelevanceScore
		}
		return bytes.Compare(entries[i].id[:], entries[j].id[:]) < 0
	})

	citations := make([]Citation, len(entries))
	for i, entry := range entries {
		citations[i] = entry.citation
	}
	return citations
}
