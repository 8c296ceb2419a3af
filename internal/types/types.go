package types

import (
	"context"

	"github.com/mkarlin/docquery/internal/models"
)

// Core interfaces shared between the extraction, indexing and retrieval
// layers. Implementations live under pkg/; fakes for tests implement
// the same contracts.

// Embedder turns text into fixed-length vectors. Index-time and
// query-time embeddings must come from the same implementation.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the persisted chunk collection. Upsert assigns entry
// IDs monotonically and never touches unrelated rows. ReplaceFile
// atomically swaps one file's entries so re-ingestion supersedes
// instead of duplicating, and a failed swap keeps the previous
// generation. ReplaceAll swaps the whole collection atomically and is
// the primitive rebuilds use. Search returns up to k entries by
// descending cosine similarity with ties broken by ascending ID; an
// empty collection yields an empty slice and a nil error. Clear on an
// empty collection is a no-op.
type VectorStore interface {
	Upsert(ctx context.Context, entries []models.IndexEntry) error
	ReplaceFile(ctx context.Context, filename string, entries []models.IndexEntry) error
	ReplaceAll(ctx context.Context, entries []models.IndexEntry) error
	Search(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close()
}

// DocumentStore persists one structured record per extracted file and
// hands them back for re-indexing.
type DocumentStore interface {
	Save(doc models.Document) error
	Load(filename string) (models.Document, error)
	List() ([]models.Document, error)
}

// Searcher answers natural-language queries with ranked chunks. The
// indexer implements this; the retrieval assembler consumes it.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchResult, error)
}

// PageOCR re-extracts a single page with OCR. Errors (engine missing,
// rendering failed, timeout) are logged by the caller and treated as
// "no contribution from this step", never as fatal.
type PageOCR interface {
	PageText(ctx context.Context, path string, pageNr int) (string, error)
}

// TableSource extracts serialized table blocks for a single page.
type TableSource interface {
	PageTables(path string, pageNr int) (string, error)
}
