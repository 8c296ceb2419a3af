// Package indexer maintains the vector collection: it derives chunks
// from stored documents, embeds them, and writes them to the vector
// store. It also answers query-time searches with the same embedding
// model used at index time.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkarlin/docquery/internal/models"
	"github.com/mkarlin/docquery/internal/types"
	"github.com/mkarlin/docquery/pkg/chunker"
)

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int // chunks per embedding call
}

type Indexer struct {
	config   Config
	chunker  chunker.Chunker
	embedder types.Embedder
	store    types.VectorStore
	docs     types.DocumentStore
	logger   *slog.Logger
}

func New(config Config, embedder types.Embedder, store types.VectorStore, docs types.DocumentStore, logger *slog.Logger) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		config: config,
		chunker: chunker.NewWithConfig(chunker.Config{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		embedder: embedder,
		store:    store,
		docs:     docs,
		logger:   logger,
	}
}

// ChunkDocument derives the chunk sequence of a document. Pages with no
// text contribute nothing; chunk indexes restart at 0 on every page.
// The output is deterministic for identical input and configuration.
func (ix *Indexer) ChunkDocument(doc models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, page := range doc.Pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for i, text := range ix.chunker.Chunk(page.Text) {
			chunks = append(chunks, models.Chunk{
				Filename:   doc.Filename,
				Page:       page.PageNumber,
				ChunkIndex: i,
				Text:       text,
			})
		}
	}
	return chunks
}

// IndexDocument embeds a document's chunks and swaps them in for any
// entries a previous run stored for the same file, so re-ingestion
// supersedes rather than duplicates. The swap is one store
// transaction: an embedding or write failure leaves the file's
// previous entries untouched.
func (ix *Indexer) IndexDocument(ctx context.Context, doc models.Document) error {
	chunks := ix.ChunkDocument(doc)
	if len(chunks) == 0 {
		ix.logger.Info("document has no indexable text", "file", doc.Filename)
		return nil
	}

	entries, err := ix.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.Filename, err)
	}

	if err := ix.store.ReplaceFile(ctx, doc.Filename, entries); err != nil {
		return fmt.Errorf("index %s: %w", doc.Filename, err)
	}

	ix.logger.Info("indexed document", "file", doc.Filename, "chunks", len(chunks))
	return nil
}

// Rebuild re-ingests every stored document from scratch. All chunks
// are embedded first; only then is the collection swapped in a single
// store transaction, so an interrupted rebuild leaves either the old
// or the new generation, never a mixture of both.
func (ix *Indexer) Rebuild(ctx context.Context) (int, error) {
	docs, err := ix.docs.List()
	if err != nil {
		return 0, fmt.Errorf("rebuild: list documents: %w", err)
	}

	var entries []models.IndexEntry
	for _, doc := range docs {
		chunks := ix.ChunkDocument(doc)
		if len(chunks) == 0 {
			continue
		}
		batch, err := ix.embedChunks(ctx, chunks)
		if err != nil {
			return 0, fmt.Errorf("rebuild: %s: %w", doc.Filename, err)
		}
		entries = append(entries, batch...)
	}

	if err := ix.store.ReplaceAll(ctx, entries); err != nil {
		return 0, fmt.Errorf("rebuild: %w", err)
	}
	return len(entries), nil
}

// Search embeds the query and returns the k nearest chunks. A failure
// to embed or read the store is an explicit error, never an empty
// result set: callers must be able to tell "nothing relevant" from
// "retrieval broke".
func (ix *Indexer) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	embedding, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := ix.store.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

func (ix *Indexer) embedChunks(ctx context.Context, chunks []models.Chunk) ([]models.IndexEntry, error) {
	entries := make([]models.IndexEntry, 0, len(chunks))

	for start := 0; start < len(chunks); start += ix.config.BatchSize {
		end := start + ix.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embeddings, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, err
		}

		for i, c := range batch {
			entries = append(entries, models.IndexEntry{
				Text:       c.Text,
				Filename:   c.Filename,
				Page:       c.Page,
				ChunkIndex: c.ChunkIndex,
				Embedding:  embeddings[i],
			})
		}
	}
	return entries, nil
}
