// Package chunker splits normalized page text into overlapping
// fixed-size word windows for embedding.
package chunker

import "strings"

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

type Config struct {
	ChunkSize    int // window length in words
	ChunkOverlap int // words shared between consecutive windows
}

type Chunker struct {
	config Config
}

func NewWithConfig(config Config) Chunker {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = DefaultChunkOverlap
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize - 1
	}
	return Chunker{config: config}
}

// Chunk splits text into word windows of ChunkSize words, each window
// sharing ChunkOverlap words with its predecessor. The result is
// deterministic: identical text and config always produce identical
// boundaries. Whitespace-only windows are dropped.
func (c Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.config.ChunkSize - c.config.ChunkOverlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + c.config.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
