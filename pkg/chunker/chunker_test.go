package chunker_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlin/docquery/pkg/chunker"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunkEmptyText(t *testing.T) {
	c := chunker.NewWithConfig(chunker.Config{ChunkSize: 10, ChunkOverlap: 2})
	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\t  "))
}

func TestChunkShortText(t *testing.T) {
	c := chunker.NewWithConfig(chunker.Config{ChunkSize: 500, ChunkOverlap: 50})
	chunks := c.Chunk("the cat sat")
	require.Len(t, chunks, 1)
	assert.Equal(t, "the cat sat", chunks[0])
}

func TestChunkWindowAdvance(t *testing.T) {
	c := chunker.NewWithConfig(chunker.Config{ChunkSize: 4, ChunkOverlap: 1})
	chunks := c.Chunk("a b c d e f g")
	// step = 3: [a b c d] [d e f g] [g]
	assert.Equal(t, []string{"a b c d", "d e f g", "g"}, chunks)
}

func TestChunkDeterminism(t *testing.T) {
	c := chunker.NewWithConfig(chunker.Config{ChunkSize: 500, ChunkOverlap: 50})
	text := words(2345)
	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunkCoverage(t *testing.T) {
	// With size=500, overlap=50 every word must land in at least one
	// window and each internal boundary must overlap by exactly 50 words.
	const total = 1730
	c := chunker.NewWithConfig(chunker.Config{ChunkSize: 500, ChunkOverlap: 50})
	chunks := c.Chunk(words(total))

	covered := 0 // start of the next uncovered word index
	for i, chunk := range chunks {
		ws := strings.Fields(chunk)
		start := i * 450 // size - overlap
		require.LessOrEqual(t, start, covered, "gap before chunk %d", i)

		if i > 0 {
			prev := strings.Fields(chunks[i-1])
			overlapLen := len(prev) - 450
			if overlapLen > 0 {
				assert.Equal(t, prev[len(prev)-overlapLen:], ws[:overlapLen],
					"chunk %d does not share %d words with its predecessor", i, overlapLen)
				assert.Equal(t, 50, overlapLen)
			}
		}

		if end := start + len(ws); end > covered {
			covered = end
		}
	}
	assert.Equal(t, total, covered, "union of chunk ranges must cover every word")
}

func TestChunkOverlapClamped(t *testing.T) {
	// overlap >= size would stall the window; the constructor clamps it.
	c := chunker.NewWithConfig(chunker.Config{ChunkSize: 3, ChunkOverlap: 7})
	chunks := c.Chunk("a b c d e")
	assert.NotEmpty(t, chunks)
}
