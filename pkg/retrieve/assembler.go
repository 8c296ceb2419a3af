// Package retrieve assembles query context for answer generation:
// ranked chunk texts joined into one context block, plus de-duplicated
// human-readable source citations.
package retrieve

import (
	"context"
	"strings"

	"github.com/mkarlin/docquery/internal/types"
)

type Assembler struct {
	searcher types.Searcher
	nResults int
}

func NewAssembler(searcher types.Searcher, nResults int) *Assembler {
	if nResults <= 0 {
		nResults = 5
	}
	return &Assembler{searcher: searcher, nResults: nResults}
}

// Assemble retrieves the top chunks for the query and returns the
// concatenated context text plus one citation per distinct source,
// in first-seen rank order. Empty context with a nil error means the
// index holds nothing relevant; callers must treat that as
// insufficient grounding, not as a retrieval fault. A non-nil error is
// the retrieval fault case and the context must not be used.
func (a *Assembler) Assemble(ctx context.Context, query string) (string, []string, error) {
	results, err := a.searcher.Search(ctx, query, a.nResults)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(results))
	var citations []string
	seen := make(map[string]bool)

	for _, r := range results {
		parts = append(parts, r.Text)
		if c := r.Citation(); !seen[c] {
			seen[c] = true
			citations = append(citations, c)
		}
	}

	return strings.Join(parts, "\n\n"), citations, nil
}
