// Package tables extracts tabular regions from document pages and
// serializes them as delimited text blocks. Detection cascades from a
// lattice detector (ruled lines) through a stream detector (whitespace
// alignment) to a permissive fallback; the first detector that finds
// tables wins. Tables are a best-effort enrichment: every failure is
// reported as "no tables", never as a page failure.
package tables

import (
	"log/slog"
	"strings"
)

// table is a detected grid of cell text, rows top to bottom.
type table struct {
	rows [][]string
}

type detector interface {
	name() string
	detect(frags []fragment, segs []segment) []table
}

type Extractor struct {
	detectors []detector
}

func NewExtractor() *Extractor {
	return &Extractor{
		detectors: []detector{
			newLatticeDetector(),
			newStreamDetector(),
			newFallbackDetector(),
		},
	}
}

// PageTables returns the serialized tables of one page, or "" when no
// detector finds any.
func (e *Extractor) PageTables(path string, pageNr int) (string, error) {
	frags, segs, err := pageGeometry(path, pageNr)
	if err != nil {
		return "", err
	}

	for _, d := range e.detectors {
		if tables := d.detect(frags, segs); len(tables) > 0 {
			slog.Debug("tables detected",
				"page", pageNr, "detector", d.name(), "tables", len(tables))
			return serialize(tables), nil
		}
	}
	return "", nil
}

// serialize renders tables as bounded blocks with pipe-delimited rows,
// embeddable inline in page text so chunking preserves table borders.
func serialize(tables []table) string {
	var sb strings.Builder
	for i, t := range tables {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("[TABLE]\n")
		for _, row := range t.rows {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = strings.TrimSpace(c)
			}
			sb.WriteString(strings.Join(cells, " | "))
			sb.WriteByte('\n')
		}
		sb.WriteString("[/TABLE]")
	}
	return sb.String()
}
