package models

import "fmt"

// ExtractionMethod identifies which strategy produced a page's text.
type ExtractionMethod string

const (
	MethodStructured ExtractionMethod = "structured"
	MethodLegacy     ExtractionMethod = "legacy"
	MethodOCR        ExtractionMethod = "ocr"
)

// Page holds the extracted text of a single document page. NeedsOCR is
// true whenever Text is shorter than the configured minimum at the time
// of the last extraction attempt; it is re-evaluated after every
// strategy that touches the page.
type Page struct {
	PageNumber int              `json:"page_number"`
	Text       string           `json:"text"`
	Method     ExtractionMethod `json:"extraction_method"`
	NeedsOCR   bool             `json:"-"`
}

// Document is the persisted extraction result for one input file. It is
// written once per extraction run and superseded, never mutated, by
// re-running extraction.
type Document struct {
	Filename   string `json:"filename"`
	TotalPages int    `json:"total_pages"`
	Pages      []Page `json:"pages"`
}

// Chunk is one overlapping word window of a page's text, the unit that
// gets embedded and indexed. ChunkIndex is 0-based within its page.
type Chunk struct {
	Filename   string
	Page       int
	ChunkIndex int
	Text       string
}

// IndexEntry is a chunk as stored in the vector collection. IDs are
// assigned monotonically by the store and never reused within a
// generation of the index.
type IndexEntry struct {
	ID         int64
	Text       string
	Filename   string
	Page       int
	ChunkIndex int
	Embedding  []float32
}

// SearchResult is one ranked hit from a similarity query. Rank is
// 0-based in descending similarity order. Not persisted.
type SearchResult struct {
	Text       string
	Filename   string
	Page       int
	ChunkIndex int
	Rank       int
}

// Citation renders the human-readable source attribution for a result.
func (r SearchResult) Citation() string {
	return fmt.Sprintf("%s (Page %d)", r.Filename, r.Page)
}
