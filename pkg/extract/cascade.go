// Package extract turns document files into ordered page records by
// cascading through extraction strategies: a structured parse first, a
// permissive parse for malformed files, then per-page OCR repair for
// pages that yielded too little text, and finally table enrichment.
package extract

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/mkarlin/docquery/internal/models"
	"github.com/mkarlin/docquery/internal/types"
	"github.com/mkarlin/docquery/pkg/normalize"
)

type CascadeConfig struct {
	MinTextLength int
	// SubstituteOCRChars applies lossy character fixes (| to I, 0 to O)
	// to OCR output only, never to parsed text or table blocks.
	SubstituteOCRChars bool
}

// Cascade runs the whole-document strategies in order and repairs the
// result page by page. OCR and Tables are optional; a nil field
// disables that step.
type Cascade struct {
	config     CascadeConfig
	strategies []Strategy
	ocr        types.PageOCR
	tables     types.TableSource
	logger     *slog.Logger
}

func NewCascade(config CascadeConfig, ocr types.PageOCR, tables types.TableSource, logger *slog.Logger) *Cascade {
	if config.MinTextLength <= 0 {
		config.MinTextLength = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{
		config:     config,
		strategies: []Strategy{StructuredStrategy{}, LegacyStrategy{}},
		ocr:        ocr,
		tables:     tables,
		logger:     logger,
	}
}

// ExtractFile produces one Document covering every page of the file.
// It returns ErrNoPages (wrapped) only when every whole-document
// strategy failed; per-page OCR and table failures are logged and
// contribute nothing.
func (c *Cascade) ExtractFile(ctx context.Context, path string) (models.Document, error) {
	filename := filepath.Base(path)

	var pages []models.Page
	for _, s := range c.strategies {
		got, err := s.Extract(path)
		if err != nil {
			c.logger.Warn("extraction strategy failed",
				"file", filename, "strategy", s.Name(), "error", err)
			continue
		}
		if len(got) == 0 {
			continue
		}
		pages = got
		break
	}
	if len(pages) == 0 {
		return models.Document{}, ErrNoPages
	}

	for i := range pages {
		pages[i].Text = normalize.Clean(pages[i].Text)
	}
	c.refreshNeedsOCR(pages)

	if c.ocr != nil {
		c.repairWithOCR(ctx, path, filename, pages)
	}

	// Tables go in after normalization: the cleaner drops isolated
	// punctuation tokens, which would strip the pipe cell delimiters.
	if c.tables != nil {
		c.appendTables(path, filename, pages)
	}

	return models.Document{
		Filename:   filename,
		TotalPages: len(pages),
		Pages:      pages,
	}, nil
}

// repairWithOCR re-extracts short pages with OCR. The OCR text wins
// only when it is strictly longer than what is already there, so OCR
// garbage never regresses a page that has some real text.
func (c *Cascade) repairWithOCR(ctx context.Context, path, filename string, pages []models.Page) {
	for i := range pages {
		if !pages[i].NeedsOCR {
			continue
		}
		text, err := c.ocr.PageText(ctx, path, pages[i].PageNumber)
		if err != nil {
			c.logger.Warn("ocr failed", "file", filename, "page", pages[i].PageNumber, "error", err)
			continue
		}
		text = normalize.CleanWithOptions(text, normalize.Options{
			SubstituteOCRChars: c.config.SubstituteOCRChars,
		})
		if len(text) > len(pages[i].Text) {
			pages[i].Text = text
			pages[i].Method = models.MethodOCR
			pages[i].NeedsOCR = len(text) < c.config.MinTextLength
		}
	}
}

// appendTables adds serialized table blocks to each page. Tables are
// additive: prose text is never replaced.
func (c *Cascade) appendTables(path, filename string, pages []models.Page) {
	for i := range pages {
		block, err := c.tables.PageTables(path, pages[i].PageNumber)
		if err != nil {
			c.logger.Warn("table extraction failed",
				"file", filename, "page", pages[i].PageNumber, "error", err)
			continue
		}
		if block == "" {
			continue
		}
		if pages[i].Text == "" {
			pages[i].Text = block
		} else {
			pages[i].Text += "\n" + block
		}
	}
}

func (c *Cascade) refreshNeedsOCR(pages []models.Page) {
	for i := range pages {
		pages[i].NeedsOCR = len(pages[i].Text) < c.config.MinTextLength
	}
}
