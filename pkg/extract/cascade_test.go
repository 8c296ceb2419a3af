package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlin/docquery/internal/models"
)

type fakeStrategy struct {
	name  string
	pages []models.Page
	err   error
}

func (f fakeStrategy) Name() string { return f.name }

func (f fakeStrategy) Extract(path string) ([]models.Page, error) {
	return f.pages, f.err
}

type fakeOCR struct {
	byPage map[int]string
	err    error
	calls  []int
}

func (f *fakeOCR) PageText(ctx context.Context, path string, pageNr int) (string, error) {
	f.calls = append(f.calls, pageNr)
	if f.err != nil {
		return "", f.err
	}
	return f.byPage[pageNr], nil
}

type fakeTables struct {
	byPage map[int]string
	err    error
}

func (f *fakeTables) PageTables(path string, pageNr int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.byPage[pageNr], nil
}

func newTestCascade(strategies ...Strategy) *Cascade {
	c := NewCascade(CascadeConfig{MinTextLength: 10}, nil, nil, nil)
	c.strategies = strategies
	return c
}

func TestCascadeFallsThroughToSecondStrategy(t *testing.T) {
	primary := fakeStrategy{name: "structured", err: errors.New("parse error")}
	secondary := fakeStrategy{name: "legacy", pages: []models.Page{
		{PageNumber: 1, Text: "recovered from a malformed file just fine", Method: models.MethodLegacy},
	}}

	c := newTestCascade(primary, secondary)
	doc, err := c.ExtractFile(context.Background(), "broken.pdf")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, models.MethodLegacy, doc.Pages[0].Method)
	assert.Equal(t, "broken.pdf", doc.Filename)
	assert.Equal(t, 1, doc.TotalPages)
}

func TestCascadeAllStrategiesFail(t *testing.T) {
	c := newTestCascade(
		fakeStrategy{name: "structured", err: errors.New("boom")},
		fakeStrategy{name: "legacy", err: errors.New("boom too")},
	)
	_, err := c.ExtractFile(context.Background(), "doomed.pdf")
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestCascadeEmptyStrategyResultFallsThrough(t *testing.T) {
	c := newTestCascade(
		fakeStrategy{name: "structured", pages: nil},
		fakeStrategy{name: "legacy", pages: []models.Page{
			{PageNumber: 1, Text: "legacy saw something here after all", Method: models.MethodLegacy},
		}},
	)
	doc, err := c.ExtractFile(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, models.MethodLegacy, doc.Pages[0].Method)
}

func TestCascadeOCRRepairsShortPages(t *testing.T) {
	ocr := &fakeOCR{byPage: map[int]string{
		2: "text recovered by the OCR engine from the scanned page image",
	}}
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "a page with plenty of perfectly good embedded text", Method: models.MethodStructured},
		{PageNumber: 2, Text: "stub", Method: models.MethodStructured},
	}})
	c.ocr = ocr

	doc, err := c.ExtractFile(context.Background(), "scan.pdf")
	require.NoError(t, err)

	// Only the short page goes through OCR.
	assert.Equal(t, []int{2}, ocr.calls)
	assert.Equal(t, models.MethodStructured, doc.Pages[0].Method)
	assert.Equal(t, models.MethodOCR, doc.Pages[1].Method)
	assert.Contains(t, doc.Pages[1].Text, "OCR engine")
	assert.False(t, doc.Pages[1].NeedsOCR)
}

func TestCascadeOCRNeverRegressesText(t *testing.T) {
	// OCR output no longer than the existing text is discarded.
	ocr := &fakeOCR{byPage: map[int]string{1: "x"}}
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "short", Method: models.MethodStructured},
	}})
	c.ocr = ocr

	doc, err := c.ExtractFile(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "short", doc.Pages[0].Text)
	assert.Equal(t, models.MethodStructured, doc.Pages[0].Method)
	assert.True(t, doc.Pages[0].NeedsOCR)
}

func TestCascadeOCRErrorIsIsolated(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("tesseract exploded")}
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "tiny", Method: models.MethodStructured},
		{PageNumber: 2, Text: "another page with more than enough text", Method: models.MethodStructured},
	}})
	c.ocr = ocr

	doc, err := c.ExtractFile(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 2)
	assert.Equal(t, "tiny", doc.Pages[0].Text)
}

func TestCascadeAppendsTables(t *testing.T) {
	tables := &fakeTables{byPage: map[int]string{
		1: "[TABLE]\nname | total\nwidgets | 40\n[/TABLE]",
	}}
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "quarterly report preamble text goes here", Method: models.MethodStructured},
	}})
	c.tables = tables

	doc, err := c.ExtractFile(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Contains(t, doc.Pages[0].Text, "quarterly report preamble")
	assert.Contains(t, doc.Pages[0].Text, "[TABLE]")
	assert.Contains(t, doc.Pages[0].Text, "[/TABLE]")

	// Cell delimiters must survive the cascade so chunks keep the
	// table structure.
	assert.Contains(t, doc.Pages[0].Text, "name | total")
	assert.Contains(t, doc.Pages[0].Text, "widgets | 40")
}

func TestCascadeNormalizesProseBeforeAppendingTables(t *testing.T) {
	tables := &fakeTables{byPage: map[int]string{
		1: "[TABLE]\nqty | price\n3 | 9.50\n[/TABLE]",
	}}
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "messy  |||  prose Page 1 before the figures", Method: models.MethodStructured},
	}})
	c.tables = tables

	doc, err := c.ExtractFile(context.Background(), "report.pdf")
	require.NoError(t, err)

	// Prose is cleaned of scan noise, table delimiters are untouched.
	assert.True(t, strings.HasPrefix(doc.Pages[0].Text, "messy prose before the figures"))
	assert.Contains(t, doc.Pages[0].Text, "qty | price")
	assert.Contains(t, doc.Pages[0].Text, "3 | 9.50")
}

func TestCascadeTableErrorIsIsolated(t *testing.T) {
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "prose text that must survive a table backend failure", Method: models.MethodStructured},
	}})
	c.tables = &fakeTables{err: errors.New("no table backend")}

	doc, err := c.ExtractFile(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Pages[0].Text, "prose text"))
}

func TestCascadeSubstitutesOCRCharsOnlyInOCROutput(t *testing.T) {
	ocr := &fakeOCR{byPage: map[int]string{
		2: "|NVOICE recovered from scan dated 2024",
	}}
	c := NewCascade(CascadeConfig{MinTextLength: 10, SubstituteOCRChars: true}, nil, nil, nil)
	c.strategies = []Strategy{fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "embedded text quoting the amount 100", Method: models.MethodStructured},
		{PageNumber: 2, Text: "stub", Method: models.MethodStructured},
	}}}
	c.ocr = ocr

	doc, err := c.ExtractFile(context.Background(), "scan.pdf")
	require.NoError(t, err)

	// Parsed text keeps its digits; only the OCR page is rewritten.
	assert.Equal(t, "embedded text quoting the amount 100", doc.Pages[0].Text)
	assert.Contains(t, doc.Pages[1].Text, "INVOICE")
	assert.Contains(t, doc.Pages[1].Text, "2O24")
}

func TestCascadeNormalizesFinalText(t *testing.T) {
	c := newTestCascade(fakeStrategy{name: "structured", pages: []models.Page{
		{PageNumber: 1, Text: "noisy  |||  scanned   text Page 1 with artifacts", Method: models.MethodStructured},
	}})
	doc, err := c.ExtractFile(context.Background(), "noisy.pdf")
	require.NoError(t, err)
	assert.Equal(t, "noisy scanned text with artifacts", doc.Pages[0].Text)
}
