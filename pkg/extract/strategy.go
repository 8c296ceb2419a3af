package extract

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mkarlin/docquery/internal/models"
)

// ErrNoPages is returned by a strategy that read the file but found no
// pages, and by the cascade when every strategy failed.
var ErrNoPages = errors.New("no pages extracted")

// Strategy is one way of turning a whole document into pages. A
// strategy that cannot handle the file at all returns an error; the
// cascade then falls through to the next one.
type Strategy interface {
	Name() string
	Extract(path string) ([]models.Page, error)
}

// StructuredStrategy parses the document with full validation and
// walks each page's content stream for positioned text. It is the
// preferred strategy for well-formed files.
type StructuredStrategy struct{}

func (StructuredStrategy) Name() string { return "structured" }

func (StructuredStrategy) Extract(path string) ([]models.Page, error) {
	return extractPages(path, model.NewDefaultConfiguration(), models.MethodStructured, pageText)
}

// LegacyStrategy is the permissive fallback: validation is relaxed and
// every string literal in the page content is scraped regardless of the
// operator carrying it. It recovers text from malformed documents the
// structured parse rejects, at the cost of ordering fidelity.
type LegacyStrategy struct{}

func (LegacyStrategy) Name() string { return "legacy" }

func (LegacyStrategy) Extract(path string) ([]models.Page, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return extractPages(path, conf, models.MethodLegacy, pageTextPermissive)
}

func extractPages(path string, conf *model.Configuration, method models.ExtractionMethod,
	textFn func(*model.Context, int) string) ([]models.Page, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	pages := make([]models.Page, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pages = append(pages, models.Page{
			PageNumber: pageNr,
			Text:       textFn(ctx, pageNr),
			Method:     method,
		})
	}
	return pages, nil
}
