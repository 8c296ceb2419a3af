package ocr

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mkarlin/docquery/pkg/imaging"
)

// renderPage produces a raster image of one page. Scanned documents
// carry the page as an embedded image stream; the largest image on the
// page is taken as the page raster and resampled to the requested DPI
// based on the page's media box size in points.
func renderPage(path string, pageNr, dpi int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if pageNr < 1 || pageNr > ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range (1..%d)", pageNr, ctx.PageCount)
	}

	imgs, err := pdfcpu.ExtractPageImages(ctx, pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("extract page images: %w", err)
	}
	if len(imgs) == 0 {
		return nil, fmt.Errorf("page %d has no image streams to render", pageNr)
	}

	var best image.Image
	for _, pi := range imgs {
		data, err := io.ReadAll(pi)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		if best == nil || area(img) > area(best) {
			best = img
		}
	}
	if best == nil {
		return nil, fmt.Errorf("page %d: no decodable image stream", pageNr)
	}

	return resampleToDPI(ctx, pageNr, best, dpi), nil
}

// resampleToDPI scales the page raster so its width matches the page's
// physical width at the requested resolution.
func resampleToDPI(ctx *model.Context, pageNr int, img image.Image, dpi int) image.Image {
	dims, err := ctx.PageDims()
	if err != nil || pageNr > len(dims) {
		return img
	}
	widthPts := dims[pageNr-1].Width
	if widthPts <= 0 {
		return img
	}
	targetWidth := widthPts / 72.0 * float64(dpi)
	factor := targetWidth / float64(img.Bounds().Dx())
	return imaging.Resample(img, factor)
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}
