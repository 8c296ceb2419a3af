// Package ocr re-extracts single pages with Tesseract. A page is
// rendered from its embedded image streams, optionally preprocessed,
// and handed to the OCR engine with the configured language profile.
//
// Tesseract must be installed on the system:
//
//	apt-get install tesseract-ocr
//	brew install tesseract
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/mkarlin/docquery/pkg/imaging"
)

type Config struct {
	Language string // Tesseract language profile, e.g. "eng", "eng+fra"
	DPI      int    // target render resolution
	Denoise  bool   // run the imaging cleanup chain before OCR
	Timeout  time.Duration
}

type Extractor struct {
	config Config
}

func NewExtractor(config Config) *Extractor {
	if config.Language == "" {
		config.Language = "eng"
	}
	if config.DPI <= 0 {
		config.DPI = 300
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Extractor{config: config}
}

// PageText renders pageNr of the document at path and runs OCR on it.
// The page image is resampled to the configured DPI and, when Denoise
// is set, cleaned up before recognition. A timeout counts as a step
// failure and surfaces as an error; the cascade falls back to whatever
// text the page already has.
func (e *Extractor) PageText(ctx context.Context, path string, pageNr int) (string, error) {
	img, err := renderPage(path, pageNr, e.config.DPI)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", pageNr, err)
	}

	if e.config.Denoise {
		img = imaging.Preprocess(img)
	} else {
		img = imaging.ToGray(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page %d: %w", pageNr, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()
	return e.recognize(ctx, buf.Bytes())
}

// recognize runs Tesseract in a goroutine so a hung engine cannot block
// the whole batch past the configured timeout.
func (e *Extractor) recognize(ctx context.Context, imageData []byte) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(e.config.Language); err != nil {
			done <- result{err: fmt.Errorf("set language %q: %w", e.config.Language, err)}
			return
		}
		if err := client.SetImageFromBytes(imageData); err != nil {
			done <- result{err: fmt.Errorf("set image: %w", err)}
			return
		}
		text, err := client.Text()
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return r.text, nil
	}
}
