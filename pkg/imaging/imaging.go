// Package imaging prepares rendered page images for OCR: grayscale
// conversion, denoising, contrast enhancement and binarization.
// Tesseract performs markedly better on clean bilevel input than on
// raw scans.
package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Preprocess runs the full cleanup chain on a rendered page image and
// returns a binarized grayscale image ready for OCR.
func Preprocess(img image.Image) *image.Gray {
	gray := ToGray(img)
	gray = Denoise(gray)
	gray = StretchContrast(gray)
	return Binarize(gray)
}

// ToGray converts any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// Resample scales the image by factor using bilinear interpolation.
// Factors <= 0 or == 1 return the input unchanged.
func Resample(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Denoise applies a 3x3 box blur, enough to knock out salt-and-pepper
// scan noise without smearing glyph edges badly.
func Denoise(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
						continue
					}
					sum += int(src.GrayAt(px, py).Y)
					n++
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum / n)})
		}
	}
	return dst
}

// StretchContrast linearly remaps the observed intensity range onto the
// full 0..255 scale.
func StretchContrast(src *image.Gray) *image.Gray {
	b := src.Bounds()
	lo, hi := uint8(255), uint8(0)
	for i := range src.Pix {
		if src.Pix[i] < lo {
			lo = src.Pix[i]
		}
		if src.Pix[i] > hi {
			hi = src.Pix[i]
		}
	}
	if hi <= lo {
		return src
	}

	dst := image.NewGray(b)
	scale := 255.0 / float64(hi-lo)
	for i := range src.Pix {
		dst.Pix[i] = uint8(float64(src.Pix[i]-lo) * scale)
	}
	return dst
}

// Binarize thresholds the image to black and white using Otsu's
// method, which picks the threshold that maximizes the between-class
// variance of the intensity histogram.
func Binarize(src *image.Gray) *image.Gray {
	t := otsuThreshold(src)
	b := src.Bounds()
	dst := image.NewGray(b)
	for i := range src.Pix {
		if src.Pix[i] > t {
			dst.Pix[i] = 255
		} else {
			dst.Pix[i] = 0
		}
	}
	return dst
}

func otsuThreshold(src *image.Gray) uint8 {
	var hist [256]int
	for i := range src.Pix {
		hist[src.Pix[i]]++
	}
	total := len(src.Pix)
	if total == 0 {
		return 128
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var sumBack, weightBack float64
	var best float64
	threshold := uint8(128)
	for t := 0; t < 256; t++ {
		weightBack += float64(hist[t])
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t * hist[t])

		meanBack := sumBack / weightBack
		meanFore := (sumAll - sumBack) / weightFore
		between := weightBack * weightFore * (meanBack - meanFore) * (meanBack - meanFore)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}
