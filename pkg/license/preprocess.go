package license

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// maxDimension caps the longer edge after resizing. Small captures are
// upscaled to the same cap so glyph size lands in the range Tesseract
// recognizes well.
const maxDimension = 2000

// Preprocess normalizes a raw image buffer for recognition: resize,
// grayscale, histogram stretch, sharpen, PNG re-encode. Best-effort
// stage; on any failure the original buffer is returned unchanged so
// recognition always receives some image.
func Preprocess(buf []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return buf
	}
	resized := resizeForRecognition(img)
	gray := imaging.Grayscale(resized)
	gray = stretchHistogram(gray)
	gray = imaging.Sharpen(gray, 0.7)
	var out bytes.Buffer
	if err := imaging.Encode(&out, gray, imaging.PNG); err != nil {
		return buf
	}
	return out.Bytes()
}

// resizeForRecognition fits the image inside maxDimension square while
// preserving aspect ratio, enlarging small inputs rather than cropping.
func resizeForRecognition(img image.Image) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return img
	}
	longest := w
	if h > longest {
		longest = h
	}
	if longest == maxDimension {
		return img
	}
	if longest > maxDimension {
		return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	if w >= h {
		return imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
}

// stretchHistogram performs a min-max contrast stretch on a grayscale
// NRGBA image (R==G==B after imaging.Grayscale).
func stretchHistogram(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	lo, hi := 255, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := int(img.NRGBAAt(x, y).R)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo || (lo == 0 && hi == 255) {
		return img
	}
	scale := 255.0 / float64(hi-lo)
	out := imaging.Clone(img)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			v := float64(int(c.R)-lo) * scale
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			g := uint8(v + 0.5)
			out.SetNRGBA(x, y, color.NRGBA{R: g, G: g, B: g, A: c.A})
		}
	}
	return out
}
