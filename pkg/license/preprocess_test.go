package license

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{200, 200, 200, 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocessInvalidBufferFallsBack(t *testing.T) {
	in := []byte("not an image at all")
	out := Preprocess(in)
	if !bytes.Equal(in, out) {
		t.Fatalf("invalid input must be returned unchanged")
	}
}

func TestPreprocessDownscalesLargeImage(t *testing.T) {
	out := Preprocess(encodePNG(t, 3000, 1500))
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode processed: %v", err)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w != 2000 || h != 1000 {
		t.Fatalf("expected 2000x1000, got %dx%d", w, h)
	}
}

func TestPreprocessUpscalesSmallImage(t *testing.T) {
	out := Preprocess(encodePNG(t, 400, 800))
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode processed: %v", err)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if h != 2000 || w != 1000 {
		t.Fatalf("expected 1000x2000, got %dx%d", w, h)
	}
}

func TestStretchHistogramExpandsRange(t *testing.T) {
	img := imaging.New(4, 1, color.NRGBA{100, 100, 100, 255})
	img.SetNRGBA(0, 0, color.NRGBA{60, 60, 60, 255})
	img.SetNRGBA(3, 0, color.NRGBA{180, 180, 180, 255})
	out := stretchHistogram(img)
	if v := out.NRGBAAt(0, 0).R; v != 0 {
		t.Fatalf("min pixel should stretch to 0, got %d", v)
	}
	if v := out.NRGBAAt(3, 0).R; v != 255 {
		t.Fatalf("max pixel should stretch to 255, got %d", v)
	}
}
