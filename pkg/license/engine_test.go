package license

import (
	"context"
	"image"
	"testing"

	"github.com/otiai10/gosseract/v2"
)

func TestCollectTokensFiltersLowConfidence(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Word: "名称", Confidence: 92, Box: image.Rect(10, 10, 80, 40)},
		{Word: "噪点", Confidence: 12, Box: image.Rect(0, 0, 5, 5)},
		{Word: "公司", Confidence: 30, Box: image.Rect(90, 10, 160, 40)},
		{Word: "深圳", Confidence: 31, Box: image.Rect(170, 10, 240, 40)},
	}
	tokens, conf := collectTokens(boxes)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens above floor, got %d", len(tokens))
	}
	if tokens[0].Text != "名称" || tokens[1].Text != "深圳" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
	// Confidence averages over all words, including dropped ones.
	want := (92.0 + 12.0 + 30.0 + 31.0) / 4.0
	if conf != want {
		t.Fatalf("confidence: got %v want %v", conf, want)
	}
	if tokens[0].Box.X0 != 10 || tokens[0].Box.X1 != 80 {
		t.Fatalf("unexpected bbox: %+v", tokens[0].Box)
	}
}

func TestCollectTokensEmpty(t *testing.T) {
	tokens, conf := collectTokens(nil)
	if len(tokens) != 0 || conf != 0 {
		t.Fatalf("expected empty, got %v conf=%v", tokens, conf)
	}
}

func TestEngineTerminateBeforeInit(t *testing.T) {
	e := NewEngine()
	if err := e.Terminate(); err != nil {
		t.Fatalf("terminate before init should be a no-op, got %v", err)
	}
}

func TestEngineRecognizeEmptyBuffer(t *testing.T) {
	e := NewEngine()
	defer e.Terminate()
	if _, err := e.Recognize(context.Background(), nil); err != ErrImageRequired {
		t.Fatalf("expected ErrImageRequired, got %v", err)
	}
}

func TestEngineRecognizeCanceledContext(t *testing.T) {
	e := NewEngine()
	defer e.Terminate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recognize(ctx, []byte{1}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
