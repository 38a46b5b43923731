package license

import "testing"

func TestSimilarityEmptyCases(t *testing.T) {
	if s := Similarity("", ""); s != 1 {
		t.Fatalf("both empty: got %v want 1", s)
	}
	if s := Similarity("", "x"); s != 0 {
		t.Fatalf("one empty: got %v want 0", s)
	}
	if s := Similarity("x", ""); s != 0 {
		t.Fatalf("one empty (swapped): got %v want 0", s)
	}
}

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"abc", "深圳市科技创新有限公司", "A座2201室"} {
		if got := Similarity(s, s); got != 1 {
			t.Fatalf("identity %q: got %v want 1", s, got)
		}
	}
}

func TestSimilarityNormalization(t *testing.T) {
	// Hyphens, brackets (both widths), whitespace and case are ignored.
	if got := Similarity("ABC-123 (深圳)", "abc123（深圳）"); got != 1 {
		t.Fatalf("normalized equal: got %v want 1", got)
	}
}

func TestSimilaritySymmetryAndBounds(t *testing.T) {
	pairs := [][2]string{
		{"深圳市科技创新有限公司", "深圳科技创新公司"},
		{"hello", "world"},
		{"张总", "张经理"},
		{"91440300MA5EXAMP1X", "91440300MA5EXAMP2X"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Fatalf("asymmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("out of bounds for %q/%q: %v", p[0], p[1], ab)
		}
	}
}

func TestSimilarityCJKNearMatch(t *testing.T) {
	// One trailing character differs out of 16: 1 - 1/16.
	got := Similarity("深圳市南山区科技园A座2201室", "深圳市南山区科技园A座2201号")
	if got <= 0.8 || got >= 1 {
		t.Fatalf("near match: got %v, want in (0.8, 1)", got)
	}
}

func TestSimilarityCJKEditDistanceExact(t *testing.T) {
	// 张总 vs 张经理: distance 2 over max length 3.
	got := Similarity("张总", "张经理")
	want := 1 - 2.0/3.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestQuickSimilarity(t *testing.T) {
	if s := QuickSimilarity("", ""); s != 1 {
		t.Fatalf("both empty: got %v", s)
	}
	if s := QuickSimilarity("x", ""); s != 0 {
		t.Fatalf("one empty: got %v", s)
	}
	if s := QuickSimilarity("深圳市科技创新有限公司", "深圳市科技创新有限公司"); s != 1 {
		t.Fatalf("equal: got %v", s)
	}
	if s := QuickSimilarity("深圳市科技创新有限公司", "科技创新"); s != 0.9 {
		t.Fatalf("containment: got %v want 0.9", s)
	}
	// No containment: length ratio 2/3.
	got := QuickSimilarity("abc", "xy")
	want := 2.0 / 3.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("ratio: got %v want %v", got, want)
	}
}
