package license

import "context"

// VerificationReport is the full outcome of one document verification.
type VerificationReport struct {
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"`
	Extracted  Fields            `json:"extracted_data"`
	Comparison *ComparisonResult `json:"comparison_result"`
}

// Verifier runs the whole pipeline: preprocess, recognize, extract,
// compare, recommend. Stateless apart from the shared engine, so a single
// Verifier may serve concurrent documents.
type Verifier struct {
	engine *Engine
}

func NewVerifier(engine *Engine) *Verifier {
	return &Verifier{engine: engine}
}

// Verify processes one certificate photo against a system record. A
// failed recognition returns the error with no partial report; a
// recognition that extracts zero fields still proceeds through comparison
// (yielding zero accuracy and a manual-review recommendation when the
// system side has values).
func (v *Verifier) Verify(ctx context.Context, image []byte, system Fields) (*VerificationReport, error) {
	processed := Preprocess(image)
	rec, err := v.engine.Recognize(ctx, processed)
	if err != nil {
		return nil, err
	}
	extracted := Extract(rec.Text)
	cmp := Compare(extracted, system)
	cmp.Recommendations = Recommend(cmp)
	return &VerificationReport{
		Text:       rec.Text,
		Confidence: rec.Confidence,
		Extracted:  extracted,
		Comparison: cmp,
	}, nil
}
