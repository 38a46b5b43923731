// Package license implements the business-registration-certificate
// verification engine: image preprocessing, Tesseract recognition,
// rule-based field extraction, fuzzy comparison against system-of-record
// data and reviewer recommendations.
package license

// Field keys for the structured slots on a registration certificate.
const (
	KeyCompanyName       = "company_name"
	KeyCreditCode        = "credit_code"
	KeyLegalPerson       = "legal_person"
	KeyAddress           = "address"
	KeyRegisteredCapital = "registered_capital"
	KeyBusinessTerm      = "business_term"
	KeyEstablishmentDate = "establishment_date"
)

// Fields maps a field key to its string value. A key is absent when no
// value is known; callers must treat absence and "" the same way.
type Fields map[string]string

// Box is a word bounding box in image pixel coordinates.
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Token is a single recognized word with its own confidence (0-100).
type Token struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"bbox"`
}

// RecognitionResult is the raw outcome of one recognition call.
type RecognitionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Tokens     []Token `json:"tokens"`
}

// ComparisonField records how one field compared against the system value.
type ComparisonField struct {
	FieldName   string  `json:"field_name"`
	OCRValue    string  `json:"ocr_value"`
	SystemValue string  `json:"system_value"`
	Similarity  float64 `json:"similarity"`
	Match       bool    `json:"match"`
}

// ComparisonResult is the terminal artifact of a verification run.
type ComparisonResult struct {
	OverallAccuracy float64           `json:"overall_accuracy"`
	Fields          []ComparisonField `json:"fields"`
	Recommendations []string          `json:"recommendations"`
}
