package license

import (
	"strings"
	"testing"
)

func hasRec(recs []string, want string) bool {
	for _, r := range recs {
		if r == want {
			return true
		}
	}
	return false
}

func TestRecommendLowAccuracy(t *testing.T) {
	res := Compare(Fields{}, Fields{KeyCompanyName: "X"})
	recs := Recommend(res)
	if !hasRec(recs, MsgManualReview) {
		t.Fatalf("expected manual review message, got %v", recs)
	}
	found := false
	for _, r := range recs {
		if strings.HasPrefix(r, msgUnmatchedPrefix) && strings.Contains(r, "企业名称") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unmatched message naming 企业名称, got %v", recs)
	}
}

func TestRecommendHighAccuracy(t *testing.T) {
	extracted := Fields{
		KeyCompanyName: "深圳市科技创新有限公司",
		KeyCreditCode:  "91440300MA5EXAMP1X",
		KeyLegalPerson: "张总",
	}
	res := Compare(extracted, extracted)
	recs := Recommend(res)
	if !hasRec(recs, MsgHighConfidence) {
		t.Fatalf("expected high confidence message, got %v", recs)
	}
	for _, r := range recs {
		if strings.HasPrefix(r, msgUnmatchedPrefix) {
			t.Fatalf("unexpected unmatched message: %v", recs)
		}
	}
}

func TestRecommendMidRangeYieldsNeitherAccuracyMessage(t *testing.T) {
	res := &ComparisonResult{
		OverallAccuracy: 0.75,
		Fields: []ComparisonField{
			{FieldName: "企业名称", Match: true},
			{FieldName: "法定代表人", Match: true},
			{FieldName: "注册资本", Match: true},
			{FieldName: "统一社会信用代码", Match: false},
		},
	}
	recs := Recommend(res)
	if hasRec(recs, MsgManualReview) || hasRec(recs, MsgHighConfidence) {
		t.Fatalf("mid-range accuracy must yield neither accuracy message: %v", recs)
	}
	if !hasRec(recs, msgUnmatchedPrefix+"统一社会信用代码") {
		t.Fatalf("expected unmatched message, got %v", recs)
	}
}

func TestRecommendUnmatchedOrderFollowsFields(t *testing.T) {
	res := &ComparisonResult{
		OverallAccuracy: 0.7,
		Fields: []ComparisonField{
			{FieldName: "企业名称", Match: false},
			{FieldName: "法定代表人", Match: true},
			{FieldName: "注册资本", Match: false},
		},
	}
	recs := Recommend(res)
	want := msgUnmatchedPrefix + "企业名称" + unmatchedDelimiter + "注册资本"
	if !hasRec(recs, want) {
		t.Fatalf("expected %q, got %v", want, recs)
	}
}

func TestRecommendAddressChangeHint(t *testing.T) {
	res := &ComparisonResult{
		OverallAccuracy: 0.75,
		Fields: []ComparisonField{
			{FieldName: "企业名称", Match: true},
			{FieldName: labelAddress, Match: false},
			{FieldName: "法定代表人", Match: true},
			{FieldName: "注册资本", Match: true},
		},
	}
	recs := Recommend(res)
	if !hasRec(recs, MsgAddressChanged) {
		t.Fatalf("expected address change hint, got %v", recs)
	}
}

func TestRecommendDoesNotMutateResult(t *testing.T) {
	res := Compare(Fields{}, Fields{KeyCompanyName: "X"})
	before := res.OverallAccuracy
	_ = Recommend(res)
	if res.OverallAccuracy != before || res.Recommendations != nil {
		t.Fatalf("recommend must not mutate its input")
	}
}
