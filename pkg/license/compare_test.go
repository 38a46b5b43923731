package license

import "testing"

func TestCompareIdenticalField(t *testing.T) {
	extracted := Fields{KeyCompanyName: "深圳市科技创新有限公司"}
	system := Fields{KeyCompanyName: "深圳市科技创新有限公司"}
	res := Compare(extracted, system)
	if len(res.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(res.Fields))
	}
	f := res.Fields[0]
	if f.Similarity != 1 || !f.Match {
		t.Fatalf("expected exact match, got sim=%v match=%v", f.Similarity, f.Match)
	}
	if res.OverallAccuracy != 1 {
		t.Fatalf("expected accuracy 1, got %v", res.OverallAccuracy)
	}
}

func TestCompareFullMismatch(t *testing.T) {
	res := Compare(Fields{}, Fields{KeyCompanyName: "X"})
	if len(res.Fields) != 1 {
		t.Fatalf("expected 1 considered field, got %d", len(res.Fields))
	}
	f := res.Fields[0]
	if f.FieldName != "企业名称" {
		t.Fatalf("expected label 企业名称, got %q", f.FieldName)
	}
	if f.Similarity != 0 || f.Match {
		t.Fatalf("expected zero similarity, got sim=%v match=%v", f.Similarity, f.Match)
	}
	if res.OverallAccuracy != 0 {
		t.Fatalf("expected accuracy 0, got %v", res.OverallAccuracy)
	}
}

func TestCompareEmptyBothSides(t *testing.T) {
	res := Compare(Fields{}, Fields{})
	if len(res.Fields) != 0 {
		t.Fatalf("expected no considered fields, got %d", len(res.Fields))
	}
	if res.OverallAccuracy != 0 {
		t.Fatalf("expected accuracy 0 (not NaN), got %v", res.OverallAccuracy)
	}
}

func TestCompareExcludesFieldsAbsentBothSides(t *testing.T) {
	extracted := Fields{KeyCompanyName: "A公司"}
	system := Fields{KeyCompanyName: "A公司", KeyLegalPerson: ""}
	res := Compare(extracted, system)
	for _, f := range res.Fields {
		if f.FieldName == "法定代表人" {
			t.Fatalf("field empty on both sides must be excluded")
		}
	}
	if len(res.Fields) != 1 {
		t.Fatalf("expected exactly 1 field, got %d", len(res.Fields))
	}
}

func TestCompareThresholdConsistency(t *testing.T) {
	extracted := Fields{
		KeyCompanyName: "深圳市科技创新有限公司",
		KeyAddress:     "深圳市南山区科技园A座2201室",
		KeyLegalPerson: "张总",
	}
	system := Fields{
		KeyCompanyName: "深圳市科技创新有限公司",
		KeyAddress:     "深圳市南山区科技园A座2201号",
		KeyLegalPerson: "完全不同的人名",
	}
	res := Compare(extracted, system)
	for _, f := range res.Fields {
		if f.Match != (f.Similarity > 0.8) {
			t.Fatalf("field %s: match=%v inconsistent with similarity=%v", f.FieldName, f.Match, f.Similarity)
		}
	}
}

func TestCompareAccuracyAggregation(t *testing.T) {
	extracted := Fields{
		KeyCompanyName: "A公司",
		KeyLegalPerson: "张总",
	}
	system := Fields{
		KeyCompanyName: "A公司",
		KeyLegalPerson: "李经理",
	}
	res := Compare(extracted, system)
	if res.OverallAccuracy != 0.5 {
		t.Fatalf("expected accuracy 0.5, got %v", res.OverallAccuracy)
	}
}

func TestCompareFieldOrderStable(t *testing.T) {
	extracted := Fields{
		KeyEstablishmentDate: "2020年01月15日",
		KeyCompanyName:       "A公司",
	}
	res := Compare(extracted, Fields{})
	if len(res.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(res.Fields))
	}
	if res.Fields[0].FieldName != "企业名称" || res.Fields[1].FieldName != "成立日期" {
		t.Fatalf("unexpected order: %s, %s", res.Fields[0].FieldName, res.Fields[1].FieldName)
	}
}
