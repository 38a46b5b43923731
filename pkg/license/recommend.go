package license

import "strings"

// Reviewer-facing advisory messages.
const (
	MsgManualReview   = "数据差异较大，建议人工复核"
	MsgHighConfidence = "数据高度匹配，可以直接确认"
	MsgAddressChanged = "地址不匹配可能是由于搬迁或格式差异，请确认是否有地址变更"

	msgUnmatchedPrefix = "以下字段需要确认："
	unmatchedDelimiter = "、"
)

// Recommend derives advisory messages from a comparison result. Accuracy
// below 0.6 asks for manual review, above 0.9 allows direct confirmation;
// mid-range accuracy yields neither. Any unmatched fields are named in
// result order; an unmatched registered address gets an extra hint since
// relocations are the usual cause. Pure function, never mutates its input.
func Recommend(res *ComparisonResult) []string {
	recs := []string{}
	if res.OverallAccuracy < 0.6 {
		recs = append(recs, MsgManualReview)
	}
	if res.OverallAccuracy > 0.9 {
		recs = append(recs, MsgHighConfidence)
	}
	var unmatched []string
	addressMismatch := false
	for _, f := range res.Fields {
		if f.Match {
			continue
		}
		unmatched = append(unmatched, f.FieldName)
		if f.FieldName == labelAddress {
			addressMismatch = true
		}
	}
	if len(unmatched) > 0 {
		recs = append(recs, msgUnmatchedPrefix+strings.Join(unmatched, unmatchedDelimiter))
	}
	if addressMismatch {
		recs = append(recs, MsgAddressChanged)
	}
	return recs
}
