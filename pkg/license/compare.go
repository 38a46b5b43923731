package license

// matchThreshold is the similarity above which a field counts as matched.
const matchThreshold = 0.8

// displayField pairs a field key with its reviewer-facing label.
type displayField struct {
	key   string
	label string
}

const labelAddress = "注册地址"

// displayFields fixes both the set of compared fields and the order they
// appear in ComparisonResult.Fields.
var displayFields = []displayField{
	{KeyCompanyName, "企业名称"},
	{KeyCreditCode, "统一社会信用代码"},
	{KeyLegalPerson, "法定代表人"},
	{KeyAddress, labelAddress},
	{KeyRegisteredCapital, "注册资本"},
	{KeyBusinessTerm, "营业期限"},
	{KeyEstablishmentDate, "成立日期"},
}

// Compare scores extracted fields against the system record. A field
// missing from both sides is excluded entirely; overall accuracy is
// matched/considered and 0 when nothing was considered. Recommendations
// are left empty; callers attach them via Recommend.
func Compare(extracted, system Fields) *ComparisonResult {
	res := &ComparisonResult{}
	considered, matched := 0, 0
	for _, f := range displayFields {
		o := extracted[f.key]
		s := system[f.key]
		if o == "" && s == "" {
			continue
		}
		considered++
		sim := Similarity(o, s)
		match := sim > matchThreshold
		if match {
			matched++
		}
		res.Fields = append(res.Fields, ComparisonField{
			FieldName:   f.label,
			OCRValue:    o,
			SystemValue: s,
			Similarity:  sim,
			Match:       match,
		})
	}
	if considered > 0 {
		res.OverallAccuracy = float64(matched) / float64(considered)
	}
	return res
}
