package license

import (
	"regexp"
	"strings"
)

// fieldRule binds a field key to the label pattern that captures its value.
// Label synonyms are tried left to right inside the alternation; the value
// runs to end of line unless the rule constrains it further.
type fieldRule struct {
	key     string
	pattern *regexp.Regexp
}

// fieldRules is the fixed extraction table. Order matters only for the
// stability of iteration; every rule is independent of the others.
// The credit code rule requires the full 18-character registration code;
// a shorter or longer run is not captured at all.
var fieldRules = []fieldRule{
	{KeyCompanyName, regexp.MustCompile(`(?:名\s*称|企业名称)[：:\s]*([^\n\r]+)`)},
	{KeyCreditCode, regexp.MustCompile(`(?:统一社会信用代码|信用代码)[：:\s]*([A-Z0-9]{18})(?:[^A-Z0-9]|$)`)},
	{KeyLegalPerson, regexp.MustCompile(`(?:法定代表人|代表人)[：:\s]*([^\n\r]+)`)},
	{KeyAddress, regexp.MustCompile(`(?:住\s*所|注册地址|地址)[：:\s]*([^\n\r]+)`)},
	{KeyRegisteredCapital, regexp.MustCompile(`(?:注册资本|资本)[：:\s]*([^\n\r]+)`)},
	{KeyBusinessTerm, regexp.MustCompile(`(?:营业期限|经营期限)[：:\s]*([^\n\r]+)`)},
	{KeyEstablishmentDate, regexp.MustCompile(`成立日期[：:\s]*([^\n\r]+)`)},
}

// Extract applies the rule table to recognized text and returns whatever
// fields matched. A field with no match is simply absent; extraction
// itself never fails.
func Extract(text string) Fields {
	out := Fields{}
	for _, r := range fieldRules {
		m := r.pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v != "" {
			out[r.key] = v
		}
	}
	return out
}
