// Package pii flags columns that look like personal data, by column name
// and by sampling text values against known formats.
package pii

import (
	"regexp"
	"strings"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
)

// Risk levels, most severe first.
const (
	Critical = "Critical"
	High     = "High"
	Medium   = "Medium"
	Low      = "Low"
	None     = "None Detected"
)

// Detection methods.
const (
	ByName        = "Column Name Pattern"
	ByData        = "Data Pattern"
	ByNameAndData = "Column Name + Data Pattern"
)

const (
	sampleSize     = 1000
	minMatchRate   = 0.5
	nameConfidence = 0.7
	maxConfidence  = 0.95
)

type valueRule struct {
	kind, description, risk, recommendation string
	re                                      *regexp.Regexp
}

type nameRule struct {
	kind, description, risk, recommendation string
	fragments                               []string
}

var valueRules = []valueRule{
	{"email", "Email Address", High, "Hash or remove email addresses",
		regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)},
	{"phone_us", "US Phone Number", High, "Mask or remove phone numbers",
		regexp.MustCompile(`^(\+1)?[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}$`)},
	{"ssn", "Social Security Number", Critical, "Remove SSN immediately - highly sensitive",
		regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)},
	{"credit_card", "Credit Card Number", Critical, "Remove credit card numbers immediately",
		regexp.MustCompile(`^(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13})$`)},
	{"ip_address", "IP Address", Medium, "Consider anonymizing IP addresses",
		regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)},
	{"zip_code", "US ZIP Code", Low, "Consider using broader geographic regions",
		regexp.MustCompile(`^\d{5}(-\d{4})?$`)},
}

var nameRules = []nameRule{
	{"name", "Person Name", High, "Consider pseudonymization or removal",
		[]string{"name", "first_name", "last_name", "full_name", "firstname", "lastname", "fname", "lname"}},
	{"address", "Physical Address", Medium, "Consider using broader geographic regions",
		[]string{"address", "street", "city", "state", "country", "location", "addr"}},
	{"email", "Email Address", High, "Hash or remove email addresses",
		[]string{"email", "e-mail", "mail", "email_address"}},
	{"phone", "Phone Number", High, "Mask or remove phone numbers",
		[]string{"phone", "mobile", "cell", "telephone", "tel", "contact"}},
	{"ssn", "Social Security Number", Critical, "Remove SSN immediately",
		[]string{"ssn", "social_security", "socialsecurity", "ss_number"}},
	{"dob", "Date of Birth", Medium, "Consider using age ranges",
		[]string{"dob", "birth", "birthday", "date_of_birth", "birthdate"}},
	{"salary", "Financial Information", High, "Consider using salary bands",
		[]string{"salary", "income", "wage", "compensation", "pay"}},
}

// Finding describes one flagged column.
type Finding struct {
	Column         string  `json:"column"`
	Type           string  `json:"pii_type"`
	Description    string  `json:"description"`
	Risk           string  `json:"risk"`
	Confidence     float64 `json:"confidence"`
	Method         string  `json:"detection_method"`
	Recommendation string  `json:"recommendation"`
}

// Report summarises a scan.
type Report struct {
	TotalColumns    int            `json:"total_columns"`
	Columns         []Finding      `json:"pii_columns"`
	RiskSummary     map[string]int `json:"risk_summary"`
	OverallRisk     string         `json:"overall_risk"`
	Recommendations []string       `json:"recommendations"`
}

// Scan checks every column of ds.
func Scan(ds *dataset.Dataset) *Report {
	r := &Report{
		TotalColumns: len(ds.Columns),
		RiskSummary:  map[string]int{Critical: 0, High: 0, Medium: 0, Low: 0},
		OverallRisk:  None,
	}
	for _, c := range ds.Columns {
		if f, ok := scanColumn(c); ok {
			r.Columns = append(r.Columns, f)
			r.RiskSummary[f.Risk]++
		}
	}
	for _, level := range []string{Critical, High, Medium, Low} {
		if r.RiskSummary[level] > 0 {
			r.OverallRisk = level
			break
		}
	}
	r.Recommendations = recommendations(r)
	return r
}

func scanColumn(c *dataset.Column) (Finding, bool) {
	f := Finding{Column: c.Name, Risk: Low}
	found := false

	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(c.Name))
	for _, rule := range nameRules {
		if matchesAny(key, rule.fragments) {
			f.Type, f.Description, f.Risk, f.Recommendation = rule.kind, rule.description, rule.risk, rule.recommendation
			f.Confidence = nameConfidence
			f.Method = ByName
			found = true
			break
		}
	}
	if c.Type != dataset.Text {
		return f, found
	}

	data, ok := scanValues(c)
	if !ok {
		return f, found
	}
	if data.Confidence > f.Confidence {
		data.Column = c.Name
		return data, true
	}
	f.Confidence = min(maxConfidence, f.Confidence+0.2)
	f.Method = ByNameAndData
	return f, true
}

func matchesAny(key string, fragments []string) bool {
	for _, p := range fragments {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

// scanValues tests the first sampleSize non-null values against each value
// rule in order and returns the first with a match rate above one half.
func scanValues(c *dataset.Column) (Finding, bool) {
	var sample []string
	for i := 0; i < c.Len() && len(sample) < sampleSize; i++ {
		if !c.IsNull(i) {
			sample = append(sample, c.Text[i])
		}
	}
	if len(sample) == 0 {
		return Finding{}, false
	}
	for _, rule := range valueRules {
		hits := 0
		for _, s := range sample {
			if rule.re.MatchString(s) {
				hits++
			}
		}
		rate := float64(hits) / float64(len(sample))
		if rate > minMatchRate {
			return Finding{
				Type:           rule.kind,
				Description:    rule.description,
				Risk:           rule.risk,
				Confidence:     min(maxConfidence, rate),
				Method:         ByData,
				Recommendation: rule.recommendation,
			}, true
		}
	}
	return Finding{}, false
}

func recommendations(r *Report) []string {
	var out []string
	if r.RiskSummary[Critical] > 0 {
		out = append(out, "CRITICAL: highly sensitive data found (SSN, credit cards). Remove or encrypt it before sharing.")
	}
	if r.RiskSummary[High] > 0 {
		out = append(out, "HIGH RISK: personal identifiers found. Consider pseudonymization or hashing.")
	}
	if r.RiskSummary[Medium] > 0 {
		out = append(out, "MEDIUM RISK: quasi-identifiers found. Consider generalization.")
	}
	if r.OverallRisk == None {
		out = append(out, "No obvious PII detected. Review the data manually before sharing.")
	}
	return out
}
