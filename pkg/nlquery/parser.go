// Package nlquery translates natural-language questions about the
// provider roster into parameterized SQL.
package nlquery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TableName is the roster table the generated SQL reads.
const TableName = "roster"

// listLimit caps list-style results the way the dashboard renders them.
const listLimit = 50

// Query kinds.
const (
	KindCount = "count"
	KindList  = "list"
)

// Query is a generated read-only statement with its bind arguments.
type Query struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`
	Kind string `json:"kind"`
}

var specialties = map[string]string{
	"cardiology": "Cardiology", "cardiologist": "Cardiology", "cardiologists": "Cardiology",
	"urology": "Urology", "urologist": "Urology", "urologists": "Urology",
	"oncology": "Oncology", "oncologist": "Oncology", "oncologists": "Oncology",
	"radiology": "Radiology", "radiologist": "Radiology", "radiologists": "Radiology",
	"neurology": "Neurology", "neurologist": "Neurology", "neurologists": "Neurology",
	"internal medicine": "Internal Medicine", "family medicine": "Family Medicine",
	"pediatrics": "Pediatrics", "psychiatry": "Psychiatry", "surgery": "Surgery",
	"emergency medicine": "Emergency Medicine", "anesthesiology": "Anesthesiology",
	"dermatology": "Dermatology", "orthopedics": "Orthopedic Surgery", "pulmonology": "Pulmonology",
}

var states = map[string]string{
	"california": "CA", "ca": "CA", "new york": "NY", "ny": "NY",
	"texas": "TX", "tx": "TX", "florida": "FL", "fl": "FL",
	"illinois": "IL", "il": "IL", "pennsylvania": "PA", "pa": "PA",
	"ohio": "OH", "oh": "OH", "georgia": "GA", "ga": "GA",
	"north carolina": "NC", "nc": "NC", "michigan": "MI", "mi": "MI",
}

// exactCities maps spoken city names to the exact spelling the roster
// stores, which is not consistently cased.
var exactCities = map[string]string{
	"san francisco": "SAN FRANCISCO",
	"brooklyn":      "Brooklyn",
	"buffalo":       "Buffalo",
	"oakland":       "Oakland",
	"queens":        "Queens",
	"syracuse":      "Syracuse",
	"santa ana":     "Santa Ana",
	"fresno":        "Fresno",
	"new york":      "New York",
	"los angeles":   "Los Angeles",
	"chicago":       "Chicago",
}

var (
	practicingFromRe = regexp.MustCompile(`\bpracticing from\b`)
	experienceOfRe   = regexp.MustCompile(`\bwith experience of\b`)

	// yearsClauseRe strips the tenure clause before location extraction
	// so "practicing for more than 20 years" never reads as a place.
	yearsClauseRe = regexp.MustCompile(`(?:practicing|with|having|experience).?(?:more than|less than|over|under|exactly|between).?\d+\s*years?`)

	cityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bin\s+city\s+named\s+([a-z\s]+?)(?:\s+and|\s*$)`),
		regexp.MustCompile(`\bcity\s+named\s+([a-z\s]+?)(?:\s+and|\s*$)`),
		regexp.MustCompile(`\bin\s+([a-z\s]+?)(?:\s+and|\s+practicing|\s+with|\s*$)`),
		regexp.MustCompile(`\bfrom\s+([a-z\s]+?)(?:\s+and|\s+practicing|\s+with|\s*$)`),
		regexp.MustCompile(`\blocated\s+in\s+([a-z\s]+?)(?:\s+and|\s*$)`),
	}
	cityNoiseRe = regexp.MustCompile(`\b(city|state|county|and|with|practicing)\b`)

	statePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bin\s+([a-z\s]+?)(?:\s+state)?\s+(?:and|with|$)`),
		regexp.MustCompile(`\bstate\s+of\s+([a-z\s]+?)(?:\s+and|with|$)`),
		regexp.MustCompile(`\b([a-z]{2})\b`),
	}
)

type yearsPattern struct {
	re     *regexp.Regexp
	op     string
	groups int
}

var yearsPatterns = []yearsPattern{
	{regexp.MustCompile(`more\s+than\s+(\d+)\s*years?`), ">", 1},
	{regexp.MustCompile(`practicing\s+(?:from|for)\s+more\s+than\s+(\d+)\s*years?`), ">", 1},
	{regexp.MustCompile(`with\s+more\s+than\s+(\d+)\s*years?`), ">", 1},
	{regexp.MustCompile(`over\s+(\d+)\s*years?`), ">", 1},
	{regexp.MustCompile(`greater\s+than\s+(\d+)\s*years?`), ">", 1},
	{regexp.MustCompile(`above\s+(\d+)\s*years?`), ">", 1},
	{regexp.MustCompile(`>\s*(\d+)\s*years?`), ">", 1},

	{regexp.MustCompile(`less\s+than\s+(\d+)\s*years?`), "<", 1},
	{regexp.MustCompile(`under\s+(\d+)\s*years?`), "<", 1},
	{regexp.MustCompile(`below\s+(\d+)\s*years?`), "<", 1},
	{regexp.MustCompile(`fewer\s+than\s+(\d+)\s*years?`), "<", 1},
	{regexp.MustCompile(`<\s*(\d+)\s*years?`), "<", 1},

	{regexp.MustCompile(`exactly\s+(\d+)\s*years?`), "=", 1},
	{regexp.MustCompile(`equal\s+to\s+(\d+)\s*years?`), "=", 1},
	{regexp.MustCompile(`(\d+)\s*years?\s+exactly`), "=", 1},
	{regexp.MustCompile(`=\s*(\d+)\s*years?`), "=", 1},

	{regexp.MustCompile(`between\s+(\d+)\s+and\s+(\d+)\s*years?`), "BETWEEN", 2},
	{regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*years?`), "BETWEEN", 2},
}

var countIndicators = []string{"how many", "count", "number of", "total", "amount"}

// YearsCondition is a parsed tenure constraint.
type YearsCondition struct {
	Op    string
	Value int
	Low   int
	High  int
}

// Parser extracts roster filters from free-form questions
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// Preprocess rewrites phrasings the extraction patterns don't cover.
func (p *Parser) Preprocess(text string) string {
	text = practicingFromRe.ReplaceAllString(text, "practicing for")
	text = experienceOfRe.ReplaceAllString(text, "with")
	return text
}

// ExtractCity returns the exact database spelling of a mentioned city.
func (p *Parser) ExtractCity(text string) string {
	lower := strings.ToLower(text)
	stripped := yearsClauseRe.ReplaceAllString(lower, "")

	for _, re := range cityPatterns {
		if m := re.FindStringSubmatch(stripped); m != nil {
			candidate := strings.TrimSpace(m[1])
			candidate = strings.TrimSpace(cityNoiseRe.ReplaceAllString(candidate, ""))
			candidate = strings.Join(strings.Fields(candidate), " ")
			if exact, ok := exactCities[candidate]; ok {
				return exact
			}
		}
	}

	for spoken, exact := range exactCities {
		if strings.Contains(lower, spoken) {
			return exact
		}
	}
	return ""
}

// ExtractState returns a state code, only when one is explicitly named.
func (p *Parser) ExtractState(text string) string {
	lower := strings.ToLower(text)
	stripped := yearsClauseRe.ReplaceAllString(lower, "")

	for _, re := range statePatterns {
		for _, m := range re.FindAllStringSubmatch(stripped, -1) {
			candidate := strings.TrimSpace(m[1])
			if code, ok := states[candidate]; ok {
				return code
			}
		}
	}
	return ""
}

// ExtractSpecialty returns the canonical specialty for any mention.
func (p *Parser) ExtractSpecialty(text string) string {
	lower := strings.ToLower(text)
	// longest keys first so "internal medicine" beats nothing shorter
	best := ""
	bestKey := ""
	for key, specialty := range specialties {
		if strings.Contains(lower, key) && len(key) > len(bestKey) {
			best = specialty
			bestKey = key
		}
	}
	return best
}

// ExtractYears returns the tenure constraint, if the question has one.
func (p *Parser) ExtractYears(text string) *YearsCondition {
	lower := strings.ToLower(text)

	for _, yp := range yearsPatterns {
		m := yp.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if yp.groups == 1 {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return &YearsCondition{Op: yp.op, Value: v}
		}
		low, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		high, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return &YearsCondition{Op: "BETWEEN", Low: low, High: high}
	}
	return nil
}

// DetectKind decides between a count and a list answer.
func (p *Parser) DetectKind(text string) string {
	lower := strings.ToLower(text)
	for _, indicator := range countIndicators {
		if strings.Contains(lower, indicator) {
			return KindCount
		}
	}
	return KindList
}

// ExtractValidationContext spots questions about verification results.
func (p *Parser) ExtractValidationContext(text string) string {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "expired") && strings.Contains(lower, "license"):
		return "expired_licenses"
	case strings.Contains(lower, "validation") || strings.Contains(lower, "error"):
		switch {
		case strings.Contains(lower, "npi"):
			return "npi_validation_error"
		case strings.Contains(lower, "phone"):
			return "phone_validation_error"
		default:
			return "general_validation_error"
		}
	case strings.Contains(lower, "missing"):
		switch {
		case strings.Contains(lower, "phone"):
			return "missing_phone"
		case strings.Contains(lower, "npi"):
			return "missing_npi"
		default:
			return "missing_general"
		}
	}
	return ""
}

// Parse builds a parameterized query from the question. ok reports
// whether any filter was actually extracted; with no filters the
// generated statement is a bare scan and template ranking should get
// a chance instead.
func (p *Parser) Parse(text string) (Query, bool) {
	text = p.Preprocess(text)
	lower := strings.ToLower(text)

	kind := p.DetectKind(text)

	var conditions []string
	var args []any

	if city := p.ExtractCity(text); city != "" {
		conditions = append(conditions, "practice_city = ?")
		args = append(args, city)
	}
	if state := p.ExtractState(text); state != "" {
		conditions = append(conditions, "practice_state = ?")
		args = append(args, state)
	}
	if specialty := p.ExtractSpecialty(text); specialty != "" {
		conditions = append(conditions, "primary_specialty = ?")
		args = append(args, specialty)
	}
	if years := p.ExtractYears(text); years != nil {
		if years.Op == "BETWEEN" {
			conditions = append(conditions, "years_in_practice BETWEEN ? AND ?")
			args = append(args, years.Low, years.High)
		} else {
			conditions = append(conditions, fmt.Sprintf("years_in_practice %s ?", years.Op))
			args = append(args, years.Value)
		}
	}

	if strings.Contains(lower, "board certified") || strings.Contains(lower, "board-certified") {
		if strings.Contains(lower, "not board certified") || strings.Contains(lower, "not board-certified") {
			conditions = append(conditions, "board_certified = ?")
			args = append(args, "False")
		} else {
			conditions = append(conditions, "board_certified = ?")
			args = append(args, "True")
		}
	}
	if strings.Contains(lower, "accepting") && strings.Contains(lower, "patient") {
		if strings.Contains(lower, "not accepting") {
			conditions = append(conditions, "accepting_new_patients = ?")
			args = append(args, "No")
		} else {
			conditions = append(conditions, "accepting_new_patients = ?")
			args = append(args, "Yes")
		}
	}

	switch p.ExtractValidationContext(text) {
	case "expired_licenses":
		conditions = append(conditions, "license_expiration_check = 'EXPIRED'")
	case "npi_validation_error":
		conditions = append(conditions, "npi_check != 'correct'")
	case "phone_validation_error":
		conditions = append(conditions, "practice_phone_check != 'correct'")
	case "general_validation_error":
		conditions = append(conditions, "(npi_check != 'correct' OR full_name_check != 'correct')")
	case "missing_phone":
		conditions = append(conditions, "(practice_phone IS NULL OR practice_phone = '')")
	case "missing_npi":
		conditions = append(conditions, "(npi IS NULL OR npi = '')")
	}

	if len(conditions) == 0 {
		if kind == KindCount {
			return Query{SQL: fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", TableName), Kind: KindCount}, false
		}
		return Query{SQL: fmt.Sprintf("SELECT * FROM %s LIMIT %d", TableName, listLimit), Kind: KindList}, false
	}

	where := strings.Join(conditions, " AND ")
	if kind == KindCount {
		return Query{
			SQL:  fmt.Sprintf("SELECT COUNT(*) AS count FROM %s WHERE %s", TableName, where),
			Args: args,
			Kind: KindCount,
		}, true
	}
	return Query{
		SQL:  fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT %d", TableName, where, listLimit),
		Args: args,
		Kind: KindList,
	}, true
}
