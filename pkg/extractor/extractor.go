// Package extractor resolves roster columns against external registry
// records whose headers rarely match the roster's exactly.
package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// synonyms maps each roster column to the header spellings seen across
// the NPI registry and state license extracts. Order matters: the first
// candidate present in the external record wins.
var synonyms = map[string][]string{
	"last_updated":           {"last_updated", "lastupdated", "last_date_update", "last_date_updated", "last_update_date", "last_upd", "verification_date"},
	"npi_certification_date": {"npi_certification_date", "npi_cert_date", "npi_certified_date", "certification_date"},
	"license_expiration":     {"expiration_date", "license_expiration", "expiry_date", "expiration"},
	"license_number":         {"license_number", "provider_license_number", "provider_license_number_1", "provider_license_number_2"},
	"first_name":             {"first_name", "basic_first_name", "provider_first_name", "authorized_official_first_name"},
	"last_name":              {"last_name", "basic_last_name", "provider_last_name", "authorized_official_last_name"},
	"provider_name":          {"provider_name", "provider_organization_name_legal_name", "provider_legal_name", "provider_name_full"},
	"practice_phone":         {"practice_phone", "telephone_number", "phone", "practice_phone_number"},
	"practice_address_line1": {"practice_address_line1", "address_1", "practice_address", "address_line_1", "addressline1"},
	"practice_city":          {"practice_city", "city"},
	"practice_state":         {"practice_state", "state", "license_state"},
	"practice_zip":           {"practice_zip", "zip", "postal_code", "zipcode"},
	"taxonomy_code":          {"taxonomy_code", "healthcare_provider_taxonomy_code_1", "taxonomy"},
	"primary_specialty":      {"specialty", "primary_specialty"},
}

var tokenSplit = regexp.MustCompile(`[\W_]+`)

// Resolver finds the external-record value that corresponds to a
// roster column. Resolution tries, in order: an exact case-insensitive
// header match, the synonym table, then token containment (the
// column's significant tokens all appearing inside an external header).
type Resolver struct{}

// New creates a new Resolver
func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the external value for a roster column and whether a
// corresponding field was found at all.
func (r *Resolver) Resolve(column string, external map[string]string) (string, bool) {
	if len(external) == 0 {
		return "", false
	}

	lower := make(map[string]string, len(external))
	for k, v := range external {
		lower[strings.ToLower(k)] = v
	}

	col := strings.ToLower(column)
	if v, ok := lower[col]; ok {
		return v, true
	}

	key := strings.ReplaceAll(col, " ", "_")
	if candidates, ok := synonyms[key]; ok {
		for _, c := range candidates {
			if v, ok := lower[c]; ok {
				return v, true
			}
		}
	}

	tokens := significantTokens(col)
	if len(tokens) == 0 {
		return "", false
	}
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}

	// sorted keys keep resolution deterministic when several headers
	// contain the same tokens
	keys := make([]string, 0, len(lower))
	for lk := range lower {
		keys = append(keys, lk)
	}
	sort.Strings(keys)

	for _, lk := range keys {
		matched := true
		for _, tok := range tokens {
			if !strings.Contains(lk, tok) {
				matched = false
				break
			}
		}
		if matched {
			return lower[lk], true
		}
	}

	return "", false
}

// significantTokens splits a column name on non-word characters and
// keeps tokens long enough to be meaningful.
func significantTokens(column string) []string {
	parts := tokenSplit.Split(column, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 2 {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
