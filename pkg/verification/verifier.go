// Package verification checks roster rows against ground-truth
// registries and emits per-column verdicts alongside the source data.
package verification

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/internal/repositories/registry"
	"github.com/Ramsey-B/sage/pkg/extractor"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/normalizers"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Column verdicts. Anything else in a check column is the external
// value the registry holds instead.
const (
	StatusCorrect  = "correct"
	StatusNotFound = "not_found"
	// StatusExpired overrides the license expiration verdict when the
	// state board says the license has lapsed.
	StatusExpired = "EXPIRED"
)

// CheckSuffix is appended to a roster column to name its verdict column.
const CheckSuffix = "_check"

// keyColumns must resolve against a registry; a lookup miss on one of
// these flags the row even though the value itself can't be compared.
var keyColumns = map[string]bool{
	"npi":                true,
	"license_number":     true,
	"first_name":         true,
	"last_name":          true,
	"license_expiration": true,
}

// Source supplies ground-truth records for a roster row.
type Source interface {
	ExternalRecords(rec models.ProviderRecord) (merged, npiRec, stateRec registry.Record)
}

// Mismatch flags one roster row that disagrees with the registries.
type Mismatch struct {
	ProviderID            string   `json:"provider_id"`
	Reasons               []string `json:"reasons"`
	StateExpirationRaw    string   `json:"state_expiration_raw,omitempty"`
	StateExpirationParsed string   `json:"state_expiration_parsed,omitempty"`
}

// Result is the verified roster: the source columns interleaved with
// their verdict columns, plus the rows that disagreed.
type Result struct {
	Header     []string
	Rows       [][]string
	Mismatches []Mismatch
}

// Verifier compares roster rows against external registries
type Verifier struct {
	source    Source
	resolver  *extractor.Resolver
	logger    ectologger.Logger
	reference time.Time
}

// NewVerifier creates a new Verifier. License expirations are judged
// against referenceDate; pass the zero time to use the current day.
func NewVerifier(source Source, logger ectologger.Logger, referenceDate time.Time) *Verifier {
	if referenceDate.IsZero() {
		now := time.Now().UTC()
		referenceDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &Verifier{
		source:    source,
		resolver:  extractor.New(),
		logger:    logger,
		reference: referenceDate,
	}
}

// Verify checks every record column-by-column. columns fixes the
// output order and must cover every field the records carry.
func (v *Verifier) Verify(ctx context.Context, records []models.ProviderRecord, columns []string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Verifier.Verify")
	defer span.End()

	header := buildHeader(columns)

	result := &Result{Header: header}
	for _, rec := range records {
		values, mismatch := v.verifyRecord(rec, columns)

		row := make([]string, len(header))
		for i, col := range header {
			row[i] = values[col]
		}
		result.Rows = append(result.Rows, row)

		if mismatch != nil {
			result.Mismatches = append(result.Mismatches, *mismatch)
		}
	}

	v.logger.WithContext(ctx).WithFields(map[string]any{
		"records":    len(records),
		"mismatches": len(result.Mismatches),
	}).Info("verified roster against registries")

	return result, nil
}

func (v *Verifier) verifyRecord(rec models.ProviderRecord, columns []string) (map[string]string, *Mismatch) {
	merged, _, stateRec := v.source.ExternalRecords(rec)
	flat := flatten(rec)
	licenseState := strings.ToUpper(strings.TrimSpace(flat["license_state"]))

	values := make(map[string]string, 2*len(columns)+2)
	var reasons []string

	for _, col := range columns {
		rosterVal := flat[col]
		values[col] = rosterVal

		switch col {
		case "years_in_practice":
			// numeric tenure has no registry counterpart; it rides along
			values[col+CheckSuffix] = rosterVal
			continue
		case "board_certified":
			continue
		}

		extVal, found := v.resolver.Resolve(col, merged)
		status, display := compareValues(rosterVal, extVal, found)
		switch status {
		case StatusCorrect:
			values[col+CheckSuffix] = StatusCorrect
		case StatusNotFound:
			values[col+CheckSuffix] = StatusNotFound
			if keyColumns[col] {
				reasons = append(reasons, col+"_not_found")
			}
		default:
			values[col+CheckSuffix] = display
			reasons = append(reasons, col+"_mismatch")
		}
	}

	boardResult := boardCertificationCheck(flat, stateRec, licenseState)
	values["board_certification_check"] = boardResult
	switch boardResult {
	case StatusCorrect:
	case StatusNotFound:
		reasons = append(reasons, "board_certification_not_found")
	default:
		reasons = append(reasons, "board_certification_mismatch")
	}

	expRaw, expDate, expOK := stateExpiration(stateRec)
	if expOK && expDate.Before(v.reference) {
		values["license_expiration_check"] = StatusExpired
		reasons = append(reasons, "state_license_expired")
	}

	if len(reasons) == 0 {
		return values, nil
	}

	mismatch := &Mismatch{
		ProviderID: rec.ProviderID,
		Reasons:    uniqueSorted(reasons),
	}
	if expRaw != "" {
		mismatch.StateExpirationRaw = expRaw
	}
	if expOK {
		mismatch.StateExpirationParsed = normalizers.DateString(expDate)
	}
	return values, mismatch
}

// compareValues decides a verdict for one column. Dates compare on
// their canonical yyyy-mm-dd form when either side parses as a date;
// everything else compares case- and whitespace-insensitively.
func compareValues(rosterVal, extVal string, found bool) (status, display string) {
	if !found || strings.TrimSpace(extVal) == "" {
		return StatusNotFound, ""
	}

	rDate, rOK := normalizers.ParseDate(rosterVal)
	eDate, eOK := normalizers.ParseDate(extVal)
	if rOK || eOK {
		if rOK && eOK && rDate.Equal(eDate) {
			return StatusCorrect, normalizers.DateString(eDate)
		}
		if eOK {
			return "mismatch", normalizers.DateString(eDate)
		}
		return "mismatch", extVal
	}

	if normalizeText(rosterVal) == normalizeText(extVal) {
		return StatusCorrect, extVal
	}
	return "mismatch", extVal
}

// boardCertificationCheck reconciles the roster's primary specialty
// with how each state board publishes certification. NY carries a
// true/false board_certified flag next to a specialty column; CA puts
// the certified specialty in board_certification.
func boardCertificationCheck(flat map[string]string, stateRec registry.Record, licenseState string) string {
	rosterSpecialty := normalizeText(flat["primary_specialty"])

	switch licenseState {
	case "NY":
		switch strings.ToLower(strings.TrimSpace(stateRec["board_certified"])) {
		case "true":
			return StatusCorrect
		case "false":
			if specialty := strings.TrimSpace(stateRec["specialty"]); specialty != "" {
				return specialty
			}
			return StatusNotFound
		default:
			return StatusNotFound
		}
	case "CA":
		if cert := normalizeText(stateRec["board_certification"]); cert != "" {
			if rosterSpecialty == cert {
				return StatusCorrect
			}
			return stateRec["board_certification"]
		}
		if specialty := normalizeText(stateRec["specialty"]); specialty != "" {
			if rosterSpecialty == specialty {
				return StatusCorrect
			}
			return stateRec["specialty"]
		}
		return StatusNotFound
	default:
		return StatusNotFound
	}
}

// stateExpiration finds the expiration column in a state board row,
// whatever the board calls it.
func stateExpiration(stateRec registry.Record) (raw string, parsed time.Time, ok bool) {
	keys := make([]string, 0, len(stateRec))
	for k := range stateRec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "expir") || strings.Contains(lk, "expiry") {
			raw = stateRec[k]
			break
		}
	}
	if raw == "" {
		return "", time.Time{}, false
	}

	parsed, ok = normalizers.ParseDate(raw)
	return raw, parsed, ok
}

// buildHeader interleaves each source column with its verdict column.
// board_certified gets a single consolidated board_certification_check;
// the expiration verdict column exists even when the roster has no
// license_expiration column, since the state board can still expire it.
func buildHeader(columns []string) []string {
	header := make([]string, 0, 2*len(columns)+2)
	hasExpiration := false
	for _, col := range columns {
		header = append(header, col)
		if col == "board_certified" {
			continue
		}
		header = append(header, col+CheckSuffix)
		if col == "license_expiration" {
			hasExpiration = true
		}
	}
	header = append(header, "board_certification_check")
	if !hasExpiration {
		header = append(header, "license_expiration_check")
	}
	return header
}

// flatten exposes a record as a column→value map, interpreted fields
// and Extra alike.
func flatten(rec models.ProviderRecord) map[string]string {
	flat := map[string]string{
		"provider_id":            rec.ProviderID,
		"full_name":              rec.FullName,
		"npi":                    rec.NPI,
		"license_number":         rec.LicenseNumber,
		"license_state":          rec.LicenseState,
		"practice_phone":         rec.PracticePhone,
		"practice_address_line1": rec.PracticeAddress1,
		"practice_city":          rec.PracticeCity,
		"practice_state":         rec.PracticeState,
		"practice_zip":           rec.PracticeZip,
		"taxonomy_code":          rec.TaxonomyCode,
	}
	for k, v := range rec.Extra {
		flat[k] = v
	}
	return flat
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
