// Package dedupe orchestrates the deduplication pipeline: normalize,
// block, score, classify, cluster, assign canonical ids.
package dedupe

import (
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/normalizers"
)

// lastNamePrefixLen is the blocking prefix width. Four characters
// tolerates minor suffix typos without collapsing too many surnames.
const lastNamePrefixLen = 4

// NormalizeRecord derives the comparison fields for one record.
// Total: blank or malformed input degrades to empty strings, never an
// error.
func NormalizeRecord(r models.ProviderRecord) models.NormalizedFields {
	name := normalizers.NormalizeName(r.FullName)
	phone := normalizers.NormalizePhone(r.PracticePhone)

	return models.NormalizedFields{
		Name:           name,
		NPI:            normalizers.NormalizeIdentifier(r.NPI),
		License:        normalizers.NormalizeIdentifier(r.LicenseNumber),
		LicenseState:   normalizers.NormalizeIdentifier(r.LicenseState),
		Phone:          phone,
		PhoneLast4:     normalizers.PhoneLast4(phone),
		LastNamePrefix: normalizers.LastNamePrefix(name, lastNamePrefixLen),
		Taxonomy:       normalizers.NormalizeIdentifier(r.TaxonomyCode),
		Address:        normalizers.JoinAddress(r.PracticeAddress1, r.PracticeCity, r.PracticeState, r.PracticeZip),
	}
}

// normalizeAll returns a snapshot copy with derived fields populated
// and indices assigned. The caller's slice is never mutated.
func normalizeAll(records []models.ProviderRecord) []models.ProviderRecord {
	snapshot := make([]models.ProviderRecord, len(records))
	copy(snapshot, records)
	for i := range snapshot {
		snapshot[i].Index = i
		snapshot[i].Normalized = NormalizeRecord(snapshot[i])
	}
	return snapshot
}
