// Package fingerprint produces deterministic digests of roster
// snapshots so reruns over identical input are recognizable.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/Ramsey-B/sage/pkg/models"
)

// Snapshot creates a SHA256 fingerprint of a record snapshot. The
// digest covers the raw interpreted columns in fixed order, so two
// loads of the same source data fingerprint identically regardless of
// uninterpreted extra columns or load timing.
func Snapshot(records []models.ProviderRecord) string {
	var b strings.Builder
	b.WriteString("v1|")
	b.WriteString(strconv.Itoa(len(records)))
	for _, r := range records {
		b.WriteByte('\n')
		writeRow(&b, r)
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

func writeRow(b *strings.Builder, r models.ProviderRecord) {
	cols := []string{
		r.ProviderID,
		r.FullName,
		r.NPI,
		r.LicenseNumber,
		r.LicenseState,
		r.PracticePhone,
		r.PracticeAddress1,
		r.PracticeCity,
		r.PracticeState,
		r.PracticeZip,
		r.TaxonomyCode,
	}
	for i, c := range cols {
		if i > 0 {
			b.WriteByte('|')
		}
		// escape the escape char before the separator so adjacent
		// values can't collide
		v := strings.ReplaceAll(c, `\`, `\\`)
		b.WriteString(strings.ReplaceAll(v, "|", `\|`))
	}
}

// HasChanged compares two fingerprints to detect changes
func HasChanged(oldFingerprint, newFingerprint string) bool {
	return oldFingerprint != newFingerprint
}
