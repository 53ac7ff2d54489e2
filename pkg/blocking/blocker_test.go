package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/sage/pkg/models"
)

func rec(npi, license, licenseState, lastPref, phone4, taxonomy string) models.ProviderRecord {
	return models.ProviderRecord{
		Normalized: models.NormalizedFields{
			NPI:            npi,
			License:        license,
			LicenseState:   licenseState,
			LastNamePrefix: lastPref,
			PhoneLast4:     phone4,
			Taxonomy:       taxonomy,
		},
	}
}

func TestCandidates_SingleSharedKeySuffices(t *testing.T) {
	records := []models.ProviderRecord{
		rec("1111111111", "", "", "smit", "", ""),
		rec("1111111111", "", "", "jone", "", ""),
		rec("2222222222", "", "", "brow", "", ""),
	}

	result := NewBlocker(Options{}).Candidates(records)

	assert.Equal(t, []Pair{{A: 0, B: 1}}, result.Pairs)
}

func TestCandidates_EmptyKeysNeverBlock(t *testing.T) {
	records := []models.ProviderRecord{
		rec("", "", "", "", "", ""),
		rec("", "", "", "", "", ""),
		rec("", "", "", "", "", ""),
	}

	result := NewBlocker(Options{}).Candidates(records)

	assert.Empty(t, result.Pairs)
	assert.Zero(t, result.BlockCount)
}

func TestCandidates_LicenseRequiresStateAndNumber(t *testing.T) {
	records := []models.ProviderRecord{
		rec("", "A100", "", "", "", ""),
		rec("", "A100", "", "", "", ""),
		rec("", "A100", "CA", "", "", ""),
		rec("", "A100", "CA", "", "", ""),
	}

	result := NewBlocker(Options{}).Candidates(records)

	// Records without a state never enter the license block
	assert.Equal(t, []Pair{{A: 2, B: 3}}, result.Pairs)
}

func TestCandidates_PairsDeduplicatedAcrossKeys(t *testing.T) {
	records := []models.ProviderRecord{
		rec("1111111111", "A1", "CA", "smit", "4567", "207R"),
		rec("1111111111", "A1", "CA", "smit", "4567", "207R"),
	}

	result := NewBlocker(Options{}).Candidates(records)

	// Co-occurring under five keys still yields one pair
	assert.Equal(t, []Pair{{A: 0, B: 1}}, result.Pairs)
}

func TestCandidates_CanonicalOrdering(t *testing.T) {
	records := []models.ProviderRecord{
		rec("", "", "", "zzzz", "", ""),
		rec("", "", "", "aaaa", "", ""),
		rec("", "", "", "zzzz", "", ""),
		rec("", "", "", "aaaa", "", ""),
	}

	result := NewBlocker(Options{}).Candidates(records)

	for _, p := range result.Pairs {
		assert.Less(t, p.A, p.B)
	}
	assert.Equal(t, []Pair{{A: 0, B: 2}, {A: 1, B: 3}}, result.Pairs)
}

func TestCandidates_MaxBlockSizeSkipsOversizedBlocks(t *testing.T) {
	records := []models.ProviderRecord{
		rec("", "", "", "smit", "", ""),
		rec("", "", "", "smit", "", ""),
		rec("", "", "", "smit", "", ""),
		rec("1111111111", "", "", "smit", "", ""),
		rec("1111111111", "", "", "lee", "", ""),
	}

	result := NewBlocker(Options{MaxBlockSize: 3}).Candidates(records)

	// The 4-member prefix block is skipped; the NPI block survives
	assert.Equal(t, []Pair{{A: 3, B: 4}}, result.Pairs)
	assert.Equal(t, []string{"LNP::smit"}, result.SkippedBlocks)
}

func TestCandidates_ConjunctiveRequiresTwoKeys(t *testing.T) {
	records := []models.ProviderRecord{
		rec("1111111111", "", "", "smit", "", ""),
		rec("1111111111", "", "", "smit", "", ""),
		rec("2222222222", "", "", "jone", "", ""),
		rec("3333333333", "", "", "jone", "", ""),
	}

	result := NewBlocker(Options{RequireMultipleKeys: true}).Candidates(records)

	// 0-1 share NPI and prefix; 2-3 share only the prefix
	assert.Equal(t, []Pair{{A: 0, B: 1}}, result.Pairs)
}
