package verification

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/sage/internal/repositories/registry"
	"github.com/Ramsey-B/sage/pkg/models"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

// fakeSource serves canned registry rows keyed by npi and license number.
type fakeSource struct {
	npi    map[string]registry.Record
	states map[string]registry.Record
}

func (f fakeSource) ExternalRecords(rec models.ProviderRecord) (merged, npiRec, stateRec registry.Record) {
	npiRec = f.npi[rec.NPI]
	stateRec = f.states[rec.LicenseNumber]
	merged = registry.Record{}
	for k, v := range npiRec {
		merged[k] = v
	}
	for k, v := range stateRec {
		merged[k] = v
	}
	return merged, npiRec, stateRec
}

var rosterColumns = []string{
	"provider_id", "full_name", "first_name", "last_name", "npi",
	"license_number", "license_state", "license_expiration",
	"practice_phone", "primary_specialty", "years_in_practice",
	"board_certified",
}

func testRecord() models.ProviderRecord {
	return models.ProviderRecord{
		ProviderID:    "P001",
		FullName:      "Jane Doe",
		NPI:           "1234567890",
		LicenseNumber: "L500",
		LicenseState:  "NY",
		PracticePhone: "555-000-1234",
		Extra: map[string]string{
			"first_name":         "Jane",
			"last_name":          "Doe",
			"license_expiration": "2030-01-15",
			"primary_specialty":  "Cardiology",
			"years_in_practice":  "12",
			"board_certified":    "True",
		},
	}
}

func matchingSource() fakeSource {
	return fakeSource{
		npi: map[string]registry.Record{
			"1234567890": {
				"npi":              "1234567890",
				"first_name":       "Jane",
				"last_name":        "Doe",
				"telephone_number": "555-000-1234",
			},
		},
		states: map[string]registry.Record{
			"L500": {
				"license_number":  "L500",
				"expiration_date": "01/15/2030",
				"board_certified": "true",
				"specialty":       "Cardiology",
			},
		},
	}
}

func referenceDate(t *testing.T) time.Time {
	t.Helper()
	ref, err := time.Parse("2006-01-02", "2025-09-06")
	require.NoError(t, err)
	return ref
}

func rowValues(t *testing.T, result *Result, row int) map[string]string {
	t.Helper()
	require.Greater(t, len(result.Rows), row)
	values := make(map[string]string, len(result.Header))
	for i, col := range result.Header {
		values[col] = result.Rows[row][i]
	}
	return values
}

func TestVerify_AllCorrect(t *testing.T) {
	v := NewVerifier(matchingSource(), testLogger(), referenceDate(t))

	result, err := v.Verify(context.Background(), []models.ProviderRecord{testRecord()}, rosterColumns)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Empty(t, result.Mismatches)

	values := rowValues(t, result, 0)
	assert.Equal(t, StatusCorrect, values["npi_check"])
	assert.Equal(t, StatusCorrect, values["first_name_check"])
	assert.Equal(t, StatusCorrect, values["last_name_check"])
	assert.Equal(t, StatusCorrect, values["practice_phone_check"])
	assert.Equal(t, StatusCorrect, values["board_certification_check"])
	// mm/dd/yyyy in the registry still matches the roster's iso form
	assert.Equal(t, StatusCorrect, values["license_expiration_check"])
	// tenure has no registry counterpart and passes through
	assert.Equal(t, "12", values["years_in_practice_check"])
}

func TestVerify_MismatchReportsExternalValue(t *testing.T) {
	source := matchingSource()
	source.npi["1234567890"]["telephone_number"] = "555-999-0000"

	v := NewVerifier(source, testLogger(), referenceDate(t))
	result, err := v.Verify(context.Background(), []models.ProviderRecord{testRecord()}, rosterColumns)
	require.NoError(t, err)

	values := rowValues(t, result, 0)
	assert.Equal(t, "555-999-0000", values["practice_phone_check"])

	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, "P001", result.Mismatches[0].ProviderID)
	assert.Contains(t, result.Mismatches[0].Reasons, "practice_phone_mismatch")
}

func TestVerify_KeyColumnNotFoundFlagsRow(t *testing.T) {
	v := NewVerifier(fakeSource{}, testLogger(), referenceDate(t))

	result, err := v.Verify(context.Background(), []models.ProviderRecord{testRecord()}, rosterColumns)
	require.NoError(t, err)

	values := rowValues(t, result, 0)
	assert.Equal(t, StatusNotFound, values["npi_check"])
	assert.Equal(t, StatusNotFound, values["license_number_check"])
	assert.Equal(t, StatusNotFound, values["board_certification_check"])

	require.Len(t, result.Mismatches, 1)
	reasons := result.Mismatches[0].Reasons
	assert.Contains(t, reasons, "npi_not_found")
	assert.Contains(t, reasons, "license_number_not_found")
	assert.Contains(t, reasons, "board_certification_not_found")
}

func TestVerify_ExpiredStateLicense(t *testing.T) {
	source := matchingSource()
	source.states["L500"]["expiration_date"] = "2024-03-01"

	v := NewVerifier(source, testLogger(), referenceDate(t))
	result, err := v.Verify(context.Background(), []models.ProviderRecord{testRecord()}, rosterColumns)
	require.NoError(t, err)

	values := rowValues(t, result, 0)
	assert.Equal(t, StatusExpired, values["license_expiration_check"])

	require.Len(t, result.Mismatches, 1)
	mismatch := result.Mismatches[0]
	assert.Contains(t, mismatch.Reasons, "state_license_expired")
	assert.Equal(t, "2024-03-01", mismatch.StateExpirationRaw)
	assert.Equal(t, "2024-03-01", mismatch.StateExpirationParsed)
}

func TestVerify_BoardCertificationNY(t *testing.T) {
	source := matchingSource()
	source.states["L500"]["board_certified"] = "false"
	source.states["L500"]["specialty"] = "Radiology"

	v := NewVerifier(source, testLogger(), referenceDate(t))
	result, err := v.Verify(context.Background(), []models.ProviderRecord{testRecord()}, rosterColumns)
	require.NoError(t, err)

	values := rowValues(t, result, 0)
	assert.Equal(t, "Radiology", values["board_certification_check"])

	require.Len(t, result.Mismatches, 1)
	assert.Contains(t, result.Mismatches[0].Reasons, "board_certification_mismatch")
}

func TestVerify_BoardCertificationCA(t *testing.T) {
	rec := testRecord()
	rec.LicenseState = "CA"

	tests := []struct {
		name     string
		stateRec registry.Record
		want     string
	}{
		{
			name:     "board_certification matches roster specialty",
			stateRec: registry.Record{"board_certification": "cardiology"},
			want:     StatusCorrect,
		},
		{
			name:     "board_certification disagrees",
			stateRec: registry.Record{"board_certification": "Urology"},
			want:     "Urology",
		},
		{
			name:     "falls back to specialty column",
			stateRec: registry.Record{"specialty": "Cardiology"},
			want:     StatusCorrect,
		},
		{
			name:     "no certification columns at all",
			stateRec: registry.Record{"license_number": "L500"},
			want:     StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := fakeSource{states: map[string]registry.Record{"L500": tt.stateRec}}
			v := NewVerifier(source, testLogger(), referenceDate(t))

			result, err := v.Verify(context.Background(), []models.ProviderRecord{rec}, rosterColumns)
			require.NoError(t, err)

			values := rowValues(t, result, 0)
			assert.Equal(t, tt.want, values["board_certification_check"])
		})
	}
}

func TestVerify_HeaderShape(t *testing.T) {
	v := NewVerifier(fakeSource{}, testLogger(), referenceDate(t))

	result, err := v.Verify(context.Background(), nil, []string{"provider_id", "board_certified"})
	require.NoError(t, err)

	// board_certified gets the consolidated check; the expiration
	// verdict column exists even without a roster expiration column
	assert.Equal(t, []string{
		"provider_id", "provider_id_check",
		"board_certified",
		"board_certification_check",
		"license_expiration_check",
	}, result.Header)
}

func TestVerify_ReasonsSortedUnique(t *testing.T) {
	source := matchingSource()
	source.npi["1234567890"]["telephone_number"] = "555-999-0000"
	source.states["L500"]["expiration_date"] = "2024-03-01"

	v := NewVerifier(source, testLogger(), referenceDate(t))
	result, err := v.Verify(context.Background(), []models.ProviderRecord{testRecord()}, rosterColumns)
	require.NoError(t, err)

	require.Len(t, result.Mismatches, 1)
	reasons := result.Mismatches[0].Reasons
	for i := 1; i < len(reasons); i++ {
		assert.Less(t, reasons[i-1], reasons[i])
	}
}
