package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/sage/pkg/models"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNPIRegistry_FreshestCertificationWins(t *testing.T) {
	path := writeCSV(t, "npi.csv", `npi,first_name,npi_certification_date
1234567890,Jane,2020-01-01
1234567890,Janet,2023-06-15
9999999999,Bob,2021-05-05
,Headless,2022-01-01
`)

	repo := NewRepository(testLogger())
	count, err := repo.LoadNPIRegistry(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	merged, npiRec, _ := repo.ExternalRecords(models.ProviderRecord{NPI: "1234567890"})
	require.NotNil(t, npiRec)
	assert.Equal(t, "Janet", npiRec["first_name"])
	assert.Equal(t, "Janet", merged["first_name"])
}

func TestLoadNPIRegistry_StaleRowNeverReplacesFresh(t *testing.T) {
	path := writeCSV(t, "npi.csv", `npi,first_name,npi_certification_date
1234567890,Janet,2023-06-15
1234567890,Jane,2020-01-01
`)

	repo := NewRepository(testLogger())
	_, err := repo.LoadNPIRegistry(context.Background(), path)
	require.NoError(t, err)

	_, npiRec, _ := repo.ExternalRecords(models.ProviderRecord{NPI: "1234567890"})
	assert.Equal(t, "Janet", npiRec["first_name"])
}

func TestLoadStateLicenses_LookupByState(t *testing.T) {
	nyPath := writeCSV(t, "ny.csv", `license_number,specialty,expiration_date
L500,Cardiology,2030-01-15
`)
	caPath := writeCSV(t, "ca.csv", `license_number,specialty,expiration_date
L500,Urology,2028-06-01
`)

	repo := NewRepository(testLogger())
	_, err := repo.LoadStateLicenses(context.Background(), "ny", nyPath)
	require.NoError(t, err)
	_, err = repo.LoadStateLicenses(context.Background(), "CA", caPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"CA", "NY"}, repo.States())

	_, _, stateRec := repo.ExternalRecords(models.ProviderRecord{LicenseNumber: "L500", LicenseState: "NY"})
	require.NotNil(t, stateRec)
	assert.Equal(t, "Cardiology", stateRec["specialty"])

	// unknown license state falls back to the first loaded board that
	// knows the license number
	_, _, stateRec = repo.ExternalRecords(models.ProviderRecord{LicenseNumber: "L500", LicenseState: "TX"})
	require.NotNil(t, stateRec)
	assert.Equal(t, "Urology", stateRec["specialty"])
}

func TestExternalRecords_StateOverridesNPIInMerge(t *testing.T) {
	npiPath := writeCSV(t, "npi.csv", `npi,specialty
1234567890,Oncology
`)
	nyPath := writeCSV(t, "ny.csv", `license_number,specialty
L500,Cardiology
`)

	repo := NewRepository(testLogger())
	_, err := repo.LoadNPIRegistry(context.Background(), npiPath)
	require.NoError(t, err)
	_, err = repo.LoadStateLicenses(context.Background(), "NY", nyPath)
	require.NoError(t, err)

	merged, _, _ := repo.ExternalRecords(models.ProviderRecord{
		NPI:           "1234567890",
		LicenseNumber: "L500",
		LicenseState:  "NY",
	})
	assert.Equal(t, "Cardiology", merged["specialty"])
}

func TestLoadStateLicenses_MissingKeyColumn(t *testing.T) {
	path := writeCSV(t, "bad.csv", `name,specialty
Jane,Cardiology
`)

	repo := NewRepository(testLogger())
	_, err := repo.LoadStateLicenses(context.Background(), "NY", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "license_number")
}

func TestLoadStateLicenses_ShortRowsPadEmpty(t *testing.T) {
	path := writeCSV(t, "ny.csv", `license_number,specialty,expiration_date
L500,Cardiology
`)

	repo := NewRepository(testLogger())
	_, err := repo.LoadStateLicenses(context.Background(), "NY", path)
	require.NoError(t, err)

	_, _, stateRec := repo.ExternalRecords(models.ProviderRecord{LicenseNumber: "L500", LicenseState: "NY"})
	require.NotNil(t, stateRec)
	assert.Equal(t, "", stateRec["expiration_date"])
}
