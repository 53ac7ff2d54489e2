package dedupe

import (
	"context"
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

func provider(id, name, npi, license, licenseState, phone, addr1, city, state, zip, taxonomy string) models.ProviderRecord {
	return models.ProviderRecord{
		ProviderID:       id,
		FullName:         name,
		NPI:              npi,
		LicenseNumber:    license,
		LicenseState:     licenseState,
		PracticePhone:    phone,
		PracticeAddress1: addr1,
		PracticeCity:     city,
		PracticeState:    state,
		PracticeZip:      zip,
		TaxonomyCode:     taxonomy,
	}
}

func TestEngineRun_SharedIdentifiersCluster(t *testing.T) {
	engine := NewEngine(testLogger())

	records := []models.ProviderRecord{
		provider("P002", "John A Smith MD", "1234567890", "000111", "CA", "", "", "", "", "", ""),
		provider("P001", "john smith", "1234567890", "000111", "CA", "", "", "", "", "", ""),
		provider("P003", "Alice Jones", "9999999999", "", "", "", "", "", "", "", ""),
	}

	result, err := engine.Run(context.Background(), records, Options{})
	require.NoError(t, err)

	require.Len(t, result.Pairs, 1)
	pair := result.Pairs[0]
	assert.Equal(t, models.MatchClassDefinite, pair.MatchClass)
	assert.GreaterOrEqual(t, pair.Score, 11.0)

	require.Len(t, result.Clusters, 1)
	assert.Equal(t, "P001", result.Clusters[0].CanonicalID)
	assert.ElementsMatch(t, []string{"P001", "P002"}, result.Clusters[0].MemberIDs)

	// Both duplicates share the canonical id; the singleton keeps its own
	byID := make(map[string]string)
	for _, r := range result.Records {
		byID[r.ProviderID] = r.DedupClusterID
	}
	assert.Equal(t, "P001", byID["P001"])
	assert.Equal(t, "P001", byID["P002"])
	assert.Equal(t, "P003", byID["P003"])
}

func TestEngineRun_PartitionInvariant(t *testing.T) {
	engine := NewEngine(testLogger())

	records := []models.ProviderRecord{
		provider("P001", "John Smith", "1111111111", "", "", "", "", "", "", "", ""),
		provider("P002", "Jon Smith", "1111111111", "", "", "", "", "", "", "", ""),
		provider("P003", "Maria Garcia", "", "", "", "555-000-1234", "", "", "", "", ""),
		provider("P004", "Mario Garza", "", "", "", "555-999-1234", "", "", "", "", ""),
		provider("P005", "Unrelated Person", "", "", "", "", "", "", "", "", ""),
	}

	result, err := engine.Run(context.Background(), records, Options{Workers: 2})
	require.NoError(t, err)

	require.Len(t, result.Records, 5)
	for _, r := range result.Records {
		assert.NotEmpty(t, r.DedupClusterID, "record %s has no cluster id", r.ProviderID)
	}
	assert.Equal(t, 5, result.Run.RecordCount)
}

func TestEngineRun_TransitiveClustering(t *testing.T) {
	engine := NewEngine(testLogger())

	// A-B share an NPI, B-C share a license; A-C share nothing directly
	records := []models.ProviderRecord{
		provider("P001", "Pat Lee", "1234567890", "", "", "", "", "", "", "", ""),
		provider("P002", "Patricia Lee", "1234567890", "L500", "NY", "", "", "", "", "", ""),
		provider("P003", "P Lee", "", "L500", "NY", "", "", "", "", "", ""),
	}

	result, err := engine.Run(context.Background(), records, Options{})
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, []string{"P001", "P002", "P003"}, result.Clusters[0].MemberIDs)
	assert.Equal(t, "P001", result.Clusters[0].CanonicalID)
}

func TestEngineRun_NPIConflictPreventsMerge(t *testing.T) {
	engine := NewEngine(testLogger())

	records := []models.ProviderRecord{
		provider("P001", "Maria Garcia", "1111111111", "", "", "", "500 Main St", "Denver", "CO", "80014", ""),
		provider("P002", "Maria Garcia", "2222222222", "", "", "", "500 Main St", "Denver", "CO", "80014", ""),
	}

	result, err := engine.Run(context.Background(), records, Options{})
	require.NoError(t, err)

	require.Len(t, result.Pairs, 1)
	assert.Equal(t, models.MatchClassNonmatch, result.Pairs[0].MatchClass)
	assert.Contains(t, result.Pairs[0].Reasons, models.ReasonNPIConflict)
	assert.Empty(t, result.Clusters)
}

func TestEngineRun_PairsSortedByScoreDescending(t *testing.T) {
	engine := NewEngine(testLogger())

	records := []models.ProviderRecord{
		provider("P001", "John Smith", "1234567890", "A1", "CA", "555-000-1111", "", "", "", "", ""),
		provider("P002", "John Smith", "1234567890", "A1", "CA", "555-000-1111", "", "", "", "", ""),
		provider("P003", "Jane Smyth", "", "", "", "", "", "", "", "", ""),
		provider("P004", "Janet Smythe", "", "", "", "", "", "", "", "", ""),
	}

	result, err := engine.Run(context.Background(), records, Options{})
	require.NoError(t, err)

	for i := 1; i < len(result.Pairs); i++ {
		assert.GreaterOrEqual(t, result.Pairs[i-1].Score, result.Pairs[i].Score)
	}
}

func TestEngineRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	records := []models.ProviderRecord{
		provider("P005", "John Smith", "1234567890", "", "", "", "", "", "", "", ""),
		provider("P002", "Jon Smith", "1234567890", "", "", "", "", "", "", "", ""),
		provider("P009", "John A Smith", "1234567890", "", "", "", "", "", "", "", ""),
		provider("P001", "Maria Garcia", "", "L1", "TX", "", "", "", "", "", ""),
		provider("P004", "Maria G Garcia", "", "L1", "TX", "", "", "", "", "", ""),
	}

	engine := NewEngine(testLogger())

	single, err := engine.Run(context.Background(), records, Options{Workers: 1})
	require.NoError(t, err)
	parallel, err := engine.Run(context.Background(), records, Options{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, single.Run.InputFingerprint, parallel.Run.InputFingerprint)
	assert.Equal(t, single.Clusters, parallel.Clusters)
	require.Equal(t, len(single.Pairs), len(parallel.Pairs))
	for i := range single.Pairs {
		assert.Equal(t, single.Pairs[i].RecordAID, parallel.Pairs[i].RecordAID)
		assert.Equal(t, single.Pairs[i].RecordBID, parallel.Pairs[i].RecordBID)
		assert.Equal(t, single.Pairs[i].Score, parallel.Pairs[i].Score)
		assert.Equal(t, single.Pairs[i].MatchClass, parallel.Pairs[i].MatchClass)
	}
}

func TestEngineRun_InvalidThresholds(t *testing.T) {
	engine := NewEngine(testLogger())

	_, err := engine.Run(context.Background(), nil, Options{DefiniteThreshold: 2.0, PossibleThreshold: 3.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
}

func TestEngineRun_EmptyInput(t *testing.T) {
	engine := NewEngine(testLogger())

	result, err := engine.Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Pairs)
	assert.Empty(t, result.Clusters)
}

func TestEngineRun_InputNotMutated(t *testing.T) {
	engine := NewEngine(testLogger())

	records := []models.ProviderRecord{
		provider("P001", "Dr. John Smith", "1234567890", "", "", "", "", "", "", "", ""),
	}

	_, err := engine.Run(context.Background(), records, Options{})
	require.NoError(t, err)

	assert.Empty(t, records[0].Normalized.Name)
}
