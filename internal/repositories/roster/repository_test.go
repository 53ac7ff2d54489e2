package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/sage/pkg/models"
)

func augmentedFixture() []models.AugmentedRecord {
	return []models.AugmentedRecord{
		{
			ProviderRecord: models.ProviderRecord{
				ProviderID: "P001",
				FullName:   "Jane Doe",
				Extra:      map[string]string{"zeta_flag": "1", "alpha_flag": "2"},
			},
			DedupClusterID: "P001",
		},
		{
			ProviderRecord: models.ProviderRecord{
				ProviderID: "P002",
				FullName:   "John Smith",
				Extra:      map[string]string{"mid_flag": "3"},
			},
			DedupClusterID: "P001",
		},
	}
}

func TestAugmentedHeader_ExtrasSortedAndStable(t *testing.T) {
	records := augmentedFixture()

	header := augmentedHeader(records)

	// tolerated columns sit between the interpreted and derived ones,
	// alphabetical regardless of map iteration order
	i := len(models.RecordColumns)
	assert.Equal(t, []string{"alpha_flag", "mid_flag", "zeta_flag"}, header[i:i+3])
	assert.Equal(t, "dedup_cluster_id", header[len(header)-1])

	for i := 0; i < 20; i++ {
		assert.Equal(t, header, augmentedHeader(records))
	}
}

func TestAugmentedRow_AlignsWithHeader(t *testing.T) {
	records := augmentedFixture()
	header := augmentedHeader(records)

	row := augmentedRow(records[0], header)
	assert.Len(t, row, len(header))

	byCol := map[string]string{}
	for i, col := range header {
		byCol[col] = row[i]
	}
	assert.Equal(t, "P001", byCol["provider_id"])
	assert.Equal(t, "2", byCol["alpha_flag"])
	assert.Equal(t, "1", byCol["zeta_flag"])
	// extras absent on this record stay empty rather than shifting cells
	assert.Equal(t, "", byCol["mid_flag"])
	assert.Equal(t, "P001", byCol["dedup_cluster_id"])
}
