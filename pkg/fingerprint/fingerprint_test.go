package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/sage/pkg/models"
)

func TestSnapshot_Deterministic(t *testing.T) {
	records := []models.ProviderRecord{
		{ProviderID: "P001", FullName: "John Smith", NPI: "1234567890"},
		{ProviderID: "P002", FullName: "Jane Doe"},
	}

	assert.Equal(t, Snapshot(records), Snapshot(records))
}

func TestSnapshot_SensitiveToValues(t *testing.T) {
	a := []models.ProviderRecord{{ProviderID: "P001", FullName: "John Smith"}}
	b := []models.ProviderRecord{{ProviderID: "P001", FullName: "John Smyth"}}

	assert.NotEqual(t, Snapshot(a), Snapshot(b))
}

func TestSnapshot_IgnoresDerivedAndExtraColumns(t *testing.T) {
	a := []models.ProviderRecord{{ProviderID: "P001", FullName: "John Smith"}}
	b := []models.ProviderRecord{{
		ProviderID: "P001",
		FullName:   "John Smith",
		Extra:      map[string]string{"source_feed": "feed-7"},
		Normalized: models.NormalizedFields{Name: "john smith"},
	}}

	assert.Equal(t, Snapshot(a), Snapshot(b))
}

func TestSnapshot_SeparatorValuesDoNotCollide(t *testing.T) {
	a := []models.ProviderRecord{{ProviderID: "P|1", FullName: "x"}}
	b := []models.ProviderRecord{{ProviderID: "P", FullName: "1|x"}}

	assert.NotEqual(t, Snapshot(a), Snapshot(b))
}

func TestSnapshot_BackslashValuesDoNotCollide(t *testing.T) {
	// a trailing backslash in one column can masquerade as the escape
	// for the following separator, shifting a literal pipe between
	// columns
	a := []models.ProviderRecord{{ProviderID: `a|b`, FullName: `c\`, NPI: "d"}}
	b := []models.ProviderRecord{{ProviderID: `a\`, FullName: "b", NPI: `c|d`}}

	assert.NotEqual(t, Snapshot(a), Snapshot(b))
}

func TestHasChanged(t *testing.T) {
	assert.False(t, HasChanged("abc", "abc"))
	assert.True(t, HasChanged("abc", "abd"))
}
