// Package models defines the record, pair, and cluster types that flow
// through the deduplication pipeline.
package models

// ProviderRecord is one roster row. Raw fields come straight from the
// source table; fields that were absent in the source are empty strings,
// never missing keys. Normalized fields are derived by the pipeline and
// are pure functions of the raw ones.
type ProviderRecord struct {
	// Index is the record's position in the run snapshot (0..n-1).
	Index int `json:"index" db:"record_index"`

	ProviderID       string `json:"provider_id" db:"provider_id"`
	FullName         string `json:"full_name" db:"full_name"`
	NPI              string `json:"npi" db:"npi"`
	LicenseNumber    string `json:"license_number" db:"license_number"`
	LicenseState     string `json:"license_state" db:"license_state"`
	PracticePhone    string `json:"practice_phone" db:"practice_phone"`
	PracticeAddress1 string `json:"practice_address_line1" db:"practice_address_line1"`
	PracticeCity     string `json:"practice_city" db:"practice_city"`
	PracticeState    string `json:"practice_state" db:"practice_state"`
	PracticeZip      string `json:"practice_zip" db:"practice_zip"`
	TaxonomyCode     string `json:"taxonomy_code" db:"taxonomy_code"`

	// Extra holds tolerated source columns that the pipeline does not
	// interpret. They pass through to the augmented table unchanged.
	Extra map[string]string `json:"extra,omitempty" db:"-"`

	Normalized NormalizedFields `json:"normalized"`
}

// NormalizedFields are the derived comparison forms of a record.
type NormalizedFields struct {
	Name           string `json:"name_norm" db:"name_norm"`
	NPI            string `json:"npi_norm" db:"npi_norm"`
	License        string `json:"license_norm" db:"license_norm"`
	LicenseState   string `json:"license_state_norm" db:"license_state_norm"`
	Phone          string `json:"phone_norm" db:"phone_norm"`
	PhoneLast4     string `json:"phone_last4" db:"phone_last4"`
	LastNamePrefix string `json:"last_name_prefix" db:"last_name_prefix"`
	Taxonomy       string `json:"taxonomy_norm" db:"taxonomy_norm"`
	Address        string `json:"address_norm" db:"address_norm"`
}

// DedupClusterID is assigned after clustering: the record's own
// provider_id for singletons, the cluster canonical id otherwise.
// It lives outside NormalizedFields because it is not a pure function
// of a single record.
type AugmentedRecord struct {
	ProviderRecord
	DedupClusterID string `json:"dedup_cluster_id" db:"dedup_cluster_id"`
}

// RequiredColumns are the source columns the pipeline cannot run
// without. Every other roster column degrades to empty string when
// absent.
var RequiredColumns = []string{"provider_id"}

// RecordColumns lists the interpreted source columns in table order.
var RecordColumns = []string{
	"provider_id",
	"full_name",
	"npi",
	"license_number",
	"license_state",
	"practice_phone",
	"practice_address_line1",
	"practice_city",
	"practice_state",
	"practice_zip",
	"taxonomy_code",
}

// NormalizedColumns lists the derived columns appended to the
// augmented table, in output order.
var NormalizedColumns = []string{
	"name_norm",
	"npi_norm",
	"license_norm",
	"license_state_norm",
	"phone_norm",
	"phone_last4",
	"last_name_prefix",
	"taxonomy_norm",
	"address_norm",
}
