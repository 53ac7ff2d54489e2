package models

import "time"

// DedupRun is one execution of the pipeline over a roster snapshot.
type DedupRun struct {
	ID                string    `json:"id" db:"id"`
	InputFingerprint  string    `json:"input_fingerprint" db:"input_fingerprint"`
	DefiniteThreshold float64   `json:"definite_threshold" db:"definite_threshold"`
	PossibleThreshold float64   `json:"possible_threshold" db:"possible_threshold"`
	RecordCount       int       `json:"record_count" db:"record_count"`
	PairCount         int       `json:"pair_count" db:"pair_count"`
	DefiniteCount     int       `json:"definite_count" db:"definite_count"`
	PossibleCount     int       `json:"possible_count" db:"possible_count"`
	ClusterCount      int       `json:"cluster_count" db:"cluster_count"`
	SkippedPairs      int       `json:"skipped_pairs" db:"skipped_pairs"`
	StartedAt         time.Time `json:"started_at" db:"started_at"`
	CompletedAt       time.Time `json:"completed_at" db:"completed_at"`
}
