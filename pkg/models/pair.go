package models

// MatchClass buckets a scored pair by threshold.
type MatchClass string

const (
	MatchClassDefinite MatchClass = "definite"
	MatchClassPossible MatchClass = "possible"
	MatchClassNonmatch MatchClass = "nonmatch"
)

// Reason tags attached to scored pairs. Graded signals (name, token,
// address similarity) are reported as sub-scores instead.
const (
	ReasonNPIEqual      = "npi_eq"
	ReasonLicenseEqual  = "lic_eq"
	ReasonPhoneL4Equal  = "ph4_eq"
	ReasonTaxonomyEqual = "tax_eq"
	ReasonNPIConflict   = "npi_conflict"
)

// ReviewStatus tracks human decisions on "possible" pairs. Decisions
// are advisory; they never feed back into clustering.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// CandidatePair is one scored comparison. RecordAID < RecordBID always
// holds so the same pair cannot appear twice under swapped order.
type CandidatePair struct {
	ID         string     `json:"id" db:"id"`
	RunID      string     `json:"run_id" db:"run_id"`
	RecordAID  string     `json:"record_a_id" db:"record_a_id"`
	RecordBID  string     `json:"record_b_id" db:"record_b_id"`
	Score      float64    `json:"score" db:"score"`
	SubScores  SubScores  `json:"sub_scores"`
	Reasons    []string   `json:"reasons" db:"-"`
	MatchClass MatchClass `json:"match_class" db:"match_class"`
}

// SubScores are the graded similarity components of a pair score.
type SubScores struct {
	NameSimilarity float64 `json:"name_similarity" db:"name_similarity"`
	TokenOverlap   float64 `json:"token_overlap" db:"token_overlap"`
	AddressOverlap float64 `json:"address_overlap" db:"address_overlap"`
}
