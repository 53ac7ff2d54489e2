package models

// Cluster is a connected component of definite matches. Only clusters
// with more than one member are reported; singletons are implicit.
type Cluster struct {
	CanonicalID string   `json:"canonical_id" db:"canonical_id"`
	MemberIDs   []string `json:"member_ids" db:"-"`
	Size        int      `json:"size" db:"size"`
}
