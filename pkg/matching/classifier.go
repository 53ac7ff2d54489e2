package matching

import "github.com/Ramsey-B/sage/pkg/models"

// Classifier maps a pair score to a match class using two cutoffs.
// DefiniteThreshold must exceed PossibleThreshold; config validation
// enforces this before a Classifier is built.
type Classifier struct {
	DefiniteThreshold float64
	PossibleThreshold float64
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(definite, possible float64) *Classifier {
	return &Classifier{
		DefiniteThreshold: definite,
		PossibleThreshold: possible,
	}
}

// Classify is total over the score domain: every score maps to exactly
// one class. Only "definite" pairs feed clustering; "possible" pairs
// surface for human review and are never auto-merged.
func (c *Classifier) Classify(score float64) models.MatchClass {
	switch {
	case score >= c.DefiniteThreshold:
		return models.MatchClassDefinite
	case score >= c.PossibleThreshold:
		return models.MatchClassPossible
	default:
		return models.MatchClassNonmatch
	}
}
