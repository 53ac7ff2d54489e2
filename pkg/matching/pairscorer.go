package matching

import (
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/normalizers"
)

// Weights holds the additive signal weights for pair scoring.
type Weights struct {
	NPIEqual       float64
	LicenseEqual   float64
	NameSimilarity float64
	NameTokens     float64
	PhoneLast4     float64
	AddressTokens  float64
	TaxonomyEqual  float64
	NPIConflict    float64
}

// DefaultWeights returns the production weight table.
func DefaultWeights() Weights {
	return Weights{
		NPIEqual:       6.0,
		LicenseEqual:   5.0,
		NameSimilarity: 3.0,
		NameTokens:     1.0,
		PhoneLast4:     1.5,
		AddressTokens:  0.8,
		TaxonomyEqual:  0.6,
		NPIConflict:    -4.0,
	}
}

// PairScore is the result of scoring one candidate pair.
type PairScore struct {
	Score     float64
	SubScores models.SubScores
	Reasons   []string
}

// PairScorer computes a weighted similarity score for two normalized
// records. Scoring is pure: no I/O, no shared mutable state, the same
// inputs always produce the same output.
type PairScorer struct {
	scorer  *Scorer
	weights Weights
}

// NewPairScorer creates a PairScorer with the given weights.
func NewPairScorer(weights Weights) *PairScorer {
	return &PairScorer{
		scorer:  NewScorer(),
		weights: weights,
	}
}

// Score compares two records using their normalized fields. Exact
// signals fire only when both sides are non-empty; graded signals
// (name, token, address similarity) always contribute, with both-empty
// defined as identical.
func (p *PairScorer) Score(a, b models.ProviderRecord) PairScore {
	na, nb := a.Normalized, b.Normalized

	var score float64
	reasons := []string{}

	if na.NPI != "" && nb.NPI != "" && na.NPI == nb.NPI {
		score += p.weights.NPIEqual
		reasons = append(reasons, models.ReasonNPIEqual)
	}

	if na.License != "" && nb.License != "" &&
		na.LicenseState != "" && nb.LicenseState != "" &&
		na.LicenseState == nb.LicenseState && na.License == nb.License {
		score += p.weights.LicenseEqual
		reasons = append(reasons, models.ReasonLicenseEqual)
	}

	nameSim := p.scorer.SequenceRatio(na.Name, nb.Name)
	score += nameSim * p.weights.NameSimilarity

	tokenOverlap := p.scorer.TokenOverlap(normalizers.Tokens(na.Name), normalizers.Tokens(nb.Name))
	score += tokenOverlap * p.weights.NameTokens

	if na.PhoneLast4 != "" && nb.PhoneLast4 != "" && na.PhoneLast4 == nb.PhoneLast4 {
		score += p.weights.PhoneLast4
		reasons = append(reasons, models.ReasonPhoneL4Equal)
	}

	addressOverlap := p.scorer.TokenOverlap(normalizers.Tokens(na.Address), normalizers.Tokens(nb.Address))
	score += addressOverlap * p.weights.AddressTokens

	if na.Taxonomy != "" && nb.Taxonomy != "" && na.Taxonomy == nb.Taxonomy {
		score += p.weights.TaxonomyEqual
		reasons = append(reasons, models.ReasonTaxonomyEqual)
	}

	if na.NPI != "" && nb.NPI != "" && na.NPI != nb.NPI {
		score += p.weights.NPIConflict
		reasons = append(reasons, models.ReasonNPIConflict)
	}

	return PairScore{
		Score: score,
		SubScores: models.SubScores{
			NameSimilarity: nameSim,
			TokenOverlap:   tokenOverlap,
			AddressOverlap: addressOverlap,
		},
		Reasons: reasons,
	}
}
