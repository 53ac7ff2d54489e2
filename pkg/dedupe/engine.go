package dedupe

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/sage/pkg/blocking"
	"github.com/Ramsey-B/sage/pkg/clustering"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/fingerprint"
	"github.com/Ramsey-B/sage/pkg/matching"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Options tune one run of the pipeline. The zero value is completed by
// applyDefaults, so callers only set what they want to change.
type Options struct {
	DefiniteThreshold float64
	PossibleThreshold float64
	Workers           int
	Blocking          blocking.Options
	Weights           *matching.Weights
}

func (o *Options) applyDefaults() {
	if o.DefiniteThreshold == 0 {
		o.DefiniteThreshold = 5.0
	}
	if o.PossibleThreshold == 0 {
		o.PossibleThreshold = 3.0
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Weights == nil {
		w := matching.DefaultWeights()
		o.Weights = &w
	}
}

// Result is everything one run produces: the augmented record set, the
// scored pairs sorted by score descending, the multi-member clusters,
// and the run summary.
type Result struct {
	Run      models.DedupRun
	Records  []models.AugmentedRecord
	Pairs    []models.CandidatePair
	Clusters []models.Cluster
}

// Engine runs the pipeline over an immutable snapshot of the input.
type Engine struct {
	log ectologger.Logger
}

// NewEngine creates an Engine.
func NewEngine(log ectologger.Logger) *Engine {
	return &Engine{log: log}
}

// Run executes one full batch: normalize, block, score in parallel,
// classify, cluster definite pairs, assign canonical ids. Scoring
// failures skip the affected pair; only structural problems fail the
// run.
func (e *Engine) Run(ctx context.Context, records []models.ProviderRecord, opts Options) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Engine.Run")
	defer span.End()

	opts.applyDefaults()
	if opts.DefiniteThreshold <= opts.PossibleThreshold {
		return nil, fmt.Errorf("definite threshold %.2f must exceed possible threshold %.2f", opts.DefiniteThreshold, opts.PossibleThreshold)
	}

	runID := uuid.New().String()
	ctx = sagecontext.SetRunID(ctx, runID)
	startedAt := time.Now().UTC()

	log := e.log.WithContext(ctx).WithFields(map[string]any{
		"run_id":  runID,
		"records": len(records),
	})
	log.Info("starting dedupe run")

	snapshot := e.normalize(ctx, records)

	blockResult := e.block(ctx, snapshot, opts.Blocking)
	log.WithFields(map[string]any{
		"blocks":         blockResult.BlockCount,
		"candidates":     len(blockResult.Pairs),
		"skipped_blocks": len(blockResult.SkippedBlocks),
	}).Info("generated candidate pairs")
	for _, key := range blockResult.SkippedBlocks {
		log.WithField("block_key", key).Warn("skipping oversized block")
	}

	pairs, skipped, err := e.score(ctx, runID, snapshot, blockResult.Pairs, opts)
	if err != nil {
		return nil, err
	}

	definite := make([]blocking.Pair, 0)
	definiteCount, possibleCount := 0, 0
	for i := range pairs {
		switch pairs[i].MatchClass {
		case models.MatchClassDefinite:
			definiteCount++
			definite = append(definite, blocking.Pair{A: pairs[i].recordAIndex, B: pairs[i].recordBIndex})
		case models.MatchClassPossible:
			possibleCount++
		}
	}

	// Barrier: unions run sequentially once all scores are in
	groups := clustering.NewClusterer().Cluster(len(snapshot), definite)
	canonicalIDs := clustering.CanonicalIDs(snapshot, groups)
	clusters := clustering.Clusters(snapshot, groups)

	augmented := make([]models.AugmentedRecord, len(snapshot))
	for i, r := range snapshot {
		augmented[i] = models.AugmentedRecord{
			ProviderRecord: r,
			DedupClusterID: canonicalIDs[i],
		}
	}

	result := &Result{
		Run: models.DedupRun{
			ID:                runID,
			InputFingerprint:  fingerprint.Snapshot(snapshot),
			DefiniteThreshold: opts.DefiniteThreshold,
			PossibleThreshold: opts.PossibleThreshold,
			RecordCount:       len(snapshot),
			PairCount:         len(pairs),
			DefiniteCount:     definiteCount,
			PossibleCount:     possibleCount,
			ClusterCount:      len(clusters),
			SkippedPairs:      skipped,
			StartedAt:         startedAt,
			CompletedAt:       time.Now().UTC(),
		},
		Records:  augmented,
		Pairs:    stripIndexes(pairs),
		Clusters: clusters,
	}

	log.WithFields(map[string]any{
		"pairs":         len(pairs),
		"definite":      definiteCount,
		"possible":      possibleCount,
		"clusters":      len(clusters),
		"skipped_pairs": skipped,
	}).Info("dedupe run complete")

	return result, nil
}

func (e *Engine) normalize(ctx context.Context, records []models.ProviderRecord) []models.ProviderRecord {
	_, span := tracing.StartSpan(ctx, "dedupe.Engine.normalize")
	defer span.End()
	return normalizeAll(records)
}

func (e *Engine) block(ctx context.Context, snapshot []models.ProviderRecord, opts blocking.Options) blocking.Result {
	_, span := tracing.StartSpan(ctx, "dedupe.Engine.block")
	defer span.End()
	return blocking.NewBlocker(opts).Candidates(snapshot)
}

// scoredPair carries the snapshot indices alongside the persisted pair
// so clustering never has to resolve provider ids back to positions.
type scoredPair struct {
	models.CandidatePair
	recordAIndex int
	recordBIndex int
}

func (e *Engine) score(ctx context.Context, runID string, snapshot []models.ProviderRecord, candidates []blocking.Pair, opts Options) ([]scoredPair, int, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Engine.score")
	defer span.End()

	scorer := matching.NewPairScorer(*opts.Weights)
	classifier := matching.NewClassifier(opts.DefiniteThreshold, opts.PossibleThreshold)

	results := make([]*scoredPair, len(candidates))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	chunk := (len(candidates) + opts.Workers - 1) / opts.Workers
	for start := 0; start < len(candidates); start += chunk {
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				pair, ok := e.scorePair(gctx, runID, snapshot, candidates[i], scorer, classifier)
				if !ok {
					skipped.Add(1)
					continue
				}
				results[i] = pair
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	scored := make([]scoredPair, 0, len(results))
	for _, p := range results {
		if p != nil {
			scored = append(scored, *p)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].recordAIndex != scored[j].recordAIndex {
			return scored[i].recordAIndex < scored[j].recordAIndex
		}
		return scored[i].recordBIndex < scored[j].recordBIndex
	})

	return scored, int(skipped.Load()), nil
}

// scorePair scores one candidate, converting a panic into a skipped
// pair so a single bad comparison never aborts the batch.
func (e *Engine) scorePair(ctx context.Context, runID string, snapshot []models.ProviderRecord, candidate blocking.Pair, scorer *matching.PairScorer, classifier *matching.Classifier) (pair *scoredPair, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithContext(ctx).WithFields(map[string]any{
				"run_id":   runID,
				"record_a": candidate.A,
				"record_b": candidate.B,
				"panic":    fmt.Sprintf("%v", r),
			}).Warn("scoring failed, skipping pair")
			pair, ok = nil, false
		}
	}()

	a, b := snapshot[candidate.A], snapshot[candidate.B]
	score := scorer.Score(a, b)

	return &scoredPair{
		CandidatePair: models.CandidatePair{
			ID:         uuid.New().String(),
			RunID:      runID,
			RecordAID:  a.ProviderID,
			RecordBID:  b.ProviderID,
			Score:      score.Score,
			SubScores:  score.SubScores,
			Reasons:    score.Reasons,
			MatchClass: classifier.Classify(score.Score),
		},
		recordAIndex: candidate.A,
		recordBIndex: candidate.B,
	}, true
}

func stripIndexes(pairs []scoredPair) []models.CandidatePair {
	out := make([]models.CandidatePair, len(pairs))
	for i := range pairs {
		out[i] = pairs[i].CandidatePair
	}
	return out
}
