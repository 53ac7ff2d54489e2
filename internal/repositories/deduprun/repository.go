// Package deduprun persists run artifacts: run summaries, scored
// candidate pairs, multi-member clusters, and review decisions.
package deduprun

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

const pairInsertBatch = 80

// Repository handles dedupe run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new dedupe run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateRun stores a run summary row.
func (r *Repository) CreateRun(ctx context.Context, run models.DedupRun) error {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.CreateRun")
	defer span.End()

	sb := sqlbuilder.SQLite.NewInsertBuilder()
	sb.InsertInto("dedup_runs")
	sb.Cols("id", "input_fingerprint", "definite_threshold", "possible_threshold", "record_count", "pair_count", "definite_count", "possible_count", "cluster_count", "skipped_pairs", "started_at", "completed_at")
	sb.Values(run.ID, run.InputFingerprint, run.DefiniteThreshold, run.PossibleThreshold, run.RecordCount, run.PairCount, run.DefiniteCount, run.PossibleCount, run.ClusterCount, run.SkippedPairs, run.StartedAt, run.CompletedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": run.ID}).Error("Failed to create dedup run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dedup run")
	}

	return nil
}

// GetRun retrieves one run summary by id.
func (r *Repository) GetRun(ctx context.Context, id string) (*models.DedupRun, error) {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.GetRun")
	defer span.End()

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "input_fingerprint", "definite_threshold", "possible_threshold", "record_count", "pair_count", "definite_count", "possible_count", "cluster_count", "skipped_pairs", "started_at", "completed_at")
	sb.From("dedup_runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var run models.DedupRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get dedup run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dedup run")
	}

	return &run, nil
}

// ListRuns retrieves run summaries, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]models.DedupRun, error) {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.ListRuns")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 50
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "input_fingerprint", "definite_threshold", "possible_threshold", "record_count", "pair_count", "definite_count", "possible_count", "cluster_count", "skipped_pairs", "started_at", "completed_at")
	sb.From("dedup_runs")
	sb.OrderBy("started_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []models.DedupRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dedup runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dedup runs")
	}

	return runs, nil
}

// pairRow flattens a CandidatePair for scanning.
type pairRow struct {
	ID             string              `db:"id"`
	RunID          string              `db:"run_id"`
	RecordAID      string              `db:"record_a_id"`
	RecordBID      string              `db:"record_b_id"`
	Score          float64             `db:"score"`
	NameSimilarity float64             `db:"name_similarity"`
	TokenOverlap   float64             `db:"token_overlap"`
	AddressOverlap float64             `db:"address_overlap"`
	Reasons        string              `db:"reasons"`
	MatchClass     models.MatchClass   `db:"match_class"`
	ReviewStatus   models.ReviewStatus `db:"review_status"`
}

func (p pairRow) toModel() models.CandidatePair {
	var reasons []string
	if p.Reasons != "" {
		reasons = strings.Split(p.Reasons, ";")
	}
	return models.CandidatePair{
		ID:        p.ID,
		RunID:     p.RunID,
		RecordAID: p.RecordAID,
		RecordBID: p.RecordBID,
		Score:     p.Score,
		SubScores: models.SubScores{
			NameSimilarity: p.NameSimilarity,
			TokenOverlap:   p.TokenOverlap,
			AddressOverlap: p.AddressOverlap,
		},
		Reasons:    reasons,
		MatchClass: p.MatchClass,
	}
}

// CreatePairs stores scored pairs for a run in insertion order, which
// the engine guarantees is score descending.
func (r *Repository) CreatePairs(ctx context.Context, pairs []models.CandidatePair) error {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.CreatePairs")
	defer span.End()

	for start := 0; start < len(pairs); start += pairInsertBatch {
		end := min(start+pairInsertBatch, len(pairs))

		sb := sqlbuilder.SQLite.NewInsertBuilder()
		sb.InsertInto("dedup_pairs")
		sb.Cols("id", "run_id", "record_a_id", "record_b_id", "score", "name_similarity", "token_overlap", "address_overlap", "reasons", "match_class", "review_status")
		for _, p := range pairs[start:end] {
			id := p.ID
			if id == "" {
				id = uuid.New().String()
			}
			sb.Values(id, p.RunID, p.RecordAID, p.RecordBID, p.Score, p.SubScores.NameSimilarity, p.SubScores.TokenOverlap, p.SubScores.AddressOverlap, strings.Join(p.Reasons, ";"), p.MatchClass, models.ReviewPending)
		}

		query, args := sb.Build()
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to create dedup pairs")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dedup pairs")
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(pairs)}).Debug("Created dedup pairs")
	return nil
}

// ListPairs retrieves scored pairs for a run, score descending,
// optionally filtered by match class.
func (r *Repository) ListPairs(ctx context.Context, runID string, matchClass string, limit int) ([]models.CandidatePair, error) {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.ListPairs")
	defer span.End()

	if limit < 1 || limit > 1000 {
		limit = 200
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "run_id", "record_a_id", "record_b_id", "score", "name_similarity", "token_overlap", "address_overlap", "reasons", "match_class", "review_status")
	sb.From("dedup_pairs")
	where := []string{sb.Equal("run_id", runID)}
	if matchClass != "" {
		where = append(where, sb.Equal("match_class", matchClass))
	}
	sb.Where(where...)
	sb.OrderBy("score DESC", "record_a_id ASC", "record_b_id ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []pairRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dedup pairs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dedup pairs")
	}

	pairs := make([]models.CandidatePair, len(rows))
	for i, row := range rows {
		pairs[i] = row.toModel()
	}
	return pairs, nil
}

// GetPair retrieves one pair by id.
func (r *Repository) GetPair(ctx context.Context, id string) (*models.CandidatePair, models.ReviewStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.GetPair")
	defer span.End()

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "run_id", "record_a_id", "record_b_id", "score", "name_similarity", "token_overlap", "address_overlap", "reasons", "match_class", "review_status")
	sb.From("dedup_pairs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row pairRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, "", httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("pair %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get dedup pair")
		return nil, "", httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dedup pair")
	}

	pair := row.toModel()
	return &pair, row.ReviewStatus, nil
}

// ReviewPair records a human decision on a "possible" pair. Decisions
// are advisory for downstream review tooling; they never feed back
// into clustering.
func (r *Repository) ReviewPair(ctx context.Context, id string, decision models.ReviewStatus, decidedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.ReviewPair")
	defer span.End()

	pair, _, err := r.GetPair(ctx, id)
	if err != nil {
		return err
	}
	if pair.MatchClass != models.MatchClassPossible {
		return httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("pair %s is %s; only possible pairs are reviewable", id, pair.MatchClass))
	}

	now := time.Now().UTC()

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("dedup_pairs")
	ub.Set(
		ub.Assign("review_status", decision),
		ub.Assign("reviewed_at", now),
	)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update pair review status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to review pair")
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("review_decisions")
	ib.Cols("id", "pair_id", "decision", "decided_by", "created_at")
	ib.Values(uuid.New().String(), id, decision, decidedBy, now)

	query, args = ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to record review decision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record review decision")
	}

	return nil
}

// clusterRow flattens a Cluster for scanning.
type clusterRow struct {
	CanonicalID string `db:"canonical_id"`
	MemberIDs   string `db:"member_ids"`
	Size        int    `db:"size"`
}

// CreateClusters stores the multi-member clusters for a run.
func (r *Repository) CreateClusters(ctx context.Context, runID string, clusters []models.Cluster) error {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.CreateClusters")
	defer span.End()

	if len(clusters) == 0 {
		return nil
	}

	sb := sqlbuilder.SQLite.NewInsertBuilder()
	sb.InsertInto("dedup_clusters")
	sb.Cols("id", "run_id", "canonical_id", "member_ids", "size")
	for _, c := range clusters {
		sb.Values(uuid.New().String(), runID, c.CanonicalID, strings.Join(c.MemberIDs, ";"), c.Size)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create dedup clusters")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dedup clusters")
	}

	return nil
}

// ListClusters retrieves the multi-member clusters for a run, largest
// first.
func (r *Repository) ListClusters(ctx context.Context, runID string) ([]models.Cluster, error) {
	ctx, span := tracing.StartSpan(ctx, "deduprun.Repository.ListClusters")
	defer span.End()

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("canonical_id", "member_ids", "size")
	sb.From("dedup_clusters")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("size DESC", "canonical_id ASC")

	query, args := sb.Build()
	var rows []clusterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dedup clusters")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dedup clusters")
	}

	clusters := make([]models.Cluster, len(rows))
	for i, row := range rows {
		clusters[i] = models.Cluster{
			CanonicalID: row.CanonicalID,
			MemberIDs:   strings.Split(row.MemberIDs, ";"),
			Size:        row.Size,
		}
	}
	return clusters, nil
}
