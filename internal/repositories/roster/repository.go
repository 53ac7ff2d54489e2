// Package roster persists the provider roster: CSV ingestion into
// SQLite, immutable snapshot loads for the pipeline, and the augmented
// output table.
package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/schema"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

const (
	// TableName is the source table written by ingestion.
	TableName = "roster"
	// AugmentedTableName is the run output: source columns plus
	// normalized columns plus dedup_cluster_id.
	AugmentedTableName = "roster_dedup"
	// ValidatedTableName is the verifier output: source columns
	// interleaved with their _check verdicts.
	ValidatedTableName = "roster_validated"

	// sqliteVarLimit bounds insert batch sizes; SQLite caps bound
	// parameters per statement.
	sqliteVarLimit = 900
)

// Repository handles roster persistence
type Repository struct {
	db        database.DB
	logger    ectologger.Logger
	validator *schema.Validator
}

// NewRepository creates a new roster repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:        db,
		logger:    logger,
		validator: schema.NewValidator(models.RequiredColumns),
	}
}

// IngestCSV loads a roster CSV into the roster table, replacing any
// previous load. Columns come from the CSV header; every cell is
// stored as TEXT with missing cells as empty string. A header that
// violates the required-column contract fails before any write.
func (r *Repository) IngestCSV(ctx context.Context, path string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.IngestCSV")
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open roster csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rawHeader, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read roster csv header: %w", err)
	}

	if err := r.validator.Require(rawHeader); err != nil {
		return 0, err
	}

	header := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = schema.NormalizeHeader(h)
	}

	if err := r.recreateTable(ctx, TableName, header); err != nil {
		return 0, err
	}

	count := 0
	batch := make([][]string, 0, sqliteVarLimit/len(header))
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.insertRows(ctx, TableName, header, batch); err != nil {
			return err
		}
		count += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read roster csv row: %w", err)
		}

		// short rows pad with empty strings, long rows are truncated
		cells := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		batch = append(batch, cells)

		if (len(batch)+1)*len(header) > sqliteVarLimit {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"rows": count, "columns": len(header)}).Info("ingested roster csv")
	return count, nil
}

// LoadSnapshot reads the full roster table into an immutable record
// slice. Interpreted columns map to named fields; anything else rides
// along in Extra.
func (r *Repository) LoadSnapshot(ctx context.Context) ([]models.ProviderRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.LoadSnapshot")
	defer span.End()

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", TableName))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load roster snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load roster")
	}
	defer rows.Close()

	interpreted := make(map[string]bool, len(models.RecordColumns))
	for _, c := range models.RecordColumns {
		interpreted[c] = true
	}

	var records []models.ProviderRecord
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}

		rec := models.ProviderRecord{Index: len(records)}
		rec.ProviderID = stringCell(row["provider_id"])
		rec.FullName = stringCell(row["full_name"])
		rec.NPI = stringCell(row["npi"])
		rec.LicenseNumber = stringCell(row["license_number"])
		rec.LicenseState = stringCell(row["license_state"])
		rec.PracticePhone = stringCell(row["practice_phone"])
		rec.PracticeAddress1 = stringCell(row["practice_address_line1"])
		rec.PracticeCity = stringCell(row["practice_city"])
		rec.PracticeState = stringCell(row["practice_state"])
		rec.PracticeZip = stringCell(row["practice_zip"])
		rec.TaxonomyCode = stringCell(row["taxonomy_code"])

		for col, val := range row {
			if !interpreted[col] {
				if rec.Extra == nil {
					rec.Extra = map[string]string{}
				}
				rec.Extra[col] = stringCell(val)
			}
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster rows: %w", err)
	}

	return records, nil
}

// Columns returns the roster table's column order as ingested.
func (r *Repository) Columns(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.Columns")
	defer span.End()

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to read roster columns: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster columns: %w", err)
	}
	return cols, nil
}

// ReplaceTable drops and rebuilds a derived table with the given
// header and rows, every cell TEXT. The verifier writes its output
// through this.
func (r *Repository) ReplaceTable(ctx context.Context, table string, header []string, rows [][]string) error {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.ReplaceTable")
	defer span.End()

	if err := r.recreateTable(ctx, table, header); err != nil {
		return err
	}

	batch := make([][]string, 0)
	for _, row := range rows {
		batch = append(batch, row)
		if (len(batch)+1)*len(header) > sqliteVarLimit {
			if err := r.insertRows(ctx, table, header, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := r.insertRows(ctx, table, header, batch); err != nil {
			return err
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"table": table, "rows": len(rows)}).Info("replaced derived table")
	return nil
}

// WriteAugmented replaces the augmented table with the run output.
// Column order: source columns, normalized columns, dedup_cluster_id.
func (r *Repository) WriteAugmented(ctx context.Context, records []models.AugmentedRecord) error {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.WriteAugmented")
	defer span.End()

	header := augmentedHeader(records)
	if err := r.recreateTable(ctx, AugmentedTableName, header); err != nil {
		return err
	}

	batch := make([][]string, 0)
	for _, rec := range records {
		batch = append(batch, augmentedRow(rec, header))
		if (len(batch)+1)*len(header) > sqliteVarLimit {
			if err := r.insertRows(ctx, AugmentedTableName, header, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := r.insertRows(ctx, AugmentedTableName, header, batch); err != nil {
			return err
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"rows": len(records)}).Info("wrote augmented roster table")
	return nil
}

// ExportAugmentedCSV writes the augmented table to a CSV file for
// downstream consumers that don't read SQLite.
func (r *Repository) ExportAugmentedCSV(ctx context.Context, path string) error {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.ExportAugmentedCSV")
	defer span.End()

	rows, err := r.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", AugmentedTableName))
	if err != nil {
		return fmt.Errorf("failed to read augmented table: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read augmented columns: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("failed to scan export row: %w", err)
		}
		cells := make([]string, len(raw))
		for i, v := range raw {
			cells[i] = stringCell(v)
		}
		if err := w.Write(cells); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate export rows: %w", err)
	}

	w.Flush()
	return w.Error()
}

// Query runs a read-only statement against the database and returns
// rows as maps. Callers are responsible for guaranteeing the statement
// is a SELECT; the dashboard query route enforces that.
func (r *Repository) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	ctx, span := tracing.StartSpan(ctx, "roster.Repository.Query")
	defer span.End()

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("query", query).Error("Failed to run roster query")
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "query failed")
	}
	defer rows.Close()

	results := []map[string]any{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan query row: %w", err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func (r *Repository) recreateTable(ctx context.Context, table string, header []string) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table))); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h) + " TEXT NOT NULL DEFAULT ''"
	}
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", table).Error("Failed to create table")
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (r *Repository) insertRows(ctx context.Context, table string, header []string, rows [][]string) error {
	sb := sqlbuilder.SQLite.NewInsertBuilder()
	sb.InsertInto(quoteIdent(table))
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h)
	}
	sb.Cols(cols...)
	for _, row := range rows {
		vals := make([]any, len(row))
		for i, c := range row {
			vals[i] = c
		}
		sb.Values(vals...)
	}

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("table", table).Error("Failed to insert rows")
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func augmentedHeader(records []models.AugmentedRecord) []string {
	header := append([]string{}, models.RecordColumns...)

	seen := map[string]bool{}
	extras := []string{}
	for _, rec := range records {
		for col := range rec.Extra {
			if !seen[col] {
				seen[col] = true
				extras = append(extras, col)
			}
		}
	}
	// map iteration order varies; sort so reruns over identical input
	// produce an identical table
	sort.Strings(extras)
	header = append(header, extras...)

	header = append(header, models.NormalizedColumns...)
	return append(header, "dedup_cluster_id")
}

func augmentedRow(rec models.AugmentedRecord, header []string) []string {
	n := rec.Normalized
	known := map[string]string{
		"provider_id":            rec.ProviderID,
		"full_name":              rec.FullName,
		"npi":                    rec.NPI,
		"license_number":         rec.LicenseNumber,
		"license_state":          rec.LicenseState,
		"practice_phone":         rec.PracticePhone,
		"practice_address_line1": rec.PracticeAddress1,
		"practice_city":          rec.PracticeCity,
		"practice_state":         rec.PracticeState,
		"practice_zip":           rec.PracticeZip,
		"taxonomy_code":          rec.TaxonomyCode,
		"name_norm":              n.Name,
		"npi_norm":               n.NPI,
		"license_norm":           n.License,
		"license_state_norm":     n.LicenseState,
		"phone_norm":             n.Phone,
		"phone_last4":            n.PhoneLast4,
		"last_name_prefix":       n.LastNamePrefix,
		"taxonomy_norm":          n.Taxonomy,
		"address_norm":           n.Address,
		"dedup_cluster_id":       rec.DedupClusterID,
	}

	row := make([]string, len(header))
	for i, col := range header {
		if v, ok := known[col]; ok {
			row[i] = v
		} else if rec.Extra != nil {
			row[i] = rec.Extra[col]
		}
	}
	return row
}

func stringCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}
