// Package registry loads ground-truth provider registries (the NPI
// registry and per-state license board extracts) into keyed in-memory
// lookups for verification.
package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/normalizers"
	"github.com/Ramsey-B/sage/pkg/schema"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Record is one flat external registry row, keyed by normalized header.
type Record map[string]string

// lookup indexes records by a key column. When several rows share a
// key, the row with the freshest value in the prefer-date column wins;
// later file position breaks ties, and dated rows beat undated ones.
type lookup struct {
	records map[string]Record
	dates   map[string]dateEntry
}

type dateEntry struct {
	when  time.Time
	dated bool
}

func newLookup() *lookup {
	return &lookup{
		records: make(map[string]Record),
		dates:   make(map[string]dateEntry),
	}
}

func (l *lookup) put(key string, rec Record, preferDateCol string) {
	var entry dateEntry
	if preferDateCol != "" {
		if t, ok := normalizers.ParseDate(rec[preferDateCol]); ok {
			entry.when = t
			entry.dated = true
		}
	}

	existing, ok := l.dates[key]
	if !ok || replaceExisting(existing, entry) {
		l.records[key] = rec
		l.dates[key] = entry
	}
}

// replaceExisting decides whether an incoming row supersedes the one
// already held for its key.
func replaceExisting(existing, incoming dateEntry) bool {
	if incoming.dated && !existing.dated {
		return true
	}
	if !incoming.dated {
		return !existing.dated
	}
	return !incoming.when.Before(existing.when)
}

// Repository holds the loaded registries
type Repository struct {
	logger ectologger.Logger
	npi    *lookup
	states map[string]*lookup
}

// NewRepository creates a new registry repository
func NewRepository(logger ectologger.Logger) *Repository {
	return &Repository{
		logger: logger,
		states: make(map[string]*lookup),
	}
}

// LoadNPIRegistry loads the NPI registry CSV. Rows are keyed by npi;
// duplicate NPIs keep the row with the freshest certification date.
func (r *Repository) LoadNPIRegistry(ctx context.Context, path string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Repository.LoadNPIRegistry")
	defer span.End()

	lk, count, err := loadCSV(path, "npi", "npi_certification_date")
	if err != nil {
		return 0, err
	}
	r.npi = lk

	r.logger.WithContext(ctx).WithFields(map[string]any{"rows": count, "keys": len(lk.records)}).Info("loaded npi registry")
	return count, nil
}

// LoadStateLicenses loads one state license board CSV. Rows are keyed
// by license_number; duplicates keep the freshest expiration date.
func (r *Repository) LoadStateLicenses(ctx context.Context, state, path string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Repository.LoadStateLicenses")
	defer span.End()

	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return 0, fmt.Errorf("state code is required for a license registry")
	}

	lk, count, err := loadCSV(path, "license_number", "expiration_date")
	if err != nil {
		return 0, err
	}
	r.states[state] = lk

	r.logger.WithContext(ctx).WithFields(map[string]any{"state": state, "rows": count, "keys": len(lk.records)}).Info("loaded state license registry")
	return count, nil
}

// States returns the loaded state codes in sorted order.
func (r *Repository) States() []string {
	states := make([]string, 0, len(r.states))
	for s := range r.states {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// ExternalRecords gathers the ground truth for one roster record: the
// NPI registry row, the license board row (the record's license state
// when loaded, otherwise the first loaded state that knows the license
// number), and their merge with the state row taking precedence.
func (r *Repository) ExternalRecords(rec models.ProviderRecord) (merged, npiRec, stateRec Record) {
	if r.npi != nil && rec.NPI != "" {
		npiRec = r.npi.records[strings.TrimSpace(rec.NPI)]
	}

	license := strings.TrimSpace(rec.LicenseNumber)
	if license != "" {
		state := strings.ToUpper(strings.TrimSpace(rec.LicenseState))
		if lk, ok := r.states[state]; ok {
			stateRec = lk.records[license]
		} else {
			for _, s := range r.States() {
				if found := r.states[s].records[license]; found != nil {
					stateRec = found
					break
				}
			}
		}
	}

	merged = make(Record, len(npiRec)+len(stateRec))
	for k, v := range npiRec {
		merged[k] = v
	}
	for k, v := range stateRec {
		merged[k] = v
	}
	return merged, npiRec, stateRec
}

func loadCSV(path, keyCol, preferDateCol string) (*lookup, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open registry csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rawHeader, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read registry csv header: %w", err)
	}

	header := make([]string, len(rawHeader))
	keyIdx := -1
	for i, h := range rawHeader {
		header[i] = schema.NormalizeHeader(h)
		if header[i] == keyCol {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, 0, fmt.Errorf("registry csv %s has no %s column", path, keyCol)
	}
	if !contains(header, preferDateCol) {
		preferDateCol = ""
	}

	lk := newLookup()
	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read registry csv row: %w", err)
		}

		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		count++

		key := strings.TrimSpace(rec[keyCol])
		if key == "" {
			continue
		}
		lk.put(key, rec, preferDateCol)
	}

	return lk, count, nil
}

func contains(values []string, v string) bool {
	for _, c := range values {
		if c == v {
			return true
		}
	}
	return false
}
