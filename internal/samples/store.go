// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package samples

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS brewing_samples (
	id VARCHAR PRIMARY KEY,
	recorded_at TIMESTAMP NOT NULL,
	suggestion_id VARCHAR,
	extraction_pressure DOUBLE,
	temperature DOUBLE,
	ground_size DOUBLE,
	extraction_time DOUBLE,
	dose_size DOUBLE,
	cup_size DOUBLE,
	bean_type VARCHAR,
	bean_blend VARCHAR,
	processing_method VARCHAR,
	color VARCHAR,
	country_of_origin VARCHAR,
	region VARCHAR,
	acidity DOUBLE,
	strength DOUBLE,
	sweetness DOUBLE,
	fruitiness DOUBLE,
	bitterness DOUBLE
)`

const sampleColumns = `id, recorded_at, suggestion_id,
	extraction_pressure, temperature, ground_size, extraction_time, dose_size, cup_size,
	bean_type, bean_blend, processing_method, color, country_of_origin, region,
	acidity, strength, sweetness, fruitiness, bitterness`

// Store is the append-only brewing sample log.
type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (or creates) the sample database and ensures the schema.
// An empty path opens an in-memory database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg config.SamplesConfig, logger zerolog.Logger) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false", path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample database: %w", err)
	}

	s := &Store{
		conn:   conn,
		logger: logger.With().Str("component", "samples").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if _, err := conn.Exec(schema); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Info().Str("path", path).Int("threads", threads).Msg("Sample store opened")
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Append validates and stores one sample. A missing ID or timestamp is
// filled in; the stored sample is returned.
//
//nolint:gocritic // sample passed by value is copied before mutation
func (s *Store) Append(ctx context.Context, sample brew.BrewingSample) (brew.BrewingSample, error) {
	out, err := s.AppendBatch(ctx, []brew.BrewingSample{sample})
	if err != nil {
		return brew.BrewingSample{}, err
	}
	return out[0], nil
}

// AppendBatch stores samples in one transaction. Either all rows are
// written or none are.
func (s *Store) AppendBatch(ctx context.Context, batch []brew.BrewingSample) (out []brew.BrewingSample, err error) {
	start := time.Now()
	defer func() { metrics.RecordSampleQuery("append", time.Since(start), err) }()

	out = make([]brew.BrewingSample, len(batch))
	for i := range batch {
		prepared, perr := s.prepare(batch[i])
		if perr != nil {
			return nil, fmt.Errorf("sample %d: %w", i, perr)
		}
		out[i] = prepared
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO brewing_samples (`+sampleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range out {
		args, aerr := insertArgs(&out[i])
		if aerr != nil {
			return nil, aerr
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("failed to insert sample %s: %w", out[i].ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit samples: %w", err)
	}
	s.logger.Debug().Int("count", len(out)).Msg("Samples appended")
	return out, nil
}

//nolint:gocritic // sample passed by value is copied before mutation
func (s *Store) prepare(sample brew.BrewingSample) (brew.BrewingSample, error) {
	if len(sample.Ratings) == 0 {
		return sample, brew.NewValidationError("ratings", "at least one flavor rating is required")
	}
	ratings := sample.Ratings.Normalize()
	if err := brew.ValidateDesired(ratings); err != nil {
		return sample, err
	}
	sample.Ratings = ratings
	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = s.now()
	}
	p := &sample.Parameters
	if p.GroundSize == 0 {
		p.GroundSize = brew.GrindSize
	}
	if len(p.BeanBlend) > 0 {
		p.BeanBlend = p.BeanBlend.Clone()
		if p.BeanType == "" {
			p.BeanType = p.BeanBlend.Primary()
		}
	}
	p.BeanType = brew.NormalizeCategory(p.BeanType)
	return sample, nil
}

func insertArgs(s *brew.BrewingSample) ([]interface{}, error) {
	p := s.Parameters
	var blend interface{}
	if len(p.BeanBlend) > 0 {
		data, err := json.Marshal(p.BeanBlend)
		if err != nil {
			return nil, fmt.Errorf("failed to encode bean blend: %w", err)
		}
		blend = string(data)
	}
	return []interface{}{
		s.ID, s.RecordedAt, nullString(s.SuggestionID),
		nullFloat(p.Pressure), nullFloat(p.Temperature), nullFloat(p.GroundSize),
		nullFloat(p.ExtractionTime), nullFloat(p.DoseSize), nullFloat(p.CupSize),
		nullString(p.BeanType), blend,
		nullString(brew.NormalizeCategory(p.ProcessingMethod)), nullString(brew.NormalizeCategory(p.Color)),
		nullString(brew.NormalizeCategory(p.Country)), nullString(brew.NormalizeCategory(p.Region)),
		rating(s.Ratings, brew.Acidity), rating(s.Ratings, brew.Strength), rating(s.Ratings, brew.Sweetness),
		rating(s.Ratings, brew.Fruitiness), rating(s.Ratings, brew.Bitterness),
	}, nil
}

// Filter narrows LoadSamples. Zero values match everything.
type Filter struct {
	BeanType string
	Since    time.Time
	Limit    int
}

// LoadSamples returns every stored sample in recording order.
func (s *Store) LoadSamples(ctx context.Context) ([]brew.BrewingSample, error) {
	return s.Query(ctx, Filter{})
}

// Query returns the samples matching f in recording order.
func (s *Store) Query(ctx context.Context, f Filter) (out []brew.BrewingSample, err error) {
	start := time.Now()
	defer func() { metrics.RecordSampleQuery("query", time.Since(start), err) }()

	var (
		where []string
		args  []interface{}
	)
	if f.BeanType != "" {
		where = append(where, "bean_type = ?")
		args = append(args, brew.NormalizeCategory(f.BeanType))
	}
	if !f.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, f.Since.UTC())
	}
	query := `SELECT ` + sampleColumns + ` FROM brewing_samples`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		sample, serr := scanSample(rows)
		if serr != nil {
			return nil, serr
		}
		out = append(out, sample)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return out, nil
}

// Get returns one sample by ID.
func (s *Store) Get(ctx context.Context, id string) (*brew.BrewingSample, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM brewing_samples WHERE id = ?`, id)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sample %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// Count returns the number of stored samples.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM brewing_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

// ErrNotFound is returned by Get for an unknown sample ID.
var ErrNotFound = errors.New("sample not found")

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSample(sc scanner) (brew.BrewingSample, error) {
	var (
		s                                                  brew.BrewingSample
		suggestionID, beanType, blend, proc, color, cntry  sql.NullString
		region                                             sql.NullString
		pressure, temp, ground, extTime, dose, cup         sql.NullFloat64
		acidity, strength, sweetness, fruitiness, bitterns sql.NullFloat64
	)
	err := sc.Scan(&s.ID, &s.RecordedAt, &suggestionID,
		&pressure, &temp, &ground, &extTime, &dose, &cup,
		&beanType, &blend, &proc, &color, &cntry, &region,
		&acidity, &strength, &sweetness, &fruitiness, &bitterns)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan sample: %w", err)
	}

	s.SuggestionID = suggestionID.String
	s.Parameters = brew.BrewingParameters{
		Pressure:         pressure.Float64,
		Temperature:      temp.Float64,
		GroundSize:       ground.Float64,
		ExtractionTime:   extTime.Float64,
		DoseSize:         dose.Float64,
		CupSize:          cup.Float64,
		BeanType:         beanType.String,
		ProcessingMethod: proc.String,
		Color:            color.String,
		Country:          cntry.String,
		Region:           region.String,
	}
	if blend.Valid && blend.String != "" {
		if err := json.Unmarshal([]byte(blend.String), &s.Parameters.BeanBlend); err != nil {
			return s, fmt.Errorf("sample %s has a malformed bean blend: %w", s.ID, err)
		}
	}
	s.Ratings = brew.FlavorProfile{}
	for name, v := range map[string]sql.NullFloat64{
		brew.Acidity: acidity, brew.Strength: strength, brew.Sweetness: sweetness,
		brew.Fruitiness: fruitiness, brew.Bitterness: bitterns,
	} {
		if v.Valid {
			s.Ratings[name] = v.Float64
		}
	}
	s.RecordedAt = s.RecordedAt.UTC()
	return s, nil
}

func rating(p brew.FlavorProfile, target string) interface{} {
	if v, ok := p[target]; ok {
		return v
	}
	return nil
}

func nullFloat(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// closeQuietly closes a resource and explicitly ignores any error.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
