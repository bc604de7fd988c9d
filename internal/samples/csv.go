// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package samples

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
)

// ReadCSV reads a CSV file through DuckDB's read_csv_auto and returns one
// map per row keyed by normalized header. Every cell is returned as text;
// NULL cells are omitted from the row map.
func (s *Store) ReadCSV(ctx context.Context, path string) (out []map[string]string, err error) {
	start := time.Now()
	defer func() { metrics.RecordSampleQuery("read_csv", time.Since(start), err) }()

	if _, err = os.Stat(path); err != nil {
		return nil, fmt.Errorf("csv file: %w", err)
	}
	query := fmt.Sprintf("SELECT * FROM read_csv_auto('%s', header=true, all_varchar=true)", strings.ReplaceAll(path, "'", "''"))
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer closeQuietly(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", path, err)
	}
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = quality.NormalizeHeader(c)
	}

	cells := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
		rec := make(map[string]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				rec[headers[i]] = c.String
			}
		}
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out, nil
}

// LoadReference reads a coffee quality reference CSV and prepares it for
// clustering.
func (s *Store) LoadReference(ctx context.Context, beanType, path string) (*quality.Dataset, error) {
	raw, err := s.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	ds := quality.Prepare(beanType, raw)
	s.logger.Info().
		Str("bean_type", beanType).
		Str("path", path).
		Int("rows", ds.Len()).
		Strs("quality_columns", ds.QualityColumns).
		Msg("Reference dataset loaded")
	return ds, nil
}

// ParseSamples converts flat CSV records (one column per parameter and
// rating, as the brewing log export writes them) into samples. Rows
// without any rating are skipped.
func ParseSamples(raw []map[string]string) ([]brew.BrewingSample, error) {
	out := make([]brew.BrewingSample, 0, len(raw))
	for i, r := range raw {
		num := func(col string) (float64, error) {
			v := strings.TrimSpace(r[col])
			if v == "" {
				return 0, nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, fmt.Errorf("row %d: %s: %w", i+1, col, err)
			}
			return f, nil
		}

		var (
			p   brew.BrewingParameters
			err error
		)
		for col, dst := range map[string]*float64{
			brew.ColPressure:       &p.Pressure,
			brew.ColTemperature:    &p.Temperature,
			brew.ColGroundSize:     &p.GroundSize,
			brew.ColExtractionTime: &p.ExtractionTime,
			brew.ColDoseSize:       &p.DoseSize,
			brew.ColCupSize:        &p.CupSize,
		} {
			if *dst, err = num(col); err != nil {
				return nil, err
			}
		}
		p.BeanType = r[brew.ColBeanType]
		p.ProcessingMethod = r[brew.ColProcessingMethod]
		p.Color = r[brew.ColColor]
		p.Country = r[brew.ColCountry]
		p.Region = r[brew.ColRegion]
		if blend := strings.TrimSpace(r["bean_blend"]); blend != "" {
			if err := json.Unmarshal([]byte(blend), &p.BeanBlend); err != nil {
				return nil, fmt.Errorf("row %d: bean_blend: %w", i+1, err)
			}
		}

		ratings := brew.FlavorProfile{}
		for _, t := range append(brew.Targets(), brew.Maltiness) {
			if strings.TrimSpace(r[t]) == "" {
				continue
			}
			v, err := num(t)
			if err != nil {
				return nil, err
			}
			ratings[t] = v
		}
		if len(ratings) == 0 {
			continue
		}

		sample := brew.BrewingSample{Parameters: p, Ratings: ratings, ID: r["id"]}
		if ts := strings.TrimSpace(r["timestamp"]); ts != "" {
			sample.RecordedAt = parseTimestamp(ts)
		}
		out = append(out, sample)
	}
	return out, nil
}

// ImportCSV appends every rated row of a brewing log CSV.
func (s *Store) ImportCSV(ctx context.Context, path string) (int, error) {
	raw, err := s.ReadCSV(ctx, path)
	if err != nil {
		return 0, err
	}
	parsed, err := ParseSamples(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(parsed) == 0 {
		return 0, nil
	}
	stored, err := s.AppendBatch(ctx, parsed)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("path", path).Int("imported", len(stored)).Msg("Brewing log imported")
	return len(stored), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp returns the zero time for unparseable input so the store
// assigns the import time.
func parseTimestamp(v string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
