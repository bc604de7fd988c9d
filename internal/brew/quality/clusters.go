// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package quality clusters an external bean quality dataset and uses the
// clusters as an auxiliary signal for brewing.
//
// Fit standardizes the reference quality attributes and runs k-means with
// k = min(MaxClusters, rows/10). Assign maps bean metadata to the modal
// cluster of matching reference records; Enrich writes that id into the
// quality_cluster column of brewing rows, using BaselineCluster when no
// reference record matches. Clusters are hints for warm starts and
// features, never ground truth.
package quality

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/encoding"
)

// Clustering is a fitted, immutable set of quality clusters.
type Clustering struct {
	cfg         Config
	qualityCols []string
	scaler      *encoding.Scaler
	centroids   [][]float64
	records     []Record
	labels      []int
	sizes       []int
	inertia     float64
	hasAltitude bool
}

// Fit clusters the reference dataset. It returns *brew.InsufficientDataError
// when the dataset has fewer than MinRows records or fewer than
// MinQualityColumns quality attributes.
//
//nolint:gocritic // config passed by value is copied into the clustering
func Fit(ctx context.Context, ds *Dataset, cfg Config) (*Clustering, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quality config: %w", err)
	}
	if ds.Len() < cfg.MinRows {
		return nil, &brew.InsufficientDataError{Scope: "quality reference", Have: ds.Len(), Need: cfg.MinRows}
	}
	if len(ds.QualityColumns) < cfg.MinQualityColumns {
		return nil, &brew.InsufficientDataError{Scope: "quality attributes", Have: len(ds.QualityColumns), Need: cfg.MinQualityColumns}
	}

	cols := append([]string(nil), ds.QualityColumns...)
	colMajor := make([][]float64, len(cols))
	for j, c := range cols {
		colMajor[j] = make([]float64, len(ds.Records))
		for i := range ds.Records {
			colMajor[j][i] = ds.Records[i].Quality[c]
		}
	}
	scaler := encoding.FitScaler(cols, colMajor)

	X := make([][]float64, len(ds.Records))
	for i := range ds.Records {
		X[i] = make([]float64, len(cols))
		for j, c := range cols {
			X[i][j] = scaler.Transform(c, ds.Records[i].Quality[c])
		}
	}

	k := cfg.MaxClusters
	if n := len(X) / 10; n < k {
		k = n
	}
	if k < 1 {
		k = 1
	}

	res, err := kmeans(ctx, X, k, cfg)
	if err != nil {
		return nil, err
	}

	sizes := make([]int, k)
	for _, l := range res.labels {
		sizes[l]++
	}
	return &Clustering{
		cfg:         cfg,
		qualityCols: cols,
		scaler:      scaler,
		centroids:   res.centroids,
		records:     append([]Record(nil), ds.Records...),
		labels:      res.labels,
		sizes:       sizes,
		inertia:     res.inertia,
		hasAltitude: ds.HasAltitude,
	}, nil
}

// K returns the number of clusters.
func (c *Clustering) K() int { return len(c.centroids) }

// Inertia returns the within-cluster sum of squared distances.
func (c *Clustering) Inertia() float64 { return c.inertia }

// Sizes returns the number of reference records per cluster.
func (c *Clustering) Sizes() []int { return append([]int(nil), c.sizes...) }

// BaselineCluster returns the id used for unmatched beans.
func (c *Clustering) BaselineCluster() int { return c.cfg.BaselineCluster }

// Label formats a cluster id as the categorical quality_cluster value.
func Label(id int) string { return strconv.Itoa(id) }

// Assign returns the modal cluster of the reference records whose bean
// type and metadata equal every supplied value. Keys other than bean_type
// and the metadata columns are ignored. The lowest id wins ties. It
// reports false when no key applies or no record matches.
func (c *Clustering) Assign(meta map[string]string) (int, bool) {
	filter := make(map[string]string, len(meta))
	for k, v := range meta {
		v = brew.NormalizeCategory(v)
		if v == "" {
			continue
		}
		if k == brew.ColBeanType || contains(metadataColumns, k) {
			filter[k] = v
		}
	}
	if len(filter) == 0 {
		return 0, false
	}

	counts := make([]int, c.K())
	matched := false
	for i := range c.records {
		if c.matches(&c.records[i], filter) {
			counts[c.labels[i]]++
			matched = true
		}
	}
	if !matched {
		return 0, false
	}
	best := 0
	for id, n := range counts {
		if n > counts[best] {
			best = id
		}
	}
	return best, true
}

func (c *Clustering) matches(r *Record, filter map[string]string) bool {
	for k, v := range filter {
		if k == brew.ColBeanType {
			if r.BeanType != v {
				return false
			}
			continue
		}
		if r.Metadata[k] != v {
			return false
		}
	}
	return true
}

// AssignOrDefault returns Assign's cluster or the baseline cluster.
func (c *Clustering) AssignOrDefault(meta map[string]string) int {
	if id, ok := c.Assign(meta); ok {
		return id
	}
	return c.cfg.BaselineCluster
}

// EnrichRow returns a copy of row with the quality_cluster column set from
// its bean type and metadata.
//
//nolint:gocritic // row maps are cloned, not mutated
func (c *Clustering) EnrichRow(row brew.Row) brew.Row {
	out := row.Clone()
	meta := make(map[string]string, len(metadataColumns)+1)
	if v, ok := row.Categorical[brew.ColBeanType]; ok {
		meta[brew.ColBeanType] = v
	}
	for _, col := range metadataColumns {
		if v, ok := row.Categorical[col]; ok {
			meta[col] = v
		}
	}
	out.Categorical[brew.ColQualityCluster] = Label(c.AssignOrDefault(meta))
	return out
}

// Enrich applies EnrichRow to every row.
func (c *Clustering) Enrich(rows []brew.Row) []brew.Row {
	out := make([]brew.Row, len(rows))
	for i := range rows {
		out[i] = c.EnrichRow(rows[i])
	}
	return out
}

// AltitudeRange summarises reference altitudes in meters.
type AltitudeRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Insights describes one cluster.
type Insights struct {
	ClusterID int `json:"cluster_id"`
	Size      int `json:"size"`

	// Expected maps "expected_<attribute>" to the cluster mean of that
	// quality attribute, e.g. expected_aroma.
	Expected map[string]float64 `json:"expected"`

	// Common lists the most frequent values of each metadata column,
	// excluding "unknown".
	Common map[string][]string `json:"common"`

	Altitude *AltitudeRange `json:"altitude_range,omitempty"`
}

// expectedKey names the Insights.Expected entry of a quality attribute.
func expectedKey(attribute string) string {
	return "expected_" + attribute
}

// Insights returns the summary of one cluster, or a *brew.ValidationError
// for an id outside [0, K).
func (c *Clustering) Insights(id int) (*Insights, error) {
	if id < 0 || id >= c.K() {
		return nil, brew.NewValidationError("cluster_id", "cluster id %d out of range [0, %d)", id, c.K())
	}

	ins := &Insights{
		ClusterID: id,
		Size:      c.sizes[id],
		Expected:  make(map[string]float64, len(c.qualityCols)),
		Common:    make(map[string][]string, len(metadataColumns)),
	}
	valueCounts := make(map[string]map[string]int, len(metadataColumns))
	for _, col := range metadataColumns {
		valueCounts[col] = make(map[string]int)
	}
	var alt *AltitudeRange
	for i := range c.records {
		if c.labels[i] != id {
			continue
		}
		r := &c.records[i]
		for _, q := range c.qualityCols {
			ins.Expected[expectedKey(q)] += r.Quality[q]
		}
		for _, col := range metadataColumns {
			valueCounts[col][r.Metadata[col]]++
		}
		if c.hasAltitude {
			if alt == nil {
				alt = &AltitudeRange{Min: r.Altitude, Max: r.Altitude}
			}
			alt.Min = min(alt.Min, r.Altitude)
			alt.Max = max(alt.Max, r.Altitude)
			alt.Mean += r.Altitude
		}
	}
	if ins.Size > 0 {
		for q := range ins.Expected {
			ins.Expected[q] /= float64(ins.Size)
		}
		if alt != nil {
			alt.Mean /= float64(ins.Size)
			ins.Altitude = alt
		}
	}
	for _, col := range metadataColumns {
		if top := topValues(valueCounts[col], 3); len(top) > 0 {
			ins.Common[col] = top
		}
	}
	return ins, nil
}

// topValues returns the n most frequent values, then drops "unknown".
func topValues(counts map[string]int, n int) []string {
	vals := make([]string, 0, len(counts))
	for v := range counts {
		vals = append(vals, v)
	}
	sort.Slice(vals, func(i, j int) bool {
		if counts[vals[i]] != counts[vals[j]] {
			return counts[vals[i]] > counts[vals[j]]
		}
		return vals[i] < vals[j]
	})
	if len(vals) > n {
		vals = vals[:n]
	}
	out := vals[:0]
	for _, v := range vals {
		if v != brew.UnknownCategory {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
