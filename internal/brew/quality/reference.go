// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package quality

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// Standardized reference column names.
const (
	ColAroma          = "aroma"
	ColFlavor         = "flavor"
	ColAftertaste     = "aftertaste"
	ColAcidity        = "acidity"
	ColBody           = "body"
	ColBalance        = "balance"
	ColUniformity     = "uniformity"
	ColCleanCup       = "clean_cup"
	ColSweetnessScore = "sweetness_score"
	ColAltitude       = "altitude_mean_meters"
)

var (
	qualityColumns = []string{
		ColAroma, ColFlavor, ColAftertaste, ColAcidity, ColBody,
		ColBalance, ColUniformity, ColCleanCup, ColSweetnessScore,
	}

	metadataColumns = []string{
		brew.ColProcessingMethod, brew.ColColor, brew.ColCountry, brew.ColRegion,
	}

	// Header mappings for the two reference datasets, after header
	// normalisation (lower case, separators replaced by underscores).
	arabicaMapping = map[string]string{
		"aroma":                "aroma",
		"flavor":               "flavor",
		"aftertaste":           "aftertaste",
		"acidity":              "acidity",
		"body":                 "body",
		"balance":              "balance",
		"uniformity":           "uniformity",
		"clean_cup":            "clean_cup",
		"sweetness":            "sweetness_score",
		"processing_method":    "processing_method",
		"color":                "color",
		"country_of_origin":    "country_of_origin",
		"region":               "region",
		"altitude_mean_meters": "altitude_mean_meters",
	}

	robustaMapping = map[string]string{
		"fragrance___aroma":    "aroma",
		"flavor":               "flavor",
		"aftertaste":           "aftertaste",
		"salt___acid":          "acidity",
		"mouthfeel":            "body",
		"balance":              "balance",
		"uniform_cup":          "uniformity",
		"clean_cup":            "clean_cup",
		"bitter___sweet":       "sweetness_score",
		"processing_method":    "processing_method",
		"color":                "color",
		"country_of_origin":    "country_of_origin",
		"region":               "region",
		"altitude_mean_meters": "altitude_mean_meters",
	}
)

// QualityColumns returns the quality attributes used for clustering.
func QualityColumns() []string {
	return append([]string(nil), qualityColumns...)
}

// MetadataColumns returns the categorical bean metadata columns.
func MetadataColumns() []string {
	return append([]string(nil), metadataColumns...)
}

// ColumnMapping returns the source-to-standard header mapping for a bean
// type. Anything other than robusta uses the arabica layout.
func ColumnMapping(beanType string) map[string]string {
	src := arabicaMapping
	if brew.NormalizeCategory(beanType) == "robusta" {
		src = robustaMapping
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// NormalizeHeader lower-cases a CSV header and replaces separators with
// underscores, so "Fragrance...Aroma" becomes "fragrance___aroma".
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(".", "_", " ", "_", "/", "_", "-", "_").Replace(h)
}

// Record is one reference bean with standardized quality attributes.
type Record struct {
	BeanType string
	Quality  map[string]float64
	Metadata map[string]string
	Altitude float64
}

// Dataset is a prepared reference dataset.
type Dataset struct {
	Records []Record

	// QualityColumns lists the quality attributes present in every record.
	QualityColumns []string

	// HasAltitude reports whether altitude values were available.
	HasAltitude bool
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Prepare maps raw CSV rows (normalized headers to cell text) into a
// dataset. Missing quality and altitude values take the column median,
// missing metadata becomes "unknown" and strings are lower-cased.
func Prepare(beanType string, raw []map[string]string) *Dataset {
	mapping := ColumnMapping(beanType)
	beanType = brew.NormalizeCategory(beanType)

	present := make(map[string]bool)
	for _, r := range raw {
		for src := range r {
			if std, ok := mapping[NormalizeHeader(src)]; ok {
				present[std] = true
			}
		}
	}

	ds := &Dataset{HasAltitude: present[ColAltitude]}
	for _, c := range qualityColumns {
		if present[c] {
			ds.QualityColumns = append(ds.QualityColumns, c)
		}
	}

	parsed := make([]map[string]string, len(raw))
	for i, r := range raw {
		std := make(map[string]string, len(r))
		for src, v := range r {
			if col, ok := mapping[NormalizeHeader(src)]; ok {
				std[col] = v
			}
		}
		parsed[i] = std
	}

	numericCols := append(append([]string(nil), ds.QualityColumns...), ColAltitude)
	medians := make(map[string]float64, len(numericCols))
	for _, c := range numericCols {
		var vals []float64
		for _, r := range parsed {
			if v, ok := parseNumber(r[c]); ok {
				vals = append(vals, v)
			}
		}
		medians[c] = median(vals)
	}

	// A column with no parseable value at all cannot be filled.
	kept := ds.QualityColumns[:0]
	for _, c := range ds.QualityColumns {
		if !math.IsNaN(medians[c]) {
			kept = append(kept, c)
		}
	}
	ds.QualityColumns = kept
	ds.HasAltitude = ds.HasAltitude && !math.IsNaN(medians[ColAltitude])

	ds.Records = make([]Record, len(parsed))
	for i, r := range parsed {
		rec := Record{
			BeanType: beanType,
			Quality:  make(map[string]float64, len(ds.QualityColumns)),
			Metadata: make(map[string]string, len(metadataColumns)),
		}
		for _, c := range ds.QualityColumns {
			v, ok := parseNumber(r[c])
			if !ok {
				v = medians[c]
			}
			rec.Quality[c] = v
		}
		if v, ok := parseNumber(r[ColAltitude]); ok {
			rec.Altitude = v
		} else {
			rec.Altitude = medians[ColAltitude]
		}
		for _, c := range metadataColumns {
			v := brew.NormalizeCategory(r[c])
			if v == "" || v == "nan" || v == "na" {
				v = brew.UnknownCategory
			}
			rec.Metadata[c] = v
		}
		ds.Records[i] = rec
	}
	return ds
}

// Combine concatenates datasets, keeping only the quality columns common
// to all non-empty inputs.
func Combine(sets ...*Dataset) *Dataset {
	var nonEmpty []*Dataset
	for _, s := range sets {
		if s.Len() > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return &Dataset{}
	}

	count := make(map[string]int)
	hasAltitude := true
	for _, s := range nonEmpty {
		for _, c := range s.QualityColumns {
			count[c]++
		}
		hasAltitude = hasAltitude && s.HasAltitude
	}
	out := &Dataset{HasAltitude: hasAltitude}
	for _, c := range qualityColumns {
		if count[c] == len(nonEmpty) {
			out.QualityColumns = append(out.QualityColumns, c)
		}
	}
	for _, s := range nonEmpty {
		out.Records = append(out.Records, s.Records...)
	}
	return out
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// median returns the midpoint average of vals, or NaN when empty.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
