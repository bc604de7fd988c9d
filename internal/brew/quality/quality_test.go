// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package quality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

var groupCountries = []string{"ethiopia", "brazil", "colombia"}

// groupedRaw returns perGroup arabica rows for each of three quality
// levels, each level tied to one country.
func groupedRaw(perGroup int) []map[string]string {
	rng := rand.New(rand.NewSource(3))
	levels := []float64{6, 7.5, 9}
	var raw []map[string]string
	for g, level := range levels {
		for i := 0; i < perGroup; i++ {
			jitter := func() string { return fmt.Sprintf("%.3f", level+rng.NormFloat64()*0.05) }
			raw = append(raw, map[string]string{
				"Aroma":                jitter(),
				"Flavor":               jitter(),
				"Aftertaste":           jitter(),
				"Acidity":              jitter(),
				"Body":                 jitter(),
				"Balance":              jitter(),
				"Country.of.Origin":    groupCountries[g],
				"Processing.Method":    "Washed / Wet",
				"Altitude_Mean_Meters": fmt.Sprintf("%d", 1000+g*500+i),
			})
		}
	}
	return raw
}

func fitGroups(t *testing.T) *Clustering {
	t.Helper()
	c, err := Fit(context.Background(), Prepare("arabica", groupedRaw(10)), DefaultConfig())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return c
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Fragrance...Aroma":    "fragrance___aroma",
		"Country.of.Origin":    "country_of_origin",
		" Clean Cup ":          "clean_cup",
		"Salt...Acid":          "salt___acid",
		"altitude_mean_meters": "altitude_mean_meters",
	}
	for in, want := range tests {
		if got := NormalizeHeader(in); got != want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrepare_RobustaMappingAndFill(t *testing.T) {
	raw := []map[string]string{
		{"Fragrance...Aroma": "7", "Salt...Acid": "8", "Mouthfeel": "6", "Country.of.Origin": "Uganda"},
		{"Fragrance...Aroma": "", "Salt...Acid": "6", "Mouthfeel": "8", "Country.of.Origin": ""},
		{"Fragrance...Aroma": "9", "Salt...Acid": "NaN", "Mouthfeel": "7"},
	}
	ds := Prepare("Robusta", raw)

	want := []string{ColAroma, ColAcidity, ColBody}
	if len(ds.QualityColumns) != len(want) {
		t.Fatalf("QualityColumns = %v, want %v", ds.QualityColumns, want)
	}
	for i, c := range want {
		if ds.QualityColumns[i] != c {
			t.Errorf("QualityColumns[%d] = %s, want %s", i, ds.QualityColumns[i], c)
		}
	}
	if got := ds.Records[1].Quality[ColAroma]; got != 8 {
		t.Errorf("missing aroma filled with %v, want median 8", got)
	}
	if got := ds.Records[2].Quality[ColAcidity]; got != 7 {
		t.Errorf("NaN acidity filled with %v, want median 7", got)
	}
	if got := ds.Records[0].Metadata[brew.ColCountry]; got != "uganda" {
		t.Errorf("country = %q, want lower-cased", got)
	}
	if got := ds.Records[1].Metadata[brew.ColCountry]; got != brew.UnknownCategory {
		t.Errorf("empty country = %q, want unknown", got)
	}
	if ds.Records[0].BeanType != "robusta" {
		t.Errorf("bean type = %q", ds.Records[0].BeanType)
	}
	if ds.HasAltitude {
		t.Error("dataset without altitude should not report it")
	}
}

func TestCombine_KeepsCommonColumns(t *testing.T) {
	a := &Dataset{QualityColumns: []string{ColAroma, ColFlavor, ColBody}, Records: make([]Record, 2), HasAltitude: true}
	b := &Dataset{QualityColumns: []string{ColAroma, ColBody}, Records: make([]Record, 3)}
	out := Combine(a, b, &Dataset{})
	if out.Len() != 5 {
		t.Errorf("Len() = %d, want 5", out.Len())
	}
	if len(out.QualityColumns) != 2 || out.QualityColumns[0] != ColAroma || out.QualityColumns[1] != ColBody {
		t.Errorf("QualityColumns = %v", out.QualityColumns)
	}
	if out.HasAltitude {
		t.Error("altitude requires every dataset to carry it")
	}
}

func TestFit_InsufficientData(t *testing.T) {
	ctx := context.Background()
	_, err := Fit(ctx, Prepare("arabica", groupedRaw(3)), DefaultConfig())
	var insufficient *brew.InsufficientDataError
	if !errors.As(err, &insufficient) || insufficient.Have != 9 {
		t.Errorf("Fit(9 rows) error = %v", err)
	}

	raw := make([]map[string]string, 20)
	for i := range raw {
		raw[i] = map[string]string{"Aroma": "7", "Flavor": "8"}
	}
	if _, err := Fit(ctx, Prepare("arabica", raw), DefaultConfig()); !errors.Is(err, brew.ErrInsufficientData) {
		t.Errorf("Fit(2 quality columns) error = %v", err)
	}
}

func TestFit_SeparatesGroups(t *testing.T) {
	c := fitGroups(t)
	if c.K() != 3 {
		t.Fatalf("K() = %d, want min(8, 30/10) = 3", c.K())
	}
	for g := 0; g < 3; g++ {
		first := c.labels[g*10]
		for i := g*10 + 1; i < (g+1)*10; i++ {
			if c.labels[i] != first {
				t.Fatalf("group %d split across clusters", g)
			}
		}
	}
	if c.labels[0] == c.labels[10] || c.labels[10] == c.labels[20] || c.labels[0] == c.labels[20] {
		t.Error("distinct quality levels should land in distinct clusters")
	}
	for id, n := range c.Sizes() {
		if n != 10 {
			t.Errorf("cluster %d size = %d, want 10", id, n)
		}
	}
}

func TestFit_Deterministic(t *testing.T) {
	a, b := fitGroups(t), fitGroups(t)
	for i := range a.labels {
		if a.labels[i] != b.labels[i] {
			t.Fatal("clustering with the same seed should be identical")
		}
	}
	if a.Inertia() != b.Inertia() {
		t.Errorf("inertia differs: %v vs %v", a.Inertia(), b.Inertia())
	}
}

func TestAssign(t *testing.T) {
	c := fitGroups(t)
	tests := []struct {
		name   string
		meta   map[string]string
		wantID int
		wantOK bool
	}{
		{"country match", map[string]string{brew.ColCountry: "Brazil"}, c.labels[10], true},
		{"bean and country", map[string]string{brew.ColBeanType: "arabica", brew.ColCountry: "colombia"}, c.labels[20], true},
		{"no match", map[string]string{brew.ColCountry: "kenya"}, 0, false},
		{"bean type mismatch", map[string]string{brew.ColBeanType: "robusta"}, 0, false},
		{"only unrelated keys", map[string]string{"roast": "dark"}, 0, false},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := c.Assign(tt.meta)
			if ok != tt.wantOK || (ok && id != tt.wantID) {
				t.Errorf("Assign() = %d, %v; want %d, %v", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}

	if got := c.AssignOrDefault(map[string]string{brew.ColCountry: "kenya"}); got != c.BaselineCluster() {
		t.Errorf("AssignOrDefault(no match) = %d, want baseline", got)
	}
}

func TestEnrich(t *testing.T) {
	c := fitGroups(t)
	row := brew.NewRow()
	row.Categorical[brew.ColBeanType] = "arabica"
	row.Categorical[brew.ColCountry] = "ethiopia"

	out := c.Enrich([]brew.Row{row, brew.NewRow()})
	if got := out[0].Categorical[brew.ColQualityCluster]; got != Label(c.labels[0]) {
		t.Errorf("enriched cluster = %q, want %q", got, Label(c.labels[0]))
	}
	if got := out[1].Categorical[brew.ColQualityCluster]; got != Label(0) {
		t.Errorf("unmatched row cluster = %q, want baseline 0", got)
	}
	if _, ok := row.Categorical[brew.ColQualityCluster]; ok {
		t.Error("Enrich must not mutate its input")
	}
}

func TestInsights(t *testing.T) {
	c := fitGroups(t)
	id := c.labels[0]
	ins, err := c.Insights(id)
	if err != nil {
		t.Fatal(err)
	}
	if ins.Size != 10 {
		t.Errorf("Size = %d", ins.Size)
	}
	if math.Abs(ins.Expected["expected_aroma"]-6) > 0.1 {
		t.Errorf("expected_aroma = %v, want about 6", ins.Expected["expected_aroma"])
	}
	if _, ok := ins.Expected[ColAroma]; ok {
		t.Errorf("Expected keys must carry the expected_ prefix: %v", ins.Expected)
	}
	if got := ins.Common[brew.ColCountry]; len(got) != 1 || got[0] != "ethiopia" {
		t.Errorf("common countries = %v", got)
	}
	if got := ins.Common[brew.ColProcessingMethod]; len(got) != 1 || got[0] != "washed / wet" {
		t.Errorf("common processing = %v", got)
	}
	if _, ok := ins.Common[brew.ColRegion]; ok {
		t.Error("a column holding only unknown should be omitted")
	}
	if ins.Altitude == nil || ins.Altitude.Min != 1000 || ins.Altitude.Max != 1009 {
		t.Errorf("altitude = %+v", ins.Altitude)
	}

	if _, err := c.Insights(c.K()); !errors.Is(err, brew.ErrValidation) {
		t.Errorf("out-of-range Insights() error = %v", err)
	}
}

func TestSuggestWarmStart(t *testing.T) {
	none := SuggestWarmStart(brew.FlavorProfile{}, brew.PartialBrewingParameters{})
	if none[brew.ColPressure] != 5.5 || none[brew.ColTemperature] != 90.5 || none[brew.ColExtractionTime] != 30 || none[brew.ColDoseSize] != 20 {
		t.Errorf("no preferences = %v, want midpoints", none)
	}

	low := SuggestWarmStart(brew.FlavorProfile{brew.Bitterness: 1}, brew.PartialBrewingParameters{})
	high := SuggestWarmStart(brew.FlavorProfile{brew.Maltiness: 9}, brew.PartialBrewingParameters{})
	if high[brew.ColTemperature] <= low[brew.ColTemperature] {
		t.Errorf("temperature for bitter %v <= for mild %v", high[brew.ColTemperature], low[brew.ColTemperature])
	}

	// Bitterness 9 alone: adjustment 0.7*0.4*2 = 0.56, move 0.56*11*0.4.
	want := brew.RoundHalfEven(90.5+0.56*11*0.4, 1)
	if high[brew.ColTemperature] != want {
		t.Errorf("temperature = %v, want %v", high[brew.ColTemperature], want)
	}

	temp := 92.0
	fixed := SuggestWarmStart(brew.FlavorProfile{brew.Strength: 10}, brew.PartialBrewingParameters{Temperature: &temp})
	if _, ok := fixed[brew.ColTemperature]; ok {
		t.Error("fixed parameters should be omitted")
	}
	for param, v := range fixed {
		b, _ := brew.Bound(param)
		if !b.Contains(v) {
			t.Errorf("%s = %v outside %v", param, v, b)
		}
	}
}
