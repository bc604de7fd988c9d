// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// parseFlavor converts --flavor name=rating pairs into a profile.
func parseFlavor(raw map[string]string) (brew.FlavorProfile, error) {
	out := make(brew.FlavorProfile, len(raw))
	for name, v := range raw {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("flavor %s: %q is not a number", name, v)
		}
		out[name] = f
	}
	return out, nil
}

// brewFlags are the brewing parameter flags shared by predict, suggest and
// blend.
type brewFlags struct {
	pressure       float64
	temperature    float64
	extractionTime float64
	dose           float64
	cup            string
	bean           string
	blend          map[string]int

	processingMethod string
	color            string
	country          string
	region           string
}

func (f *brewFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.pressure, "pressure", 0, "Extraction pressure in bar")
	fs.Float64Var(&f.temperature, "temperature", 0, "Water temperature in °C")
	fs.Float64Var(&f.extractionTime, "extraction-time", 0, "Extraction time in seconds")
	fs.Float64Var(&f.dose, "dose", 0, "Dose in grams")
	fs.StringVar(&f.cup, "cup", "", "Cup size: small, medium or large")
	fs.StringVar(&f.bean, "bean-type", "", "Bean type")
	fs.StringToIntVar(&f.blend, "blend", nil, "Bean blend percentages, e.g. arabica=70,robusta=30")
	fs.StringVar(&f.processingMethod, "processing-method", "", "Processing method metadata")
	fs.StringVar(&f.color, "color", "", "Bean color metadata")
	fs.StringVar(&f.country, "country", "", "Country of origin metadata")
	fs.StringVar(&f.region, "region", "", "Region metadata")
}

func cupVolume(name string) (float64, error) {
	if name == "" {
		return 0, nil
	}
	v, ok := brew.CupVolume(name)
	if !ok {
		return 0, fmt.Errorf("cup %q: must be small, medium or large", name)
	}
	return v, nil
}

// parameters returns a full parameter set. Unset numeric flags stay zero.
func (f *brewFlags) parameters() (brew.BrewingParameters, error) {
	cup, err := cupVolume(f.cup)
	if err != nil {
		return brew.BrewingParameters{}, err
	}
	p := brew.BrewingParameters{
		Pressure:         f.pressure,
		Temperature:      f.temperature,
		GroundSize:       brew.GrindSize,
		ExtractionTime:   f.extractionTime,
		DoseSize:         f.dose,
		CupSize:          cup,
		BeanType:         f.bean,
		ProcessingMethod: f.processingMethod,
		Color:            f.color,
		Country:          f.country,
		Region:           f.region,
	}
	if len(f.blend) > 0 {
		p.BeanBlend = make(brew.BeanBlend, len(f.blend))
		for bean, pct := range f.blend {
			p.BeanBlend[bean] = pct
		}
	}
	return p, nil
}

// fixed returns the parameters explicitly set on the command line as
// optimizer constraints.
func (f *brewFlags) fixed(fs *pflag.FlagSet) brew.PartialBrewingParameters {
	p := brew.PartialBrewingParameters{
		CupSize:          f.cup,
		BeanType:         f.bean,
		ProcessingMethod: f.processingMethod,
		Color:            f.color,
		Country:          f.country,
		Region:           f.region,
	}
	pick := func(name string, v float64) *float64 {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	p.Pressure = pick("pressure", f.pressure)
	p.Temperature = pick("temperature", f.temperature)
	p.ExtractionTime = pick("extraction-time", f.extractionTime)
	p.DoseSize = pick("dose", f.dose)
	if len(f.blend) > 0 {
		p.BeanBlend = make(brew.BeanBlend, len(f.blend))
		for bean, pct := range f.blend {
			p.BeanBlend[bean] = pct
		}
	}
	return p
}
