// Brain-maturity-respiration: brain age, caffeine, and respiration
// analyses for preterm EEG cohort studies.
// Copyright (c) 2024 Coen Zandvoort.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

package cohort

import (
	"math"
	"strings"

	"github.com/CoenZandvoort/Brain-maturity-respiration/analysis"
	"github.com/CoenZandvoort/Brain-maturity-respiration/utils"
)

const (
	// UncertainStopNote marks caffeine stop dates that could not be
	// verified against the medical notes. Sessions carrying it never
	// enter the caffeine cohort.
	UncertainStopNote = "medical notes unavailable"

	// CaffeineLookbackWeeks is the maximum gap, in weeks, between the
	// last session on caffeine and the recorded stop PMA for the session
	// to represent the discontinuation.
	CaffeineLookbackWeeks = 2.0
)

// Session represents one clinical recording session parsed from the
// metadata spreadsheet, with the merged brain-age model prediction
// attached. PMA values are in weeks.
type Session struct {
	ID            string // <infant>_<visit>_<variant>, unique
	InfantID      string // ID truncated to the <infant>_<visit> prefix
	PMA           float64
	Infection     string
	Ventilation   string
	OnCaffeine    bool
	CaffeineStart float64 // PMA at caffeine start, NaN when absent
	CaffeineStop  float64 // PMA at caffeine stop, NaN when absent
	StopNote      string  // annotation on the stop date
	BrainAge      float64 // merged model prediction, NaN when absent
	Maturity      float64 // bias-corrected brain age minus PMA, NaN until corrected
}

// InfantID derives the infant identifier of a session by truncating the
// session ID to its infant+visit prefix, i.e. stripping the trailing
// variant token.
func InfantID(sessionID string) string {
	if i := strings.LastIndex(sessionID, "_"); i > 0 {
		return sessionID[:i]
	}
	return sessionID
}

// MergePredictions combines per-model prediction tables (session ID to
// predicted age) into one table holding the NaN-aware mean per session: a
// session predicted by only one model keeps that model's value exactly,
// and a session absent from all models maps to NaN.
func MergePredictions(tables ...map[string]float64) map[string]float64 {
	merged := map[string]float64{}
	for _, tab := range tables {
		for id := range tab {
			if _, ok := merged[id]; ok {
				continue
			}
			var values []float64
			for _, t := range tables {
				if v, ok := t[id]; ok {
					values = append(values, v)
				}
			}
			merged[id] = utils.NanMean(values)
		}
	}
	return merged
}

// codeCategory maps a categorical spreadsheet label onto a numeric
// regressor: absent/negative labels to 0, anything else to 1.
func codeCategory(label string) float64 {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "no", "none", "n":
		return 0
	}
	return 1
}

// Observation is one analysis unit of a regression cohort: an aligned row
// of predictor, confound, and outcome values for a single session.
type Observation struct {
	SessionID       string
	InfantID        string
	GroupIndex      int // stable infant index, the mixed-model grouping factor
	Maturity        float64
	PMA             float64
	RecordingLength float64 // seconds, 0 for cohorts without an outcome file
	Infection       float64
	Ventilation     float64
	Outcome         float64
}

// Assembler joins session metadata with model predictions and builds the
// per-analysis cohorts. Creating an assembler fits the bias correction
// once, over all sessions with a non-NaN merged prediction, and attaches
// the resulting brain-maturity value to each session.
type Assembler struct {
	sessions []*Session
	groups   map[string]int
	order    []string
}

// NewAssembler attaches merged predictions to the sessions and
// bias-corrects the predicted ages against the true PMAs. Sessions
// without a prediction keep a NaN maturity and are skipped later, without
// error. Fewer than 2 predicted sessions make bias correction impossible
// and fail the run.
func NewAssembler(sessions []*Session, predictions map[string]float64) (*Assembler, error) {
	trueAge := make([]float64, len(sessions))
	predicted := make([]float64, len(sessions))
	for i, s := range sessions {
		s.InfantID = InfantID(s.ID)
		trueAge[i] = s.PMA
		if v, ok := predictions[s.ID]; ok {
			s.BrainAge = v
		} else {
			s.BrainAge = math.NaN()
		}
		predicted[i] = s.BrainAge
	}
	corrected, err := analysis.BiasCorrect(trueAge, predicted)
	if err != nil {
		return nil, err
	}
	asm := &Assembler{sessions: sessions, groups: map[string]int{}}
	for i, s := range sessions {
		s.Maturity = corrected[i] - s.PMA
	}
	return asm, nil
}

// Sessions returns the assembler's sessions, in input order.
func (asm *Assembler) Sessions() []*Session {
	return asm.sessions
}

// groupIndex returns the stable index of an infant, assigned in order of
// first encounter. The same infant always receives the same index within
// a run, so the full confound model and the reduced adjusted model group
// identically.
func (asm *Assembler) groupIndex(infantID string) int {
	if g, ok := asm.groups[infantID]; ok {
		return g
	}
	g := len(asm.groups)
	asm.groups[infantID] = g
	asm.order = append(asm.order, infantID)
	return g
}

// observation builds the shared part of an observation for a session.
func (asm *Assembler) observation(s *Session) *Observation {
	return &Observation{
		SessionID:   s.ID,
		InfantID:    s.InfantID,
		GroupIndex:  asm.groupIndex(s.InfantID),
		Maturity:    s.Maturity,
		PMA:         s.PMA,
		Infection:   codeCategory(s.Infection),
		Ventilation: codeCategory(s.Ventilation),
	}
}

// BuildDataset materializes a cohort's observations as columnar arrays
// for model fitting, in the order the observations were assembled. The
// column set is fixed: outcome, maturity, pma, infection, ventilation,
// and, when withLength is set, the recording length.
func BuildDataset(obs []*Observation, withLength bool) *analysis.Dataset {
	n := len(obs)
	outcome := make([]float64, n)
	maturity := make([]float64, n)
	pma := make([]float64, n)
	infection := make([]float64, n)
	ventilation := make([]float64, n)
	length := make([]float64, n)
	group := make([]int, n)
	for i, o := range obs {
		outcome[i] = o.Outcome
		maturity[i] = o.Maturity
		pma[i] = o.PMA
		infection[i] = o.Infection
		ventilation[i] = o.Ventilation
		length[i] = o.RecordingLength
		group[i] = o.GroupIndex
	}
	names := []string{"outcome", "maturity", "pma", "infection", "ventilation"}
	cols := [][]float64{outcome, maturity, pma, infection, ventilation}
	if withLength {
		names = append(names, "length")
		cols = append(cols, length)
	}
	return analysis.NewDataset(names, cols, group)
}
