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

import "math"

// IBIOutcome holds the respiration measures derived from one session's
// inter-breath-interval recording.
type IBIOutcome struct {
	RecordingLength float64 // seconds
	RespirationRate float64 // breaths per minute
	ApnoeaRate      float64 // apnoeic events per hour
}

// RespirationMeasure selects which IBI-derived scalar becomes the cohort
// outcome.
type RespirationMeasure int

const (
	RespirationRate RespirationMeasure = iota
	ApnoeaRate
)

// OutcomeLoader locates and loads the IBI outcome of a session. A false
// return means no outcome recording exists for the session; the session
// is then skipped, without error.
type OutcomeLoader func(sessionID string) (IBIOutcome, bool)

// RespirationCohort builds one observation per session that has both a
// maturity value and an IBI outcome recording. The outcome is the chosen
// respiration measure; the recording length joins the confounds. Output
// order is input order.
func (asm *Assembler) RespirationCohort(load OutcomeLoader, measure RespirationMeasure) []*Observation {
	var obs []*Observation
	for _, s := range asm.sessions {
		if math.IsNaN(s.Maturity) {
			continue
		}
		ibi, ok := load(s.ID)
		if !ok {
			continue
		}
		o := asm.observation(s)
		o.RecordingLength = ibi.RecordingLength
		if measure == ApnoeaRate {
			o.Outcome = ibi.ApnoeaRate
		} else {
			o.Outcome = ibi.RespirationRate
		}
		obs = append(obs, o)
	}
	return obs
}
