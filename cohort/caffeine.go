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

// CaffeineCohort selects, per infant, the chronologically last session on
// caffeine at or before the recorded stop PMA, and includes it when the
// stop happened within CaffeineLookbackWeeks of that session and the stop
// date is not flagged with UncertainStopNote. The outcome is the caffeine
// stop PMA. Sessions without a maturity value are skipped without error.
// Output follows the input order of each infant's first appearance.
func (asm *Assembler) CaffeineCohort() []*Observation {
	last := map[string]*Session{}
	var infants []string
	for _, s := range asm.sessions {
		if !s.OnCaffeine || math.IsNaN(s.CaffeineStop) || s.PMA > s.CaffeineStop {
			continue
		}
		prev, ok := last[s.InfantID]
		if !ok {
			infants = append(infants, s.InfantID)
			last[s.InfantID] = s
			continue
		}
		if s.PMA > prev.PMA {
			last[s.InfantID] = s
		}
	}

	var obs []*Observation
	for _, infant := range infants {
		s := last[infant]
		if math.IsNaN(s.Maturity) {
			continue
		}
		if s.CaffeineStop-s.PMA >= CaffeineLookbackWeeks {
			continue
		}
		if s.StopNote == UncertainStopNote {
			continue
		}
		o := asm.observation(s)
		o.Outcome = s.CaffeineStop
		obs = append(obs, o)
	}
	return obs
}
