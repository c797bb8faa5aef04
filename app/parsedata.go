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

package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CoenZandvoort/Brain-maturity-respiration/cohort"
)

//The analysis program has 3 data inputs:
//A metadata spreadsheet with one row per recording session.
//Per-model prediction files mapping session ID -> predicted brain age.
//Per-session IBI outcome files with recording length and respiration measures.

//The spreadsheet encodes ages as an integer weeks field plus a days
//remainder, e.g. PMA 32 weeks + 3 days = 32.43 weeks. Caffeine start and
//stop PMAs use the same encoding and may be empty.

// column looks up a header name and returns its position. Panics on a
// missing column; the spreadsheet layout is fixed per study export.
func column(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	panic(fmt.Sprint("metadata spreadsheet has no column named ", name))
}

// parseWeeksDays converts the weeks+days age encoding to fractional
// weeks. Empty fields mean the age is absent and map to NaN.
func parseWeeksDays(weeks, days string) float64 {
	weeks = strings.TrimSpace(weeks)
	days = strings.TrimSpace(days)
	if weeks == "" {
		return math.NaN()
	}
	w, err := strconv.ParseFloat(weeks, 64)
	if err != nil {
		panic(err)
	}
	d := 0.0
	if days != "" {
		d, err = strconv.ParseFloat(days, 64)
		if err != nil {
			panic(err)
		}
	}
	return w + d/7.0
}

// ParseSessionData parses the metadata spreadsheet into session records,
// one per row, in file order. A missing or unreadable spreadsheet is
// unrecoverable and aborts the run.
func ParseSessionData(file string) []*cohort.Session {
	fmt.Println("Parsing session metadata from: ", file)
	fid, err := os.Open(file)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := fid.Close(); err != nil {
			panic(err)
		}
	}()
	reader := csv.NewReader(fid)
	header, err := reader.Read()
	if err != nil {
		panic(err)
	}
	infantCol := column(header, "infant")
	visitCol := column(header, "visit")
	variantCol := column(header, "variant")
	pmaWeeksCol := column(header, "pma_weeks")
	pmaDaysCol := column(header, "pma_days")
	infectionCol := column(header, "infection")
	ventilationCol := column(header, "ventilation")
	caffeineCol := column(header, "caffeine")
	startWeeksCol := column(header, "caffeine_start_weeks")
	startDaysCol := column(header, "caffeine_start_days")
	stopWeeksCol := column(header, "caffeine_stop_weeks")
	stopDaysCol := column(header, "caffeine_stop_days")
	noteCol := column(header, "stop_note")

	var sessions []*cohort.Session
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		id := fmt.Sprintf("%s_%s_%s", strings.TrimSpace(record[infantCol]),
			strings.TrimSpace(record[visitCol]), strings.TrimSpace(record[variantCol]))
		s := &cohort.Session{
			ID:            id,
			PMA:           parseWeeksDays(record[pmaWeeksCol], record[pmaDaysCol]),
			Infection:     strings.TrimSpace(record[infectionCol]),
			Ventilation:   strings.TrimSpace(record[ventilationCol]),
			OnCaffeine:    strings.EqualFold(strings.TrimSpace(record[caffeineCol]), "yes"),
			CaffeineStart: parseWeeksDays(record[startWeeksCol], record[startDaysCol]),
			CaffeineStop:  parseWeeksDays(record[stopWeeksCol], record[stopDaysCol]),
			StopNote:      strings.TrimSpace(record[noteCol]),
		}
		sessions = append(sessions, s)
	}
	fmt.Println("Parsed ", len(sessions), " sessions.")
	return sessions
}

// ParseModelPredictions parses one model's prediction file: a CSV with a
// header and rows of session ID, predicted brain age. The literal NaN
// marks sessions the model had no data for. A missing prediction file is
// unrecoverable and aborts the run.
func ParseModelPredictions(file string) map[string]float64 {
	fmt.Println("Parsing model predictions from: ", file)
	fid, err := os.Open(file)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := fid.Close(); err != nil {
			panic(err)
		}
	}()
	reader := csv.NewReader(fid)
	if _, err := reader.Read(); err != nil { // header
		panic(err)
	}
	predictions := map[string]float64{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			panic(err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			panic(err)
		}
		predictions[strings.TrimSpace(record[0])] = v
	}
	fmt.Println("Parsed ", len(predictions), " predictions.")
	return predictions
}

// IBIOutcomeLoader returns a loader that locates a session's IBI outcome
// file under dir as <sessionID>_ibi.csv. The file holds key,value rows
// with recording_length_s, ibi_rate_per_min, and apnoea_rate_per_h. A
// missing file is a filtering decision, not an error: the loader reports
// false and the session drops out of the cohort.
func IBIOutcomeLoader(dir string) cohort.OutcomeLoader {
	return func(sessionID string) (cohort.IBIOutcome, bool) {
		file := filepath.Join(dir, sessionID+"_ibi.csv")
		fid, err := os.Open(file)
		if err != nil {
			return cohort.IBIOutcome{}, false
		}
		defer func() {
			if err := fid.Close(); err != nil {
				panic(err)
			}
		}()
		reader := csv.NewReader(fid)
		values := map[string]float64{}
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				panic(err)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
			if err != nil {
				panic(err)
			}
			values[strings.TrimSpace(record[0])] = v
		}
		outcome := cohort.IBIOutcome{
			RecordingLength: values["recording_length_s"],
			RespirationRate: values["ibi_rate_per_min"],
			ApnoeaRate:      values["apnoea_rate_per_h"],
		}
		return outcome, true
	}
}
