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

package analysis

import "fmt"

// Dataset holds aligned columnar data for model fitting. Columns are
// addressed by name. Group carries the infant index of each row, which is
// the grouping factor for the mixed-model random effects. The same infant
// always maps to the same index, also across refits on resampled rows.
type Dataset struct {
	names []string
	cols  [][]float64
	group []int
}

// NewDataset creates a dataset from named columns and a per-row infant
// group index. All columns and the group vector must have equal length.
func NewDataset(names []string, cols [][]float64, group []int) *Dataset {
	if len(names) != len(cols) {
		panic(fmt.Sprint("dataset has ", len(names), " names for ", len(cols), " columns"))
	}
	for i, c := range cols {
		if len(c) != len(group) {
			panic(fmt.Sprint("column ", names[i], " has length ", len(c), ", group vector has length ", len(group)))
		}
	}
	return &Dataset{names: names, cols: cols, group: group}
}

// NumObs returns the number of rows in the dataset.
func (ds *Dataset) NumObs() int {
	return len(ds.group)
}

// Names returns the column names.
func (ds *Dataset) Names() []string {
	return ds.names
}

// Col returns the column with the given name. Unknown names panic; column
// names are fixed per analysis, so a miss is a programming error.
func (ds *Dataset) Col(name string) []float64 {
	for i, n := range ds.names {
		if n == name {
			return ds.cols[i]
		}
	}
	panic(fmt.Sprint("dataset has no column named ", name))
}

// Group returns the per-row infant group indices.
func (ds *Dataset) Group() []int {
	return ds.group
}

// NumGroups counts the distinct infant groups present in the dataset.
func (ds *Dataset) NumGroups() int {
	seen := map[int]bool{}
	for _, g := range ds.group {
		seen[g] = true
	}
	return len(seen)
}

// Resample builds a new dataset from the given row indices, drawn with
// replacement during bootstrapping. Rows keep their original infant group
// index.
func (ds *Dataset) Resample(idx []int) *Dataset {
	cols := make([][]float64, len(ds.cols))
	for j, c := range ds.cols {
		nc := make([]float64, len(idx))
		for i, r := range idx {
			nc[i] = c[r]
		}
		cols[j] = nc
	}
	group := make([]int, len(idx))
	for i, r := range idx {
		group[i] = ds.group[r]
	}
	return &Dataset{names: ds.names, cols: cols, group: group}
}
