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

package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/CoenZandvoort/Brain-maturity-respiration/analysis"
	"github.com/CoenZandvoort/Brain-maturity-respiration/app"
	"github.com/CoenZandvoort/Brain-maturity-respiration/cohort"
)

/*
Bmr correlates an EEG-derived brain-age estimate against caffeine
discontinuation timing and respiration outcomes in preterm infants.

Usage:
	bmr metadata.csv restModel.csv sensoryModel.csv ibiDir outputPath [flags]

Example:
	bmr metadata.csv brainage_rest.csv brainage_sensory.csv ./ibi/ ./figures/
	--analysis all --iter 10000 --seed 1

The flags are:

--analysis caffeine | ibi | apnoea | all
	Which analysis to run. caffeine regresses brain maturity against the
	caffeine discontinuation PMA, ibi against the IBI-derived respiration
	rate, and apnoea against the apnoea rate.
--iter nr
	The number of bootstrap resamples for the significance test. With
	iter = 10000 the resampled p-value is within about 0.01 of the exact
	one.
--seed nr
	The base seed of the bootstrap random number generators. Each resample
	derives its own seed from this value, so a fixed seed reproduces the
	same p-value regardless of scheduling.
--nrOfThreads nr
	The number of threads the bootstrap uses.
*/

const (
	programVersion = 0.1
	programName    = "bmr"
)

func programMessage() string {
	return fmt.Sprint(programName, " version ", programVersion, " compiled with ", runtime.Version())
}

const bmrHelp = "\nbmr parameters:\n" +
	"bmr metadata.csv restModel.csv sensoryModel.csv ibiDir outputPath \n" +
	"[--analysis caffeine | ibi | apnoea | all]\n" +
	"[--iter nr]\n" +
	"[--seed nr]\n" +
	"[--nrOfThreads nr]\n"

func parseFlags(flags flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(ioutil.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprint(os.Stderr, err)
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprint(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func getFileName(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	return s
}

// runAnalysis performs the shared regression pipeline on an assembled
// cohort: full confound model for significance, partial correlation,
// adjusted-response extraction, reduced model for the plotted line, and
// the bootstrap test against the raw-PMA substitute predictor.
func runAnalysis(name string, obs []*cohort.Observation, withLength bool, iter int, seed uint32, outputPath string) {
	fmt.Println("Running ", name, " analysis with ", len(obs), " observations...")
	ds := cohort.BuildDataset(obs, withLength)

	confounds := []string{"infection", "ventilation"}
	if withLength {
		confounds = append(confounds, "length")
	}
	full := analysis.ModelSpec{
		Outcome: "outcome",
		Fixed:   append([]string{"maturity"}, confounds...),
		Random:  &analysis.RandomSpec{Intercept: true, Slope: "maturity"},
	}
	fullFit, err := analysis.FitLMM(ds, full)
	if err != nil {
		log.Panic("Fitting the full model failed: ", err)
	}
	coeff, t, p := fullFit.Predictor()
	rho := analysis.PartialCorrelation(t, ds.NumObs(), analysis.PredictorMatrix(ds, "maturity"))
	fmt.Printf("Full model: beta = %.4f, t = %.3f, p = %.4f, partial rho = %.3f\n", coeff, t, p, rho)

	// Reduced, confound-free model on the adjusted coordinates; only its
	// line and band are plotted, its p-values are not reported.
	x, y := analysis.AdjustedResponse(fullFit)
	ads := analysis.AdjustedDataset(fullFit, x, y)
	reduced := analysis.ModelSpec{
		Outcome: "outcome",
		Fixed:   []string{"predictor"},
		Random:  &analysis.RandomSpec{Intercept: true, Slope: "predictor"},
	}
	reducedFit, err := analysis.FitLMM(ads, reduced)
	if err != nil {
		log.Panic("Fitting the reduced model failed: ", err)
	}

	// Bootstrap null: the same outcome and confounds, with raw PMA
	// substituted for brain maturity.
	substitute := analysis.ModelSpec{
		Outcome: "outcome",
		Fixed:   append([]string{"pma"}, confounds...),
		Random:  &analysis.RandomSpec{Intercept: true, Slope: "pma"},
	}
	fmt.Println("Bootstrapping ", iter, " resamples...")
	boot := analysis.BootstrapPartialCorrelation(ds, substitute, rho, iter, seed)
	fmt.Printf("Bootstrap: p = %.4f (%d of %d resamples valid)\n", boot.P, boot.Valid, boot.Iter)

	annotation := fmt.Sprintf("beta=%.3f t=%.2f p=%.4f rho=%.2f boot p=%.4f", coeff, t, p, rho, boot.P)
	file := filepath.Join(outputPath, name+".png")
	app.PlotRegression(x, y, reducedFit, annotation, name, "Brain maturity (weeks, adjusted)",
		"Outcome (adjusted)", file)
}

func main() {
	var (
		// required parameters
		metadataFile string //The spreadsheet with per-session clinical metadata.
		restModel    string //The resting-state model's predicted brain ages.
		sensoryModel string //The sensory model's predicted brain ages.
		ibiDir       string //The directory with per-session IBI outcome files.
		outputPath   string //The path where figures are written.
		// optional flags
		analysisName string
		iter         int
		seed         int
		nrOfThreads  int
	)
	var flags flag.FlagSet
	flags.StringVar(&analysisName, "analysis", "all", "The analysis to run: caffeine, ibi, apnoea, or all.")
	flags.IntVar(&iter, "iter", analysis.DefaultBootstrapIter, "The number of bootstrap resamples for "+
		"the significance test.")
	flags.IntVar(&seed, "seed", 1, "The base seed for the bootstrap random number generators.")
	flags.IntVar(&nrOfThreads, "nrOfThreads", 0, "The number of threads the bootstrap uses.")
	// parse optional arguments
	parseFlags(flags, 6, bmrHelp)
	// parse required arguments
	metadataFile = getFileName(os.Args[1], bmrHelp)
	restModel = getFileName(os.Args[2], bmrHelp)
	sensoryModel = getFileName(os.Args[3], bmrHelp)
	ibiDir = getFileName(os.Args[4], bmrHelp)
	outputPath, _ = filepath.Abs(getFileName(os.Args[5], bmrHelp))
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}
	err := os.MkdirAll(outputPath, 0700)
	if err != nil {
		panic(err)
	}
	// start execution
	log.Println(programMessage())

	//1. Parse inputs
	sessions := app.ParseSessionData(metadataFile)
	rest := app.ParseModelPredictions(restModel)
	sensory := app.ParseModelPredictions(sensoryModel)

	//2. Merge the two models' predictions and bias-correct against PMA
	merged := cohort.MergePredictions(rest, sensory)
	asm, err := cohort.NewAssembler(sessions, merged)
	if err != nil {
		log.Panic("Assembling the cohort failed: ", err)
	}

	//3. Run the requested analyses
	loader := app.IBIOutcomeLoader(ibiDir)
	for _, name := range strings.Split(analysisName, ",") {
		switch name {
		case "caffeine":
			runAnalysis("caffeine", asm.CaffeineCohort(), false, iter, uint32(seed), outputPath)
		case "ibi":
			obs := asm.RespirationCohort(loader, cohort.RespirationRate)
			runAnalysis("ibi", obs, true, iter, uint32(seed), outputPath)
		case "apnoea":
			obs := asm.RespirationCohort(loader, cohort.ApnoeaRate)
			runAnalysis("apnoea", obs, true, iter, uint32(seed), outputPath)
		case "all":
			runAnalysis("caffeine", asm.CaffeineCohort(), false, iter, uint32(seed), outputPath)
			obs := asm.RespirationCohort(loader, cohort.RespirationRate)
			runAnalysis("ibi", obs, true, iter, uint32(seed), outputPath)
			obs = asm.RespirationCohort(loader, cohort.ApnoeaRate)
			runAnalysis("apnoea", obs, true, iter, uint32(seed), outputPath)
		default:
			fmt.Fprintln(os.Stderr, "Unknown analysis: ", name)
			fmt.Fprint(os.Stderr, bmrHelp)
			os.Exit(1)
		}
	}
}
