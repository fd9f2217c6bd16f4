// Command antiox-eval trains on a seeded split of the dataset, prints the
// hold-out metrics and writes diagnostic plots.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/YuminosukeSato/antiox/internal/config"
	"github.com/YuminosukeSato/antiox/internal/dataset"
	"github.com/YuminosukeSato/antiox/internal/evaluation"
	"github.com/YuminosukeSato/antiox/internal/schema"
	"github.com/YuminosukeSato/antiox/internal/training"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

func main() {
	var (
		dataPath  = flag.String("data", config.DefaultDatasetPath, "training CSV")
		label     = flag.String("label", config.DefaultLabelColumn, "label column")
		hpPath    = flag.String("config", "", "YAML file with a training section")
		plotDir   = flag.String("plots", "plots", "directory for PNG plots, empty to skip")
		testSize  = flag.Float64("test-size", 0.3, "hold-out fraction")
		seed      = flag.Int("seed", 123, "split seed")
		folds     = flag.Int("cv", 0, "K-fold cross-validation folds, 0 to skip")
		verbosity = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()
	if _, err := log.ParseLevel(*verbosity); err != nil {
		fmt.Fprintf(os.Stderr, "antiox-eval: %v\n", err)
		os.Exit(2)
	}
	log.SetupLogger(*verbosity)

	if err := run(*dataPath, *label, *hpPath, *plotDir, *testSize, *seed, *folds); err != nil {
		fmt.Fprintf(os.Stderr, "antiox-eval: %v\n", err)
		os.Exit(1)
	}
}

func run(dataPath, label, hpPath, plotDir string, testSize float64, seed, folds int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hp := training.DefaultHyperParams()
	if hpPath != "" {
		var err error
		if hp, err = training.LoadHyperParams(hpPath); err != nil {
			return err
		}
	}

	sch := schema.Default.WithLabel(label)
	ds, err := dataset.Load(dataPath, label, sch)
	if err != nil {
		return err
	}

	ev, err := training.TrainEvaluation(ctx, ds, hp, training.SplitConfig{TestSize: testSize, Seed: seed})
	if err != nil {
		return err
	}
	report, err := evaluation.Evaluate(ev.Model, ev.XTest, ev.YTest)
	if err != nil {
		return err
	}

	fmt.Printf("RMSE: %f\n", report.RMSE)
	fmt.Printf("MAE: %.4f\n", report.MAE)
	fmt.Printf("R Score: %.4f\n", report.R2)
	fmt.Println("Feature importance (gain):")
	for _, fi := range report.Importance {
		fmt.Printf("  %-10s %.4f\n", fi.Feature, fi.Score)
	}

	if folds > 0 {
		cv, err := evaluation.CrossValidate(ctx, ds, hp, folds, seed)
		if err != nil {
			return err
		}
		fmt.Printf("CV RMSE: %.4f (+/- %.4f) over %d folds\n", cv.Mean, cv.StdDev, len(cv.FoldRMSE))
	}

	if plotDir != "" {
		if err := evaluation.WritePlots(report, plotDir); err != nil {
			return err
		}
		fmt.Printf("Plots written to %s\n", plotDir)
	}
	return nil
}
