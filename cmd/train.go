package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridefair/core/bundle"
	coremetrics "github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/core/seed"
	"github.com/kilianp07/ridefair/core/trainer"
	"github.com/kilianp07/ridefair/infra/logger"
	_ "github.com/kilianp07/ridefair/infra/metrics"
	_ "github.com/kilianp07/ridefair/infra/seed"
)

var (
	trainData string
	trainOut  string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Generate or load rides, train the models and save the bundle",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainData, "data", "", "train on this rides CSV instead of synthetic data")
	trainCmd.Flags().StringVar(&trainOut, "out", "", "artifact path (defaults to artifact.path)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	log := logger.New("train")
	out := cfg.Artifact.Path
	if trainOut != "" {
		out = trainOut
	}

	var src trainer.Source = trainer.GeneratorSource{Config: cfg.Training}
	if trainData != "" {
		src = trainer.CSVSource{Path: trainData}
	}
	sink, err := seed.NewSink(cfg.Seed.Sink)
	if err != nil {
		// seeding never blocks training
		log.Warnf("seed sink disabled: %v", err)
		sink = seed.NopSink{}
	}
	metricsSink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return err
	}
	var recorder coremetrics.TrainingRecorder = coremetrics.NopSink{}
	if r, ok := metricsSink.(coremetrics.TrainingRecorder); ok {
		recorder = r
	}

	p := &trainer.Pipeline{
		Config:    cfg.Training,
		Source:    src,
		Store:     bundle.NewFileStore(out),
		Seed:      sink,
		SeedLimit: cfg.Seed.Limit,
		Recorder:  recorder,
		Log:       log,
	}
	res, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "trained on %d rides (%.1f%% scams) in %s\n", res.Records, res.ScamFraction*100, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "models saved to %s (run %s)\n", out, res.Bundle.Meta.RunID)
	if res.SeedErr != nil {
		fmt.Fprintf(w, "historical seed skipped after %d rows: %v\n", res.Seeded, res.SeedErr)
	} else if res.Seeded > 0 {
		fmt.Fprintf(w, "seeded %d rides into the historical store\n", res.Seeded)
	}
	return nil
}
