package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridefair/app"
	"github.com/kilianp07/ridefair/core/model"
	"github.com/kilianp07/ridefair/core/trainer"
	"github.com/kilianp07/ridefair/pkg/report"
)

var (
	reportOut  string
	reportData string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render an HTML chart of the pickup hotspots",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportOut, "out", "hotspots.html", "output HTML file")
	reportCmd.Flags().StringVar(&reportData, "data", "", "plot the rides of this CSV (synthetic rides otherwise)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	svc, err := app.LoadPredictor(cfg.Artifact.Path)
	if err != nil {
		return err
	}
	var src trainer.Source = trainer.GeneratorSource{Config: cfg.Training}
	if reportData != "" {
		src = trainer.CSVSource{Path: reportData}
	}
	var rides []model.RideRecord
	if rides, err = src.Records(cmd.Context()); err != nil {
		return err
	}
	html, err := report.HotspotChartHTML(svc.ListHotspots(), rides)
	if err != nil {
		return err
	}
	if err := os.WriteFile(reportOut, []byte(html), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "hotspot chart written to %s\n", reportOut)
	return nil
}
