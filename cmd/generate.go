package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridefair/core/dataset"
	"github.com/kilianp07/ridefair/core/generator"
)

var (
	generateCount int
	generateOut   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic rides as CSV",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateCount, "count", 0, "number of rides (defaults to training.record_count)")
	generateCmd.Flags().StringVar(&generateOut, "out", "rides.csv", `output file, "-" for stdout`)
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	n := generateCount
	if n == 0 {
		n = cfg.Training.RecordCount
	}
	if n < 0 {
		return fmt.Errorf("count must be >0, got %d", n)
	}
	recs := generator.New(cfg.Training).Generate(n)

	var w io.Writer = cmd.OutOrStdout()
	if generateOut != "-" {
		f, err := os.Create(generateOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := dataset.WriteCSV(w, recs); err != nil {
		return fmt.Errorf("write rides: %w", err)
	}
	if generateOut != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rides to %s\n", len(recs), generateOut)
	}
	return nil
}
