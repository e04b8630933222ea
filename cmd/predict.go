package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridefair/app"
)

var (
	predictDistance float64
	predictHour     int
	predictWeekend  bool
	predictPrice    float64
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Query the trained models from the command line",
}

var predictPriceCmd = &cobra.Command{
	Use:   "price",
	Short: "Estimate the fair price of a ride",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := app.LoadPredictor(cfg.Artifact.Path)
		if err != nil {
			return err
		}
		res, err := svc.PredictPrice(predictDistance, predictHour, predictWeekend)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var predictScamCmd = &cobra.Command{
	Use:   "scam",
	Short: "Check whether an asked price looks like a scam",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := app.LoadPredictor(cfg.Artifact.Path)
		if err != nil {
			return err
		}
		res, err := svc.DetectScam(predictDistance, predictPrice)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var predictHotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "List the pickup hotspots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := app.LoadPredictor(cfg.Artifact.Path)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"hotspots": svc.ListHotspots()})
	},
}

func init() {
	predictPriceCmd.Flags().Float64Var(&predictDistance, "distance", 0, "distance in km")
	predictPriceCmd.Flags().IntVar(&predictHour, "hour", 0, "hour of day (0-23)")
	predictPriceCmd.Flags().BoolVar(&predictWeekend, "weekend", false, "ride on a weekend")
	_ = predictPriceCmd.MarkFlagRequired("distance")
	_ = predictPriceCmd.MarkFlagRequired("hour")

	predictScamCmd.Flags().Float64Var(&predictDistance, "distance", 0, "distance in km")
	predictScamCmd.Flags().Float64Var(&predictPrice, "price", 0, "asked price")
	_ = predictScamCmd.MarkFlagRequired("distance")
	_ = predictScamCmd.MarkFlagRequired("price")

	predictCmd.AddCommand(predictPriceCmd, predictScamCmd, predictHotspotsCmd)
	rootCmd.AddCommand(predictCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
