package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

var summaryParams = struct {
	HN   string
	AsOf string
}{}

var summaryCmd = &cobra.Command{
	Use:   "summary {hn}",
	Args:  cobra.ExactArgs(1),
	Short: "Print the derived summary of a patient",
	Long:  "The summary command prints the zone, technique and appointment status of a patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		summaryParams.HN = args[0]
		return Run(printSummary)
	},
}

func printSummary(service summary.Service) error {
	asOf, err := visits.ParseOptionalDate(summaryParams.AsOf)
	if err != nil {
		return err
	}

	s, err := service.Get(context.TODO(), summaryParams.HN, asOf)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	summaryCmd.Flags().StringVar(&summaryParams.AsOf, "as-of", "", "Compute the summary as of this day (YYYY-MM-DD)")

	rootCmd.AddCommand(summaryCmd)
}
