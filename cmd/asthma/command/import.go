package command

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/importer"
)

var importParams = struct {
	File   string
	DryRun bool
}{}

var importCmd = &cobra.Command{
	Use:   "import {file}",
	Args:  cobra.ExactArgs(1),
	Short: "Import appointments exported from HOSxP",
	Long:  "The import command reconciles a CSV or XLSX appointment export with the visit history",
	RunE: func(cmd *cobra.Command, args []string) error {
		importParams.File = args[0]
		return Run(importAppointments)
	},
}

func importAppointments(imp *importer.Importer, logger *zap.SugaredLogger) error {
	f, err := os.Open(importParams.File)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := importer.Parse(importParams.File, f)
	if err != nil {
		return err
	}

	result, err := imp.Import(context.TODO(), rows, importParams.DryRun)
	if err != nil {
		return err
	}

	for _, row := range result.Plan.Rows {
		if importParams.DryRun || row.Action != importer.ActionUnchanged {
			fmt.Printf("line %d %s %s\n", row.Row.Line, row.Row.RawHN, row.Action)
		}
	}
	counts := result.Counts
	fmt.Printf("created %d, updated %d, unchanged %d, duplicate %d, unmatched %d, skipped %d\n",
		counts.Created, counts.Updated, counts.Unchanged, counts.Duplicate, counts.Unmatched, counts.Skipped)
	if importParams.DryRun {
		logger.Infow("dry run, no changes were written", "file", importParams.File)
	}
	return nil
}

func init() {
	importCmd.Flags().BoolVar(&importParams.DryRun, "dry-run", false, "Only prints out the changes that will be made")

	rootCmd.AddCommand(importCmd)
}
