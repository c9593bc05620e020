package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asthma-connect/clinic/backup"
	"github.com/asthma-connect/clinic/dashboard"
	"github.com/asthma-connect/clinic/summary"
)

var backupParams = struct {
	Output string
}{}

var backupCmd = &cobra.Command{
	Use:   "backup [output.xlsx]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Export all patients and visits to a workbook",
	Long:  "The backup command writes every patient and visit to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		backupParams.Output = ""
		if len(args) > 0 {
			backupParams.Output = args[0]
		}
		return Run(writeBackup)
	},
}

func writeBackup(service dashboard.Service, summaries summary.Service) error {
	snapshot, err := service.Snapshot(context.TODO())
	if err != nil {
		return err
	}
	file, err := backup.NewReport(snapshot).Generate()
	if err != nil {
		return err
	}

	output := backupParams.Output
	if output == "" {
		output = backup.FileName(summaries.Now())
	}
	if err := file.Save(output); err != nil {
		return err
	}

	fmt.Printf("Exported %v patients and %v visits to %s\n", len(snapshot.Patients), len(snapshot.Visits), output)
	return nil
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
