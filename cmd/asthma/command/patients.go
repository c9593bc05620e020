package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/store"
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Manage patients",
	Long:  "The patients command is used to manage registered asthma patients",
}

var patientsListParams = struct {
	Status string
	Search string
	Limit  int
}{}

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients",
	Long:  "The list command is used to retrieve registered patients, optionally filtered by status",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(listPatients) },
}

func listPatients(service patients.Service) error {
	filter := &patients.Filter{}
	if patientsListParams.Status != "" {
		status, err := patients.ParseStatus(patientsListParams.Status)
		if err != nil {
			return err
		}
		filter.Status = &status
	}
	if patientsListParams.Search != "" {
		filter.Search = &patientsListParams.Search
	}

	page := store.DefaultPagination().WithLimit(patientsListParams.Limit)
	list, err := service.List(context.TODO(), filter, page)
	if err != nil {
		return err
	}

	for _, patient := range list {
		fmt.Printf("%s %s [%s]\n", patient.HN, patient.FullName(), patient.Status)
	}
	fmt.Printf("Found %v patients\n", len(list))

	return nil
}

func init() {
	patientsListCmd.Flags().StringVar(&patientsListParams.Status, "status", "", "Only list patients with this status (Active, Discharge, COPD)")
	patientsListCmd.Flags().StringVar(&patientsListParams.Search, "search", "", "Search by HN or name")
	patientsListCmd.Flags().IntVar(&patientsListParams.Limit, "limit", 1000, "Maximum number of patients to list")

	patientsCmd.AddCommand(patientsListCmd)
	rootCmd.AddCommand(patientsCmd)
}
