package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/departments"
)

var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Manage the analyst to department mapping",
}

var departmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every analyst and its department",
	RunE:  runDepartmentsList,
}

var departmentsSetCmd = &cobra.Command{
	Use:   "set <analyst> <department>",
	Short: "Assign an analyst to a department",
	Args:  cobra.ExactArgs(2),
	RunE:  runDepartmentsSet,
}

func init() {
	departmentsCmd.AddCommand(departmentsListCmd)
	departmentsCmd.AddCommand(departmentsSetCmd)
	rootCmd.AddCommand(departmentsCmd)
}

func runDepartmentsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.requireSession(); err != nil {
		return err
	}

	mapping, err := a.client.GetDepartments(cmd.Context())
	if err != nil {
		return err
	}

	analysts := make([]string, 0, len(mapping))
	for analyst := range mapping {
		analysts = append(analysts, analyst)
	}
	sort.Strings(analysts)
	for _, analyst := range analysts {
		fmt.Printf("%-40s %s\n", analyst, mapping[analyst])
	}
	return nil
}

func runDepartmentsSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.requireSession(); err != nil {
		return err
	}

	deptMap, err := departments.NewMap(a.client)
	if err != nil {
		return err
	}
	if err := deptMap.Update(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Assigned %s to %s\n", args[0], args[1])
	return nil
}
