package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/labels"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage per-period label annotations",
}

var labelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all period labels",
	RunE:  runLabelsList,
}

var labelsSetCmd = &cobra.Command{
	Use:   "set <period> [label]",
	Short: "Set a period's label (omit the label to clear it)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLabelsSet,
}

func init() {
	labelsCmd.AddCommand(labelsListCmd)
	labelsCmd.AddCommand(labelsSetCmd)
	rootCmd.AddCommand(labelsCmd)
}

func runLabelsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.requireSession(); err != nil {
		return err
	}

	cache, err := labels.NewCache(a.client)
	if err != nil {
		return err
	}
	if err := cache.Load(cmd.Context()); err != nil {
		return err
	}

	all := cache.All()
	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%-30s %s\n", key, all[key])
	}
	return nil
}

func runLabelsSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.requireSession(); err != nil {
		return err
	}

	cache, err := labels.NewCache(a.client)
	if err != nil {
		return err
	}

	label := ""
	if len(args) == 2 {
		label = args[1]
	}
	if err := cache.Set(cmd.Context(), args[0], label); err != nil {
		return err
	}

	if label == "" {
		fmt.Printf("Cleared label of %s\n", args[0])
	} else {
		fmt.Printf("Labelled %s as %q\n", args[0], label)
	}
	return nil
}
