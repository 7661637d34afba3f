package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/departments"
	"github.com/taxbase/metricshub/internal/utils"
	"github.com/taxbase/metricshub/metrics"
	"github.com/taxbase/metricshub/report"
)

var (
	reportMode         string
	reportYear         string
	reportPeriod       string
	reportFrom         string
	reportTo           string
	reportAnalyst      string
	reportClient       string
	reportDepartment   string
	reportSearch       string
	reportSort         string
	reportFullCalendar bool
	reportCSV          string
	reportTop          int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch records and print the filtered KPI, evolution and rankings",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMode, "mode", "single", "Period mode: single, 90d, 180d, all, custom")
	reportCmd.Flags().StringVar(&reportYear, "year", "", "Catalog year (single mode, defaults to newest)")
	reportCmd.Flags().StringVar(&reportPeriod, "period", "", "Period ID (single mode, defaults to the year's first)")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Custom range start, yyyy-mm-dd")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Custom range end, yyyy-mm-dd")
	reportCmd.Flags().StringVar(&reportAnalyst, "analyst", "", "Filter by analyst")
	reportCmd.Flags().StringVar(&reportClient, "client", "", "Filter by client")
	reportCmd.Flags().StringVar(&reportDepartment, "department", "", "Filter by department")
	reportCmd.Flags().StringVar(&reportSearch, "search", "", "Free-text search over the detail table")
	reportCmd.Flags().StringVar(&reportSort, "sort", "", "Sort the detail table by this column")
	reportCmd.Flags().BoolVar(&reportFullCalendar, "full-calendar", true, "Gap-fill the per-day chart for single-month data")
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "Write the detail table to this CSV file")
	reportCmd.Flags().IntVar(&reportTop, "top", 5, "Ranking rows to print")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.requireSession(); err != nil {
		return err
	}
	ctx := cmd.Context()

	deptMap, err := departments.NewMap(a.client)
	if err != nil {
		return err
	}
	if err := deptMap.Load(ctx); err != nil {
		// Aggregation still works, unmapped analysts show as Unassigned.
		a.log.Warn().Err(err).Msg("failed loading department map")
	}

	engine := metrics.NewEngine(a.cfg.GetExcludedClients(), a.cfg.GetUnidentifiedClient(),
		metrics.WithDepartments(deptMap.Get),
		metrics.WithEngineLogger(a.log),
	)

	catalog, err := a.client.ListMonths(ctx)
	if err != nil {
		return err
	}
	engine.SetCatalog(catalog)

	if err := applySelection(engine); err != nil {
		return err
	}

	periodIDs, tag := engine.PeriodsToFetch()
	records, err := a.client.FetchRecords(ctx, periodIDs)
	if err != nil {
		return err
	}
	engine.Deliver(tag, records)

	snapshot := engine.Snapshot()
	printSnapshot(snapshot)

	if reportCSV != "" {
		if err := writeCSV(snapshot, a.cfg.GetExcludedClients(), a.cfg.GetUnidentifiedClient(), deptMap.Get); err != nil {
			return err
		}
		fmt.Printf("\nWrote %s rows to %s\n", humanize.Comma(int64(len(snapshot.Analysis))), reportCSV)
	}
	return nil
}

func applySelection(engine *metrics.Engine) error {
	switch reportMode {
	case "single":
		engine.SetMode(metrics.PeriodSingle)
	case "90d":
		engine.SetMode(metrics.PeriodLast90)
	case "180d":
		engine.SetMode(metrics.PeriodLast180)
	case "all":
		engine.SetMode(metrics.PeriodAllTime)
	case "custom":
		engine.SetMode(metrics.PeriodCustom)
		start, err := parseDateFlag(reportFrom)
		if err != nil {
			return err
		}
		end, err := parseDateFlag(reportTo)
		if err != nil {
			return err
		}
		engine.SetCustomRange(start, end)
	default:
		return fmt.Errorf("unknown mode %q", reportMode)
	}

	if reportYear != "" {
		engine.SetYear(reportYear)
	}
	if reportPeriod != "" {
		engine.SetPeriod(reportPeriod)
	}
	if reportAnalyst != "" {
		engine.SetAnalyst(reportAnalyst)
	}
	if reportClient != "" {
		engine.SetClient(reportClient)
	}
	if reportDepartment != "" {
		engine.SetDepartment(reportDepartment)
	}
	if reportSearch != "" {
		engine.SetSearch(reportSearch)
	}
	if reportSort != "" {
		engine.SortBy(reportSort)
	}
	engine.SetFullCalendar(reportFullCalendar)
	return nil
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want yyyy-mm-dd", value)
	}
	return utils.Ptr(t), nil
}

func printSnapshot(snapshot metrics.Snapshot) {
	fmt.Println("Summary")
	fmt.Println("=======")
	fmt.Printf("Total interactions:  %s\n", humanize.Comma(int64(snapshot.KPI.Total)))
	fmt.Printf("Valid interactions:  %s\n", humanize.Comma(int64(snapshot.KPI.Valid)))
	fmt.Printf("Unidentified:        %s\n", humanize.Comma(int64(snapshot.KPI.Unresolved)))
	fmt.Printf("Unique clients:      %s\n", humanize.Comma(int64(snapshot.KPI.UniqueClients)))
	fmt.Println()

	if len(snapshot.PerDay) > 0 {
		fmt.Println("Per day")
		fmt.Println("-------")
		for _, day := range snapshot.PerDay {
			fmt.Printf("%s  %4d  %s\n", day.Date, day.Count, strings.Repeat("#", day.Count))
		}
		fmt.Println()
	}

	printRanking("Top clients", snapshot.TopClients)
	printRanking("Top analysts", snapshot.TopAnalysts)
}

func printRanking(title string, ranking []metrics.EntityCount) {
	if len(ranking) == 0 {
		return
	}
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", len(title)))
	limit := reportTop
	if limit > len(ranking) {
		limit = len(ranking)
	}
	for i := 0; i < limit; i++ {
		fmt.Printf("%2d. %-40s %s\n", i+1, ranking[i].Name, humanize.Comma(int64(ranking[i].Total)))
	}
	fmt.Println()
}

func writeCSV(snapshot metrics.Snapshot, excluded []string, unidentified string, dept metrics.DeptFunc) error {
	file, err := os.Create(reportCSV)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", reportCSV, err)
	}
	defer file.Close()

	exporter := report.NewExporter(excluded, unidentified, dept)
	return exporter.WriteCSV(file, snapshot.Analysis)
}
