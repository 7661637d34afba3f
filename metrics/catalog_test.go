package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/metrics"
)

func testCatalog() metrics.Catalog {
	return metrics.Catalog{
		"2024": {
			{ID: "2024_11", Display: "Novembro 2024", RawMonth: 11},
			{ID: "2024_12", Display: "Dezembro 2024", RawMonth: 12},
		},
		"2025": {
			{ID: "2025_03", Display: "Março 2025", RawMonth: 3},
			{ID: "2025_04", Display: "Abril 2025", RawMonth: 4},
		},
	}
}

func TestCatalogYears(t *testing.T) {
	require.Equal(t, []string{"2025", "2024"}, testCatalog().Years())
}

func TestCatalogResolve(t *testing.T) {
	catalog := testCatalog()

	t.Run("single-period resolves to exactly the selected period", func(t *testing.T) {
		sel := metrics.NewSelection()
		sel.Year = "2025"
		sel.PeriodID = "2025_04"
		require.Equal(t, []string{"2025_04"}, catalog.Resolve(sel))
	})

	t.Run("single-period without a selection resolves to nothing", func(t *testing.T) {
		sel := metrics.NewSelection()
		require.Empty(t, catalog.Resolve(sel))
	})

	t.Run("range modes resolve to the full catalog, chronological", func(t *testing.T) {
		sel := metrics.NewSelection()
		sel.Mode = metrics.PeriodLast90
		require.Equal(t, []string{"2024_11", "2024_12", "2025_03", "2025_04"}, catalog.Resolve(sel))
	})
}

func TestPeriodMonth(t *testing.T) {
	year, month, ok := metrics.PeriodMonth("2025_04")
	require.True(t, ok)
	require.Equal(t, 2025, year)
	require.Equal(t, 4, month)

	year, month, ok = metrics.PeriodMonth("dados/2025_04_completo")
	require.True(t, ok, "the convention may be embedded in a storage path")
	require.Equal(t, 2025, year)
	require.Equal(t, 4, month)

	_, _, ok = metrics.PeriodMonth("abril-2025")
	require.False(t, ok)
}
