package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/metrics"
)

func TestPerDay(t *testing.T) {
	t.Run("full calendar gap-fills a 30-day month", func(t *testing.T) {
		records := []metrics.Record{
			day("2025-04-02", "ana", "ACME"),
			day("2025-04-02", "bia", "ACME"),
			day("2025-04-10", "ana", "GLOBEX"),
			day("2025-04-25", "ana", "ACME"),
		}

		out := metrics.PerDay(records, metrics.PerDayOptions{
			FullCalendar: true,
			Year:         2025,
			Month:        time.April,
		})

		require.Len(t, out, 30)
		require.Equal(t, "2025-04-01", out[0].Date)
		require.Equal(t, "2025-04-30", out[29].Date)

		zeros := 0
		for _, dc := range out {
			if dc.Count == 0 {
				zeros++
			}
		}
		require.Equal(t, 27, zeros)
		require.Equal(t, 2, out[1].Count)
		require.Equal(t, 1, out[9].Count)
		require.Equal(t, 1, out[24].Count)
	})

	t.Run("february of a leap year has 29 entries", func(t *testing.T) {
		out := metrics.PerDay(nil, metrics.PerDayOptions{
			FullCalendar: true,
			Year:         2024,
			Month:        time.February,
		})
		require.Len(t, out, 29)
	})

	t.Run("sparse mode lists only populated days, ascending", func(t *testing.T) {
		records := []metrics.Record{
			day("2025-04-25", "ana", "ACME"),
			day("2025-04-02", "ana", "ACME"),
			day("2025-03-31", "ana", "ACME"),
		}

		out := metrics.PerDay(records, metrics.PerDayOptions{})
		require.Len(t, out, 3)
		require.Equal(t, "2025-03-31", out[0].Date)
		require.Equal(t, "2025-04-02", out[1].Date)
		require.Equal(t, "2025-04-25", out[2].Date)
	})

	t.Run("records without a day key are skipped", func(t *testing.T) {
		records := []metrics.Record{
			rec(map[string]any{"Cliente_Final": "ACME"}),
			day("2025-04-02", "ana", "ACME"),
		}
		out := metrics.PerDay(records, metrics.PerDayOptions{})
		require.Len(t, out, 1)
	})
}

func TestMultiMonth(t *testing.T) {
	require.False(t, metrics.MultiMonth([]metrics.Record{
		day("2025-04-01", "ana", "ACME"),
		day("2025-04-28", "ana", "ACME"),
	}))
	require.True(t, metrics.MultiMonth([]metrics.Record{
		day("2025-04-01", "ana", "ACME"),
		day("2025-05-01", "ana", "ACME"),
	}))
	require.False(t, metrics.MultiMonth(nil))
}

func TestPerEntity(t *testing.T) {
	deptOf := func(analyst string) string {
		if analyst == "ana" {
			return "FISCAL"
		}
		return "CONTÁBIL"
	}

	t.Run("ranks descending by total", func(t *testing.T) {
		records := []metrics.Record{
			day("2025-04-01", "ana", "ACME"),
			day("2025-04-01", "ana", "GLOBEX"),
			day("2025-04-02", "bia", "GLOBEX"),
		}

		out := metrics.PerEntity(records, metrics.ClientKey, deptOf)
		require.Len(t, out, 2)
		require.Equal(t, "GLOBEX", out[0].Name)
		require.Equal(t, 2, out[0].Total)
		require.Equal(t, "ACME", out[1].Name)
	})

	t.Run("ties keep first-encounter order", func(t *testing.T) {
		records := []metrics.Record{
			day("2025-04-01", "ana", "ZETA"),
			day("2025-04-01", "ana", "ALFA"),
			day("2025-04-02", "ana", "ZETA"),
			day("2025-04-02", "ana", "ALFA"),
		}

		out := metrics.PerEntity(records, metrics.ClientKey, nil)
		require.Equal(t, "ZETA", out[0].Name)
		require.Equal(t, "ALFA", out[1].Name)
	})

	t.Run("breaks totals down per department", func(t *testing.T) {
		records := []metrics.Record{
			day("2025-04-01", "ana", "ACME"),
			day("2025-04-01", "bia", "ACME"),
			day("2025-04-02", "ana", "ACME"),
		}

		out := metrics.PerEntity(records, metrics.ClientKey, deptOf)
		require.Len(t, out, 1)
		require.Equal(t, 3, out[0].Total)
		require.Equal(t, 2, out[0].ByDepartment["FISCAL"])
		require.Equal(t, 1, out[0].ByDepartment["CONTÁBIL"])
	})

	t.Run("per-analyst ranking skips nameless records", func(t *testing.T) {
		records := []metrics.Record{
			day("2025-04-01", "ana", "ACME"),
			rec(map[string]any{"Cliente_Final": "ACME"}),
		}
		out := metrics.PerEntity(records, metrics.AnalystKey, nil)
		require.Len(t, out, 1)
		require.Equal(t, "ana", out[0].Name)
	})

	t.Run("clientless records fall into the unknown bucket", func(t *testing.T) {
		records := []metrics.Record{
			rec(map[string]any{"Atendido por": "ana"}),
		}
		out := metrics.PerEntity(records, metrics.ClientKey, nil)
		require.Len(t, out, 1)
		require.Equal(t, "DESCONHECIDO", out[0].Name)
	})
}
