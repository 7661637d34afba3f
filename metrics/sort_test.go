package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/metrics"
)

func TestToggle(t *testing.T) {
	first := metrics.Toggle(nil, "Cliente_Final")
	require.Equal(t, metrics.SortAsc, first.Direction)

	second := metrics.Toggle(&first, "Cliente_Final")
	require.Equal(t, metrics.SortDesc, second.Direction)

	third := metrics.Toggle(&second, "Cliente_Final")
	require.Equal(t, metrics.SortAsc, third.Direction, "a third click cycles back to ascending")

	other := metrics.Toggle(&second, "Contato")
	require.Equal(t, "Contato", other.Key)
	require.Equal(t, metrics.SortAsc, other.Direction, "a new column always starts ascending")
}

func TestSortRecords(t *testing.T) {
	records := []metrics.Record{
		day("2025-04-01", "carla", "GLOBEX"),
		day("2025-04-03", "ana", "ACME"),
		day("2025-04-02", "bia", "INITECH"),
	}

	t.Run("default order is descending by raw date string", func(t *testing.T) {
		out := metrics.SortRecords(records, nil, nil)
		require.Equal(t, "2025-04-03", out[0].Day())
		require.Equal(t, "2025-04-02", out[1].Day())
		require.Equal(t, "2025-04-01", out[2].Day())
		// Input untouched.
		require.Equal(t, "2025-04-01", records[0].Day())
	})

	t.Run("explicit ascending column sort", func(t *testing.T) {
		cfg := &metrics.SortConfig{Key: "Cliente_Final", Direction: metrics.SortAsc}
		out := metrics.SortRecords(records, cfg, nil)
		require.Equal(t, "ACME", out[0].Client())
		require.Equal(t, "GLOBEX", out[1].Client())
		require.Equal(t, "INITECH", out[2].Client())
	})

	t.Run("explicit descending column sort", func(t *testing.T) {
		cfg := &metrics.SortConfig{Key: "Cliente_Final", Direction: metrics.SortDesc}
		out := metrics.SortRecords(records, cfg, nil)
		require.Equal(t, "INITECH", out[0].Client())
	})

	t.Run("department column sorts through the resolver", func(t *testing.T) {
		deptOf := func(analyst string) string {
			if analyst == "ana" {
				return "ZFISCAL"
			}
			return "ACONTÁBIL"
		}
		cfg := &metrics.SortConfig{Key: metrics.FieldDepartment, Direction: metrics.SortDesc}
		out := metrics.SortRecords(records, cfg, deptOf)
		require.Equal(t, "ana", out[0].Analyst())
	})

	t.Run("missing sort fields compare as empty strings", func(t *testing.T) {
		mixed := []metrics.Record{
			rec(map[string]any{"Contato": "z"}),
			rec(map[string]any{}),
		}
		cfg := &metrics.SortConfig{Key: "Contato", Direction: metrics.SortAsc}
		out := metrics.SortRecords(mixed, cfg, nil)
		require.Equal(t, "", out[0].Contact())
	})
}
