package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/metrics"
)

func TestRecordRawDate(t *testing.T) {
	cases := []struct {
		name string
		data any
		want string
	}{
		{"iso datetime with T", "2025-04-02T14:30:00", "2025-04-02"},
		{"iso datetime with space", "2025-04-02 14:30:00", "2025-04-02"},
		{"bare iso date", "2025-04-02", "2025-04-02"},
		{"brazilian date", "02/04/2025", "2025-04-02"},
		{"missing", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := rec(map[string]any{"Data": tc.data})
			require.Equal(t, tc.want, r.RawDate())
		})
	}
}

func TestRecordDay(t *testing.T) {
	explicit := rec(map[string]any{"Data": "2025-04-02T14:30:00", "Dia": "2025-04-03"})
	require.Equal(t, "2025-04-03", explicit.Day(), "an explicit Dia field wins")

	derived := rec(map[string]any{"Data": "2025-04-02T14:30:00"})
	require.Equal(t, "2025-04-02", derived.Day())
}

func TestRecordDateTimeParts(t *testing.T) {
	t.Run("splits an iso composite into display parts", func(t *testing.T) {
		r := rec(map[string]any{"Data": "2025-04-02T14:30:00"})
		dateStr, timeStr := r.DateTimeParts()
		require.Equal(t, "02/04/2025", dateStr)
		require.Equal(t, "14:30", timeStr)
	})

	t.Run("a separate Hora field wins over the embedded time", func(t *testing.T) {
		r := rec(map[string]any{"Data": "2025-04-02T14:30:00", "Hora": "09:15"})
		_, timeStr := r.DateTimeParts()
		require.Equal(t, "09:15", timeStr)
	})

	t.Run("non-iso dates pass through untouched", func(t *testing.T) {
		r := rec(map[string]any{"Data": "02/04/2025"})
		dateStr, timeStr := r.DateTimeParts()
		require.Equal(t, "02/04/2025", dateStr)
		require.Empty(t, timeStr)
	})
}

func TestRecordClientFallback(t *testing.T) {
	require.Equal(t, "ACME", rec(map[string]any{"Cliente_Final": "ACME", "CLIENTE": "OLD"}).Client())
	require.Equal(t, "OLD", rec(map[string]any{"CLIENTE": "OLD"}).Client())
	require.Empty(t, rec(map[string]any{}).Client())
}

func TestRecordFieldCoercion(t *testing.T) {
	r := rec(map[string]any{"Contato": 4199998888, "Ok": true})
	require.Equal(t, "4199998888", r.Field("Contato"))
	require.Equal(t, "true", r.Field("Ok"))
	require.Empty(t, r.Field("Missing"))
}

func TestRecordImmutabilityAcrossPasses(t *testing.T) {
	records := []metrics.Record{day("2025-04-01", "ana", "ACME")}
	_ = metrics.Search(records, "acme")
	_ = metrics.SortRecords(records, nil, nil)
	require.Equal(t, "ACME", records[0].Client())
	require.Equal(t, "ana", records[0].Analyst())
}
