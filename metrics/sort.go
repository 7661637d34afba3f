package metrics

import "sort"

// SortDirection orders a sorted column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is an explicit column sort. A nil *SortConfig means the
// default order: descending by the raw stored date string. The comparison
// is lexicographic on purpose — it reproduces the tie-break order of
// same-day records carrying non-normalized date strings.
type SortConfig struct {
	Key       string
	Direction SortDirection
}

// Toggle computes the next sort state after clicking key: the same column
// flips direction, a new column starts ascending.
func Toggle(current *SortConfig, key string) SortConfig {
	if current != nil && current.Key == key && current.Direction == SortAsc {
		return SortConfig{Key: key, Direction: SortDesc}
	}
	return SortConfig{Key: key, Direction: SortAsc}
}

// SortRecords returns a sorted copy of records. The Department column is
// computed through dept; every other key compares the raw field strings.
func SortRecords(records []Record, cfg *SortConfig, dept DeptFunc) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	if cfg == nil {
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].Field(FieldDate) < out[i].Field(FieldDate)
		})
		return out
	}

	value := func(rec Record) string {
		if cfg.Key == FieldDepartment && dept != nil {
			return dept(rec.Analyst())
		}
		return rec.Field(cfg.Key)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := value(out[i]), value(out[j])
		if cfg.Direction == SortDesc {
			return b < a
		}
		return a < b
	})
	return out
}
