package metrics

import (
	"sort"
	"time"
)

// DayCount is one bar of the per-day evolution chart.
type DayCount struct {
	Date  string // yyyy-mm-dd
	Count int
}

// PerDayOptions controls gap-filling of the per-day aggregation.
type PerDayOptions struct {
	// FullCalendar emits every day of Year/Month even with zero count, so
	// the chart renders a continuous axis. Only meaningful when the data
	// belongs to a single month.
	FullCalendar bool
	Year         int
	Month        time.Month
}

// PerDay groups records by calendar day. With FullCalendar the result has
// one entry per day of the month, zeros included; otherwise only days with
// at least one record appear, ascending. Records without a day key are
// skipped.
func PerDay(records []Record, opts PerDayOptions) []DayCount {
	grouped := make(map[string]int)
	for _, rec := range records {
		if day := rec.Day(); day != "" {
			grouped[day]++
		}
	}

	if opts.FullCalendar && opts.Year != 0 && opts.Month != 0 {
		first := time.Date(opts.Year, opts.Month, 1, 0, 0, 0, 0, time.UTC)
		out := make([]DayCount, 0, 31)
		for day := first; day.Month() == opts.Month; day = day.AddDate(0, 0, 1) {
			key := day.Format("2006-01-02")
			out = append(out, DayCount{Date: key, Count: grouped[key]})
		}
		return out
	}

	out := make([]DayCount, 0, len(grouped))
	for day, count := range grouped {
		out = append(out, DayCount{Date: day, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// MultiMonth reports whether the records span more than one calendar month.
// The evolution chart drops the full-calendar axis in that case.
func MultiMonth(records []Record) bool {
	months := make(map[string]struct{})
	for _, rec := range records {
		day := rec.Day()
		if len(day) >= 7 {
			months[day[:7]] = struct{}{}
			if len(months) > 1 {
				return true
			}
		}
	}
	return false
}

// EntityCount is one row of a per-entity ranking: total interactions plus
// the per-department breakdown.
type EntityCount struct {
	Name         string
	Total        int
	ByDepartment map[string]int
}

// PerEntity groups records by the entity that key extracts (client or
// analyst), counts per entity and per department within the entity, and
// ranks descending by total. Ties keep the entity's first-encounter order,
// so the ranking is deterministic for a fixed input order. Records whose
// key is empty are skipped.
func PerEntity(records []Record, key func(Record) string, dept DeptFunc) []EntityCount {
	index := make(map[string]int)
	out := make([]EntityCount, 0)

	for _, rec := range records {
		name := key(rec)
		if name == "" {
			continue
		}
		i, seen := index[name]
		if !seen {
			i = len(out)
			index[name] = i
			out = append(out, EntityCount{Name: name, ByDepartment: make(map[string]int)})
		}
		out[i].Total++
		if dept != nil {
			out[i].ByDepartment[dept(rec.Analyst())]++
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// ClientKey extracts the ranking key for per-client aggregation.
func ClientKey(rec Record) string {
	if c := rec.Client(); c != "" {
		return c
	}
	return "DESCONHECIDO"
}

// AnalystKey extracts the ranking key for per-analyst aggregation.
func AnalystKey(rec Record) string {
	return rec.Analyst()
}
