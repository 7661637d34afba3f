package metrics

import "time"

// DeptFunc resolves an analyst to a department name. Unmapped analysts
// resolve to a default, never an error.
type DeptFunc func(analyst string) string

// FilterByDate retains the records whose day falls within the selection's
// date window. Single-period mode performs no date filtering at all: the
// fetch was already scoped to the period. When both bounds are open (all
// time) the input is returned as is. A record whose date is missing or
// unparseable is excluded from a bounded window.
func FilterByDate(records []Record, sel Selection, now time.Time) []Record {
	if sel.Mode == PeriodSingle {
		return records
	}

	start, end := sel.DateBounds(now)
	if start == nil && end == nil {
		return records
	}

	// The window works at day granularity: a bound anywhere inside a
	// calendar day includes that whole day.
	var startDay, endDay time.Time
	if start != nil {
		startDay = truncateToDay(*start)
	}
	if end != nil {
		endDay = truncateToDay(*end)
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		day, err := time.Parse("2006-01-02", rec.RawDate())
		if err != nil {
			continue
		}
		if start != nil && day.Before(startDay) {
			continue
		}
		if end != nil && day.After(endDay) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FilterByEntities applies the analyst, client and department equality
// filters. The filters are a conjunction: the result does not depend on
// evaluation order.
func FilterByEntities(records []Record, sel Selection, dept DeptFunc) []Record {
	analystActive := sel.Analyst != "" && sel.Analyst != FilterAll
	clientActive := sel.Client != "" && sel.Client != FilterAll
	deptActive := sel.Department != "" && sel.Department != FilterAll && dept != nil

	if !analystActive && !clientActive && !deptActive {
		return records
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if analystActive && rec.Analyst() != sel.Analyst {
			continue
		}
		if clientActive && rec.Client() != sel.Client {
			continue
		}
		if deptActive && dept(rec.Analyst()) != sel.Department {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Partition splits filtered records into the three KPI views: everything,
// everything minus the configured sentinel clients, and the records whose
// client is the "unidentified" sentinel.
type Partition struct {
	Total      []Record
	Valid      []Record
	Unresolved []Record
}

// PartitionRecords computes the validity partition. excluded lists the
// sentinel client names dropped from valid aggregates; unidentified is the
// specific sentinel counted as unresolved.
func PartitionRecords(records []Record, excluded []string, unidentified string) Partition {
	excludedSet := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		excludedSet[name] = struct{}{}
	}

	p := Partition{Total: records}
	for _, rec := range records {
		client := rec.Client()
		if _, skip := excludedSet[client]; !skip {
			p.Valid = append(p.Valid, rec)
		}
		if unidentified != "" && client == unidentified {
			p.Unresolved = append(p.Unresolved, rec)
		}
	}
	return p
}

// KPI is the headline summary of a partition.
type KPI struct {
	Total         int
	Valid         int
	Unresolved    int
	UniqueClients int
}

// Summarize computes the KPI figures. UniqueClients counts distinct client
// names among valid records only.
func Summarize(p Partition) KPI {
	clients := make(map[string]struct{})
	for _, rec := range p.Valid {
		clients[rec.Client()] = struct{}{}
	}
	return KPI{
		Total:         len(p.Total),
		Valid:         len(p.Valid),
		Unresolved:    len(p.Unresolved),
		UniqueClients: len(clients),
	}
}
