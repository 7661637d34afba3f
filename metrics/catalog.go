package metrics

import (
	"regexp"
	"sort"
	"strconv"
)

// Period is one entry of the backend's period catalog.
type Period struct {
	ID       string `json:"id"`
	Display  string `json:"display"`
	RawMonth int    `json:"mes_raw"`
}

// Catalog maps a year to its ordered list of periods, as served by the
// backend's list_months endpoint.
type Catalog map[string][]Period

// Years returns the catalog's years, newest first.
func (c Catalog) Years() []string {
	years := make([]string, 0, len(c))
	for year := range c {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// AllPeriodIDs returns every known period ID in chronological order.
func (c Catalog) AllPeriodIDs() []string {
	years := make([]string, 0, len(c))
	for year := range c {
		years = append(years, year)
	}
	sort.Strings(years)

	ids := make([]string, 0)
	for _, year := range years {
		for _, p := range c[year] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Resolve computes the period IDs to fetch for a selection. Single-period
// mode fetches exactly the selected period (nothing when unset); every
// other mode fetches the full catalog and filters by date client-side.
// Fetching everything trades efficiency for simplicity; the date filter
// does the narrowing.
func (c Catalog) Resolve(sel Selection) []string {
	if sel.Mode == PeriodSingle {
		if sel.PeriodID == "" {
			return nil
		}
		return []string{sel.PeriodID}
	}
	return c.AllPeriodIDs()
}

var periodIDPattern = regexp.MustCompile(`(\d{4})_(\d{2})`)

// PeriodMonth extracts the (year, month) a period ID refers to. Returns
// ok=false for IDs that do not follow the yyyy_mm convention.
func PeriodMonth(periodID string) (year, month int, ok bool) {
	m := periodIDPattern.FindStringSubmatch(periodID)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	return year, month, true
}
