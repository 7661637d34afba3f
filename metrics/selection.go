package metrics

import (
	"time"

	"github.com/taxbase/metricshub/internal/utils"
)

// PeriodMode selects how the time window of the analysis is determined.
type PeriodMode string

const (
	// PeriodSingle analyses one backend period (a month).
	PeriodSingle PeriodMode = "single-period"
	// PeriodLast90 analyses the trailing 90 days.
	PeriodLast90 PeriodMode = "last-90-days"
	// PeriodLast180 analyses the trailing 180 days.
	PeriodLast180 PeriodMode = "last-180-days"
	// PeriodAllTime analyses everything the backend knows about.
	PeriodAllTime PeriodMode = "all-time"
	// PeriodCustom analyses an explicit, possibly open-ended, date range.
	PeriodCustom PeriodMode = "custom-range"
)

// FilterAll is the sentinel meaning "no constraint" for the entity filters.
const FilterAll = "all"

// CustomRange is the window for PeriodCustom. A nil bound is open-ended.
type CustomRange struct {
	Start *time.Time
	End   *time.Time
}

// Selection is the full filter state. Year and PeriodID only matter in
// PeriodSingle mode; they are ignored, not cleared, in the other modes.
type Selection struct {
	Mode     PeriodMode
	Year     string
	PeriodID string
	Custom   CustomRange

	Analyst    string
	Client     string
	Department string
}

// NewSelection returns the default selection: single-period mode with all
// entity filters wide open.
func NewSelection() Selection {
	return Selection{
		Mode:       PeriodSingle,
		Analyst:    FilterAll,
		Client:     FilterAll,
		Department: FilterAll,
	}
}

// resetScoped clears the period-scoped entity filters. The department
// filter is period-independent and survives.
func (s *Selection) resetScoped() {
	s.Analyst = FilterAll
	s.Client = FilterAll
}

// DateBounds computes the [start, end] window for date filtering. Both
// bounds nil means no date constraint (single-period and all-time modes).
func (s Selection) DateBounds(now time.Time) (start, end *time.Time) {
	switch s.Mode {
	case PeriodLast90:
		return utils.Ptr(now.Add(-90 * 24 * time.Hour)), nil
	case PeriodLast180:
		return utils.Ptr(now.Add(-180 * 24 * time.Hour)), nil
	case PeriodCustom:
		return s.Custom.Start, s.Custom.End
	default:
		return nil, nil
	}
}
