package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Snapshot is the full set of derived outputs the presentation layer
// consumes. It is recomputed whole on every upstream change, in dependency
// order: filtered → partitioned → grouped → analysis view.
type Snapshot struct {
	Selection Selection

	Filtered  []Record
	Partition Partition
	KPI       KPI

	PerDay      []DayCount
	TopClients  []EntityCount
	TopAnalysts []EntityCount

	// Analysis is the filtered set with free-text search and column sort
	// applied, ready for the detail table.
	Analysis []Record
}

// Engine owns the raw records and the filter selection and keeps the
// derived Snapshot current. Fetch responses are matched against a
// generation tag so a stale response can never displace a newer one.
type Engine struct {
	log zerolog.Logger

	excluded     []string
	unidentified string
	nowTime      func() time.Time

	mu           sync.Mutex
	catalog      Catalog
	selection    Selection
	raw          []Record
	dept         DeptFunc
	searchTerm   string
	sortCfg      *SortConfig
	fullCalendar bool
	generation   uuid.UUID

	snapshot    Snapshot
	subscribers []func(Snapshot)
}

// EngineOption modifies an Engine instance.
type EngineOption func(*Engine)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowTime = nowFunc
	}
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithDepartments sets the analyst to department resolver used by the
// department filter, rankings and the Department sort column.
func WithDepartments(dept DeptFunc) EngineOption {
	return func(e *Engine) {
		e.dept = dept
	}
}

// NewEngine creates an Engine. excluded and unidentified configure the
// validity partition sentinels.
func NewEngine(excluded []string, unidentified string, options ...EngineOption) *Engine {
	e := &Engine{
		log:          zerolog.Nop(),
		excluded:     excluded,
		unidentified: unidentified,
		nowTime:      time.Now,
		selection:    NewSelection(),
		fullCalendar: true,
		generation:   uuid.New(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.recomputeLocked()
	return e
}

// Subscribe registers fn to be called with every fresh Snapshot.
func (e *Engine) Subscribe(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Snapshot returns the current derived outputs.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// Selection returns the current filter selection.
func (e *Engine) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection
}

// SetCatalog installs a refreshed period catalog. If the refresh changes
// the resolved period set, the period-scoped entity filters reset. A year
// or period not present anymore falls back to the newest available.
func (e *Engine) SetCatalog(catalog Catalog) {
	e.mu.Lock()
	before := e.catalog.Resolve(e.selection)
	e.catalog = catalog

	if e.selection.Year == "" || len(catalog[e.selection.Year]) == 0 {
		if years := catalog.Years(); len(years) > 0 {
			e.selection.Year = years[0]
		}
	}
	if e.selection.PeriodID == "" || !catalog.hasPeriod(e.selection.Year, e.selection.PeriodID) {
		if periods := catalog[e.selection.Year]; len(periods) > 0 {
			e.selection.PeriodID = periods[0].ID
		}
	}

	if !equalStrings(before, e.catalog.Resolve(e.selection)) {
		e.selection.resetScoped()
		e.generation = uuid.New()
	}
	e.update()
}

// SetMode switches the period mode. Any mode change resets the
// period-scoped entity filters; the department filter survives.
func (e *Engine) SetMode(mode PeriodMode) {
	e.mu.Lock()
	if e.selection.Mode != mode {
		e.selection.Mode = mode
		e.selection.resetScoped()
		e.generation = uuid.New()
	}
	e.update()
}

// SetYear selects a catalog year and its first period. Switching year
// changes the resolved period set, so analyst and client reset.
func (e *Engine) SetYear(year string) {
	e.mu.Lock()
	if e.selection.Year != year {
		e.selection.Year = year
		if periods := e.catalog[year]; len(periods) > 0 {
			e.selection.PeriodID = periods[0].ID
		} else {
			e.selection.PeriodID = ""
		}
		e.selection.resetScoped()
		e.generation = uuid.New()
	}
	e.update()
}

// SetPeriod selects a period within the current year.
func (e *Engine) SetPeriod(periodID string) {
	e.mu.Lock()
	if e.selection.PeriodID != periodID {
		e.selection.PeriodID = periodID
		e.selection.resetScoped()
		e.generation = uuid.New()
	}
	e.update()
}

// SetCustomRange sets the custom-range bounds.
func (e *Engine) SetCustomRange(start, end *time.Time) {
	e.mu.Lock()
	e.selection.Custom = CustomRange{Start: start, End: end}
	e.update()
}

// SetAnalyst sets the analyst filter (FilterAll clears it).
func (e *Engine) SetAnalyst(analyst string) {
	e.mu.Lock()
	e.selection.Analyst = analyst
	e.update()
}

// SetClient sets the client filter.
func (e *Engine) SetClient(client string) {
	e.mu.Lock()
	e.selection.Client = client
	e.update()
}

// SetDepartment sets the department filter.
func (e *Engine) SetDepartment(department string) {
	e.mu.Lock()
	e.selection.Department = department
	e.update()
}

// SetSearch sets the free-text search term of the analysis view.
func (e *Engine) SetSearch(term string) {
	e.mu.Lock()
	e.searchTerm = term
	e.update()
}

// SortBy applies one click on a sortable column: same column toggles
// direction, a new column starts ascending.
func (e *Engine) SortBy(key string) {
	e.mu.Lock()
	next := Toggle(e.sortCfg, key)
	e.sortCfg = &next
	e.update()
}

// ClearSort restores the default date-descending order.
func (e *Engine) ClearSort() {
	e.mu.Lock()
	e.sortCfg = nil
	e.update()
}

// SetFullCalendar toggles gap-filled per-day output for single-month data.
func (e *Engine) SetFullCalendar(enabled bool) {
	e.mu.Lock()
	e.fullCalendar = enabled
	e.update()
}

// PeriodsToFetch resolves the period IDs the backend should be asked for,
// together with the generation tag to hand back to Deliver.
func (e *Engine) PeriodsToFetch() ([]string, uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.Resolve(e.selection), e.generation
}

// Deliver installs a fetch response. Responses tagged with a superseded
// generation are discarded: a newer fetch always wins over an older one.
func (e *Engine) Deliver(tag uuid.UUID, records []Record) bool {
	e.mu.Lock()
	if tag != e.generation {
		e.mu.Unlock()
		e.log.Debug().Str("tag", tag.String()).Msg("discarding stale fetch response")
		return false
	}
	e.raw = records
	e.update()
	return true
}

// update recomputes the snapshot and notifies subscribers. Callers hold
// e.mu; update releases it.
func (e *Engine) update() {
	e.recomputeLocked()
	snapshot := e.snapshot
	subscribers := make([]func(Snapshot), len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (e *Engine) recomputeLocked() {
	dateFiltered := FilterByDate(e.raw, e.selection, e.nowTime())
	filtered := FilterByEntities(dateFiltered, e.selection, e.dept)
	partition := PartitionRecords(filtered, e.excluded, e.unidentified)

	e.snapshot = Snapshot{
		Selection:   e.selection,
		Filtered:    filtered,
		Partition:   partition,
		KPI:         Summarize(partition),
		PerDay:      PerDay(partition.Valid, e.perDayOptions(partition.Valid)),
		TopClients:  PerEntity(partition.Valid, ClientKey, e.dept),
		TopAnalysts: PerEntity(partition.Valid, AnalystKey, e.dept),
		Analysis:    SortRecords(Search(filtered, e.searchTerm), e.sortCfg, e.dept),
	}
}

func (e *Engine) perDayOptions(valid []Record) PerDayOptions {
	if !e.fullCalendar || e.selection.Mode != PeriodSingle || MultiMonth(valid) {
		return PerDayOptions{}
	}

	year, month, ok := PeriodMonth(e.selection.PeriodID)
	if !ok {
		if y, err := strconv.Atoi(e.selection.Year); err == nil {
			now := e.nowTime()
			return PerDayOptions{FullCalendar: true, Year: y, Month: now.Month()}
		}
		return PerDayOptions{}
	}
	return PerDayOptions{FullCalendar: true, Year: year, Month: time.Month(month)}
}

func (c Catalog) hasPeriod(year, periodID string) bool {
	for _, p := range c[year] {
		if p.ID == periodID {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
