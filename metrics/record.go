// Package metrics owns the filter selection and the derived computations
// over raw interaction records: period resolution, date and entity filters,
// validity partition, per-day and per-entity aggregation, free-text search
// and column sort. Every pass is a pure function over its inputs; the
// Engine wires them into a recompute pipeline.
package metrics

import (
	"fmt"
	"regexp"
	"strings"
)

// Backend field names of an interaction record.
const (
	FieldDate      = "Data"
	FieldTime      = "Hora"
	FieldDay       = "Dia"
	FieldAnalyst   = "Atendido por"
	FieldClient    = "Cliente_Final"
	FieldClientAlt = "CLIENTE"
	FieldContact   = "Contato"

	// FieldDepartment is a computed column, resolved through the
	// department map at sort time.
	FieldDepartment = "Department"
)

// Record is a raw interaction entry as delivered by the backend. Records
// are immutable once fetched; all derived values are computed on read.
type Record map[string]any

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	brDatePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// Field returns the string representation of a field, "" when absent.
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Analyst returns the raw analyst identifier.
func (r Record) Analyst() string {
	return r.Field(FieldAnalyst)
}

// Client returns the client identifier, falling back to the legacy column.
func (r Record) Client() string {
	if c := r.Field(FieldClient); c != "" {
		return c
	}
	return r.Field(FieldClientAlt)
}

// Contact returns the contact identifier.
func (r Record) Contact() string {
	return r.Field(FieldContact)
}

// RawDate extracts the yyyy-mm-dd portion of the record's date composite,
// tolerating "T" and space separated datetime strings and dd/MM/yyyy input.
// Returns "" when the record carries no date.
func (r Record) RawDate() string {
	raw := r.Field(FieldDate)
	if i := strings.IndexAny(raw, "T "); i >= 0 {
		raw = raw[:i]
	}
	if brDatePattern.MatchString(raw) {
		parts := strings.Split(raw, "/")
		return parts[2] + "-" + parts[1] + "-" + parts[0]
	}
	return raw
}

// Day returns the calendar-day key used for per-day grouping: the explicit
// "Dia" field when present, else the date part of the composite.
func (r Record) Day() string {
	if day := r.Field(FieldDay); day != "" {
		return day
	}
	return r.RawDate()
}

// DateTimeParts splits the record's date/time composite for display:
// dd/MM/yyyy date plus HH:MM time. A separate "Hora" field wins over the
// time embedded in the composite.
func (r Record) DateTimeParts() (dateStr, timeStr string) {
	dateStr = r.Field(FieldDate)
	timeStr = r.Field(FieldTime)

	for _, sep := range []string{"T", " "} {
		if strings.Contains(dateStr, sep) {
			parts := strings.SplitN(dateStr, sep, 2)
			dateStr = parts[0]
			if timeStr == "" && len(parts) > 1 && len(parts[1]) >= 5 {
				timeStr = parts[1][:5]
			}
			break
		}
	}

	if isoDatePattern.MatchString(dateStr) {
		parts := strings.Split(dateStr, "-")
		dateStr = parts[2] + "/" + parts[1] + "/" + parts[0]
	}
	return dateStr, timeStr
}
