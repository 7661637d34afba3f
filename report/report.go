// Package report renders filtered interaction records as downloadable
// exports in the formats the dashboard produces.
package report

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/taxbase/metricshub/metrics"
)

// Status labels of an exported row.
const (
	StatusValid        = "Válido"
	StatusUnidentified = "Não Identificado"
	StatusInternal     = "Interno/Ignorar"
)

// CSV column order.
var csvHeader = []string{"Data", "Hora", "Analista", "Departamento", "Contato", "Cliente_Final", "Status"}

// Exporter writes interaction reports. The sentinel lists mirror the
// engine's partition configuration so the Status column agrees with the
// KPI figures.
type Exporter struct {
	excluded     map[string]struct{}
	unidentified string
	dept         metrics.DeptFunc
}

// NewExporter creates an Exporter. dept may be nil, in which case the
// department column is left blank.
func NewExporter(excluded []string, unidentified string, dept metrics.DeptFunc) *Exporter {
	set := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		set[name] = struct{}{}
	}
	return &Exporter{excluded: set, unidentified: unidentified, dept: dept}
}

// Status classifies a record the way the partition does: the unidentified
// sentinel wins over the excluded set so the unresolved bucket is visible
// in the export.
func (e *Exporter) Status(rec metrics.Record) string {
	client := rec.Client()
	if e.unidentified != "" && client == e.unidentified {
		return StatusUnidentified
	}
	if _, skip := e.excluded[client]; skip {
		return StatusInternal
	}
	return StatusValid
}

// WriteCSV writes the records as a semicolon-separated CSV with a UTF-8
// BOM, matching what spreadsheet tools in pt-BR locales expect.
func (e *Exporter) WriteCSV(w io.Writer, records []metrics.Record) error {
	var b strings.Builder
	b.WriteString("\uFEFF")
	b.WriteString(strings.Join(csvHeader, ";"))
	b.WriteString("\n")

	for _, rec := range records {
		dateStr, timeStr := rec.DateTimeParts()
		department := ""
		if e.dept != nil {
			department = e.dept(rec.Analyst())
		}
		row := []string{
			dateStr,
			timeStr,
			strings.ToUpper(rec.Analyst()),
			department,
			rec.Contact(),
			rec.Client(),
			e.Status(rec),
		}
		for i, cell := range row {
			row[i] = sanitizeCell(cell)
		}
		b.WriteString(strings.Join(row, ";"))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "[WriteCSV] write report")
	}
	return nil
}

// Filename derives the export file name from the current selection.
func Filename(sel metrics.Selection) string {
	period := sel.PeriodID
	if period == "" || period == metrics.FilterAll {
		period = "todos"
	}
	year := sel.Year
	if year == "" {
		year = "geral"
	}
	name := "atendimentos_" + year + "_" + period + ".csv"
	return strings.ReplaceAll(name, "/", "-")
}

// sanitizeCell strips the separator and line breaks so a free-text field
// cannot shift columns.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, ";", ",")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
