package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/metrics"
	"github.com/taxbase/metricshub/report"
)

var (
	testExcluded     = []string{"TAXBASE INTERNO", "IGNORAR", "NÃO IDENTIFICADO"}
	testUnidentified = "NÃO IDENTIFICADO"
)

func TestExporterStatus(t *testing.T) {
	e := report.NewExporter(testExcluded, testUnidentified, nil)

	require.Equal(t, report.StatusValid, e.Status(metrics.Record{"Cliente_Final": "ACME"}))
	require.Equal(t, report.StatusInternal, e.Status(metrics.Record{"Cliente_Final": "TAXBASE INTERNO"}))
	require.Equal(t, report.StatusUnidentified, e.Status(metrics.Record{"Cliente_Final": "NÃO IDENTIFICADO"}),
		"the unidentified sentinel wins over the excluded set")
}

func TestWriteCSV(t *testing.T) {
	deptOf := func(analyst string) string { return "FISCAL" }
	e := report.NewExporter(testExcluded, testUnidentified, deptOf)

	records := []metrics.Record{
		{
			"Data":          "2025-04-02T14:30:00",
			"Atendido por":  "ana souza",
			"Contato":       "41 99999-8888",
			"Cliente_Final": "ACME",
		},
		{
			"Data":          "2025-04-03T09:00:00",
			"Atendido por":  "bia",
			"Cliente_Final": "NÃO IDENTIFICADO",
		},
	}

	var buf strings.Builder
	require.NoError(t, e.WriteCSV(&buf, records))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, "\uFEFF"), "pt-BR spreadsheet tools expect a BOM")

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "\uFEFFData;Hora;Analista;Departamento;Contato;Cliente_Final;Status", lines[0])
	require.Equal(t, "02/04/2025;14:30;ANA SOUZA;FISCAL;41 99999-8888;ACME;Válido", lines[1])
	require.Equal(t, "03/04/2025;09:00;BIA;FISCAL;;NÃO IDENTIFICADO;Não Identificado", lines[2])
}

func TestWriteCSVSanitizesCells(t *testing.T) {
	e := report.NewExporter(nil, "", nil)
	records := []metrics.Record{
		{"Cliente_Final": "ACME; FILIAL\nSUL"},
	}

	var buf strings.Builder
	require.NoError(t, e.WriteCSV(&buf, records))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2, "embedded separators must not add rows")
	require.Equal(t, 6, strings.Count(lines[1], ";"), "embedded separators must not add columns")
}

func TestFilename(t *testing.T) {
	sel := metrics.NewSelection()
	sel.Year = "2025"
	sel.PeriodID = "dados/2025_04"
	require.Equal(t, "atendimentos_2025_dados-2025_04.csv", report.Filename(sel))

	require.Equal(t, "atendimentos_geral_todos.csv", report.Filename(metrics.NewSelection()))
}
