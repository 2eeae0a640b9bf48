package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleTable() Table {
	return Table{
		Title:    "Disponibilidad Unidad U-12",
		Subtitle: "2025-10-20 a 2025-10-22",
		Headers:  []string{"Fecha", "Dia", "Estado", "Detalle"},
		Rows: [][]string{
			{"2025-10-20", "LUNES", "PERMANENT", "Itinerario Ruta Norte"},
			{"2025-10-21", "MARTES", "FREE", "Sin asignacion"},
			{"2025-10-22", "MIERCOLES", "EXCEPTIONAL", "Ruta R-9"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	data, err := NewCSVExporter().Render(scheduleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Fecha,Dia,Estado,Detalle", lines[0])
	assert.Contains(t, lines[3], "EXCEPTIONAL")
}

func TestCSVExporterRejectsEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestCSVExporterPadsRaggedRows(t *testing.T) {
	table := scheduleTable()
	table.Rows = append(table.Rows, []string{"2025-10-23"})

	data, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "2025-10-23,,,", lines[4])
}

func TestPDFExporterRender(t *testing.T) {
	data, err := NewPDFExporter().Render(scheduleTable())
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestColumnWidthsSpanPage(t *testing.T) {
	widths := columnWidths(scheduleTable(), 277.0)
	require.Len(t, widths, 4)

	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, 277.0, sum, 0.01)
}
