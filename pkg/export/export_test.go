package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Date", "Start", "End"},
		Rows: []map[string]string{
			{"Date": "2026-09-07", "Start": "09:00", "End": "09:30"},
			{"Date": "2026-09-07", "Start": "09:30", "End": "10:00"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Date,Start,End", lines[0])
	require.Equal(t, "2026-09-07,09:00,09:30", lines[1])
}

func TestCSVExporterRendersMissingCellsEmpty(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Date", "Start", "End"},
		Rows:    []map[string]string{{"Date": "2026-09-07"}},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Equal(t, "2026-09-07,,", lines[1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	data := Dataset{
		Headers: []string{"Date", "Start"},
		Rows:    []map[string]string{{"Date": "2026-09-07", "Start": "09:00"}},
	}

	out, err := exporter.Render(data, "weekly agenda")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "%PDF"))
}
