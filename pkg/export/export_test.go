package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"codice", "cliente"},
		Rows: []map[string]string{
			{"codice": "ART-1", "cliente": "Rossi"},
			{"codice": "ART-2"},
		},
	}
}

func TestCSVExporterKeepsColumnOrder(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "codice,cliente\nART-1,Rossi\nART-2,\n", string(payload))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestXLSXExporterRoundTrip(t *testing.T) {
	payload, err := NewXLSXExporter().Render(sampleDataset(), "Articoli")
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer wb.Close() //nolint:errcheck

	rows, err := wb.GetRows("Articoli")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"codice", "cliente"}, rows[0])
	assert.Equal(t, "ART-1", rows[1][0])
}

func TestXLSXExporterSanitizesSheetNames(t *testing.T) {
	payload, err := NewXLSXExporter().RenderWorkbook([]Sheet{
		{Name: "Cliente: A/B", Data: sampleDataset()},
	})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer wb.Close() //nolint:errcheck
	assert.Equal(t, []string{"Cliente_ A_B"}, wb.GetSheetList())
}

func TestPDFExporterRendersDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "Lista di prelievo")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestPDFExporterRendersLabels(t *testing.T) {
	payload, err := NewPDFExporter().RenderLabels([]LabelBlock{
		{Lines: []LabelLine{{Caption: "Codice", Value: "ART-1"}}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestPDFExporterLabelsRequireBlocks(t *testing.T) {
	_, err := NewPDFExporter().RenderLabels(nil)
	require.Error(t, err)
}
