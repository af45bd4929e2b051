package export

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"homescout/server/internal/models"
)

func newTestExporter() *Exporter {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExporter(logger)
}

func sampleSheets() []models.ReportSheet {
	summary := models.ReportSheet{Name: "Executive Summary"}
	summary.AddRow("Metric", "Value")
	summary.AddRow("Total Listings", 3)
	summary.AddRow("Average Price", 312500.5)
	summary.AddRow()
	summary.AddRow("Prices in Austin, TX are rising.")

	details := models.ReportSheet{Name: "Property Details"}
	details.AddRow("ID", "Price per Sqft")
	details.AddRow("p1", "N/A")
	return []models.ReportSheet{summary, details}
}

func TestExportXLSX(t *testing.T) {
	data, err := newTestExporter().Export(sampleSheets(), FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Executive Summary", "Property Details"}, f.GetSheetList())

	rows, err := f.GetRows("Executive Summary")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 5)
	assert.Equal(t, []string{"Total Listings", "3"}, rows[1])
	assert.Equal(t, "Prices in Austin, TX are rising.", rows[4][0])

	value, err := f.GetCellValue("Property Details", "B2")
	require.NoError(t, err)
	assert.Equal(t, "N/A", value)
}

func TestExportCSV(t *testing.T) {
	data, err := newTestExporter().Export(sampleSheets(), FormatCSV)
	require.NoError(t, err)

	want := strings.Join([]string{
		"# Executive Summary",
		"Metric,Value",
		"Total Listings,3",
		"Average Price,312500.5",
		"",
		`"Prices in Austin, TX are rising."`,
		"",
		"# Property Details",
		"ID,Price per Sqft",
		"p1,N/A",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, string(data))
}

func TestExportJSON(t *testing.T) {
	data, err := newTestExporter().Export(sampleSheets(), FormatJSON)
	require.NoError(t, err)

	var decoded []struct {
		Name string  `json:"name"`
		Rows [][]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Property Details", decoded[1].Name)
	assert.Equal(t, []any{"p1", "N/A"}, decoded[1].Rows[1])
	assert.Empty(t, decoded[0].Rows[3])
}

func TestExportUnsupported(t *testing.T) {
	_, err := newTestExporter().Export(sampleSheets(), Format("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		raw     string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{" .CSV ", FormatCSV, false},
		{"Json", FormatJSON, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFormat(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentTypeAndExtension(t *testing.T) {
	assert.Equal(t, ".xlsx", FileExtension(FormatXLSX))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
	assert.Equal(t, "application/json", ContentType(FormatJSON))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Q1-Q2 Sales", sheetName("Q1/Q2 Sales", 0))
	assert.Equal(t, "Sheet3", sheetName("  ", 2))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40), 0)), 31)
}
