// Package export encodes report sheets into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"homescout/server/internal/models"
)

// Format is an output encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

var contentTypes = map[Format]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatJSON: "application/json",
}

// ParseFormat accepts a format name in any case, with or without a dot.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "."))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
	return f, nil
}

// ContentType returns the MIME type served for f.
func ContentType(f Format) string {
	return contentTypes[f]
}

// FileExtension returns the extension, with its dot, for f.
func FileExtension(f Format) string {
	return "." + string(f)
}

// Exporter turns a table of tables into bytes.
type Exporter struct {
	logger *logrus.Logger
}

func NewExporter(logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Exporter{logger: logger}
}

// Export encodes sheets in format.
func (e *Exporter) Export(sheets []models.ReportSheet, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatXLSX:
		data, err = e.xlsx(sheets)
	case FormatCSV:
		data, err = e.csv(sheets)
	case FormatJSON:
		data, err = json.MarshalIndent(sheets, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}

	e.logger.WithFields(logrus.Fields{
		"format": format,
		"sheets": len(sheets),
		"bytes":  len(data),
	}).Debug("Exported report")
	return data, nil
}

func (e *Exporter) xlsx(sheets []models.ReportSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if len(sheets) == 0 {
		sheets = []models.ReportSheet{{Name: "Report"}}
	}

	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}

		for r, row := range sheet.Rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}
			values := make([]any, len(row))
			copy(values, row)
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return nil, err
			}
		}
		if err := f.SetColWidth(name, "A", "A", 28); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// csv writes every sheet under a "# name" line, separated by blank lines.
func (e *Exporter) csv(sheets []models.ReportSheet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	for _, sheet := range sheets {
		if err := w.Write([]string{"# " + sheet.Name}); err != nil {
			return nil, err
		}
		for _, row := range sheet.Rows {
			record := make([]string, len(row))
			for i, cell := range row {
				record[i] = cellString(cell)
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		if err := w.Write(nil); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(val)
	}
}

// sheetName trims a name to the 31 characters a worksheet allows and
// removes characters excel rejects.
func sheetName(name string, index int) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet" + strconv.Itoa(index+1)
	}
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
