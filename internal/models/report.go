package models

import "time"

// ReportSheet is a named table. Cells are strings or numbers.
type ReportSheet struct {
	Name string  `json:"name"`
	Rows [][]any `json:"rows"`
}

// AddRow appends one row of cells. No cells adds a blank spacer row.
func (s *ReportSheet) AddRow(cells ...any) {
	if cells == nil {
		cells = []any{}
	}
	s.Rows = append(s.Rows, cells)
}

// Report is the synthesized output for one location.
type Report struct {
	Title       string        `json:"title"`
	Variant     string        `json:"variant"`
	Location    string        `json:"location"`
	GeneratedAt time.Time     `json:"generated_at"`
	Sheets      []ReportSheet `json:"sheets"`
}
