package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HallyG/xerograb/internal/model"
)

type RowType string

const (
	RowTypeHeader     RowType = "Header"
	RowTypeSection    RowType = "Section"
	RowTypeRow        RowType = "Row"
	RowTypeSummaryRow RowType = "SummaryRow"
)

const titleSeparator = " - "

var ErrNoReport = errors.New("payload contains no report")

type Attribute struct {
	ID    string `json:"Id"`
	Value string `json:"Value"`
}

type Cell struct {
	Value      string      `json:"Value"`
	Attributes []Attribute `json:"Attributes,omitempty"`
}

type Row struct {
	RowType RowType `json:"RowType"`
	Title   string  `json:"Title,omitempty"`
	Cells   []Cell  `json:"Cells,omitempty"`
	Rows    []Row   `json:"Rows,omitempty"`
}

// Report is the canonical form of a generated report.
type Report struct {
	ReportID       string
	ReportName     string
	ReportType     string
	ReportTitle    string
	ReportDate     string // YYYY-MM-DD, or empty when absent or unparsable
	UpdatedDateUTC time.Time
	Rows           []Row
}

type payload struct {
	Reports []struct {
		ReportID       string   `json:"ReportID"`
		ReportName     string   `json:"ReportName"`
		ReportType     string   `json:"ReportType"`
		ReportTitle    string   `json:"ReportTitle"`
		ReportTitles   []string `json:"ReportTitles"`
		ReportDate     string   `json:"ReportDate"`
		UpdatedDateUTC string   `json:"UpdatedDateUTC"`
		Rows           []Row    `json:"Rows"`
	} `json:"Reports"`
}

var reportDateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
}

// Decode normalizes a reports payload into its first report. Absent text fields become empty
// strings and an absent update time defaults to now.
func Decode(data []byte) (*Report, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	if len(p.Reports) == 0 {
		return nil, ErrNoReport
	}

	raw := p.Reports[0]

	title := raw.ReportTitle
	if len(raw.ReportTitles) > 0 {
		title = strings.Join(raw.ReportTitles, titleSeparator)
	}

	updated := time.Now().UTC()
	if raw.UpdatedDateUTC != "" {
		t, err := model.ParseTime(raw.UpdatedDateUTC)
		if err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		updated = t.UTC()
	}

	return &Report{
		ReportID:       raw.ReportID,
		ReportName:     raw.ReportName,
		ReportType:     raw.ReportType,
		ReportTitle:    strings.TrimSpace(title),
		ReportDate:     normalizeDate(raw.ReportDate),
		UpdatedDateUTC: updated,
		Rows:           raw.Rows,
	}, nil
}

func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	for _, layout := range reportDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly)
		}
	}

	if t, err := model.ParseTime(value); err == nil {
		return t.Format(time.DateOnly)
	}

	return ""
}

func (c Cell) firstAttribute() (Attribute, bool) {
	if len(c.Attributes) == 0 {
		return Attribute{}, false
	}

	return c.Attributes[0], true
}

// requestDate returns the second cell of the leading header row, which holds the as-of date.
func (r *Report) requestDate() string {
	if len(r.Rows) == 0 {
		return ""
	}

	header := r.Rows[0]
	if len(header.Cells) < 2 {
		return ""
	}

	return header.Cells[1].Value
}

// sections returns the Section rows after the leading header row.
func (r *Report) sections() []Row {
	if len(r.Rows) < 2 {
		return nil
	}

	sections := make([]Row, 0, len(r.Rows)-1)
	for _, row := range r.Rows[1:] {
		if row.RowType == RowTypeSection {
			sections = append(sections, row)
		}
	}

	return sections
}
