// Package sheet extracts header-keyed rows from spreadsheet workbooks.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/godilite/victim-dashboards/internal/classify"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// XLSXParser reads the first worksheet of a workbook. The first row is the header;
// cells missing from shorter rows default to "".
type XLSXParser struct{}

// Parse returns one record per non-empty data row.
func (XLSXParser) Parse(r io.Reader) ([]classify.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return Records(rows), nil
}

// Records converts raw rows, the first being the header, into records.
func Records(rows [][]string) []classify.Record {
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	out := make([]classify.Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		rec := make(classify.Record, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(cells) {
				rec[name] = cells[i]
			} else {
				rec[name] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
