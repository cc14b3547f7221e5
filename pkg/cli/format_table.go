// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

// tableDisplayFormat identifies how rows are printed.
type tableDisplayFormat int

const (
	tableDisplayTable tableDisplayFormat = iota
	tableDisplayTSV
	tableDisplayCSV
	tableDisplayRecords
)

var tableDisplayNames = map[tableDisplayFormat]string{
	tableDisplayTable:   "table",
	tableDisplayTSV:     "tsv",
	tableDisplayCSV:     "csv",
	tableDisplayRecords: "records",
}

var _ pflag.Value = (*tableDisplayFormat)(nil)

// Type implements the pflag.Value interface.
func (f *tableDisplayFormat) Type() string { return "string" }

// String implements the pflag.Value interface.
func (f *tableDisplayFormat) String() string { return tableDisplayNames[*f] }

// Set implements the pflag.Value interface.
func (f *tableDisplayFormat) Set(s string) error {
	for k, v := range tableDisplayNames {
		if v == s {
			*f = k
			return nil
		}
	}
	return errors.Newf("invalid table display format: %s (possible values: table, tsv, csv, records)", s)
}

// rowStrIter is an iterator over formatted rows. It is used so that results
// can be streamed to the row formatters as they arrive from the stores.
type rowStrIter interface {
	Next() (row []string, err error)
}

// rowSliceIter is an implementation of the rowStrIter interface wrapping a
// slice of rows that have already been completely buffered into memory.
type rowSliceIter struct {
	allRows [][]string
	index   int
}

func (iter *rowSliceIter) Next() (row []string, err error) {
	if iter.index >= len(iter.allRows) {
		return nil, io.EOF
	}
	row = iter.allRows[iter.index]
	iter.index = iter.index + 1
	return row, nil
}

func newRowSliceIter(allRows [][]string) *rowSliceIter {
	return &rowSliceIter{allRows: allRows}
}

// printQueryOutput writes the rows produced by allRows to w in the given
// format, with cols as the header. It returns the number of rows printed.
// Rows printed before an error are kept in the output.
func printQueryOutput(
	w io.Writer, cols []string, allRows rowStrIter, displayFormat tableDisplayFormat,
) (int, error) {
	switch displayFormat {
	case tableDisplayTable:
		// The table is rendered once every row is known, to size the columns.
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader(cols)
		nRows := 0
		var err error
		for {
			var row []string
			row, err = allRows.Next()
			if err != nil {
				break
			}
			for i, r := range row {
				row[i] = expandTabsAndNewLines(r)
			}
			table.Append(row)
			nRows++
		}
		table.Render()
		fmt.Fprintf(w, "(%d row%s)\n", nRows, pluralize(nRows))
		if err == io.EOF {
			err = nil
		}
		return nRows, err

	case tableDisplayTSV, tableDisplayCSV:
		csvWriter := csv.NewWriter(w)
		if displayFormat == tableDisplayTSV {
			csvWriter.Comma = '\t'
		}
		_ = csvWriter.Write(cols)
		nRows := 0
		for {
			row, err := allRows.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				csvWriter.Flush()
				return nRows, err
			}
			_ = csvWriter.Write(row)
			nRows++
		}
		csvWriter.Flush()
		return nRows, csvWriter.Error()

	case tableDisplayRecords:
		maxColWidth := 0
		for _, col := range cols {
			colLen := utf8.RuneCountInString(col)
			if colLen > maxColWidth {
				maxColWidth = colLen
			}
		}

		for i := 0; ; i++ {
			row, err := allRows.Next()
			if err == io.EOF {
				return i, nil
			}
			if err != nil {
				return i, err
			}
			fmt.Fprintf(w, "-[ RECORD %d ]\n", i+1)
			for j, r := range row {
				lines := strings.Split(r, "\n")
				for l, line := range lines {
					colLabel := cols[j]
					if l > 0 {
						colLabel = ""
					}
					fmt.Fprintf(w, "%-*s | %s\n", maxColWidth, colLabel, line)
				}
			}
		}
	}
	return 0, errors.AssertionFailedf("unhandled display format %d", displayFormat)
}

// expandTabsAndNewLines ensures that multi-line row strings that may
// contain tabs are properly formatted: tabs are expanded to spaces, and
// newline characters are marked visually.
func expandTabsAndNewLines(s string) string {
	var buf strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := 8 - col%8
			buf.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			buf.WriteString("␤")
			col = 0
		default:
			buf.WriteRune(r)
			col++
		}
	}
	return buf.String()
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
