package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFileType is returned when the file extension is neither
// .csv nor .xlsx. It is fatal to the whole call; no rows are processed.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var byteOrderMark = "\uFEFF"

// Table is the parsed source file: the header row plus one header→value
// record per data row. Records use first-match positional alignment, so a
// duplicated header keeps its first column. Rows shorter than the header
// list are padded with empty strings.
type Table struct {
	Headers []string
	Records []map[string]string
}

// ReadTable dispatches on the file extension and parses the file into a
// Table. CSV files are split on line breaks with blank lines discarded;
// xlsx files contribute only their first sheet.
func ReadTable(path string) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		payload, err := os.ReadFile(path)
		if err != nil {
			return Table{}, fmt.Errorf("failed to read csv file: %w", err)
		}
		return parseCSV(string(payload))
	case ".xlsx":
		return parseExcel(path)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
}

func parseCSV(payload string) (Table, error) {
	payload = strings.TrimPrefix(payload, byteOrderMark)

	var lines []string
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Table{}, errors.New("no rows found in file")
	}

	headers := splitDelimitedLine(lines[0])
	for i, header := range headers {
		headers[i] = strings.TrimSpace(header)
	}
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, splitDelimitedLine(line))
	}

	return buildTable(headers, rows), nil
}

func parseExcel(path string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("excel file has no sheets")
	}

	// Only the first sheet is read.
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	var headers []string
	var rows [][]string
	for _, row := range grid {
		trimmed := make([]string, len(row))
		empty := true
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
			if trimmed[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if headers == nil {
			headers = trimmed
			continue
		}
		rows = append(rows, trimmed)
	}
	if headers == nil {
		return Table{}, errors.New("no rows found in file")
	}

	return buildTable(headers, rows), nil
}

// splitDelimitedLine tokenizes one comma-separated line. Fields may be
// enclosed in double quotes; doubled quotes inside a quoted field escape a
// literal quote, and quoted fields may contain embedded commas.
func splitDelimitedLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, current.String())
	return fields
}

func buildTable(headers []string, rows [][]string) Table {
	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		row = padRow(row, len(headers))
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if _, seen := record[header]; seen {
				// Duplicate header; the first column wins.
				continue
			}
			record[header] = row[i]
		}
		records = append(records, record)
	}
	return Table{Headers: headers, Records: records}
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
