package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadTableCSV(t *testing.T) {
	data := "name,amount,notes\n" +
		"\n" +
		"Hosting,100.00,\"says \"\"hi\"\", twice\"\n" +
		"   \n" +
		"Licenses,25.50\n"

	table, err := ReadTable(writeTempFile(t, "lines.csv", data))
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}

	if len(table.Headers) != 3 {
		t.Fatalf("expected 3 headers, got %v", table.Headers)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 records (blank lines discarded), got %d", len(table.Records))
	}
	if got := table.Records[0]["notes"]; got != `says "hi", twice` {
		t.Fatalf("quoted field mangled: %q", got)
	}
	if got := table.Records[1]["notes"]; got != "" {
		t.Fatalf("short row should pad with empty string, got %q", got)
	}
}

func TestReadTableCSVStripsByteOrderMark(t *testing.T) {
	data := "\uFEFFname,amount\nHosting,100.00\n"
	table, err := ReadTable(writeTempFile(t, "bom.csv", data))
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if got := table.Headers[0]; got != "name" {
		t.Fatalf("leading byte order mark should be stripped from the first header, got %q", got)
	}
	if got := table.Records[0]["name"]; got != "Hosting" {
		t.Fatalf("record lookup by clean header failed, got %q", got)
	}
}

func TestReadTableCSVDuplicateHeaderFirstColumnWins(t *testing.T) {
	data := "amount,amount\n10.00,20.00\n"
	table, err := ReadTable(writeTempFile(t, "dup.csv", data))
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if got := table.Records[0]["amount"]; got != "10.00" {
		t.Fatalf("expected first column to win, got %q", got)
	}
}

func TestReadTableUnsupportedExtension(t *testing.T) {
	_, err := ReadTable(writeTempFile(t, "lines.txt", "a,b\n1,2\n"))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestReadTableXLSXFirstSheetOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"name", "amount"},
		{" Hosting ", "100.00"},
		{},
		{"Licenses", "25.50"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if _, err := f.NewSheet("Ignored"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.SetCellValue("Ignored", "A1", "should not be read"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 records from first sheet, got %d", len(table.Records))
	}
	if got := table.Records[0]["name"]; got != "Hosting" {
		t.Fatalf("xlsx cells should be trimmed, got %q", got)
	}
}

func TestSplitDelimitedLine(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"a""b",c`, []string{`a"b`, "c"}},
		{"a,,c", []string{"a", "", "c"}},
		{`""`, []string{""}},
	}
	for _, tc := range cases {
		got := splitDelimitedLine(tc.line)
		if len(got) != len(tc.want) {
			t.Fatalf("line %q: got %v, want %v", tc.line, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("line %q: got %v, want %v", tc.line, got, tc.want)
			}
		}
	}
}
