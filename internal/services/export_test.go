package services

import (
	"testing"
	"time"

	"github.com/diewo77/go-worklog/internal/models"
)

func exportRecords() []models.WorkRecord {
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	return []models.WorkRecord{
		{UserName: "alice", ProjectName: "roofing", Workload: 5, Overtime: 2, UnitPriceSnapshot: 30, OvertimeRateSnapshot: 9, RecordDate: day},
		{UserName: "alice", ProjectName: "attendance", Workload: 1, UnitPriceSnapshot: 200, OvertimeRateSnapshot: 9, RecordDate: day.AddDate(0, 0, 1)},
	}
}

func TestWorkbookSheetsAndTotals(t *testing.T) {
	f, err := NewExportService().Workbook(exportRecords())
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Details" || sheets[1] != "Summary" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	// Detail pay cell: 5*30 + 2*9 = 168.
	got, err := f.GetCellValue("Details", "H2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if got != "168" {
		t.Fatalf("expected detail pay 168 got %q", got)
	}

	// Summary grand total: 168 + 200 = 368 in column G below the two
	// project rows.
	got, err = f.GetCellValue("Summary", "G4")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if got != "368" {
		t.Fatalf("expected grand total 368 got %q", got)
	}
	label, _ := f.GetCellValue("Summary", "A4")
	if label != "Grand Total" {
		t.Fatalf("expected grand total label got %q", label)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	f, err := NewExportService().Workbook(nil)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()
	got, err := f.GetCellValue("Summary", "G2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if got != "0" {
		t.Fatalf("empty export should carry a zero total, got %q", got)
	}
}

func TestMultiUserWorkbook(t *testing.T) {
	groups := []UserExport{
		{Name: "alice", Records: exportRecords()},
		{Name: "bob/([x])*?:very-long-name-that-needs-truncation", Records: nil},
	}
	f, err := NewExportService().MultiUserWorkbook(groups)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheets[0] != "Overview" || len(sheets) != 3 {
		t.Fatalf("unexpected sheets: %v", sheets)
	}
	for _, s := range sheets {
		if len([]rune(s)) > 31 {
			t.Fatalf("sheet name exceeds limit: %q", s)
		}
	}

	total, err := f.GetCellValue("Overview", "E2")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if total != "368" {
		t.Fatalf("expected alice total 368 got %q", total)
	}
	grand, _ := f.GetCellValue("Overview", "E4")
	if grand != "368" {
		t.Fatalf("expected grand total 368 got %q", grand)
	}
}

func TestMultiUserWorkbookDisambiguatesSheetNames(t *testing.T) {
	recs := exportRecords()
	groups := []UserExport{
		// Both sanitize to "dup_name".
		{Name: "dup*name", Records: recs[:1]},
		{Name: "dup:name", Records: recs[1:]},
		// Must not clobber the overview sheet.
		{Name: "Overview", Records: nil},
	}
	f, err := NewExportService().MultiUserWorkbook(groups)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 4 {
		t.Fatalf("each group needs its own sheet: %v", sheets)
	}
	seen := map[string]bool{}
	for _, s := range sheets {
		if seen[s] {
			t.Fatalf("duplicate sheet name %q in %v", s, sheets)
		}
		seen[s] = true
	}
	if !seen["dup_name"] || !seen["dup_name_2"] || !seen["Overview_2"] {
		t.Fatalf("unexpected sheet names: %v", sheets)
	}

	// The second group's rows live on its own sheet, not over the first's.
	first, _ := f.GetCellValue("dup_name", "C2")
	second, _ := f.GetCellValue("dup_name_2", "C2")
	if first != "roofing" || second != "attendance" {
		t.Fatalf("rows landed on wrong sheets: %q %q", first, second)
	}
	// Overview header survives intact.
	if h, _ := f.GetCellValue("Overview", "A1"); h != "Name" {
		t.Fatalf("overview sheet clobbered: %q", h)
	}
}
