package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/pay"
	"github.com/xuri/excelize/v2"
)

// UserExport is one user's slice of a multi-user export.
type UserExport struct {
	Name    string
	Records []models.WorkRecord
}

// ExportService renders record collections into spreadsheet workbooks.
// It consumes only the pay calculator's outputs; amounts are aggregated
// first and rounded to whole units only when written into cells.
type ExportService struct{}

func NewExportService() *ExportService { return &ExportService{} }

var detailHeaders = []string{"Date", "Name", "Project", "Workload", "Overtime", "Unit Price", "Overtime Rate", "Pay", "Note"}
var summaryHeaders = []string{"Project", "Records", "Workload", "Overtime", "Base Pay", "Overtime Pay", "Subtotal"}

// Workbook builds a single-user export: one sheet of detail rows and one
// sheet of per-project aggregates with a grand-total row.
func (s *ExportService) Workbook(records []models.WorkRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Details"); err != nil {
		return nil, err
	}
	if err := s.writeDetailSheet(f, "Details", records); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet("Summary"); err != nil {
		return nil, err
	}
	if err := s.writeSummarySheet(f, "Summary", records); err != nil {
		return nil, err
	}
	return f, nil
}

// MultiUserWorkbook builds an admin export: an overview sheet of per-user
// totals plus one detail sheet per user.
func (s *ExportService) MultiUserWorkbook(groups []UserExport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Overview"); err != nil {
		return nil, err
	}
	for i, h := range []string{"Name", "Records", "Workload", "Overtime", "Total Pay"} {
		if err := f.SetCellValue("Overview", cell(i, 1), h); err != nil {
			return nil, err
		}
	}
	var grandTotal float64
	for i, g := range groups {
		row := i + 2
		var workload, overtime float64
		for _, r := range g.Records {
			workload += r.Workload
			overtime += r.Overtime
		}
		total := pay.TotalPay(g.Records)
		grandTotal += total
		f.SetCellValue("Overview", cell(0, row), g.Name)
		f.SetCellValue("Overview", cell(1, row), len(g.Records))
		f.SetCellValue("Overview", cell(2, row), workload)
		f.SetCellValue("Overview", cell(3, row), overtime)
		f.SetCellValue("Overview", cell(4, row), math.Round(total))
	}
	totalRow := len(groups) + 2
	f.SetCellValue("Overview", cell(0, totalRow), "Grand Total")
	f.SetCellValue("Overview", cell(4, totalRow), math.Round(grandTotal))

	used := map[string]bool{"Overview": true}
	for _, g := range groups {
		sheet := uniqueSheetName(used, g.Name)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := s.writeDetailSheet(f, sheet, g.Records); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *ExportService) writeDetailSheet(f *excelize.File, sheet string, records []models.WorkRecord) error {
	for i, h := range detailHeaders {
		if err := f.SetCellValue(sheet, cell(i, 1), h); err != nil {
			return err
		}
	}
	for idx, r := range records {
		row := idx + 2
		f.SetCellValue(sheet, cell(0, row), r.RecordDate.Format("2006-01-02"))
		f.SetCellValue(sheet, cell(1, row), r.UserName)
		f.SetCellValue(sheet, cell(2, row), r.ProjectName)
		f.SetCellValue(sheet, cell(3, row), r.Workload)
		f.SetCellValue(sheet, cell(4, row), r.Overtime)
		f.SetCellValue(sheet, cell(5, row), r.UnitPriceSnapshot)
		f.SetCellValue(sheet, cell(6, row), r.OvertimeRateSnapshot)
		f.SetCellValue(sheet, cell(7, row), math.Round(pay.RecordPay(r)))
		f.SetCellValue(sheet, cell(8, row), r.Note)
	}
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "C", 16)
	f.SetColWidth(sheet, "I", "I", 30)
	return nil
}

func (s *ExportService) writeSummarySheet(f *excelize.File, sheet string, records []models.WorkRecord) error {
	for i, h := range summaryHeaders {
		if err := f.SetCellValue(sheet, cell(i, 1), h); err != nil {
			return err
		}
	}
	breakdown := pay.SalaryBreakdown(records)
	for idx, g := range breakdown {
		row := idx + 2
		f.SetCellValue(sheet, cell(0, row), g.ProjectName)
		f.SetCellValue(sheet, cell(1, row), g.Count)
		f.SetCellValue(sheet, cell(2, row), g.Workload)
		f.SetCellValue(sheet, cell(3, row), g.Overtime)
		f.SetCellValue(sheet, cell(4, row), math.Round(g.BasePay))
		f.SetCellValue(sheet, cell(5, row), math.Round(g.OvertimePay))
		f.SetCellValue(sheet, cell(6, row), math.Round(g.Subtotal))
	}
	totalRow := len(breakdown) + 2
	f.SetCellValue(sheet, cell(0, totalRow), "Grand Total")
	f.SetCellValue(sheet, cell(6, totalRow), math.Round(pay.TotalPay(records)))
	f.SetColWidth(sheet, "A", "A", 20)
	return nil
}

// cell converts zero-based column plus one-based row to an A1 reference.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// uniqueSheetName sanitizes a display name and disambiguates it against
// already-taken sheet names. Distinct users whose names sanitize or truncate
// to the same string would otherwise share one sheet; "Overview" is taken
// from the start.
func uniqueSheetName(used map[string]bool, name string) string {
	base := sheetName(name)
	candidate := base
	for n := 2; used[candidate]; n++ {
		suffix := "_" + strconv.Itoa(n)
		runes := []rune(base)
		if len(runes)+len(suffix) > 31 {
			runes = runes[:31-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[candidate] = true
	return candidate
}

// sheetName sanitizes a display name into a legal sheet name (31 chars max,
// no []:*?/\ characters).
func sheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, name)
	if cleaned == "" {
		cleaned = "user"
	}
	runes := []rune(cleaned)
	if len(runes) > 31 {
		cleaned = string(runes[:31])
	}
	return cleaned
}
