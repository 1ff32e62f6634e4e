// Package pay computes derived pay from work records. All functions are
// pure: pay is fully determined by the record's own snapshot fields, so
// nothing here touches the rate catalog or branches on project identity.
package pay

import (
	"github.com/diewo77/go-worklog/internal/models"
)

// RecordPay returns the monetary amount for a single record:
// unit price snapshot times workload, plus overtime hours times the
// overtime rate snapshot. The same formula covers ordinary project pay and
// attendance-day pay because the effective rate (unit price or daily wage)
// was already resolved into UnitPriceSnapshot at write time.
// Inputs are assumed non-negative; negatives are rejected at the write
// boundary, not clamped here.
func RecordPay(r models.WorkRecord) float64 {
	return r.UnitPriceSnapshot*r.Workload + r.Overtime*r.OvertimeRateSnapshot
}

// TotalPay sums RecordPay over all records.
func TotalPay(records []models.WorkRecord) float64 {
	var total float64
	for _, r := range records {
		total += RecordPay(r)
	}
	return total
}

// ProjectBreakdown aggregates one project group of a salary breakdown.
type ProjectBreakdown struct {
	ProjectName string  `json:"project_name"`
	Count       int     `json:"count"`
	Workload    float64 `json:"workload"`
	Overtime    float64 `json:"overtime"`
	BasePay     float64 `json:"base_pay"`
	OvertimePay float64 `json:"overtime_pay"`
	Subtotal    float64 `json:"subtotal"`
}

// SalaryBreakdown groups records by exact project name (case-sensitive) and
// aggregates each group. Groups are returned in first-appearance order. The
// sum of group subtotals equals TotalPay over the same records. Callers
// round for display only; nothing is rounded here.
func SalaryBreakdown(records []models.WorkRecord) []ProjectBreakdown {
	index := make(map[string]int)
	groups := make([]ProjectBreakdown, 0)
	for _, r := range records {
		i, ok := index[r.ProjectName]
		if !ok {
			i = len(groups)
			index[r.ProjectName] = i
			groups = append(groups, ProjectBreakdown{ProjectName: r.ProjectName})
		}
		g := &groups[i]
		g.Count++
		g.Workload += r.Workload
		g.Overtime += r.Overtime
		g.BasePay += r.UnitPriceSnapshot * r.Workload
		g.OvertimePay += r.Overtime * r.OvertimeRateSnapshot
		g.Subtotal = g.BasePay + g.OvertimePay
	}
	return groups
}
