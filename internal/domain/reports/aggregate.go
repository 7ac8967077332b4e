package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"workshop/internal/domain/payroll"
)

// RowSorter orders summary rows for presentation. It must not modify its input.
type RowSorter func(rows []SummaryRow) []SummaryRow

// Summarize folds logs and payments into one row per employee, in employee
// order. Records referencing unknown employees are ignored.
func Summarize(employees []payroll.Employee, logs []payroll.ProductionLog, payments []payroll.SalaryPayment, mode SummaryMode) []SummaryRow {
	rows := make([]SummaryRow, len(employees))
	index := make(map[string]int, len(employees))
	for i, employee := range employees {
		rows[i] = SummaryRow{
			EmployeeID:          employee.ID,
			EmployeeName:        employee.Name,
			EmployeeCode:        employee.EmployeeCode,
			Department:          employee.Department,
			TotalProductionCost: decimal.Zero,
			TotalPayments:       decimal.Zero,
		}
		if _, dup := index[employee.ID]; !dup {
			index[employee.ID] = i
		}
	}

	for _, log := range logs {
		i, ok := index[log.EmployeeRef]
		if !ok {
			continue
		}
		rows[i].TotalProductionCost = rows[i].TotalProductionCost.Add(log.Cost)
		rows[i].ProductionCount++
	}
	for _, payment := range payments {
		i, ok := index[payment.EmployeeRef]
		if !ok {
			continue
		}
		rows[i].TotalPayments = rows[i].TotalPayments.Add(payment.Amount)
	}

	out := rows[:0]
	for _, row := range rows {
		row.NetSalary = row.TotalProductionCost.Sub(row.TotalPayments)
		if mode == ExcludeInactive && row.TotalProductionCost.IsZero() && row.TotalPayments.IsZero() {
			continue
		}
		out = append(out, row)
	}
	return out
}

// SortByNetSalary returns a copy ordered by net salary, highest first.
// Equal rows keep their input order.
func SortByNetSalary(rows []SummaryRow) []SummaryRow {
	out := make([]SummaryRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NetSalary.GreaterThan(out[j].NetSalary)
	})
	return out
}

func TotalNet(rows []SummaryRow) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.NetSalary)
	}
	return total
}

func TotalCost(logs []payroll.ProductionLog) decimal.Decimal {
	total := decimal.Zero
	for _, log := range logs {
		total = total.Add(log.Cost)
	}
	return total
}

func TotalAmount(payments []payroll.SalaryPayment) decimal.Decimal {
	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}
	return total
}
