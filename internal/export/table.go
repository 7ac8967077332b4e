package export

import (
	"fmt"

	"workshop/internal/domain/reports"
)

type table struct {
	title   string
	headers []string
	rows    [][]string
	total   []string
}

func titleFor(kind reports.Kind) string {
	switch kind {
	case reports.KindProduction:
		return "Production Report"
	case reports.KindPayments:
		return "Salary Payments Report"
	case reports.KindEmployeeSummary:
		return "Employee Salary Summary"
	}
	return "Report"
}

// header lines describe the query: period, employee filter and export date.
func (f Formatter) header(report reports.Report) []string {
	period := "all time"
	switch from, to := report.Meta.From, report.Meta.To; {
	case !from.IsZero() && !to.IsZero():
		period = fmt.Sprintf("%s - %s", f.Date(from), f.Date(to))
	case !from.IsZero():
		period = "from " + f.Date(from)
	case !to.IsZero():
		period = "until " + f.Date(to)
	}
	employee := "all employees"
	if !reports.IsAllEmployees(report.Meta.EmployeeID) {
		employee = report.Meta.EmployeeName
		if employee == "" {
			employee = report.Meta.EmployeeID
		}
	}
	return []string{
		"Period: " + period,
		"Employee: " + employee,
		"Exported: " + f.Date(f.now()),
	}
}

func (f Formatter) table(report reports.Report) table {
	t := table{title: titleFor(report.Meta.Kind)}
	switch report.Meta.Kind {
	case reports.KindProduction:
		t.headers = []string{"Employee", "Date", "Count", "Size", "Process", "Cost"}
		for _, row := range report.Production {
			t.rows = append(t.rows, []string{
				row.EmployeeName,
				f.Date(row.Date),
				fmt.Sprintf("%d", row.Count),
				string(row.ContainerSize),
				string(row.ProcessType),
				f.Money(row.Cost),
			})
		}
		t.total = []string{"Total", "", "", "", "", f.Money(report.Total)}
	case reports.KindPayments:
		t.headers = []string{"Employee", "Date", "Amount", "Notes"}
		for _, row := range report.Payments {
			notes := row.Notes
			if notes == "" {
				notes = emptyNotes
			}
			t.rows = append(t.rows, []string{row.EmployeeName, f.Date(row.Date), f.Money(row.Amount), notes})
		}
		t.total = []string{"Total", "", f.Money(report.Total), ""}
	case reports.KindEmployeeSummary:
		t.headers = []string{"Employee", "Code", "Production", "Payments", "Net Salary", "Entries"}
		for _, row := range report.Summary {
			t.rows = append(t.rows, []string{
				row.EmployeeName,
				row.EmployeeCode,
				f.Money(row.TotalProductionCost),
				f.Money(row.TotalPayments),
				f.Money(row.NetSalary),
				fmt.Sprintf("%d", row.ProductionCount),
			})
		}
		t.total = []string{"Total net salaries", "", "", "", f.Money(report.Total), ""}
	}
	return t
}
