package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"workshop/internal/domain/payroll"
)

// Assembler turns a snapshot and a request into a report.
type Assembler struct {
	Sort RowSorter
	Now  func() time.Time
}

func NewAssembler() Assembler {
	return Assembler{Sort: SortByNetSalary, Now: time.Now}
}

// Build runs the default assembler.
func Build(snapshot Snapshot, req Request) (Report, error) {
	return NewAssembler().Build(snapshot, req)
}

// EmployeeReport is the all-time summary of every employee, including
// those without any activity.
func EmployeeReport(snapshot Snapshot) Report {
	report, _ := Build(snapshot, Request{Kind: KindEmployeeSummary, EmployeeID: AllEmployees, Mode: IncludeAll})
	return report
}

func (a Assembler) Build(snapshot Snapshot, req Request) (Report, error) {
	if _, err := ParseKind(string(req.Kind)); err != nil {
		return Report{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ExcludeInactive
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Report{}, err
	}

	names := employeeNames(snapshot.Employees)
	effective := req.Range.Effective()
	meta := Meta{
		Kind:        req.Kind,
		From:        effective.From,
		To:          effective.To,
		EmployeeID:  AllEmployees,
		Mode:        mode,
		GeneratedAt: a.now(),
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if !IsAllEmployees(employeeID) {
		meta.EmployeeID = employeeID
		meta.EmployeeName = resolveName(names, employeeID)
	}

	logs := FilterByEmployee(FilterByDate(snapshot.Production, req.Range), employeeID)
	payments := FilterByEmployee(FilterByDate(snapshot.Payments, req.Range), employeeID)

	report := Report{Meta: meta}
	switch req.Kind {
	case KindProduction:
		rows := make([]ProductionRow, 0, len(logs))
		for _, log := range logs {
			rows = append(rows, ProductionRow{ProductionLog: log, EmployeeName: resolveName(names, log.EmployeeRef)})
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
		report.Production = rows
		report.Total = TotalCost(logs)
	case KindPayments:
		rows := make([]PaymentRow, 0, len(payments))
		for _, payment := range payments {
			rows = append(rows, PaymentRow{SalaryPayment: payment, EmployeeName: resolveName(names, payment.EmployeeRef)})
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
		report.Payments = rows
		report.Total = TotalAmount(payments)
	case KindEmployeeSummary:
		employees := snapshot.Employees
		if !IsAllEmployees(employeeID) {
			employees = selectEmployee(snapshot.Employees, employeeID)
		}
		sorter := a.Sort
		if sorter == nil {
			sorter = SortByNetSalary
		}
		rows := sorter(Summarize(employees, logs, payments, mode))
		if rows == nil {
			rows = []SummaryRow{}
		}
		report.Summary = rows
		report.Total = TotalNet(rows)
	}
	return report, nil
}

func (a Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds {
		if kind == known {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// ParseMode accepts the empty string as the ad-hoc default.
func ParseMode(raw string) (SummaryMode, error) {
	switch mode := SummaryMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ExcludeInactive, nil
	case IncludeAll, ExcludeInactive:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

func employeeNames(employees []payroll.Employee) map[string]string {
	names := make(map[string]string, len(employees))
	for _, employee := range employees {
		if _, ok := names[employee.ID]; !ok {
			names[employee.ID] = employee.Name
		}
	}
	return names
}

func resolveName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return DeletedEmployeeLabel
}

func selectEmployee(employees []payroll.Employee, id string) []payroll.Employee {
	for _, employee := range employees {
		if employee.ID == id {
			return []payroll.Employee{employee}
		}
	}
	return nil
}
