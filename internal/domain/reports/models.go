package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/domain/payroll"
)

type Kind string

const (
	KindProduction      Kind = "production"
	KindPayments        Kind = "payments"
	KindEmployeeSummary Kind = "employee_summary"
)

var Kinds = []Kind{KindProduction, KindPayments, KindEmployeeSummary}

// SummaryMode decides whether employees without activity in the window
// appear in an employee summary.
type SummaryMode string

const (
	IncludeAll      SummaryMode = "include_all"
	ExcludeInactive SummaryMode = "exclude_inactive"
)

const (
	AllEmployees         = "all"
	DeletedEmployeeLabel = "deleted employee"
)

// Snapshot is one consistent-enough read of the three collections. It is
// never mutated by this package.
type Snapshot struct {
	Employees  []payroll.Employee
	Production []payroll.ProductionLog
	Payments   []payroll.SalaryPayment
}

type Request struct {
	Kind       Kind        `json:"kind"`
	Range      DateRange   `json:"range"`
	EmployeeID string      `json:"employeeId"`
	Mode       SummaryMode `json:"mode"`
}

type SummaryRow struct {
	EmployeeID          string          `json:"employeeId"`
	EmployeeName        string          `json:"employeeName"`
	EmployeeCode        string          `json:"employeeCode"`
	Department          string          `json:"department"`
	TotalProductionCost decimal.Decimal `json:"totalProductionCost"`
	TotalPayments       decimal.Decimal `json:"totalPayments"`
	NetSalary           decimal.Decimal `json:"netSalary"`
	ProductionCount     int             `json:"productionCount"`
}

type ProductionRow struct {
	payroll.ProductionLog
	EmployeeName string `json:"employeeName"`
}

type PaymentRow struct {
	payroll.SalaryPayment
	EmployeeName string `json:"employeeName"`
}

// Meta echoes the query that produced a report. From and To are the
// effective bounds; To is already extended to the end of its day.
type Meta struct {
	Kind         Kind        `json:"kind"`
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
	EmployeeID   string      `json:"employeeId"`
	EmployeeName string      `json:"employeeName,omitempty"`
	Mode         SummaryMode `json:"mode,omitempty"`
	GeneratedAt  time.Time   `json:"generatedAt"`
}

// Report holds the rows for its Kind only; Total is the trailing grand total.
type Report struct {
	Meta       Meta            `json:"meta"`
	Production []ProductionRow `json:"production,omitempty"`
	Payments   []PaymentRow    `json:"payments,omitempty"`
	Summary    []SummaryRow    `json:"summary,omitempty"`
	Total      decimal.Decimal `json:"total"`
}

func (r Report) Rows() int {
	switch r.Meta.Kind {
	case KindProduction:
		return len(r.Production)
	case KindPayments:
		return len(r.Payments)
	case KindEmployeeSummary:
		return len(r.Summary)
	}
	return 0
}

type DashboardSummary struct {
	TotalCost              decimal.Decimal `json:"totalCost"`
	TotalPayments          decimal.Decimal `json:"totalPayments"`
	TotalNet               decimal.Decimal `json:"totalNet"`
	TotalEmployees         int             `json:"totalEmployees"`
	TotalProductionEntries int             `json:"totalProductionEntries"`
	TotalPaymentEntries    int             `json:"totalPaymentEntries"`
}
