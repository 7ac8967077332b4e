package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	EmployeeCode string    `json:"employeeCode"`
	Department   string    `json:"department"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductionLog records units produced by one employee. EmployeeRef holds
// Employee.ID, never the human-readable EmployeeCode.
type ProductionLog struct {
	ID            string          `json:"id"`
	EmployeeRef   string          `json:"employeeRef"`
	Date          time.Time       `json:"date"`
	Count         int             `json:"count"`
	ContainerSize ContainerSize   `json:"containerSize"`
	ProcessType   ProcessType     `json:"processType"`
	Cost          decimal.Decimal `json:"cost"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (l ProductionLog) RecordDate() time.Time { return l.Date }
func (l ProductionLog) Owner() string         { return l.EmployeeRef }

type SalaryPayment struct {
	ID          string          `json:"id"`
	EmployeeRef string          `json:"employeeRef"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p SalaryPayment) RecordDate() time.Time { return p.Date }
func (p SalaryPayment) Owner() string         { return p.EmployeeRef }

type EmployeeInput struct {
	Name         string `json:"name"`
	EmployeeCode string `json:"employeeCode"`
	Department   string `json:"department"`
}

type ProductionInput struct {
	EmployeeRef   string
	Date          time.Time
	Count         int
	ContainerSize ContainerSize
	ProcessType   ProcessType
}

type PaymentInput struct {
	EmployeeRef string
	Date        time.Time
	Amount      decimal.Decimal
	Notes       string
}
