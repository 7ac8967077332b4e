package payroll

import "context"

type StoreAPI interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	SaveEmployee(ctx context.Context, employee Employee) error
	DeleteEmployee(ctx context.Context, id string) error

	ListProduction(ctx context.Context) ([]ProductionLog, error)
	GetProduction(ctx context.Context, id string) (ProductionLog, error)
	SaveProduction(ctx context.Context, log ProductionLog) error
	DeleteProduction(ctx context.Context, id string) error

	ListPayments(ctx context.Context) ([]SalaryPayment, error)
	GetPayment(ctx context.Context, id string) (SalaryPayment, error)
	SavePayment(ctx context.Context, payment SalaryPayment) error
	DeletePayment(ctx context.Context, id string) error
}
