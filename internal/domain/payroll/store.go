package payroll

import (
	"context"
	"errors"

	"workshop/internal/store"
)

// Store keeps the three record collections in one backend.
type Store struct {
	Employees  *store.Collection[Employee]
	Production *store.Collection[ProductionLog]
	Payments   *store.Collection[SalaryPayment]
}

func NewStore(backend store.Backend) *Store {
	return &Store{
		Employees:  store.NewCollection[Employee](backend, store.CollectionEmployees),
		Production: store.NewCollection[ProductionLog](backend, store.CollectionProduction),
		Payments:   store.NewCollection[SalaryPayment](backend, store.CollectionPayments),
	}
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.Employees.List(ctx)
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	employee, err := s.Employees.Get(ctx, id)
	return employee, notFound(err, ErrEmployeeNotFound)
}

func (s *Store) SaveEmployee(ctx context.Context, employee Employee) error {
	return s.Employees.Put(ctx, employee.ID, employee)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return notFound(s.Employees.Delete(ctx, id), ErrEmployeeNotFound)
}

func (s *Store) ListProduction(ctx context.Context) ([]ProductionLog, error) {
	return s.Production.List(ctx)
}

func (s *Store) GetProduction(ctx context.Context, id string) (ProductionLog, error) {
	log, err := s.Production.Get(ctx, id)
	return log, notFound(err, ErrProductionNotFound)
}

func (s *Store) SaveProduction(ctx context.Context, log ProductionLog) error {
	return s.Production.Put(ctx, log.ID, log)
}

func (s *Store) DeleteProduction(ctx context.Context, id string) error {
	return notFound(s.Production.Delete(ctx, id), ErrProductionNotFound)
}

func (s *Store) ListPayments(ctx context.Context) ([]SalaryPayment, error) {
	return s.Payments.List(ctx)
}

func (s *Store) GetPayment(ctx context.Context, id string) (SalaryPayment, error) {
	payment, err := s.Payments.Get(ctx, id)
	return payment, notFound(err, ErrPaymentNotFound)
}

func (s *Store) SavePayment(ctx context.Context, payment SalaryPayment) error {
	return s.Payments.Put(ctx, payment.ID, payment)
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	return notFound(s.Payments.Delete(ctx, id), ErrPaymentNotFound)
}

func notFound(err, domainErr error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainErr
	}
	return err
}

func (s *Store) WatchEmployees(ctx context.Context) (<-chan []Employee, error) {
	return s.Employees.Watch(ctx)
}

func (s *Store) WatchProduction(ctx context.Context) (<-chan []ProductionLog, error) {
	return s.Production.Watch(ctx)
}

func (s *Store) WatchPayments(ctx context.Context) (<-chan []SalaryPayment, error) {
	return s.Payments.Watch(ctx)
}
