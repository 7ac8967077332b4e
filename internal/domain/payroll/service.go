package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/validation"
)

// Service is the record mutation boundary. Every write checks the actor's
// permissions, validates input and recomputes production cost.
type Service struct {
	store    StoreAPI
	now      func() time.Time
	newID    func() string
	onChange func(context.Context)
}

type Option func(*Service)

// WithOnChange registers fn to run after every successful write.
func WithOnChange(fn func(context.Context)) Option {
	return func(s *Service) { s.onChange = fn }
}

func NewService(store StoreAPI, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) CreateEmployee(ctx context.Context, actor auth.Actor, in EmployeeInput) (Employee, error) {
	if err := actor.Require(auth.PermCreate); err != nil {
		return Employee{}, err
	}
	in = normalizeEmployee(in)
	if err := ValidateEmployee(in); err != nil {
		return Employee{}, err
	}
	now := s.now().UTC()
	employee := Employee{
		ID:           s.newID(),
		Name:         in.Name,
		EmployeeCode: in.EmployeeCode,
		Department:   in.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.SaveEmployee(ctx, employee); err != nil {
		return Employee{}, fmt.Errorf("save employee: %w", err)
	}
	s.changed(ctx)
	return employee, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, actor auth.Actor, id string, in EmployeeInput) (Employee, error) {
	if err := actor.Require(auth.PermUpdate); err != nil {
		return Employee{}, err
	}
	employee, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	in = normalizeEmployee(in)
	if err := ValidateEmployee(in); err != nil {
		return Employee{}, err
	}
	employee.Name = in.Name
	employee.EmployeeCode = in.EmployeeCode
	employee.Department = in.Department
	employee.UpdatedAt = s.now().UTC()
	if err := s.store.SaveEmployee(ctx, employee); err != nil {
		return Employee{}, fmt.Errorf("save employee: %w", err)
	}
	s.changed(ctx)
	return employee, nil
}

// DeleteEmployee does not cascade; logs and payments that reference the
// employee stay and are reported under a placeholder name.
func (s *Service) DeleteEmployee(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(auth.PermDelete); err != nil {
		return err
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// ListProduction returns logs newest first.
func (s *Service) ListProduction(ctx context.Context) ([]ProductionLog, error) {
	logs, err := s.store.ListProduction(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date.After(logs[j].Date) })
	return logs, nil
}

func (s *Service) GetProduction(ctx context.Context, id string) (ProductionLog, error) {
	return s.store.GetProduction(ctx, id)
}

func (s *Service) CreateProduction(ctx context.Context, actor auth.Actor, in ProductionInput) (ProductionLog, error) {
	if err := actor.Require(auth.PermCreate); err != nil {
		return ProductionLog{}, err
	}
	if err := s.validateProduction(ctx, in); err != nil {
		return ProductionLog{}, err
	}
	now := s.now().UTC()
	log := ProductionLog{
		ID:        s.newID(),
		CreatedAt: now,
	}
	applyProduction(&log, in, now)
	if err := s.store.SaveProduction(ctx, log); err != nil {
		return ProductionLog{}, fmt.Errorf("save production log: %w", err)
	}
	s.changed(ctx)
	return log, nil
}

func (s *Service) UpdateProduction(ctx context.Context, actor auth.Actor, id string, in ProductionInput) (ProductionLog, error) {
	if err := actor.Require(auth.PermUpdate); err != nil {
		return ProductionLog{}, err
	}
	log, err := s.store.GetProduction(ctx, id)
	if err != nil {
		return ProductionLog{}, err
	}
	if err := s.validateProduction(ctx, in); err != nil {
		return ProductionLog{}, err
	}
	applyProduction(&log, in, s.now().UTC())
	if err := s.store.SaveProduction(ctx, log); err != nil {
		return ProductionLog{}, fmt.Errorf("save production log: %w", err)
	}
	s.changed(ctx)
	return log, nil
}

func (s *Service) DeleteProduction(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(auth.PermDelete); err != nil {
		return err
	}
	if err := s.store.DeleteProduction(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// ListPayments returns payments newest first.
func (s *Service) ListPayments(ctx context.Context) ([]SalaryPayment, error) {
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.After(payments[j].Date) })
	return payments, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (SalaryPayment, error) {
	return s.store.GetPayment(ctx, id)
}

func (s *Service) CreatePayment(ctx context.Context, actor auth.Actor, in PaymentInput) (SalaryPayment, error) {
	if err := actor.Require(auth.PermCreate); err != nil {
		return SalaryPayment{}, err
	}
	if err := s.validatePayment(ctx, in); err != nil {
		return SalaryPayment{}, err
	}
	now := s.now().UTC()
	payment := SalaryPayment{
		ID:          s.newID(),
		EmployeeRef: in.EmployeeRef,
		Date:        in.Date,
		Amount:      in.Amount,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SavePayment(ctx, payment); err != nil {
		return SalaryPayment{}, fmt.Errorf("save payment: %w", err)
	}
	s.changed(ctx)
	return payment, nil
}

func (s *Service) UpdatePayment(ctx context.Context, actor auth.Actor, id string, in PaymentInput) (SalaryPayment, error) {
	if err := actor.Require(auth.PermUpdate); err != nil {
		return SalaryPayment{}, err
	}
	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return SalaryPayment{}, err
	}
	if err := s.validatePayment(ctx, in); err != nil {
		return SalaryPayment{}, err
	}
	payment.EmployeeRef = in.EmployeeRef
	payment.Date = in.Date
	payment.Amount = in.Amount
	payment.Notes = strings.TrimSpace(in.Notes)
	payment.UpdatedAt = s.now().UTC()
	if err := s.store.SavePayment(ctx, payment); err != nil {
		return SalaryPayment{}, fmt.Errorf("save payment: %w", err)
	}
	s.changed(ctx)
	return payment, nil
}

func (s *Service) DeletePayment(ctx context.Context, actor auth.Actor, id string) error {
	if err := actor.Require(auth.PermDelete); err != nil {
		return err
	}
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func applyProduction(log *ProductionLog, in ProductionInput, now time.Time) {
	log.EmployeeRef = in.EmployeeRef
	log.Date = in.Date
	log.Count = in.Count
	log.ContainerSize = in.ContainerSize
	log.ProcessType = in.ProcessType
	log.Cost = CalculateCost(in.Count, in.ContainerSize, in.ProcessType)
	log.UpdatedAt = now
}

func (s *Service) validateProduction(ctx context.Context, in ProductionInput) error {
	return s.withEmployeeRef(ctx, in.EmployeeRef, ValidateProduction(in))
}

func (s *Service) validatePayment(ctx context.Context, in PaymentInput) error {
	return s.withEmployeeRef(ctx, in.EmployeeRef, ValidatePayment(in))
}

// withEmployeeRef adds an employeeRef issue when the reference names no
// employee. It is a boundary check only; nothing keeps references valid later.
func (s *Service) withEmployeeRef(ctx context.Context, ref string, fieldErr error) error {
	verr, _ := validation.As(fieldErr)
	if fieldErr != nil && verr == nil {
		return fieldErr
	}
	if strings.TrimSpace(ref) != "" {
		_, err := s.store.GetEmployee(ctx, ref)
		switch {
		case errors.Is(err, ErrEmployeeNotFound):
			if verr == nil {
				verr = &validation.Error{}
			}
			verr.Issues = append(verr.Issues, validation.Issue{Field: "employeeRef", Reason: "must reference an existing employee"})
		case err != nil:
			return fmt.Errorf("lookup employee: %w", err)
		}
	}
	if verr == nil {
		return nil
	}
	return verr
}
