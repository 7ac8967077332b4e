package payroll

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrProductionNotFound = errors.New("production log not found")
	ErrPaymentNotFound    = errors.New("salary payment not found")
)
