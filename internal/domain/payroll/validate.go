package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"workshop/internal/domain/validation"
)

func ValidateEmployee(in EmployeeInput) error {
	v := &validation.Collector{}
	v.MinLength("name", in.Name, minNameLength)
	v.Required("employeeCode", in.EmployeeCode)
	v.MinLength("department", in.Department, minNameLength)
	return v.Err()
}

func ValidateProduction(in ProductionInput) error {
	v := &validation.Collector{}
	v.Required("employeeRef", in.EmployeeRef)
	if in.Date.IsZero() {
		v.Add("date", "is required")
	}
	checkCost(v, in.Count, in.ContainerSize, in.ProcessType)
	return v.Err()
}

// ValidateCost checks the fields that price a production entry.
func ValidateCost(count int, size ContainerSize, process ProcessType) error {
	v := &validation.Collector{}
	checkCost(v, count, size, process)
	return v.Err()
}

func checkCost(v *validation.Collector, count int, size ContainerSize, process ProcessType) {
	switch {
	case count < minCount:
		v.Add("count", fmt.Sprintf("must be at least %d", minCount))
	case count > maxCount:
		v.Add("count", fmt.Sprintf("must be at most %d", maxCount))
	}
	v.Enum("containerSize", string(size), enumValues(ContainerSizes)...)
	v.Enum("processType", string(process), enumValues(ProcessTypes)...)
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = string(value)
	}
	return out
}

func ValidatePayment(in PaymentInput) error {
	v := &validation.Collector{}
	v.Required("employeeRef", in.EmployeeRef)
	if in.Date.IsZero() {
		v.Add("date", "is required")
	}
	if in.Amount.LessThan(decimal.NewFromInt(minAmount)) {
		v.Add("amount", fmt.Sprintf("must be at least %d", minAmount))
	}
	return v.Err()
}

func normalizeEmployee(in EmployeeInput) EmployeeInput {
	return EmployeeInput{
		Name:         strings.TrimSpace(in.Name),
		EmployeeCode: strings.TrimSpace(in.EmployeeCode),
		Department:   strings.TrimSpace(in.Department),
	}
}
