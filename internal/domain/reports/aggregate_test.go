package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/domain/payroll"
)

func employee(id, name string) payroll.Employee {
	return payroll.Employee{ID: id, Name: name, EmployeeCode: "C-" + id}
}

func production(id, ref string, at time.Time, count int, size payroll.ContainerSize, process payroll.ProcessType) payroll.ProductionLog {
	return payroll.ProductionLog{
		ID:            id,
		EmployeeRef:   ref,
		Date:          at,
		Count:         count,
		ContainerSize: size,
		ProcessType:   process,
		Cost:          payroll.CalculateCost(count, size, process),
	}
}

func payment(id, ref string, at time.Time, amount int64) payroll.SalaryPayment {
	return payroll.SalaryPayment{ID: id, EmployeeRef: ref, Date: at, Amount: decimal.NewFromInt(amount)}
}

func TestSummarizeSingleEmployee(t *testing.T) {
	rows := Summarize(
		[]payroll.Employee{employee("ali", "Ali")},
		[]payroll.ProductionLog{production("p1", "ali", day(2024, 1, 5), 10, payroll.ContainerLarge, payroll.ProcessBlown)},
		[]payroll.SalaryPayment{payment("s1", "ali", day(2024, 1, 6), 10)},
		ExcludeInactive,
	)

	require.Len(t, rows, 1)
	assert.Equal(t, "30", rows[0].TotalProductionCost.String())
	assert.Equal(t, "10", rows[0].TotalPayments.String())
	assert.Equal(t, "20", rows[0].NetSalary.String())
	assert.Equal(t, 1, rows[0].ProductionCount)
	assert.Equal(t, "20", TotalNet(rows).String())
}

func TestSummarizeNetIdentity(t *testing.T) {
	employees := []payroll.Employee{employee("e1", "A"), employee("e2", "B"), employee("e3", "C")}
	logs := []payroll.ProductionLog{
		production("p1", "e1", day(2024, 1, 1), 7, payroll.ContainerLarge, payroll.ProcessRolled),
		production("p2", "e2", day(2024, 1, 2), 3, payroll.ContainerSmall, payroll.ProcessBlown),
		production("p3", "e1", day(2024, 1, 3), 2, payroll.ContainerLarge, payroll.ProcessBlown),
		production("p4", "ghost", day(2024, 1, 3), 50, payroll.ContainerLarge, payroll.ProcessBlown),
	}
	payments := []payroll.SalaryPayment{
		payment("s1", "e1", day(2024, 1, 4), 5),
		payment("s2", "e3", day(2024, 1, 4), 9),
		payment("s3", "ghost", day(2024, 1, 4), 100),
	}

	rows := Summarize(employees, logs, payments, IncludeAll)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.True(t, row.NetSalary.Equal(row.TotalProductionCost.Sub(row.TotalPayments)), row.EmployeeID)
	}
	assert.Equal(t, "20", rows[0].TotalProductionCost.String())
	assert.Equal(t, 2, rows[0].ProductionCount)
	assert.Equal(t, "-9", rows[2].NetSalary.String())

	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(row.NetSalary)
	}
	assert.True(t, sum.Equal(TotalNet(rows)))
	assert.Equal(t, "9", TotalNet(rows).String())
}

func TestSummarizeModes(t *testing.T) {
	employees := []payroll.Employee{employee("e1", "Busy"), employee("e2", "Idle")}
	logs := []payroll.ProductionLog{production("p1", "e1", day(2024, 1, 1), 1, payroll.ContainerSmall, payroll.ProcessRolled)}

	all := Summarize(employees, logs, nil, IncludeAll)
	require.Len(t, all, 2)
	assert.Equal(t, "Idle", all[1].EmployeeName)
	assert.True(t, all[1].NetSalary.IsZero())
	assert.Equal(t, 0, all[1].ProductionCount)

	active := Summarize(employees, logs, nil, ExcludeInactive)
	require.Len(t, active, 1)
	assert.Equal(t, "e1", active[0].EmployeeID)
}

func TestSummarizeKeepsPaymentOnlyEmployee(t *testing.T) {
	rows := Summarize(
		[]payroll.Employee{employee("e1", "Advance")},
		nil,
		[]payroll.SalaryPayment{payment("s1", "e1", day(2024, 1, 1), 15)},
		ExcludeInactive,
	)
	require.Len(t, rows, 1)
	assert.Equal(t, "-15", rows[0].NetSalary.String())
}

func TestSortByNetSalaryIsStableAndDescending(t *testing.T) {
	rows := []SummaryRow{
		{EmployeeID: "a", NetSalary: decimal.NewFromInt(5)},
		{EmployeeID: "b", NetSalary: decimal.NewFromInt(20)},
		{EmployeeID: "c", NetSalary: decimal.NewFromInt(5)},
		{EmployeeID: "d", NetSalary: decimal.NewFromInt(-3)},
		{EmployeeID: "e", NetSalary: decimal.NewFromInt(20)},
	}

	sorted := SortByNetSalary(rows)
	var order []string
	for _, row := range sorted {
		order = append(order, row.EmployeeID)
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, order)
	assert.Equal(t, "a", rows[0].EmployeeID)
}

func TestTotals(t *testing.T) {
	logs := []payroll.ProductionLog{
		production("p1", "e1", day(2024, 1, 1), 4, payroll.ContainerLarge, payroll.ProcessBlown),
		production("p2", "e1", day(2024, 1, 1), 4, payroll.ContainerSmall, payroll.ProcessRolled),
	}
	payments := []payroll.SalaryPayment{payment("s1", "e1", day(2024, 1, 1), 7), payment("s2", "e1", day(2024, 1, 1), 8)}

	assert.Equal(t, "16", TotalCost(logs).String())
	assert.Equal(t, "15", TotalAmount(payments).String())
	assert.True(t, TotalNet(nil).IsZero())
}
