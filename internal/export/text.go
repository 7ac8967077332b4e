package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"workshop/internal/domain/reports"
)

var (
	titleRule = strings.Repeat("=", 56)
	blockRule = strings.Repeat("-", 56)
)

// Text renders plain text. Employee summaries use one block per employee;
// production and payment reports are tab separated.
type Text struct {
	Formatter Formatter
}

func (r Text) Render(w io.Writer, report reports.Report) error {
	f := r.Formatter
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, titleFor(report.Meta.Kind))
	for _, line := range f.header(report) {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintln(bw, titleRule)
	fmt.Fprintln(bw)

	if report.Meta.Kind == reports.KindEmployeeSummary {
		for _, row := range report.Summary {
			fmt.Fprintf(bw, "Employee: %s\n", row.EmployeeName)
			fmt.Fprintf(bw, "Total production: %s\n", f.Money(row.TotalProductionCost))
			fmt.Fprintf(bw, "Total payments: %s\n", f.Money(row.TotalPayments))
			fmt.Fprintf(bw, "Net salary: %s\n", f.Money(row.NetSalary))
			fmt.Fprintln(bw, blockRule)
		}
		fmt.Fprintf(bw, "\nTotal net salaries: %s\n", f.Money(report.Total))
		return bw.Flush()
	}

	t := f.table(report)
	fmt.Fprintln(bw, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(bw, strings.Join(row, "\t"))
	}
	fmt.Fprintln(bw, blockRule)
	fmt.Fprintf(bw, "Total: %s\n", f.Money(report.Total))
	return bw.Flush()
}
