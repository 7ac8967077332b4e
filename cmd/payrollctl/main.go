// Command payrollctl prints and downloads payroll reports from a running
// workshop server.
//
//	payrollctl [global flags] report -kind employee_summary -from 2024-01-01 -to 2024-01-31
//	payrollctl [global flags] export -kind payments -format pdf -out payments.pdf
//	payrollctl [global flags] dashboard
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"workshop/internal/client"
	"workshop/internal/domain/reports"
	"workshop/internal/export"
	"workshop/internal/platform/logger"
)

func main() {
	server := flag.String("server", envOr("WORKSHOP_URL", "http://localhost:8080"), "workshop server base URL")
	token := flag.String("token", os.Getenv("WORKSHOP_TOKEN"), "bearer token; skips login when set")
	email := flag.String("email", os.Getenv("WORKSHOP_EMAIL"), "login email")
	password := flag.String("password", os.Getenv("WORKSHOP_PASSWORD"), "login password")
	currency := flag.String("currency", export.DefaultCurrencySuffix, "currency suffix for printed amounts")
	flag.Usage = usage
	flag.Parse()

	log := logger.Must(logger.New("development"))
	defer func() { _ = log.Sync() }()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(client.Config{BaseURL: *server, Token: *token})
	if *token == "" {
		if _, err := api.Login(ctx, *email, *password); err != nil {
			log.Fatal("login failed", zap.Error(err))
		}
	}

	formatter := export.NewFormatter(*currency)
	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "report":
		err = runReport(ctx, api, formatter, args)
	case "export":
		err = runExport(ctx, api, args)
	case "dashboard":
		err = runDashboard(ctx, api, formatter)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal("command failed", zap.Error(err))
	}
}

func runReport(ctx context.Context, api *client.APIClient, formatter export.Formatter, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	q := queryFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	query, err := q()
	if err != nil {
		return err
	}

	var report reports.Report
	if query.Kind == "" {
		report, err = api.EmployeeReport(ctx)
	} else {
		report, err = api.Report(ctx, query)
	}
	if err != nil {
		return err
	}
	return export.Text{Formatter: formatter}.Render(os.Stdout, report)
}

func runExport(ctx context.Context, api *client.APIClient, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	q := queryFlags(fs)
	rawFormat := fs.String("format", string(export.FormatPDF), "txt, pdf, xlsx or csv")
	out := fs.String("out", "", "output file; defaults to the server-suggested name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query, err := q()
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(*rawFormat)
	if err != nil {
		return err
	}

	body, name, err := api.Export(ctx, query, format)
	if err != nil {
		return err
	}
	if *out != "" {
		name = *out
	}
	if err := os.WriteFile(name, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", name, len(body))
	return nil
}

func runDashboard(ctx context.Context, api *client.APIClient, formatter export.Formatter) error {
	summary, err := api.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Employees:           %d\n", summary.TotalEmployees)
	fmt.Printf("Production entries:  %d\n", summary.TotalProductionEntries)
	fmt.Printf("Payment entries:     %d\n", summary.TotalPaymentEntries)
	fmt.Printf("Total cost:          %s\n", formatter.Money(summary.TotalCost))
	fmt.Printf("Total paid:          %s\n", formatter.Money(summary.TotalPayments))
	fmt.Printf("Net salaries:        %s\n", formatter.Money(summary.TotalNet))
	return nil
}

// queryFlags registers the shared report flags and returns a parser for them.
// An empty -kind selects the all-time employee report.
func queryFlags(fs *flag.FlagSet) func() (client.Query, error) {
	kind := fs.String("kind", "", "production, payments or employee_summary")
	from := fs.String("from", "", "start date (YYYY-MM-DD)")
	to := fs.String("to", "", "end date (YYYY-MM-DD), inclusive")
	employee := fs.String("employee", reports.AllEmployees, "employee id or \"all\"")
	mode := fs.String("mode", "", "include_all or exclude_inactive")
	return func() (client.Query, error) {
		q := client.Query{EmployeeID: *employee, Mode: reports.SummaryMode(*mode)}
		if strings.TrimSpace(*kind) != "" {
			parsed, err := reports.ParseKind(*kind)
			if err != nil {
				return client.Query{}, err
			}
			q.Kind = parsed
		}
		var errs []error
		q.From, errs = parseDay(*from, "from", errs)
		q.To, errs = parseDay(*to, "to", errs)
		return q, errors.Join(errs...)
	}
}

func parseDay(raw, name string, errs []error) (time.Time, []error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errs
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, append(errs, fmt.Errorf("-%s: %w", name, err))
	}
	return t, errs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: payrollctl [flags] report|export|dashboard [command flags]\n\n")
	flag.PrintDefaults()
}
