package reports_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/payroll"
	"workshop/internal/domain/reports"
	"workshop/internal/store"
	"workshop/internal/store/memory"
)

var (
	admin  = auth.NewActor("admin", "Admin", auth.RoleAdmin, nil)
	viewer = auth.NewActor("u1", "Viewer", auth.RoleUser, []auth.Permission{auth.PermViewReports})
	clerk  = auth.NewActor("u2", "Clerk", auth.RoleUser, []auth.Permission{auth.PermCreate})
)

type fixture struct {
	backend *memory.Store
	data    *payroll.Store
	payroll *payroll.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := memory.New()
	t.Cleanup(func() { _ = backend.Close() })
	data := payroll.NewStore(backend)
	return fixture{backend: backend, data: data, payroll: payroll.NewService(data)}
}

func (f fixture) seedAli(t *testing.T) payroll.Employee {
	t.Helper()
	ctx := context.Background()
	ali, err := f.payroll.CreateEmployee(ctx, admin, payroll.EmployeeInput{Name: "Ali", EmployeeCode: "E-001", Department: "Blowing"})
	require.NoError(t, err)
	_, err = f.payroll.CreateProduction(ctx, admin, payroll.ProductionInput{
		EmployeeRef:   ali.ID,
		Date:          time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		Count:         10,
		ContainerSize: payroll.ContainerLarge,
		ProcessType:   payroll.ProcessBlown,
	})
	require.NoError(t, err)
	_, err = f.payroll.CreatePayment(ctx, admin, payroll.PaymentInput{
		EmployeeRef: ali.ID,
		Date:        time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return ali
}

func january() reports.DateRange {
	return reports.DateRange{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

type memoryCache struct {
	mu          sync.Mutex
	generation  int64
	items       map[string]reports.Report
	gets        int
	invalidated int
}

func entryKey(generation int64, key string) string {
	return strconv.FormatInt(generation, 10) + "|" + key
}

func (c *memoryCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *memoryCache) Get(_ context.Context, generation int64, key string, dst *reports.Report) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	report, ok := c.items[entryKey(generation, key)]
	if ok {
		*dst = report
	}
	return ok, nil
}

func (c *memoryCache) Set(_ context.Context, generation int64, key string, report reports.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]reports.Report{}
	}
	c.items[entryKey(generation, key)] = report
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.items = nil
	c.invalidated++
	return nil
}

func (c *memoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type countingRecorder struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *countingRecorder) RecordReport(_ string, cached bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached {
		r.hits++
	} else {
		r.misses++
	}
}

type failingSource struct{}

func (failingSource) ListEmployees(context.Context) ([]payroll.Employee, error) {
	return nil, errors.New("boom")
}

func (failingSource) ListProduction(context.Context) ([]payroll.ProductionLog, error) {
	return nil, nil
}

func (failingSource) ListPayments(context.Context) ([]payroll.SalaryPayment, error) {
	return nil, nil
}

func TestGenerateAliScenario(t *testing.T) {
	f := newFixture(t)
	f.seedAli(t)
	svc := reports.NewService(f.data)

	report, err := svc.Generate(context.Background(), viewer, reports.Request{
		Kind:       reports.KindEmployeeSummary,
		Range:      january(),
		EmployeeID: reports.AllEmployees,
	})
	require.NoError(t, err)
	require.Len(t, report.Summary, 1)
	assert.Equal(t, "Ali", report.Summary[0].EmployeeName)
	assert.Equal(t, "E-001", report.Summary[0].EmployeeCode)
	assert.Equal(t, "30", report.Summary[0].TotalProductionCost.String())
	assert.Equal(t, "10", report.Summary[0].TotalPayments.String())
	assert.Equal(t, "20", report.Summary[0].NetSalary.String())
	assert.Equal(t, "20", report.Total.String())
}

func TestGenerateRequiresViewReports(t *testing.T) {
	f := newFixture(t)
	svc := reports.NewService(f.data)

	_, err := svc.Generate(context.Background(), clerk, reports.Request{Kind: reports.KindProduction})
	assert.True(t, errors.Is(err, auth.ErrForbidden))

	_, err = svc.EmployeeReport(context.Background(), clerk)
	assert.True(t, errors.Is(err, auth.ErrForbidden))
}

func TestGenerateRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	svc := reports.NewService(f.data)

	_, err := svc.Generate(context.Background(), admin, reports.Request{Kind: "overtime"})
	assert.True(t, errors.Is(err, reports.ErrUnknownKind))
}

func TestGenerateAfterEmployeeDeleted(t *testing.T) {
	f := newFixture(t)
	ali := f.seedAli(t)
	require.NoError(t, f.payroll.DeleteEmployee(context.Background(), admin, ali.ID))
	svc := reports.NewService(f.data)

	production, err := svc.Generate(context.Background(), admin, reports.Request{Kind: reports.KindProduction, Range: january()})
	require.NoError(t, err)
	require.Len(t, production.Production, 1)
	assert.Equal(t, reports.DeletedEmployeeLabel, production.Production[0].EmployeeName)

	summary, err := svc.Generate(context.Background(), admin, reports.Request{Kind: reports.KindEmployeeSummary, Range: january()})
	require.NoError(t, err)
	assert.Empty(t, summary.Summary)
	assert.True(t, summary.Total.IsZero())
}

func TestEmployeeReportIncludesIdleEmployees(t *testing.T) {
	f := newFixture(t)
	f.seedAli(t)
	_, err := f.payroll.CreateEmployee(context.Background(), admin, payroll.EmployeeInput{Name: "Sara", EmployeeCode: "E-002", Department: "Rolling"})
	require.NoError(t, err)
	svc := reports.NewService(f.data)

	report, err := svc.EmployeeReport(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, report.Summary, 2)
	assert.Equal(t, "Ali", report.Summary[0].EmployeeName)
	assert.Equal(t, "Sara", report.Summary[1].EmployeeName)
	assert.Equal(t, reports.IncludeAll, report.Meta.Mode)
}

func TestGenerateUsesCache(t *testing.T) {
	f := newFixture(t)
	f.seedAli(t)
	cache := &memoryCache{}
	recorder := &countingRecorder{}
	svc := reports.NewService(f.data, reports.WithCache(cache), reports.WithRecorder(recorder))
	req := reports.Request{Kind: reports.KindPayments, Range: january()}

	first, err := svc.Generate(context.Background(), admin, req)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), admin, req)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.size())
	assert.Equal(t, 1, recorder.misses)
	assert.Equal(t, 1, recorder.hits)
	assert.True(t, first.Total.Equal(second.Total))

	svc.InvalidateCache(context.Background())
	assert.Equal(t, 0, cache.size())
	assert.Equal(t, 1, cache.invalidated)
}

// lateWriteSource hands out the payments it read, then lets a write land
// before the report is assembled.
type lateWriteSource struct {
	*payroll.Store
	once  sync.Once
	write func()
}

func (s *lateWriteSource) ListPayments(ctx context.Context) ([]payroll.SalaryPayment, error) {
	payments, err := s.Store.ListPayments(ctx)
	s.once.Do(s.write)
	return payments, err
}

func TestGenerateDoesNotServeReportBuiltBeforeInvalidation(t *testing.T) {
	f := newFixture(t)
	ali := f.seedAli(t)
	cache := &memoryCache{}
	recorder := &countingRecorder{}
	source := &lateWriteSource{Store: f.data}
	svc := reports.NewService(source, reports.WithCache(cache), reports.WithRecorder(recorder))
	source.write = func() {
		_, err := f.payroll.CreatePayment(context.Background(), admin, payroll.PaymentInput{
			EmployeeRef: ali.ID,
			Date:        time.Date(2024, 1, 25, 9, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(5),
		})
		assert.NoError(t, err)
		svc.InvalidateCache(context.Background())
	}
	req := reports.Request{Kind: reports.KindPayments, Range: january()}

	stale, err := svc.Generate(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "10", stale.Total.String())

	fresh, err := svc.Generate(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "15", fresh.Total.String())
	assert.Equal(t, 2, recorder.misses)
	assert.Equal(t, 0, recorder.hits)
}

func TestInvalidateOnChange(t *testing.T) {
	f := newFixture(t)
	cache := &memoryCache{}
	svc := reports.NewService(f.data, reports.WithCache(cache))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.InvalidateOnChange(ctx, f.backend, store.CollectionEmployees, store.CollectionProduction, store.CollectionPayments)
	}()

	require.Eventually(t, func() bool {
		if _, err := f.payroll.CreateEmployee(context.Background(), admin, payroll.EmployeeInput{Name: "Nour", EmployeeCode: "E-003", Department: "Packing"}); err != nil {
			return false
		}
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return cache.invalidated > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("InvalidateOnChange did not return after cancel")
	}
}

func TestSnapshotPropagatesErrors(t *testing.T) {
	svc := reports.NewService(failingSource{})
	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.seedAli(t)
	svc := reports.NewService(f.data)

	summary, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30", summary.TotalCost.String())
	assert.Equal(t, "10", summary.TotalPayments.String())
	assert.Equal(t, "20", summary.TotalNet.String())
	assert.Equal(t, 1, summary.TotalEmployees)
	assert.Equal(t, 1, summary.TotalProductionEntries)
	assert.Equal(t, 1, summary.TotalPaymentEntries)
}

func TestWatchDashboardRecomputesOnChange(t *testing.T) {
	f := newFixture(t)
	svc := reports.NewService(f.data, reports.WithFeed(f.data))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.WatchDashboard(ctx)
	require.NoError(t, err)

	first := next(t, updates)
	assert.Equal(t, 0, first.TotalEmployees)
	assert.True(t, first.TotalNet.IsZero())

	f.seedAli(t)
	waitFor(t, updates, func(s reports.DashboardSummary) bool {
		return s.TotalEmployees == 1 && s.TotalNet.Equal(decimal.NewFromInt(20))
	})

	cancel()
	for range updates {
	}
}

func TestWatchDashboardWithoutFeed(t *testing.T) {
	f := newFixture(t)
	_, err := reports.NewService(f.data).WatchDashboard(context.Background())
	assert.Error(t, err)
}

func next(t *testing.T, updates <-chan reports.DashboardSummary) reports.DashboardSummary {
	t.Helper()
	select {
	case s, ok := <-updates:
		require.True(t, ok)
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no dashboard update")
	}
	return reports.DashboardSummary{}
}

func waitFor(t *testing.T, updates <-chan reports.DashboardSummary, match func(reports.DashboardSummary) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-updates:
			require.True(t, ok)
			if match(s) {
				return
			}
		case <-deadline:
			t.Fatal("dashboard never reached the expected state")
		}
	}
}
