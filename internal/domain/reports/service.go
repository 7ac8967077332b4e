package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/payroll"
)

// Source reads the three collections.
type Source interface {
	ListEmployees(ctx context.Context) ([]payroll.Employee, error)
	ListProduction(ctx context.Context) ([]payroll.ProductionLog, error)
	ListPayments(ctx context.Context) ([]payroll.SalaryPayment, error)
}

// Feed re-delivers each collection in full whenever it changes.
type Feed interface {
	WatchEmployees(ctx context.Context) (<-chan []payroll.Employee, error)
	WatchProduction(ctx context.Context) (<-chan []payroll.ProductionLog, error)
	WatchPayments(ctx context.Context) (<-chan []payroll.SalaryPayment, error)
}

// Cache stores reports per generation. Invalidate starts a new generation,
// and entries written under an older one are never read again.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, key string, dst *Report) (bool, error)
	Set(ctx context.Context, generation int64, key string, report Report) error
	Invalidate(ctx context.Context) error
}

type Recorder interface {
	RecordReport(kind string, cached bool)
}

type Service struct {
	source    Source
	feed      Feed
	cache     Cache
	recorder  Recorder
	assembler Assembler
	logger    *zap.Logger
}

type Option func(*Service)

func WithFeed(feed Feed) Option {
	return func(s *Service) { s.feed = feed }
}

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source:    source,
		assembler: NewAssembler(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot loads the three collections concurrently.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Employees, err = s.source.ListEmployees(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Production, err = s.source.ListProduction(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Payments, err = s.source.ListPayments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Generate runs an ad-hoc report for an actor holding view_reports.
func (s *Service) Generate(ctx context.Context, actor auth.Actor, req Request) (Report, error) {
	if err := actor.Require(auth.PermViewReports); err != nil {
		return Report{}, err
	}
	if _, err := ParseKind(string(req.Kind)); err != nil {
		return Report{}, err
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return Report{}, err
	}
	req.Mode = mode

	// Generation before snapshot: a report built from data that changed
	// meanwhile is stored under a generation nobody reads.
	key := cacheKey(req)
	generation, cacheable := s.generation(ctx)
	if cacheable {
		if report, ok := s.cached(ctx, generation, key); ok {
			s.record(req.Kind, true)
			return report, nil
		}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	report, err := s.assembler.Build(snap, req)
	if err != nil {
		return Report{}, err
	}
	if cacheable {
		s.store(ctx, generation, key, report)
	}
	s.record(req.Kind, false)
	return report, nil
}

// EmployeeReport is the static all-time report over every employee.
func (s *Service) EmployeeReport(ctx context.Context, actor auth.Actor) (Report, error) {
	return s.Generate(ctx, actor, Request{Kind: KindEmployeeSummary, EmployeeID: AllEmployees, Mode: IncludeAll})
}

func (s *Service) Dashboard(ctx context.Context) (DashboardSummary, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	return Dashboard(snap), nil
}

// WatchDashboard recomputes the dashboard from scratch every time any of the
// collections changes. The channel closes when ctx is done.
func (s *Service) WatchDashboard(ctx context.Context) (<-chan DashboardSummary, error) {
	if s.feed == nil {
		return nil, fmt.Errorf("dashboard watch requires a change feed")
	}
	ctx, cancel := context.WithCancel(ctx)
	employees, err := s.feed.WatchEmployees(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	production, err := s.feed.WatchProduction(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	payments, err := s.feed.WatchPayments(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan DashboardSummary, 1)
	go func() {
		defer close(out)
		defer cancel()

		var snap Snapshot
		ready := map[string]bool{}
		for {
			select {
			case <-ctx.Done():
				return
			case items, ok := <-employees:
				if !ok {
					return
				}
				snap.Employees = items
				ready["employees"] = true
			case items, ok := <-production:
				if !ok {
					return
				}
				snap.Production = items
				ready["production"] = true
			case items, ok := <-payments:
				if !ok {
					return
				}
				snap.Payments = items
				ready["payments"] = true
			}
			if len(ready) < 3 {
				continue
			}
			select {
			case out <- Dashboard(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// InvalidateCache drops cached reports. The payroll service calls it after
// each write; InvalidateOnChange covers writes made by other processes.
func (s *Service) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) generation(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	generation, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("report cache generation read failed", zap.Error(err))
		return 0, false
	}
	return generation, true
}

func (s *Service) cached(ctx context.Context, generation int64, key string) (Report, bool) {
	var report Report
	ok, err := s.cache.Get(ctx, generation, key, &report)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.Error(err))
		return Report{}, false
	}
	return report, ok
}

func (s *Service) store(ctx context.Context, generation int64, key string, report Report) {
	if err := s.cache.Set(ctx, generation, key, report); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
}

func (s *Service) record(kind Kind, cached bool) {
	if s.recorder != nil {
		s.recorder.RecordReport(string(kind), cached)
	}
}

func cacheKey(req Request) string {
	employee := strings.TrimSpace(req.EmployeeID)
	if IsAllEmployees(employee) {
		employee = AllEmployees
	}
	return strings.Join([]string{
		string(req.Kind),
		formatBound(req.Range.From),
		formatBound(req.Range.To),
		employee,
		string(req.Mode),
	}, "|")
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339Nano)
}

type Subscriber interface {
	Subscribe(collection string) (<-chan struct{}, func())
}

// InvalidateOnChange drops cached reports whenever one of the collections
// changes. It blocks until ctx is done.
func (s *Service) InvalidateOnChange(ctx context.Context, sub Subscriber, collections ...string) {
	if s.cache == nil || len(collections) == 0 {
		return
	}
	merged := make(chan struct{}, 1)
	for _, collection := range collections {
		signals, cancel := sub.Subscribe(collection)
		defer cancel()
		go func(signals <-chan struct{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-signals:
					if !ok {
						return
					}
					select {
					case merged <- struct{}{}:
					default:
					}
				}
			}
		}(signals)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-merged:
			s.InvalidateCache(ctx)
		}
	}
}
