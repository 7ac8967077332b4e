package jobs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/reports"
	"workshop/internal/export"
	"workshop/internal/platform/config"
	"workshop/internal/platform/crypto"
)

const (
	JobReportExport = "report_export"

	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"

	maxRuns = 50
)

type ReportSource interface {
	Generate(ctx context.Context, actor auth.Actor, req reports.Request) (reports.Report, error)
}

type Sealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
}

type Recorder interface {
	RecordJob(jobType string, err error)
}

// Run is the outcome of one job execution, newest first in Runs.
type Run struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

type Service struct {
	reports   ReportSource
	cfg       config.ReportsConfig
	formatter export.Formatter
	sealer    Sealer
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time

	queue chan job
	cron  *cron.Cron

	mu   sync.Mutex
	runs []Run
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(source ReportSource, cfg config.ReportsConfig, sealer Sealer, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reports:   source,
		cfg:       cfg,
		formatter: export.NewFormatter(cfg.CurrencySuffix),
		sealer:    sealer,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
		queue:     make(chan job, 128),
	}
}

// Start runs the worker and, when REPORT_EXPORT_CRON is set, the export
// schedule. Both stop when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	go s.worker(ctx)
	if s.cfg.ExportCron == "" {
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.ExportCron, func() {
		s.Enqueue(JobReportExport, func(ctx context.Context) (any, error) {
			return s.ExportMonthToDate(ctx)
		})
	}); err != nil {
		return fmt.Errorf("schedule report export %q: %w", s.cfg.ExportCron, err)
	}
	s.cron.Start()
	s.logger.Info("report export scheduled", zap.String("cron", s.cfg.ExportCron))
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		s.logger.Warn("job queue full", zap.String("jobType", jobType))
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, len(s.runs))
	copy(out, s.runs)
	return out
}

// ExportResult describes a file written by ExportMonthToDate.
type ExportResult struct {
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
	Sealed bool   `json:"sealed"`
}

// ExportMonthToDate writes the employee summary from the first day of the
// current month up to today into the export directory.
func (s *Service) ExportMonthToDate(ctx context.Context) (ExportResult, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	report, err := s.reports.Generate(ctx, auth.SystemActor(), reports.Request{
		Kind:       reports.KindEmployeeSummary,
		Range:      reports.DateRange{From: from, To: now},
		EmployeeID: reports.AllEmployees,
		Mode:       reports.IncludeAll,
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("generate report: %w", err)
	}

	format, err := export.ParseFormat(s.cfg.ExportFormat)
	if err != nil {
		return ExportResult{}, err
	}
	renderer, err := export.New(format, s.formatter)
	if err != nil {
		return ExportResult{}, err
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		return ExportResult{}, err
	}

	data := buf.Bytes()
	name := export.FileName(report.Meta.Kind, format, now)
	sealed := s.sealer != nil && s.sealer.Configured()
	if sealed {
		if data, err = s.sealer.Seal(data); err != nil {
			return ExportResult{}, fmt.Errorf("seal export: %w", err)
		}
		name += crypto.SealedExtension
	}

	if err := os.MkdirAll(s.cfg.ExportDir, 0o750); err != nil {
		return ExportResult{}, fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.cfg.ExportDir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return ExportResult{}, fmt.Errorf("write export: %w", err)
	}
	return ExportResult{Path: path, Rows: report.Rows(), Sealed: sealed}, nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.logger.Warn("job run failed", zap.String("jobType", j.Type), zap.Error(err))
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{ID: uuid.NewString(), Type: j.Type, Status: statusRunning, StartedAt: s.now().UTC()}
	s.remember(run)

	details, err := j.Run(ctx)
	run.Status = statusCompleted
	run.Details = details
	if err != nil {
		run.Status = statusFailed
		run.Error = err.Error()
	}
	run.CompletedAt = s.now().UTC()
	s.remember(run)

	if s.recorder != nil {
		s.recorder.RecordJob(j.Type, err)
	}
	s.logger.Info("job finished", zap.String("jobType", j.Type), zap.String("status", run.Status))
	return details, err
}

func (s *Service) remember(run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = run
			return
		}
	}
	s.runs = append([]Run{run}, s.runs...)
	if len(s.runs) > maxRuns {
		s.runs = s.runs[:maxRuns]
	}
}
