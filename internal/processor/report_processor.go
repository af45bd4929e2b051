package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homescout/server/config"
	"homescout/server/internal/database"
	"homescout/server/internal/export"
	"homescout/server/internal/models"
	"homescout/server/internal/queue"
	"homescout/server/internal/report"
)

// ErrProcessorStopped is returned for jobs dispatched after Stop.
var ErrProcessorStopped = errors.New("report processor stopped")

// Searcher fetches the listings a report is built from.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.Property, error)
}

// RunRecorder stores the outcome of each job.
type RunRecorder interface {
	RecordReportRun(ctx context.Context, run *database.ReportRun) error
}

// ReportProcessor consumes report jobs: search, synthesize, export, write.
type ReportProcessor struct {
	searcher    Searcher
	synthesizer *report.Synthesizer
	exporter    *export.Exporter
	queue       *queue.JobQueue
	runs        RunRecorder
	config      *config.Config
	logger      *logrus.Logger
	now         func() time.Time
	waitGroup   sync.WaitGroup
	mu          sync.Mutex
	stopped     bool
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewReportProcessor creates a new report processor instance.
func NewReportProcessor(searcher Searcher, synthesizer *report.Synthesizer, exporter *export.Exporter, queue *queue.JobQueue, config *config.Config, logger *logrus.Logger) *ReportProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReportProcessor{
		searcher:    searcher,
		synthesizer: synthesizer,
		exporter:    exporter,
		queue:       queue,
		config:      config,
		logger:      logger,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// WithRunRecorder stores every job outcome in r.
func (p *ReportProcessor) WithRunRecorder(r RunRecorder) *ReportProcessor {
	p.runs = r
	return p
}

// WithClock replaces the clock used for output file names.
func (p *ReportProcessor) WithClock(now func() time.Time) *ReportProcessor {
	p.now = now
	return p
}

// Start subscribes the processor to its queue.
func (p *ReportProcessor) Start() {
	p.queue.Subscribe(p.handle)
}

// Stop rejects further jobs, cancels in-flight retries and waits for the
// current job to finish.
func (p *ReportProcessor) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.waitGroup.Wait()
}

func (p *ReportProcessor) handle(job queue.ReportJob) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrProcessorStopped
	}
	p.waitGroup.Add(1)
	p.mu.Unlock()
	defer p.waitGroup.Done()

	_, err := p.Process(p.ctx, job)
	return err
}

// Process runs job with retries and returns the written file path.
func (p *ReportProcessor) Process(ctx context.Context, job queue.ReportJob) (string, error) {
	log := p.logger.WithFields(logrus.Fields{
		"job":      job.Name,
		"location": job.Location,
		"variant":  job.Variant,
	})

	var (
		path    string
		err     error
		attempt int
	)
	for attempt = 0; attempt <= p.config.Reports.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Infof("Retrying report job, attempt %d of %d", attempt, p.config.Reports.MaxRetries)
			select {
			case <-ctx.Done():
				err = ctx.Err()
				p.recordRun(job, "", attempt, err)
				return "", err
			case <-time.After(time.Duration(p.config.Reports.RetryDelay) * time.Second):
			}
		}

		path, err = p.Generate(ctx, job)
		if err == nil {
			log.WithField("path", path).Info("Report written")
			p.recordRun(job, path, attempt+1, nil)
			return path, nil
		}
		if !retryable(err) {
			break
		}
		log.WithError(err).Error("Report job failed")
	}

	attempts := min(attempt+1, p.config.Reports.MaxRetries+1)
	p.recordRun(job, "", attempts, err)
	return "", fmt.Errorf("failed to process report job %q after %d attempts: %w", job.Name, attempts, err)
}

// Generate makes a single attempt at job.
func (p *ReportProcessor) Generate(ctx context.Context, job queue.ReportJob) (string, error) {
	variant, err := report.ParseVariant(job.Variant)
	if err != nil {
		return "", err
	}
	formatName := job.Format
	if formatName == "" {
		formatName = p.config.Reports.DefaultFormat
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return "", err
	}

	q := job.Query
	q.Location = job.Location
	props, err := p.searcher.Search(ctx, q)
	if err != nil {
		return "", fmt.Errorf("failed to search listings: %w", err)
	}

	rep, err := p.synthesizer.Build(variant, job.Location, props)
	if err != nil {
		return "", err
	}
	data, err := p.exporter.Export(rep.Sheets, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.config.Reports.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := job.Name
	if name == "" {
		name = config.NormalizeCity(job.Location) + "-" + string(variant)
	}
	path := filepath.Join(p.config.Reports.OutputDir,
		fmt.Sprintf("%s-%s%s", name, p.now().UTC().Format("20060102-150405"), export.FileExtension(format)))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (p *ReportProcessor) recordRun(job queue.ReportJob, path string, attempts int, err error) {
	if p.runs == nil {
		return
	}
	run := &database.ReportRun{
		Name:     job.Name,
		Variant:  job.Variant,
		Location: job.Location,
		Format:   job.Format,
		Path:     path,
		Status:   database.RunSucceeded,
		Attempts: attempts,
	}
	if err != nil {
		run.Status = database.RunFailed
		run.Error = err.Error()
	}
	if recErr := p.runs.RecordReportRun(context.Background(), run); recErr != nil {
		p.logger.WithError(recErr).Warn("Failed to record report run")
	}
}

// retryable is false for job definitions that can never succeed.
func retryable(err error) bool {
	return !errors.Is(err, report.ErrUnknownVariant) && !errors.Is(err, export.ErrUnsupportedFormat)
}
