package scheduler

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"homescout/server/config"
	"homescout/server/internal/queue"
)

// ErrUnknownReport is returned by Trigger for a name not in the schedule
var ErrUnknownReport = errors.New("unknown scheduled report")

// ScheduledReport is a schedule entry with its next run time
type ScheduledReport struct {
	config.ScheduleEntry
	Next time.Time `json:"next"`
}

// Scheduler pushes report jobs onto the queue on their cron schedules
type Scheduler struct {
	cron    *cron.Cron
	queue   *queue.JobQueue
	logger  *logrus.Logger
	mu      sync.Mutex
	entries map[string]config.ScheduleEntry
	ids     map[string]cron.EntryID
	order   []string
	now     func() time.Time
}

// NewScheduler registers every entry. Any invalid cron expression fails the
// whole schedule
func NewScheduler(jobs *queue.JobQueue, entries []config.ScheduleEntry, logger *logrus.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		queue:   jobs,
		logger:  logger,
		entries: make(map[string]config.ScheduleEntry),
		ids:     make(map[string]cron.EntryID),
		now:     time.Now,
	}

	for _, entry := range entries {
		if _, dup := s.entries[entry.Name]; dup {
			return nil, fmt.Errorf("duplicate scheduled report %q", entry.Name)
		}
		entry := entry
		id, err := s.cron.AddFunc(entry.Cron, func() { s.enqueue(entry, "schedule") })
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q for %s: %w", entry.Cron, entry.Name, err)
		}
		s.entries[entry.Name] = entry
		s.ids[entry.Name] = id
		s.order = append(s.order, entry.Name)
	}

	return s, nil
}

// Start begins the cron loop, optionally queueing every report right away
func (s *Scheduler) Start(runOnStart bool) {
	if runOnStart {
		s.logger.Info("Queueing scheduled reports on startup")
		for _, name := range s.order {
			s.enqueue(s.entries[name], "startup")
		}
	}
	s.cron.Start()
	s.logger.WithField("reports", len(s.order)).Info("Report scheduler started")
}

// Stop halts the cron loop and waits for running triggers
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Trigger queues the named report immediately
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	entry, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownReport, name)
	}
	return s.enqueue(entry, "manual")
}

// Reports lists the schedule in file order with next run times
func (s *Scheduler) Reports() []ScheduledReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScheduledReport, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, ScheduledReport{
			ScheduleEntry: s.entries[name],
			Next:          s.cron.Entry(s.ids[name]).Next,
		})
	}
	return out
}

func (s *Scheduler) enqueue(entry config.ScheduleEntry, trigger string) error {
	job := queue.ReportJob{
		Name:        entry.Name,
		Location:    entry.Location,
		Variant:     entry.Variant,
		Format:      entry.Format,
		RequestedAt: s.now(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"job":      entry.Name,
		"location": entry.Location,
		"variant":  entry.Variant,
		"trigger":  trigger,
	})

	if err := s.queue.Push(job); err != nil {
		log.WithError(err).Warn("Could not queue report job")
		return err
	}
	log.Info("Queued report job")
	return nil
}
