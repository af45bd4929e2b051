package scheduler

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homescout/server/config"
	"homescout/server/internal/queue"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func entries() []config.ScheduleEntry {
	return []config.ScheduleEntry{
		{Name: "nashville", Location: "Nashville, TN", Variant: "property_listings", Format: "xlsx", Cron: "0 6 * * 1"},
		{Name: "austin", Location: "Austin, TX", Variant: "market_intelligence", Format: "csv", Cron: "0 7 1 * *"},
	}
}

func TestNewSchedulerRejectsBadCron(t *testing.T) {
	bad := []config.ScheduleEntry{{Name: "broken", Location: "Austin, TX", Cron: "every tuesday"}}
	_, err := NewScheduler(queue.NewJobQueue(1, quietLogger()), bad, quietLogger())
	assert.Error(t, err)
}

func TestNewSchedulerRejectsDuplicates(t *testing.T) {
	dup := append(entries(), entries()[0])
	_, err := NewScheduler(queue.NewJobQueue(1, quietLogger()), dup, quietLogger())
	assert.ErrorContains(t, err, "duplicate")
}

func TestStartRunOnStartQueuesEverything(t *testing.T) {
	jobs := queue.NewJobQueue(4, quietLogger())
	s, err := NewScheduler(jobs, entries(), quietLogger())
	require.NoError(t, err)

	s.Start(true)
	defer s.Stop()

	assert.Equal(t, 2, jobs.Len())
}

func TestTrigger(t *testing.T) {
	jobs := queue.NewJobQueue(1, quietLogger())
	s, err := NewScheduler(jobs, entries(), quietLogger())
	require.NoError(t, err)

	require.NoError(t, s.Trigger("austin"))
	assert.Equal(t, 1, jobs.Len())

	assert.ErrorIs(t, s.Trigger("austin"), queue.ErrQueueFull)
	assert.ErrorIs(t, s.Trigger("paris"), ErrUnknownReport)
}

func TestReportsListsNextRun(t *testing.T) {
	s, err := NewScheduler(queue.NewJobQueue(1, quietLogger()), entries(), quietLogger())
	require.NoError(t, err)

	s.Start(false)
	defer s.Stop()

	reports := s.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, "nashville", reports[0].Name)
	assert.False(t, reports[0].Next.IsZero())
	assert.Equal(t, "csv", reports[1].Format)
}
