package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"forklifttracker/internal/jobs"
	"forklifttracker/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScanner struct {
	mock.Mock
}

func (m *mockScanner) ScanAll(ctx context.Context) (*jobs.ScanResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.ScanResult), args.Error(1)
}

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestNewJobSchedulerRegistersBuiltInJobs(t *testing.T) {
	js, err := NewJobScheduler(new(mockScanner), new(mockPurger))
	require.NoError(t, err)
	defer js.Stop()

	status := js.GetJobStatus()
	assert.Equal(t, 2, status["total_jobs"])
	assert.Equal(t, []string{AuditRetentionJob, ServiceDueScanJob}, status["jobs"])
}

func TestNewJobSchedulerSkipsMissingDependencies(t *testing.T) {
	js, err := NewJobScheduler(nil, nil)
	require.NoError(t, err)
	defer js.Stop()

	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
}

func TestRunServiceDueScanRecordsMetric(t *testing.T) {
	scanner := new(mockScanner)
	scanner.On("ScanAll", mock.Anything).Return(nil, errors.New("db down")).Once()

	js, err := NewJobScheduler(scanner, nil)
	require.NoError(t, err)
	defer js.Stop()

	before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues(ServiceDueScanJob, "error"))
	assert.Error(t, js.runServiceDueScan(context.Background()))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues(ServiceDueScanJob, "error")))
	scanner.AssertExpectations(t)
}

func TestRunAuditRetention(t *testing.T) {
	purger := new(mockPurger)
	purger.On("PurgeExpired", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(7), nil).Once()

	js, err := NewJobScheduler(nil, purger)
	require.NoError(t, err)
	defer js.Stop()

	before := testutil.ToFloat64(metrics.JobRuns.WithLabelValues(AuditRetentionJob, "ok"))
	assert.NoError(t, js.runAuditRetention(context.Background()))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.JobRuns.WithLabelValues(AuditRetentionJob, "ok")))
	purger.AssertExpectations(t)
}

func TestAddAndRemoveJob(t *testing.T) {
	js, err := NewJobScheduler(nil, nil)
	require.NoError(t, err)
	defer js.Stop()

	require.NoError(t, js.AddJob("noop", time.Minute, func() {}))
	assert.Error(t, js.AddJob("noop", time.Minute, func() {}))
	assert.Equal(t, 1, js.GetJobStatus()["total_jobs"])

	require.NoError(t, js.RemoveJob("noop"))
	require.NoError(t, js.RemoveJob("missing"))
	assert.Equal(t, 0, js.GetJobStatus()["total_jobs"])
}
