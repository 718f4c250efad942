package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawjobs-workers/internal/common/config"
	"lawjobs-workers/internal/common/logger"
)

type mockStarter struct {
	processID string
	vars      map[string]interface{}
	err       error
}

func (m *mockStarter) StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error) {
	m.processID = processID
	m.vars = variables
	return 1, m.err
}

func createTestConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:   true,
		Spec:      "30 23 * * *",
		Timezone:  "Europe/Moscow",
		ProcessID: "daily-posting-cycle",
	}
}

func TestScheduler_Next(t *testing.T) {
	s, err := New(createTestConfig(), &mockStarter{}, logger.NewTestLogger(t))
	require.NoError(t, err)

	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	next, err := s.Next(time.Date(2024, 5, 10, 12, 0, 0, 0, msk))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 5, 10, 23, 30, 0, 0, msk).Equal(next), "got %s", next)

	next, err = s.Next(time.Date(2024, 5, 10, 23, 45, 0, 0, msk))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 5, 11, 23, 30, 0, 0, msk).Equal(next), "got %s", next)
}

func TestScheduler_Trigger(t *testing.T) {
	starter := &mockStarter{}
	s, err := New(createTestConfig(), starter, logger.NewTestLogger(t))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 10, 20, 30, 0, 0, time.UTC) }

	runID, err := s.Trigger(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.Equal(t, "daily-posting-cycle", starter.processID)
	assert.Equal(t, runID, starter.vars["runId"])
	assert.Equal(t, "2024-05-10T23:30:00+03:00", starter.vars["startedAt"])
}

func TestScheduler_TriggerError(t *testing.T) {
	s, err := New(createTestConfig(), &mockStarter{err: errors.New("unavailable")}, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = s.Trigger(context.Background())
	assert.ErrorContains(t, err, "daily-posting-cycle")
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	cfg := createTestConfig()
	cfg.Spec = "not a spec"
	s, err := New(cfg, &mockStarter{}, logger.NewNoOpLogger())
	require.NoError(t, err)

	assert.Error(t, s.Start(context.Background()))
}

func TestNew_UnknownTimezone(t *testing.T) {
	cfg := createTestConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := New(cfg, &mockStarter{}, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(createTestConfig(), &mockStarter{}, logger.NewNoOpLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
