package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type countingSweeper struct {
	sweeps atomic.Int32
}

func (c *countingSweeper) DeleteExpired() { c.sweeps.Add(1) }
func (c *countingSweeper) ItemCount() int { return 0 }

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(quietLogger())
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestInvalidSpecRejected(t *testing.T) {
	s := NewScheduler(quietLogger())
	err := s.ScheduleModelReload("not a cron spec", func(context.Context) (bool, error) { return false, nil })
	assert.Error(t, err)
	assert.Equal(t, 0, s.JobCount())
}

func TestJobsRun(t *testing.T) {
	s := NewScheduler(quietLogger())

	var reloads atomic.Int32
	require.NoError(t, s.ScheduleModelReload("@every 1s", func(context.Context) (bool, error) {
		if reloads.Add(1)%2 == 0 {
			return false, errors.New("artifact unreadable")
		}
		return true, nil
	}))
	sweeper := &countingSweeper{}
	require.NoError(t, s.ScheduleCacheSweep("@every 1s", sweeper))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())
	assert.Error(t, s.Start(), "double start")
	assert.Error(t, s.ScheduleCacheSweep("@every 1s", sweeper), "cannot add while running")

	assert.Eventually(t, func() bool {
		return reloads.Load() >= 2 && sweeper.sweeps.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}
