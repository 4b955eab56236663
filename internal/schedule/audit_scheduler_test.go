package schedule

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditor struct {
	calls atomic.Int32
	found int
	err   error
}

func (f *fakeAuditor) Run(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return f.found, f.err
}

func newTestScheduler(a Auditor, locked bool) (*LinkAuditScheduler, *int) {
	unlocks := 0
	s := NewLinkAuditScheduler(a, time.Minute)
	s.tryLock = func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
		return locked, nil
	}
	s.unlock = func(ctx context.Context, key string) error {
		unlocks++
		return nil
	}
	return s, &unlocks
}

func TestRunOnceWithLock(t *testing.T) {
	a := &fakeAuditor{found: 2}
	s, unlocks := newTestScheduler(a, true)

	ran, found, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 2, found)
	assert.Equal(t, 1, *unlocks)
	assert.False(t, s.LastRun().IsZero())
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	a := &fakeAuditor{}
	s, unlocks := newTestScheduler(a, false)

	ran, _, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, int32(0), a.calls.Load())
	assert.Equal(t, 0, *unlocks)
}

func TestRunOnceReportsAuditError(t *testing.T) {
	a := &fakeAuditor{err: stderrors.New("db down")}
	s, unlocks := newTestScheduler(a, true)

	ran, _, err := s.RunOnce(context.Background())
	assert.True(t, ran)
	assert.Error(t, err)
	assert.Equal(t, 1, *unlocks)
}

func TestStartRunsImmediately(t *testing.T) {
	a := &fakeAuditor{}
	s, _ := newTestScheduler(a, true)

	sched, err := s.Start(context.Background(), time.Hour)
	require.NoError(t, err)
	defer sched.Shutdown()

	assert.Eventually(t, func() bool { return a.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
