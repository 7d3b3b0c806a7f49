package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/event"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type transcriptStub struct {
	reapCalls    int
	cleanupCalls int
	reapErr      error
	cleanupErr   error
}

func (s *transcriptStub) HandleEvent(context.Context, event.Envelope) (bool, error) { return false, nil }
func (s *transcriptStub) CompileFullText(context.Context, string) (*transcriptdomain.Transcript, error) {
	return nil, nil
}
func (s *transcriptStub) QueuePending(context.Context, string, event.Envelope) error { return nil }
func (s *transcriptStub) ReplayPending(context.Context, string) ([]string, error)    { return nil, nil }

func (s *transcriptStub) CleanupExpired(context.Context) (int64, error) {
	s.cleanupCalls++
	return 2, s.cleanupErr
}

func (s *transcriptStub) ReapOrphans(context.Context) (int, error) {
	s.reapCalls++
	return 1, s.reapErr
}

func (s *transcriptStub) GetByMeeting(context.Context, string) (*transcriptdomain.Transcript, []transcriptdomain.Segment, error) {
	return nil, nil, nil
}

func newTestSweeper(t *testing.T, stub *transcriptStub) *Sweeper {
	t.Helper()
	s, err := New(Params{
		Log:           zap.NewNop(),
		Clock:         clock.NewFakeClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)),
		TranscriptSvc: stub,
	})
	require.NoError(t, err)
	return s
}

func TestRunOnceRunsAllJobs(t *testing.T) {
	stub := &transcriptStub{}
	s := newTestSweeper(t, stub)

	require.NoError(t, s.RunOnce(context.Background()))
	require.Equal(t, 1, stub.reapCalls)
	require.Equal(t, 1, stub.cleanupCalls)
}

func TestRunOnceContinuesPastFailingJob(t *testing.T) {
	stub := &transcriptStub{reapErr: errors.New("boom")}
	s := newTestSweeper(t, stub)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "reap_orphans")
	// The cleanup job still ran.
	require.Equal(t, 1, stub.cleanupCalls)
}

func TestRunOnceTreatsTimeoutAsSoft(t *testing.T) {
	stub := &transcriptStub{reapErr: context.DeadlineExceeded}
	s := newTestSweeper(t, stub)

	require.NoError(t, s.RunOnce(context.Background()))
	require.Equal(t, 1, stub.cleanupCalls)
}

func TestNewRejectsMissingDeps(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, time.Minute, cfg.RunInterval)
	require.Equal(t, 30*time.Second, cfg.JobTimeout)

	custom := Config{RunInterval: 5 * time.Second, JobTimeout: time.Second}.withDefaults()
	require.Equal(t, 5*time.Second, custom.RunInterval)
	require.Equal(t, time.Second, custom.JobTimeout)
}
