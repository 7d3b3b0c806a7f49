package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/config"
	"github.com/roomloghq/roomlog/internal/event"
	eventlogdomain "github.com/roomloghq/roomlog/internal/eventlog/domain"
	eventlogrepo "github.com/roomloghq/roomlog/internal/eventlog/repository"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	meetingrepo "github.com/roomloghq/roomlog/internal/meeting/repository"
	meetingservice "github.com/roomloghq/roomlog/internal/meeting/service"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	participantrepo "github.com/roomloghq/roomlog/internal/participant/repository"
	participantservice "github.com/roomloghq/roomlog/internal/participant/service"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	transcriptrepo "github.com/roomloghq/roomlog/internal/transcript/repository"
	transcriptservice "github.com/roomloghq/roomlog/internal/transcript/service"
	userdomain "github.com/roomloghq/roomlog/internal/user/domain"
	"github.com/roomloghq/roomlog/pkg/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   eventlogdomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&meetingdomain.Meeting{},
		&participantdomain.Participant{},
		&transcriptdomain.Transcript{},
		&transcriptdomain.Segment{},
		&transcriptdomain.PendingEvent{},
		&eventlogdomain.Event{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	meetingSvc := meetingservice.New(meetingservice.Params{
		DB:              db,
		Log:             log,
		Clock:           fake,
		Repo:            meetingrepo.Provide(),
		ParticipantRepo: participantrepo.Provide(),
		Users:           repository.ProvideStore[userdomain.User](db),
	})
	participantSvc := participantservice.New(participantservice.Params{
		DB:         db,
		Log:        log,
		Clock:      fake,
		Repo:       participantrepo.Provide(),
		MeetingSvc: meetingSvc,
	})
	transcriptSvc := transcriptservice.New(transcriptservice.Params{
		DB:          db,
		Log:         log,
		Clock:       fake,
		GenID:       node,
		Repo:        transcriptrepo.Provide(),
		PendingRepo: transcriptrepo.ProvidePending(),
		MeetingSvc:  meetingSvc,
		Config: config.Config{
			PendingEventTTL: time.Hour,
			OrphanThreshold: time.Hour,
		},
	})
	svc := New(Params{
		DB:             db,
		Log:            log,
		Clock:          fake,
		GenID:          node,
		Repo:           eventlogrepo.Provide(),
		MeetingSvc:     meetingSvc,
		ParticipantSvc: participantSvc,
		TranscriptSvc:  transcriptSvc,
		Metrics:        nil,
	})
	return &testEnv{svc: svc, db: db, clock: fake}
}

func envelope(eventID, eventType, room string, payload map[string]any) event.Envelope {
	return event.Envelope{
		EventID:  eventID,
		Type:     eventType,
		RoomName: room,
		Payload:  payload,
	}
}

func (e *testEnv) ledgerRow(t *testing.T, eventID string) *eventlogdomain.Event {
	t.Helper()
	var row eventlogdomain.Event
	err := e.db.First(&row, "event_id = ?", eventID).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	require.NoError(t, err)
	return &row
}

func TestProcessDeduplicatesByEventID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	evt := envelope("e1", event.TypeMeetingStarted, "standup", map[string]any{"meetingId": "m1"})

	first, err := env.svc.Process(ctx, evt)
	require.NoError(t, err)
	require.False(t, first.AlreadyProcessed)
	require.Equal(t, eventlogdomain.StatusProcessed, first.Status)

	second, err := env.svc.Process(ctx, evt)
	require.NoError(t, err)
	require.True(t, second.AlreadyProcessed)

	var meetings int64
	require.NoError(t, env.db.Model(&meetingdomain.Meeting{}).Count(&meetings).Error)
	require.EqualValues(t, 1, meetings)
}

func TestProcessRequiresEventID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Process(context.Background(),
		envelope("", event.TypeMeetingStarted, "standup", nil))
	require.ErrorIs(t, err, eventlogdomain.ErrMissingEventID)
}

func TestMediaDroppedWithoutActiveMeeting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Process(ctx,
		envelope("e1", event.TypeMediaAudioMuted, "empty-room", map[string]any{"participantId": "p1"}))
	require.NoError(t, err)
	require.True(t, res.Dropped)
	// Dropped events leave no ledger row: a redelivery after the meeting
	// starts still processes.
	require.Nil(t, env.ledgerRow(t, "e1"))

	_, err = env.svc.Process(ctx,
		envelope("e-start", event.TypeMeetingStarted, "empty-room", map[string]any{"meetingId": "m1"}))
	require.NoError(t, err)

	res, err = env.svc.Process(ctx,
		envelope("e1", event.TypeMediaAudioMuted, "empty-room", map[string]any{"participantId": "p1"}))
	require.NoError(t, err)
	require.False(t, res.Dropped)
	require.Equal(t, eventlogdomain.StatusProcessed, res.Status)
}

func TestTrackEventsAreAuditOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Process(ctx,
		envelope("e-start", event.TypeMeetingStarted, "standup", map[string]any{"meetingId": "m1"}))
	require.NoError(t, err)

	res, err := env.svc.Process(ctx,
		envelope("e-track", event.TypeTrackAdded, "standup", map[string]any{"trackId": "tr1"}))
	require.NoError(t, err)
	require.Equal(t, eventlogdomain.StatusProcessed, res.Status)

	row := env.ledgerRow(t, "e-track")
	require.NotNil(t, row)
	require.Equal(t, "track", row.Family)
	require.NotNil(t, row.ProcessedAt)
}

func TestUnknownTypeFailsOnLedger(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Process(context.Background(),
		envelope("e1", "mystery.event", "standup", nil))
	require.NoError(t, err)
	require.Equal(t, eventlogdomain.StatusFailed, res.Status)
	require.Contains(t, res.Error, "mystery.event")

	row := env.ledgerRow(t, "e1")
	require.NotNil(t, row)
	require.Equal(t, eventlogdomain.StatusFailed, row.Status)
	require.NotNil(t, row.Error)
}

func TestRetryFailedEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// participant.joined without participantId fails on the ledger.
	res, err := env.svc.Process(ctx,
		envelope("e1", event.TypeParticipantJoined, "standup", map[string]any{"displayName": "Alice"}))
	require.NoError(t, err)
	require.Equal(t, eventlogdomain.StatusFailed, res.Status)

	// The stored payload is still broken, so the retry fails again.
	res, err = env.svc.Retry(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, eventlogdomain.StatusFailed, res.Status)

	// Retrying a processed event is rejected.
	_, err = env.svc.Process(ctx,
		envelope("e2", event.TypeMeetingStarted, "standup", map[string]any{"meetingId": "m1"}))
	require.NoError(t, err)
	_, err = env.svc.Retry(ctx, "e2")
	require.ErrorIs(t, err, eventlogdomain.ErrNotRetryable)

	_, err = env.svc.Retry(ctx, "nope")
	require.ErrorIs(t, err, eventlogdomain.ErrNotFound)
}

func TestTranscriptionQueuedThenReplayedOnMeetingStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Process(ctx, envelope("e-chunk", event.TypeTranscriptionChunkReceived, "late-room", map[string]any{
		"messageId": "msg-1",
		"final":     "spoken before start",
	}))
	require.NoError(t, err)
	require.True(t, res.Queued)
	require.Equal(t, eventlogdomain.StatusQueued, res.Status)

	// The start event flushes the room's pending queue.
	_, err = env.svc.Process(ctx,
		envelope("e-start", event.TypeMeetingStarted, "late-room", map[string]any{"meetingId": "m1"}))
	require.NoError(t, err)

	var pending int64
	require.NoError(t, env.db.Model(&transcriptdomain.PendingEvent{}).Count(&pending).Error)
	require.Zero(t, pending)

	var seg transcriptdomain.Segment
	require.NoError(t, env.db.First(&seg, "message_id = ?", "msg-1").Error)
	require.Equal(t, "spoken before start", seg.Text)

	// The replayed event's ledger row settles as processed.
	row := env.ledgerRow(t, "e-chunk")
	require.Equal(t, eventlogdomain.StatusProcessed, row.Status)
	require.NotNil(t, row.ProcessedAt)
}

func TestProcessBatchSequential(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	results, err := env.svc.ProcessBatch(ctx, []event.Envelope{
		envelope("b1", event.TypeMeetingStarted, "standup", map[string]any{"meetingId": "m1"}),
		envelope("b2", event.TypeParticipantJoined, "standup", map[string]any{"participantId": "p1", "displayName": "Alice"}),
		envelope("b2", event.TypeParticipantJoined, "standup", map[string]any{"participantId": "p1", "displayName": "Alice"}),
		envelope("b3", event.TypeParticipantLeft, "standup", map[string]any{"participantId": "p1"}),
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	require.Equal(t, eventlogdomain.StatusProcessed, results[0].Status)
	require.Equal(t, eventlogdomain.StatusProcessed, results[1].Status)
	require.True(t, results[2].AlreadyProcessed)
	require.Equal(t, eventlogdomain.StatusProcessed, results[3].Status)

	// Last participant left: the meeting auto-ended.
	var m meetingdomain.Meeting
	require.NoError(t, env.db.First(&m, "id = ?", "m1").Error)
	require.Equal(t, meetingdomain.StatusEnded, m.Status)
}

func TestFullMeetingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	steps := []event.Envelope{
		envelope("s1", event.TypeMeetingStarted, "retro", map[string]any{"meetingId": "m1", "title": "Retro"}),
		envelope("s2", event.TypeParticipantJoined, "retro", map[string]any{"participantId": "p1", "displayName": "Alice"}),
		envelope("s3", event.TypeParticipantJoined, "retro", map[string]any{"participantId": "p2", "displayName": "Bob"}),
		envelope("s4", event.TypeTranscriptionStatusChanged, "retro", map[string]any{"on": true}),
		envelope("s5", event.TypeTranscriptionChunkReceived, "retro", map[string]any{"messageId": "msg-1", "final": "what went well", "speakerName": "Alice"}),
		envelope("s6", event.TypeTranscriptionChunkReceived, "retro", map[string]any{"messageId": "msg-2", "final": "the release", "speakerName": "Bob"}),
		envelope("s7", event.TypeTranscriptionStatusChanged, "retro", map[string]any{"on": false}),
		envelope("s8", event.TypeParticipantLeft, "retro", map[string]any{"participantId": "p1"}),
		envelope("s9", event.TypeParticipantLeft, "retro", map[string]any{"participantId": "p2"}),
	}
	for i, evt := range steps {
		env.clock.Advance(time.Minute)
		res, err := env.svc.Process(ctx, evt)
		require.NoError(t, err, "step %d", i)
		require.Equal(t, eventlogdomain.StatusProcessed, res.Status, "step %d", i)
	}

	var m meetingdomain.Meeting
	require.NoError(t, env.db.First(&m, "id = ?", "m1").Error)
	require.Equal(t, meetingdomain.StatusEnded, m.Status)
	require.NotNil(t, m.Duration)

	var participants []participantdomain.Participant
	require.NoError(t, env.db.Order("id").Find(&participants).Error)
	require.Len(t, participants, 2)
	for _, p := range participants {
		require.NotNil(t, p.LeftAt)
	}

	var transcript transcriptdomain.Transcript
	require.NoError(t, env.db.First(&transcript, "meeting_id = ?", "m1").Error)
	require.Equal(t, transcriptdomain.StatusCompleted, transcript.Status)
	require.Equal(t, "[Alice]: what went well\n[Bob]: the release", *transcript.FullText)

	var ledger int64
	require.NoError(t, env.db.Model(&eventlogdomain.Event{}).
		Where("status = ?", eventlogdomain.StatusProcessed).Count(&ledger).Error)
	require.EqualValues(t, len(steps), ledger)
}
