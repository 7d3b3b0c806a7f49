package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/event"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	meetingrepo "github.com/roomloghq/roomlog/internal/meeting/repository"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	participantrepo "github.com/roomloghq/roomlog/internal/participant/repository"
	userdomain "github.com/roomloghq/roomlog/internal/user/domain"
	"github.com/roomloghq/roomlog/pkg/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&meetingdomain.Meeting{},
		&participantdomain.Participant{},
	))
	return db
}

func newTestService(t *testing.T) (meetingdomain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	db := openTestDB(t)
	fake := clock.NewFakeClock(time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:              db,
		Log:             zap.NewNop(),
		Clock:           fake,
		Repo:            meetingrepo.Provide(),
		ParticipantRepo: participantrepo.Provide(),
		Users:           repository.ProvideStore[userdomain.User](db),
	})
	return svc, db, fake
}

func startedEvent(room, meetingID, title string) event.Envelope {
	return event.Envelope{
		EventID:  "evt-" + meetingID,
		Type:     event.TypeMeetingStarted,
		RoomName: room,
		Payload: map[string]any{
			"meetingId": meetingID,
			"title":     title,
		},
	}
}

func TestStartedCreatesActiveMeeting(t *testing.T) {
	svc, db, fake := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, startedEvent("standup", "m1", "Daily Standup")))

	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m1").Error)
	require.Equal(t, meetingdomain.StatusActive, m.Status)
	require.Equal(t, "standup", m.RoomName)
	require.Equal(t, 1, m.OccurrenceSeq)
	require.NotNil(t, m.StartedAt)
	require.Equal(t, fake.Now(), m.StartedAt.UTC())
}

func TestDuplicateStartedKeepsSingleActive(t *testing.T) {
	svc, db, fake := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, startedEvent("standup", "m1", "Daily Standup")))
	started := fake.Now()

	fake.Advance(5 * time.Minute)
	require.NoError(t, svc.HandleEvent(ctx, startedEvent("standup", "m1", "Renamed Standup")))

	var count int64
	require.NoError(t, db.Model(&meetingdomain.Meeting{}).
		Where("room_name = ? AND status = ?", "standup", meetingdomain.StatusActive).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m1").Error)
	require.Equal(t, "Renamed Standup", m.Title)
	// A rejoin never moves the original start time.
	require.Equal(t, started, m.StartedAt.UTC())
}

func TestScheduledThenStartedActivates(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-sched",
		Type:     event.TypeMeetingScheduled,
		RoomName: "planning",
		Payload: map[string]any{
			"meetingId":   "m2",
			"title":       "Sprint Planning",
			"scheduledAt": "2026-01-02T10:00:00Z",
		},
	}))
	require.NoError(t, svc.HandleEvent(ctx, startedEvent("planning", "m2", "")))

	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m2").Error)
	require.Equal(t, meetingdomain.StatusActive, m.Status)
	require.Equal(t, "Sprint Planning", m.Title)
	require.NotNil(t, m.ScheduledAt)
	require.NotNil(t, m.StartedAt)
}

func TestEndedComputesDuration(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-start",
		Type:     event.TypeMeetingStarted,
		RoomName: "standup",
		Payload: map[string]any{
			"meetingId": "m3",
			"startedAt": "2026-01-02T09:00:00Z",
		},
	}))
	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-end",
		Type:     event.TypeMeetingEnded,
		RoomName: "standup",
		Payload: map[string]any{
			"meetingId": "m3",
			"endedAt":   "2026-01-02T09:45:00Z",
		},
	}))

	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m3").Error)
	require.Equal(t, meetingdomain.StatusEnded, m.Status)
	require.NotNil(t, m.Duration)
	require.EqualValues(t, 45*60, *m.Duration)
}

func TestEndedWithoutStartCreatesStub(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-end-only",
		Type:     event.TypeMeetingEnded,
		RoomName: "ghost",
		Payload:  map[string]any{"meetingId": "m4"},
	}))

	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m4").Error)
	require.Equal(t, meetingdomain.StatusEnded, m.Status)
	require.NotNil(t, m.EndedAt)
}

func TestCancelledMeeting(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-sched",
		Type:     event.TypeMeetingScheduled,
		RoomName: "allhands",
		Payload:  map[string]any{"meetingId": "m5", "title": "All Hands"},
	}))
	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-cancel",
		Type:     event.TypeMeetingCancelled,
		RoomName: "allhands",
		Payload:  map[string]any{"meetingId": "m5"},
	}))

	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m5").Error)
	require.Equal(t, meetingdomain.StatusCancelled, m.Status)
}

func TestReusedIdentityMintsNewOccurrence(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, startedEvent("standup", "m6", "First")))
	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-end",
		Type:     event.TypeMeetingEnded,
		RoomName: "standup",
		Payload:  map[string]any{"meetingId": "m6"},
	}))
	// Runtime reuses the same id for the next occurrence in the room.
	require.NoError(t, svc.HandleEvent(ctx, startedEvent("standup", "m6", "Second")))

	var meetings []meetingdomain.Meeting
	require.NoError(t, db.Where("room_name = ?", "standup").Order("occurrence_seq").Find(&meetings).Error)
	require.Len(t, meetings, 2)
	require.Equal(t, meetingdomain.StatusEnded, meetings[0].Status)
	require.Equal(t, meetingdomain.StatusActive, meetings[1].Status)
	require.Equal(t, "standup-2", meetings[1].ID)
	require.Equal(t, 2, meetings[1].OccurrenceSeq)
}

func TestCheckAndEndIfEmpty(t *testing.T) {
	svc, db, fake := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, startedEvent("standup", "m7", "Standup")))

	joined := fake.Now()
	require.NoError(t, db.Create(&participantdomain.Participant{
		ID:        "p1",
		MeetingID: "m7",
		JoinedAt:  joined,
		Role:      participantdomain.RoleParticipant,
	}).Error)

	// Someone still present: meeting stays active.
	require.NoError(t, svc.CheckAndEndIfEmpty(ctx, "standup"))
	var m meetingdomain.Meeting
	require.NoError(t, db.First(&m, "id = ?", "m7").Error)
	require.Equal(t, meetingdomain.StatusActive, m.Status)

	fake.Advance(30 * time.Minute)
	left := fake.Now()
	require.NoError(t, db.Model(&participantdomain.Participant{}).
		Where("id = ?", "p1").Update("left_at", left).Error)

	require.NoError(t, svc.CheckAndEndIfEmpty(ctx, "standup"))
	require.NoError(t, db.First(&m, "id = ?", "m7").Error)
	require.Equal(t, meetingdomain.StatusEnded, m.Status)
	require.NotNil(t, m.Duration)
	require.EqualValues(t, 30*60, *m.Duration)
}

func TestEnsureActiveForRoomIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureActiveForRoom(ctx, "adhoc")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.EnsureActiveForRoom(ctx, "adhoc")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&meetingdomain.Meeting{}).
		Where("room_name = ?", "adhoc").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestHostReferenceValidation(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&userdomain.User{ID: "u1", DisplayName: "Alice"}).Error)

	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-known",
		Type:     event.TypeMeetingStarted,
		RoomName: "roomA",
		Payload:  map[string]any{"meetingId": "mA", "hostId": "u1"},
	}))
	require.NoError(t, svc.HandleEvent(ctx, event.Envelope{
		EventID:  "evt-unknown",
		Type:     event.TypeMeetingStarted,
		RoomName: "roomB",
		Payload:  map[string]any{"meetingId": "mB", "hostId": "nobody"},
	}))

	var known, unknown meetingdomain.Meeting
	require.NoError(t, db.First(&known, "id = ?", "mA").Error)
	require.NoError(t, db.First(&unknown, "id = ?", "mB").Error)
	require.NotNil(t, known.HostID)
	require.Equal(t, "u1", *known.HostID)
	require.Nil(t, unknown.HostID)
}
