package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	historydomain "github.com/roomloghq/roomlog/internal/history/domain"
	historyrepo "github.com/roomloghq/roomlog/internal/history/repository"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	"github.com/roomloghq/roomlog/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (historydomain.Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&meetingdomain.Meeting{},
		&participantdomain.Participant{},
	))
	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: historyrepo.Provide(),
	})
	return svc, db
}

func seedMeeting(t *testing.T, db *gorm.DB, id, room string, hostID *string, status meetingdomain.Status, startedAt *time.Time, duration *int64) {
	t.Helper()
	require.NoError(t, db.Create(&meetingdomain.Meeting{
		ID:        id,
		RoomName:  room,
		Title:     room,
		HostID:    hostID,
		Status:    status,
		StartedAt: startedAt,
		Duration:  duration,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func seedAttendance(t *testing.T, db *gorm.DB, pid, meetingID, userID string, joinedAt time.Time) {
	t.Helper()
	uid := userID
	require.NoError(t, db.Create(&participantdomain.Participant{
		ID:        pid,
		MeetingID: meetingID,
		UserID:    &uid,
		JoinedAt:  joinedAt,
		Role:      participantdomain.RoleParticipant,
	}).Error)
}

func ts(day, hour int) *time.Time {
	t := time.Date(2026, 1, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestListMergesHostedAndAttended(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	uid := "u1"

	dur := int64(1800)
	// Hosted only.
	seedMeeting(t, db, "m-hosted", "roomA", &uid, meetingdomain.StatusEnded, ts(3, 9), &dur)
	// Attended only.
	seedMeeting(t, db, "m-attended", "roomB", nil, meetingdomain.StatusEnded, ts(4, 9), &dur)
	seedAttendance(t, db, "p1", "m-attended", uid, *ts(4, 9))
	// Hosted and attended: host role wins, attendance times kept.
	seedMeeting(t, db, "m-both", "roomC", &uid, meetingdomain.StatusEnded, ts(5, 9), &dur)
	seedAttendance(t, db, "p2", "m-both", uid, *ts(5, 9))
	// Someone else's meeting.
	other := "u2"
	seedMeeting(t, db, "m-other", "roomD", &other, meetingdomain.StatusEnded, ts(6, 9), &dur)

	resp, err := svc.ListForUser(ctx, uid, pagination.Page{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 3)

	// Most recent first.
	require.Equal(t, "m-both", resp.Entries[0].MeetingID)
	require.Equal(t, historydomain.RoleHost, resp.Entries[0].Role)
	require.NotNil(t, resp.Entries[0].JoinedAt)
	require.Equal(t, "m-attended", resp.Entries[1].MeetingID)
	require.Equal(t, historydomain.RoleAttendee, resp.Entries[1].Role)
	require.Equal(t, "m-hosted", resp.Entries[2].MeetingID)
	require.Equal(t, historydomain.RoleHost, resp.Entries[2].Role)
}

func TestListPagination(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	uid := "u1"

	for i := 1; i <= 5; i++ {
		seedMeeting(t, db, fmt.Sprintf("m%d", i), fmt.Sprintf("room%d", i), &uid,
			meetingdomain.StatusEnded, ts(i, 9), nil)
	}

	resp, err := svc.ListForUser(ctx, uid, pagination.Page{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	require.Equal(t, "m4", resp.Entries[0].MeetingID)
	require.Equal(t, "m3", resp.Entries[1].MeetingID)
	require.Equal(t, 5, resp.PageInfo.Total)
	require.True(t, resp.PageInfo.HasMore)
}

func TestListSortFallsBackToScheduledAndCreated(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	uid := "u1"

	seedMeeting(t, db, "m-started", "roomA", &uid, meetingdomain.StatusEnded, ts(2, 9), nil)
	// Never started: ordering falls back to scheduledAt.
	require.NoError(t, db.Create(&meetingdomain.Meeting{
		ID:          "m-scheduled",
		RoomName:    "roomB",
		Title:       "roomB",
		HostID:      &uid,
		Status:      meetingdomain.StatusCancelled,
		ScheduledAt: ts(3, 9),
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	resp, err := svc.ListForUser(ctx, uid, pagination.Page{})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	require.Equal(t, "m-scheduled", resp.Entries[0].MeetingID)
	require.Equal(t, "m-started", resp.Entries[1].MeetingID)
}

func TestStats(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	uid := "u1"

	d1, d2 := int64(600), int64(900)
	seedMeeting(t, db, "m1", "roomA", &uid, meetingdomain.StatusEnded, ts(1, 9), &d1)
	seedMeeting(t, db, "m2", "roomB", nil, meetingdomain.StatusEnded, ts(2, 9), &d2)
	seedAttendance(t, db, "p1", "m2", uid, *ts(2, 9))
	// Active meetings count but contribute no duration.
	seedMeeting(t, db, "m3", "roomC", &uid, meetingdomain.StatusActive, ts(3, 9), nil)

	stats, err := svc.StatsForUser(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalMeetings)
	require.Equal(t, 2, stats.HostedCount)
	require.Equal(t, 1, stats.AttendedCount)
	require.EqualValues(t, 1500, stats.TotalDuration)
}

func TestListRequiresUserID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ListForUser(context.Background(), "", pagination.Page{})
	require.ErrorIs(t, err, historydomain.ErrMissingUserID)
}
