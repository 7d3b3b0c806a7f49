package service

import (
	"context"
	"sort"
	"time"

	historydomain "github.com/roomloghq/roomlog/internal/history/domain"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	"github.com/roomloghq/roomlog/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo historydomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo historydomain.Repository
}

func New(p Params) historydomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("history.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListForUser(ctx context.Context, userID string, page pagination.Page) (*historydomain.ListResponse, error) {
	entries, err := s.merged(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &historydomain.ListResponse{
		Entries:  pagination.Slice(entries, page),
		PageInfo: pagination.BuildPageInfo(len(entries), page),
	}, nil
}

func (s *Service) StatsForUser(ctx context.Context, userID string) (*historydomain.Stats, error) {
	entries, err := s.merged(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &historydomain.Stats{TotalMeetings: len(entries)}
	for i := range entries {
		if entries[i].Role == historydomain.RoleHost {
			stats.HostedCount++
		} else {
			stats.AttendedCount++
		}
		if entries[i].Status == meetingdomain.StatusEnded && entries[i].Duration != nil {
			stats.TotalDuration += *entries[i].Duration
		}
	}
	return stats, nil
}

// merged combines hosted and attended meetings, keeping one entry per
// meeting with the host role winning, ordered most recent first.
func (s *Service) merged(ctx context.Context, userID string) ([]historydomain.Entry, error) {
	if userID == "" {
		return nil, historydomain.ErrMissingUserID
	}

	hosted, err := s.repo.ListHostedByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	attended, err := s.repo.ListAttendedByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	byMeeting := make(map[string]historydomain.Entry, len(hosted)+len(attended))
	for i := range attended {
		row := attended[i]
		byMeeting[row.MeetingID] = historydomain.Entry{
			MeetingID:   row.MeetingID,
			RoomName:    row.RoomName,
			Title:       row.Title,
			Status:      row.Status,
			Role:        historydomain.RoleAttendee,
			ScheduledAt: row.ScheduledAt,
			StartedAt:   row.StartedAt,
			EndedAt:     row.EndedAt,
			Duration:    row.Duration,
			JoinedAt:    row.JoinedAt,
			LeftAt:      row.LeftAt,
			CreatedAt:   row.CreatedAt,
		}
	}
	for i := range hosted {
		m := hosted[i]
		entry := historydomain.Entry{
			MeetingID:   m.ID,
			RoomName:    m.RoomName,
			Title:       m.Title,
			Status:      m.Status,
			Role:        historydomain.RoleHost,
			ScheduledAt: m.ScheduledAt,
			StartedAt:   m.StartedAt,
			EndedAt:     m.EndedAt,
			Duration:    m.Duration,
			CreatedAt:   m.CreatedAt,
		}
		if prev, ok := byMeeting[m.ID]; ok {
			// The user also attended their own meeting: keep attendance times.
			entry.JoinedAt = prev.JoinedAt
			entry.LeftAt = prev.LeftAt
		}
		byMeeting[m.ID] = entry
	}

	entries := make([]historydomain.Entry, 0, len(byMeeting))
	for _, entry := range byMeeting {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		ti, tj := sortKey(entries[i]), sortKey(entries[j])
		if ti.Equal(tj) {
			return entries[i].MeetingID > entries[j].MeetingID
		}
		return ti.After(tj)
	})
	return entries, nil
}

// sortKey orders by actual start, falling back to the scheduled time and
// finally to row creation for meetings that never started.
func sortKey(e historydomain.Entry) time.Time {
	if e.StartedAt != nil {
		return *e.StartedAt
	}
	if e.ScheduledAt != nil {
		return *e.ScheduledAt
	}
	return e.CreatedAt
}
