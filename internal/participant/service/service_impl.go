package service

import (
	"context"
	"fmt"

	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/event"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	"github.com/roomloghq/roomlog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       participantdomain.Repository
	MeetingSvc meetingdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       participantdomain.Repository
	meetingSvc meetingdomain.Service
}

func New(p Params) participantdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("participant.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		meetingSvc: p.MeetingSvc,
	}
}

func (s *Service) HandleEvent(ctx context.Context, evt event.Envelope) error {
	switch evt.Type {
	case event.TypeParticipantJoined:
		return s.handleJoined(ctx, evt)
	case event.TypeParticipantLeft:
		return s.handleLeft(ctx, evt)
	case event.TypeParticipantUpdated:
		return s.handleUpdated(ctx, evt)
	default:
		return fmt.Errorf("%w: %s", participantdomain.ErrUnsupportedEventType, evt.Type)
	}
}

func (s *Service) handleJoined(ctx context.Context, evt event.Envelope) error {
	pid := evt.String("participantId")
	if pid == "" {
		return participantdomain.ErrMissingParticipantID
	}
	room := evt.Room()
	if room == "" {
		return participantdomain.ErrMissingRoomName
	}

	meeting, err := s.meetingSvc.ResolveActive(ctx, room)
	if err != nil {
		return err
	}
	if meeting == nil {
		// Join arrived ahead of the meeting-start event.
		meeting, err = s.meetingSvc.EnsureActiveForRoom(ctx, room)
		if err != nil {
			return err
		}
	}
	if meeting == nil {
		return meetingdomain.ErrNotFound
	}

	joinedAt := evt.Time("joinedAt")
	if joinedAt.IsZero() {
		joinedAt = evt.OccurredAt()
	}
	if joinedAt.IsZero() {
		joinedAt = s.clock.Now()
	}

	now := s.clock.Now()
	slot := participantdomain.SpeakerSlot(pid)
	row := &participantdomain.Participant{
		ID:          pid,
		MeetingID:   meeting.ID,
		DisplayName: evt.String("displayName"),
		Role:        participantdomain.ParseRole(evt.String("role")),
		SpeakerID:   &slot,
		JoinedAt:    joinedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if userID := evt.String("userId"); userID != "" {
		row.UserID = &userID
	}
	if email := evt.String("email"); email != "" {
		row.Email = &email
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		// Duplicate join: joinedAt is first-write-wins, the rest refreshes.
		existing, findErr := s.repo.FindByID(ctx, s.db, pid)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return err
		}
		existing.DisplayName = row.DisplayName
		existing.Email = row.Email
		existing.Role = row.Role
		if row.UserID != nil {
			existing.UserID = row.UserID
		}
		existing.UpdatedAt = now
		return s.repo.Update(ctx, s.db, existing)
	}
	return nil
}

func (s *Service) handleLeft(ctx context.Context, evt event.Envelope) error {
	pid := evt.String("participantId")
	if pid == "" {
		return participantdomain.ErrMissingParticipantID
	}

	row, err := s.repo.FindByID(ctx, s.db, pid)
	if err != nil {
		return err
	}
	if row == nil {
		return participantdomain.ErrNotFound
	}

	leftAt := evt.Time("leftAt")
	if leftAt.IsZero() {
		leftAt = evt.OccurredAt()
	}
	if leftAt.IsZero() {
		leftAt = s.clock.Now()
	}
	row.LeftAt = &leftAt
	row.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, row); err != nil {
		return err
	}

	room := evt.Room()
	if room == "" {
		return nil
	}
	return s.meetingSvc.CheckAndEndIfEmpty(ctx, room)
}

func (s *Service) handleUpdated(ctx context.Context, evt event.Envelope) error {
	pid := evt.String("participantId")
	if pid == "" {
		return participantdomain.ErrMissingParticipantID
	}

	changed := false
	row, err := s.repo.FindByID(ctx, s.db, pid)
	if err != nil {
		return err
	}
	if row == nil {
		return participantdomain.ErrNotFound
	}

	if name := evt.String("displayName"); name != "" {
		row.DisplayName = name
		changed = true
	}
	if role := evt.String("role"); role != "" {
		row.Role = participantdomain.ParseRole(role)
		changed = true
	}
	if slot, ok := evt.Int("speakerId"); ok {
		bounded := int(slot) % participantdomain.SpeakerSlots
		if bounded < 0 {
			bounded += participantdomain.SpeakerSlots
		}
		row.SpeakerID = &bounded
		changed = true
	}

	// No recognized field present: skip the write entirely.
	if !changed {
		return nil
	}

	row.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, row)
}

func (s *Service) ListByMeeting(ctx context.Context, meetingID string) ([]participantdomain.Participant, error) {
	return s.repo.ListByMeeting(ctx, s.db, meetingID)
}

func (s *Service) CountPresent(ctx context.Context, meetingID string) (int64, error) {
	return s.repo.CountPresentByMeeting(ctx, s.db, meetingID)
}
