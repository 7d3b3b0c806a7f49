package service

import (
	"context"
	"fmt"
	"time"

	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/event"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	userdomain "github.com/roomloghq/roomlog/internal/user/domain"
	"github.com/roomloghq/roomlog/pkg/db"
	"github.com/roomloghq/roomlog/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	Repo            meetingdomain.Repository
	ParticipantRepo participantdomain.Repository
	Users           repository.Repository[userdomain.User]
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	repo            meetingdomain.Repository
	participantRepo participantdomain.Repository
	users           repository.Repository[userdomain.User]
}

func New(p Params) meetingdomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("meeting.service"),
		clock:           p.Clock,
		repo:            p.Repo,
		participantRepo: p.ParticipantRepo,
		users:           p.Users,
	}
}

func (s *Service) HandleEvent(ctx context.Context, evt event.Envelope) error {
	switch evt.Type {
	case event.TypeMeetingScheduled:
		return s.handleScheduled(ctx, evt)
	case event.TypeMeetingStarted:
		return s.handleStarted(ctx, evt)
	case event.TypeMeetingEnded:
		return s.handleEnded(ctx, evt, meetingdomain.StatusEnded)
	case event.TypeMeetingCancelled:
		return s.handleEnded(ctx, evt, meetingdomain.StatusCancelled)
	default:
		return fmt.Errorf("%w: %s", meetingdomain.ErrUnsupportedEventType, evt.Type)
	}
}

func (s *Service) handleScheduled(ctx context.Context, evt event.Envelope) error {
	id := evt.String("meetingId")
	if id == "" {
		return meetingdomain.ErrMissingMeetingID
	}
	room := evt.Room()
	if room == "" {
		return meetingdomain.ErrMissingRoomName
	}

	now := s.clock.Now()
	scheduledAt := evt.Time("scheduledAt")
	m := &meetingdomain.Meeting{
		ID:       id,
		RoomName: room,
		Title:    evt.String("title"),
		HostID:   s.validateHost(ctx, evt.String("hostId")),
		Status:   meetingdomain.StatusScheduled,
	}
	if desc := evt.String("description"); desc != "" {
		m.Description = &desc
	}
	if !scheduledAt.IsZero() {
		m.ScheduledAt = &scheduledAt
	}

	seq, err := s.repo.CountByRoom(ctx, s.db, room)
	if err != nil {
		return err
	}
	m.OccurrenceSeq = int(seq) + 1
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, m); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		existing, findErr := s.repo.FindByID(ctx, s.db, id)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return err
		}
		existing.Title = m.Title
		existing.Description = m.Description
		existing.HostID = m.HostID
		existing.ScheduledAt = m.ScheduledAt
		// Status stays untouched: a late scheduled event must not downgrade
		// a meeting already in flight.
		existing.UpdatedAt = now
		return s.repo.Update(ctx, s.db, existing)
	}
	return nil
}

// handleStarted keys on (does a meeting exist for this room, in what status)
// to distinguish a rejoin, a scheduled activation, a reused identity, an
// in-place update and a fresh occurrence.
func (s *Service) handleStarted(ctx context.Context, evt event.Envelope) error {
	room := evt.Room()
	if room == "" {
		return meetingdomain.ErrMissingRoomName
	}
	id := evt.String("meetingId")
	title := evt.String("title")
	hostID := s.validateHost(ctx, evt.String("hostId"))
	startedAt := evt.Time("startedAt")
	if startedAt.IsZero() {
		startedAt = evt.OccurredAt()
	}
	if startedAt.IsZero() {
		startedAt = s.clock.Now()
	}
	now := s.clock.Now()

	// An ACTIVE meeting already running in the room: treat as a rejoin and
	// refresh host/title only, never startedAt.
	active, err := s.repo.FindActiveByRoom(ctx, s.db, room)
	if err != nil {
		return err
	}
	if active != nil {
		if title != "" {
			active.Title = title
		}
		if hostID != nil {
			active.HostID = hostID
		}
		active.UpdatedAt = now
		return s.repo.Update(ctx, s.db, active)
	}

	// A SCHEDULED meeting for the room: activate it.
	scheduled, err := s.repo.FindScheduledByRoom(ctx, s.db, room)
	if err != nil {
		return err
	}
	if scheduled != nil {
		scheduled.Status = meetingdomain.StatusActive
		scheduled.StartedAt = &startedAt
		if title != "" {
			scheduled.Title = title
		}
		if hostID != nil {
			scheduled.HostID = hostID
		}
		scheduled.UpdatedAt = now
		return s.repo.Update(ctx, s.db, scheduled)
	}

	if id != "" {
		existing, err := s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case meetingdomain.StatusEnded, meetingdomain.StatusCancelled:
				// The runtime reused an identity from a finished occurrence.
				// Mint a new occurrence rather than conflating the two.
				return s.createOccurrence(ctx, "", room, title, hostID, &startedAt)
			default:
				existing.Status = meetingdomain.StatusActive
				if existing.StartedAt == nil {
					existing.StartedAt = &startedAt
				}
				if title != "" {
					existing.Title = title
				}
				if hostID != nil {
					existing.HostID = hostID
				}
				existing.UpdatedAt = now
				return s.repo.Update(ctx, s.db, existing)
			}
		}
	}

	return s.createOccurrence(ctx, id, room, title, hostID, &startedAt)
}

// createOccurrence inserts a new ACTIVE meeting row. An empty id mints a
// structural (room, occurrenceSeq) identity. A duplicate-key race with a
// concurrent creator falls back to an in-place update.
func (s *Service) createOccurrence(ctx context.Context, id, room, title string, hostID *string, startedAt *time.Time) error {
	now := s.clock.Now()
	seq, err := s.repo.CountByRoom(ctx, s.db, room)
	if err != nil {
		return err
	}
	m := &meetingdomain.Meeting{
		ID:            id,
		RoomName:      room,
		OccurrenceSeq: int(seq) + 1,
		Title:         title,
		HostID:        hostID,
		Status:        meetingdomain.StatusActive,
		StartedAt:     startedAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if m.ID == "" {
		m.ID = fmt.Sprintf("%s-%d", room, m.OccurrenceSeq)
	}
	if m.Title == "" {
		m.Title = room
	}

	if err := s.repo.Insert(ctx, s.db, m); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		existing, findErr := s.repo.FindByID(ctx, s.db, m.ID)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return err
		}
		existing.Status = meetingdomain.StatusActive
		if existing.StartedAt == nil {
			existing.StartedAt = startedAt
		}
		if title != "" {
			existing.Title = title
		}
		if hostID != nil {
			existing.HostID = hostID
		}
		existing.UpdatedAt = now
		return s.repo.Update(ctx, s.db, existing)
	}
	return nil
}

// handleEnded closes a meeting, creating a stub row when no prior record
// exists so a lost start event does not lose the occurrence entirely.
func (s *Service) handleEnded(ctx context.Context, evt event.Envelope, status meetingdomain.Status) error {
	room := evt.Room()
	id := evt.String("meetingId")
	if id == "" && room == "" {
		return meetingdomain.ErrMissingMeetingID
	}

	endedAt := evt.Time("endedAt")
	if endedAt.IsZero() {
		endedAt = evt.OccurredAt()
	}
	if endedAt.IsZero() {
		endedAt = s.clock.Now()
	}
	var duration *int64
	if d, ok := evt.Int("duration"); ok {
		duration = &d
	}

	var m *meetingdomain.Meeting
	var err error
	if id != "" {
		m, err = s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return err
		}
	}
	if m == nil && room != "" {
		m, err = s.repo.FindActiveByRoom(ctx, s.db, room)
		if err != nil {
			return err
		}
	}

	now := s.clock.Now()
	if m == nil {
		seq := int64(0)
		if room != "" {
			if seq, err = s.repo.CountByRoom(ctx, s.db, room); err != nil {
				return err
			}
		}
		stub := &meetingdomain.Meeting{
			ID:            id,
			RoomName:      room,
			OccurrenceSeq: int(seq) + 1,
			Title:         room,
			Status:        status,
			EndedAt:       &endedAt,
			Duration:      duration,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if stub.ID == "" {
			stub.ID = fmt.Sprintf("%s-%d", room, stub.OccurrenceSeq)
		}
		if err := s.repo.Insert(ctx, s.db, stub); err != nil {
			if !db.IsDuplicateKeyErr(err) {
				return err
			}
			if m, err = s.repo.FindByID(ctx, s.db, stub.ID); err != nil || m == nil {
				return err
			}
		} else {
			return nil
		}
	}

	m.Status = status
	m.EndedAt = &endedAt
	if duration != nil {
		m.Duration = duration
	} else if m.Duration == nil && m.StartedAt != nil {
		d := int64(endedAt.Sub(*m.StartedAt).Seconds())
		m.Duration = &d
	}
	m.UpdatedAt = now
	return s.repo.Update(ctx, s.db, m)
}

// CheckAndEndIfEmpty synthesizes an ended transition when the last present
// participant has left. Meetings are not guaranteed an explicit end signal.
func (s *Service) CheckAndEndIfEmpty(ctx context.Context, room string) error {
	active, err := s.repo.FindActiveByRoom(ctx, s.db, room)
	if err != nil {
		return err
	}
	if active == nil {
		return nil
	}

	present, err := s.participantRepo.CountPresentByMeeting(ctx, s.db, active.ID)
	if err != nil {
		return err
	}
	if present > 0 {
		return nil
	}

	now := s.clock.Now()
	active.Status = meetingdomain.StatusEnded
	active.EndedAt = &now
	if active.StartedAt != nil {
		d := int64(now.Sub(*active.StartedAt).Seconds())
		active.Duration = &d
	}
	active.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, active); err != nil {
		return err
	}

	s.log.Info("meeting auto-ended, no participants remain",
		zap.String("meeting_id", active.ID),
		zap.String("room", room),
	)
	return nil
}

// EnsureActiveForRoom tolerates join-before-start races by creating a
// minimal ACTIVE stub, retrying the lookup when a concurrent creator wins.
func (s *Service) EnsureActiveForRoom(ctx context.Context, room string) (*meetingdomain.Meeting, error) {
	if room == "" {
		return nil, meetingdomain.ErrMissingRoomName
	}
	active, err := s.repo.FindActiveByRoom(ctx, s.db, room)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}

	now := s.clock.Now()
	seq, err := s.repo.CountByRoom(ctx, s.db, room)
	if err != nil {
		return nil, err
	}
	stub := &meetingdomain.Meeting{
		ID:            fmt.Sprintf("%s-%d", room, seq+1),
		RoomName:      room,
		OccurrenceSeq: int(seq) + 1,
		Title:         room,
		Status:        meetingdomain.StatusActive,
		StartedAt:     &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, s.db, stub); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		return s.repo.FindActiveByRoom(ctx, s.db, room)
	}
	return stub, nil
}

func (s *Service) ResolveActive(ctx context.Context, room string) (*meetingdomain.Meeting, error) {
	return s.repo.FindActiveByRoom(ctx, s.db, room)
}

func (s *Service) ResolveForTranscript(ctx context.Context, room string) (*meetingdomain.Meeting, error) {
	return s.repo.FindResolvableByRoom(ctx, s.db, room)
}

func (s *Service) GetByID(ctx context.Context, id string) (*meetingdomain.Meeting, error) {
	return s.repo.FindByID(ctx, s.db, id)
}

func (s *Service) GetByRoom(ctx context.Context, room string) (*meetingdomain.Meeting, error) {
	return s.repo.FindLatestByRoom(ctx, s.db, room)
}

func (s *Service) ListActive(ctx context.Context) ([]meetingdomain.Meeting, error) {
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) ListByHost(ctx context.Context, hostID string) ([]meetingdomain.Meeting, error) {
	return s.repo.ListByHost(ctx, s.db, hostID)
}

// validateHost resolves a host reference against known users, dropping the
// reference when it does not resolve. The host of a meeting may legitimately
// be unknown or unauthenticated.
func (s *Service) validateHost(ctx context.Context, hostID string) *string {
	if hostID == "" {
		return nil
	}
	u, err := s.users.FindOne(ctx, &userdomain.User{ID: hostID})
	if err != nil {
		s.log.Warn("host lookup failed", zap.String("host_id", hostID), zap.Error(err))
		return nil
	}
	if u == nil {
		return nil
	}
	return &hostID
}
