package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/event"
	eventlogdomain "github.com/roomloghq/roomlog/internal/eventlog/domain"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	"github.com/roomloghq/roomlog/internal/observability/metrics"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	"github.com/roomloghq/roomlog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	GenID          *snowflake.Node
	Repo           eventlogdomain.Repository
	MeetingSvc     meetingdomain.Service
	ParticipantSvc participantdomain.Service
	TranscriptSvc  transcriptdomain.Service
	Metrics        *metrics.Metrics
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	genID          *snowflake.Node
	repo           eventlogdomain.Repository
	meetingSvc     meetingdomain.Service
	participantSvc participantdomain.Service
	transcriptSvc  transcriptdomain.Service
	metrics        *metrics.Metrics
}

func New(p Params) eventlogdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("eventlog.service"),
		clock:          p.Clock,
		genID:          p.GenID,
		repo:           p.Repo,
		meetingSvc:     p.MeetingSvc,
		participantSvc: p.ParticipantSvc,
		transcriptSvc:  p.TranscriptSvc,
		metrics:        p.Metrics,
	}
}

func (s *Service) Process(ctx context.Context, evt event.Envelope) (eventlogdomain.Result, error) {
	if evt.EventID == "" {
		return eventlogdomain.Result{}, eventlogdomain.ErrMissingEventID
	}
	if evt.Type == "" {
		return eventlogdomain.Result{EventID: evt.EventID}, eventlogdomain.ErrMissingType
	}

	family := event.Classify(evt.Type)

	// Events that only annotate an in-flight meeting are dropped outright
	// when no active meeting exists for the room. They never reach the
	// ledger, so a later redelivery after the meeting starts still processes.
	if requiresActiveMeeting(evt.Type, family) {
		resolved, err := s.resolveActive(ctx, evt)
		if err != nil {
			return eventlogdomain.Result{EventID: evt.EventID}, err
		}
		if !resolved {
			s.metrics.IncDropped(family.String())
			s.log.Warn("event dropped, no active meeting for room",
				zap.String("event_id", evt.EventID),
				zap.String("type", evt.Type),
				zap.String("room", evt.Room()),
			)
			return eventlogdomain.Result{EventID: evt.EventID, Dropped: true}, nil
		}
	}

	row, alreadyProcessed, err := s.record(ctx, evt, family)
	if err != nil {
		return eventlogdomain.Result{EventID: evt.EventID}, err
	}
	if alreadyProcessed {
		s.metrics.IncDeduplicated()
		return eventlogdomain.Result{
			EventID:          evt.EventID,
			Status:           row.Status,
			AlreadyProcessed: true,
		}, nil
	}

	return s.dispatch(ctx, row, evt, family)
}

func (s *Service) ProcessBatch(ctx context.Context, evts []event.Envelope) ([]eventlogdomain.Result, error) {
	results := make([]eventlogdomain.Result, 0, len(evts))
	for i := range evts {
		res, err := s.Process(ctx, evts[i])
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) Retry(ctx context.Context, eventID string) (eventlogdomain.Result, error) {
	row, err := s.repo.FindByEventID(ctx, s.db, eventID)
	if err != nil {
		return eventlogdomain.Result{EventID: eventID}, err
	}
	if row == nil {
		return eventlogdomain.Result{EventID: eventID}, eventlogdomain.ErrNotFound
	}
	if row.Status != eventlogdomain.StatusFailed {
		return eventlogdomain.Result{EventID: eventID, Status: row.Status},
			fmt.Errorf("%w: status %s", eventlogdomain.ErrNotRetryable, row.Status)
	}

	evt := event.Envelope{
		EventID:  row.EventID,
		Type:     row.Type,
		Payload:  map[string]any(row.Payload),
		RoomName: row.RoomName,
	}
	if row.OccurredAt != nil {
		evt.Timestamp = row.OccurredAt.UnixMilli()
	}
	return s.dispatch(ctx, row, evt, event.Classify(row.Type))
}

func (s *Service) List(ctx context.Context, status eventlogdomain.Status, offset, limit int) ([]eventlogdomain.Event, error) {
	return s.repo.List(ctx, s.db, status, offset, limit)
}

// record inserts the ledger row for the event. A duplicate-key error means
// the event id was seen before, whatever its prior outcome.
func (s *Service) record(ctx context.Context, evt event.Envelope, family event.Family) (*eventlogdomain.Event, bool, error) {
	now := s.clock.Now()
	row := &eventlogdomain.Event{
		ID:        s.genID.Generate(),
		EventID:   evt.EventID,
		Type:      evt.Type,
		Family:    family.String(),
		RoomName:  evt.Room(),
		Payload:   datatypes.JSONMap(evt.Payload),
		Status:    eventlogdomain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if occurredAt := evt.OccurredAt(); !occurredAt.IsZero() {
		row.OccurredAt = &occurredAt
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, false, err
		}
		existing, findErr := s.repo.FindByEventID(ctx, s.db, evt.EventID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, err
		}
		return existing, true, nil
	}
	return row, false, nil
}

func (s *Service) dispatch(ctx context.Context, row *eventlogdomain.Event, evt event.Envelope, family event.Family) (eventlogdomain.Result, error) {
	var handlerErr error
	queued := false

	switch family {
	case event.FamilyMeeting:
		handlerErr = s.meetingSvc.HandleEvent(ctx, evt)
		if handlerErr == nil && evt.Type == event.TypeMeetingStarted {
			s.replayPending(ctx, evt.Room())
		}
	case event.FamilyParticipant:
		handlerErr = s.participantSvc.HandleEvent(ctx, evt)
	case event.FamilyTranscription:
		queued, handlerErr = s.transcriptSvc.HandleEvent(ctx, evt)
	case event.FamilyTrack, event.FamilyMedia:
		// Audit-only families: the ledger row is the record.
	default:
		handlerErr = fmt.Errorf("unknown event type %q", evt.Type)
	}

	now := s.clock.Now()
	row.UpdatedAt = now
	switch {
	case handlerErr != nil:
		msg := handlerErr.Error()
		row.Status = eventlogdomain.StatusFailed
		row.Error = &msg
		s.metrics.IncFailed(family.String())
		s.log.Warn("event processing failed",
			zap.String("event_id", evt.EventID),
			zap.String("type", evt.Type),
			zap.Error(handlerErr),
		)
	case queued:
		row.Status = eventlogdomain.StatusQueued
		row.Error = nil
		s.metrics.IncQueued()
	default:
		row.Status = eventlogdomain.StatusProcessed
		row.Error = nil
		row.ProcessedAt = &now
		s.metrics.IncProcessed(family.String())
	}
	if err := s.repo.Update(ctx, s.db, row); err != nil {
		return eventlogdomain.Result{EventID: evt.EventID}, err
	}

	res := eventlogdomain.Result{
		EventID: evt.EventID,
		Status:  row.Status,
		Queued:  queued,
	}
	if row.Error != nil {
		res.Error = *row.Error
	}
	return res, nil
}

// replayPending flushes deferred transcription events for the room after a
// meeting-start landed. Best effort: a replay failure must not fail the
// meeting-start event.
func (s *Service) replayPending(ctx context.Context, room string) {
	if room == "" {
		return
	}
	replayed, err := s.transcriptSvc.ReplayPending(ctx, room)
	if err != nil {
		s.metrics.IncReplayed("error")
		s.log.Warn("pending event replay failed after meeting start",
			zap.String("room", room),
			zap.Error(err),
		)
		return
	}
	now := s.clock.Now()
	for _, eventID := range replayed {
		s.metrics.IncReplayed("ok")
		row, err := s.repo.FindByEventID(ctx, s.db, eventID)
		if err != nil || row == nil || row.Status != eventlogdomain.StatusQueued {
			continue
		}
		row.Status = eventlogdomain.StatusProcessed
		row.ProcessedAt = &now
		if err := s.repo.Update(ctx, s.db, row); err != nil {
			s.log.Warn("ledger update after replay failed",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) resolveActive(ctx context.Context, evt event.Envelope) (bool, error) {
	room := evt.Room()
	if room == "" {
		return false, nil
	}
	meeting, err := s.meetingSvc.ResolveActive(ctx, room)
	if err != nil {
		return false, err
	}
	return meeting != nil, nil
}

// requiresActiveMeeting reports whether the event is meaningless without an
// in-flight meeting. Join events are exempt: they may legitimately precede
// the meeting-start event and auto-create the meeting stub.
func requiresActiveMeeting(eventType string, family event.Family) bool {
	switch family {
	case event.FamilyTrack, event.FamilyMedia:
		return true
	case event.FamilyParticipant:
		return eventType != event.TypeParticipantJoined
	default:
		return false
	}
}
