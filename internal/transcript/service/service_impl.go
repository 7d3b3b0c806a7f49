package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/config"
	"github.com/roomloghq/roomlog/internal/event"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	"github.com/roomloghq/roomlog/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Repo        transcriptdomain.Repository
	PendingRepo transcriptdomain.PendingRepository
	MeetingSvc  meetingdomain.Service
	Config      config.Config
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	genID       *snowflake.Node
	repo        transcriptdomain.Repository
	pendingRepo transcriptdomain.PendingRepository
	meetingSvc  meetingdomain.Service

	pendingTTL      time.Duration
	orphanThreshold time.Duration
}

func New(p Params) transcriptdomain.Service {
	ttl := p.Config.PendingEventTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	threshold := p.Config.OrphanThreshold
	if threshold <= 0 {
		threshold = time.Hour
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("transcript.service"),
		clock:           p.Clock,
		genID:           p.GenID,
		repo:            p.Repo,
		pendingRepo:     p.PendingRepo,
		meetingSvc:      p.MeetingSvc,
		pendingTTL:      ttl,
		orphanThreshold: threshold,
	}
}

func (s *Service) HandleEvent(ctx context.Context, evt event.Envelope) (bool, error) {
	room := evt.Room()
	if room == "" {
		return false, transcriptdomain.ErrMissingRoomName
	}

	// ENDED meetings stay resolvable here: transcription-stop events can
	// trail the meeting-ended event.
	meeting, err := s.meetingSvc.ResolveForTranscript(ctx, room)
	if err != nil {
		return false, err
	}
	if meeting == nil {
		if err := s.QueuePending(ctx, room, evt); err != nil {
			return false, err
		}
		return true, nil
	}

	switch evt.Type {
	case event.TypeTranscriptionStatusChanged:
		return false, s.handleStatusChanged(ctx, meeting.ID, evt)
	case event.TypeTranscriptionChunkReceived:
		return false, s.handleChunk(ctx, meeting.ID, evt)
	default:
		return false, fmt.Errorf("%w: %s", transcriptdomain.ErrUnsupportedEventType, evt.Type)
	}
}

func (s *Service) handleStatusChanged(ctx context.Context, meetingID string, evt event.Envelope) error {
	if evt.Bool("on") {
		startedAt := evt.OccurredAt()
		if startedAt.IsZero() {
			startedAt = s.clock.Now()
		}
		_, err := s.ensureTranscript(ctx, meetingID, evt.String("language"), startedAt)
		return err
	}

	_, err := s.CompileFullText(ctx, meetingID)
	return err
}

// ensureTranscript lazily creates the meeting's transcript row in
// PROCESSING, tolerating a concurrent creator. Repeated starts are
// idempotent: startedAt is stamped once.
func (s *Service) ensureTranscript(ctx context.Context, meetingID, language string, startedAt time.Time) (*transcriptdomain.Transcript, error) {
	existing, err := s.repo.FindByMeeting(ctx, s.db, meetingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		changed := false
		if existing.Status == transcriptdomain.StatusPending {
			existing.Status = transcriptdomain.StatusProcessing
			changed = true
		}
		if existing.StartedAt == nil {
			existing.StartedAt = &startedAt
			changed = true
		}
		if changed {
			existing.UpdatedAt = s.clock.Now()
			if err := s.repo.Update(ctx, s.db, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	if language == "" {
		language = "en"
	}
	now := s.clock.Now()
	t := &transcriptdomain.Transcript{
		ID:        s.genID.Generate(),
		MeetingID: meetingID,
		Status:    transcriptdomain.StatusProcessing,
		Language:  language,
		StartedAt: &startedAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, t); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		return s.repo.FindByMeeting(ctx, s.db, meetingID)
	}
	return t, nil
}

func (s *Service) handleChunk(ctx context.Context, meetingID string, evt event.Envelope) error {
	finalText := evt.String("final")
	stableText := evt.String("stable")
	if finalText == "" && stableText == "" {
		return nil
	}

	messageID := evt.String("messageId")
	if messageID == "" {
		return transcriptdomain.ErrMissingMessageID
	}

	receivedAt := evt.OccurredAt()
	if receivedAt.IsZero() {
		receivedAt = s.clock.Now()
	}

	tr, err := s.ensureTranscript(ctx, meetingID, evt.String("language"), receivedAt)
	if err != nil {
		return err
	}
	if tr == nil {
		return transcriptdomain.ErrNotFound
	}

	existing, err := s.repo.FindSegment(ctx, s.db, tr.ID, messageID)
	if err != nil {
		return err
	}
	if existing == nil {
		seg := s.newSegment(tr.ID, messageID, finalText, stableText, receivedAt, evt)
		if err := s.repo.InsertSegment(ctx, s.db, seg); err != nil {
			if !db.IsDuplicateKeyErr(err) {
				return err
			}
			existing, err = s.repo.FindSegment(ctx, s.db, tr.ID, messageID)
			if err != nil {
				return err
			}
			if existing == nil {
				return transcriptdomain.ErrNotFound
			}
		} else {
			return nil
		}
	}

	// A stable update arriving after a final one is silently ignored:
	// isFinal never regresses.
	if finalText == "" {
		return nil
	}
	conf := transcriptdomain.ConfidenceFinal
	existing.Text = finalText
	existing.IsFinal = true
	existing.Confidence = &conf
	existing.UpdatedAt = s.clock.Now()
	return s.repo.UpdateSegment(ctx, s.db, existing)
}

func (s *Service) newSegment(transcriptID snowflake.ID, messageID, finalText, stableText string, receivedAt time.Time, evt event.Envelope) *transcriptdomain.Segment {
	text := finalText
	isFinal := true
	conf := transcriptdomain.ConfidenceFinal
	if text == "" {
		text = stableText
		isFinal = false
		conf = transcriptdomain.ConfidenceStable
	}

	now := s.clock.Now()
	seg := &transcriptdomain.Segment{
		ID:           s.genID.Generate(),
		TranscriptID: transcriptID,
		MessageID:    messageID,
		Text:         text,
		IsFinal:      isFinal,
		Confidence:   &conf,
		ReceivedAt:   receivedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if id, ok := evt.Int("speakerId"); ok {
		seg.SpeakerID = int(id)
	}
	if name := evt.String("speakerName"); name != "" {
		seg.SpeakerName = &name
	}
	if userID := evt.String("speakerUserId"); userID != "" {
		seg.SpeakerUserID = &userID
	}
	return seg
}

func (s *Service) CompileFullText(ctx context.Context, meetingID string) (*transcriptdomain.Transcript, error) {
	tr, err := s.repo.FindByMeeting(ctx, s.db, meetingID)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		// Stop event with no chunks ever seen: complete an empty transcript.
		now := s.clock.Now()
		tr = &transcriptdomain.Transcript{
			ID:        s.genID.Generate(),
			MeetingID: meetingID,
			Status:    transcriptdomain.StatusPending,
			Language:  "en",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, s.db, tr); err != nil {
			if !db.IsDuplicateKeyErr(err) {
				return nil, err
			}
			if tr, err = s.repo.FindByMeeting(ctx, s.db, meetingID); err != nil || tr == nil {
				return nil, err
			}
		}
	}

	segments, err := s.repo.ListFinalSegments(ctx, s.db, tr.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(segments))
	for i := range segments {
		lines = append(lines, fmt.Sprintf("[%s]: %s", speakerLabel(&segments[i]), segments[i].Text))
	}
	full := strings.Join(lines, "\n")
	wordCount := len(strings.Fields(full))

	now := s.clock.Now()
	tr.FullText = &full
	tr.WordCount = &wordCount
	tr.Status = transcriptdomain.StatusCompleted
	if tr.EndedAt == nil {
		tr.EndedAt = &now
	}
	tr.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

func speakerLabel(seg *transcriptdomain.Segment) string {
	if seg.SpeakerName != nil && *seg.SpeakerName != "" {
		return *seg.SpeakerName
	}
	return fmt.Sprintf("Speaker %d", seg.SpeakerID)
}

func (s *Service) QueuePending(ctx context.Context, room string, evt event.Envelope) error {
	now := s.clock.Now()
	occurredAt := evt.OccurredAt()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	pe := &transcriptdomain.PendingEvent{
		ID:         s.genID.Generate(),
		RoomName:   room,
		EventID:    evt.EventID,
		EventType:  evt.Type,
		Payload:    datatypes.JSONMap(evt.Payload),
		OccurredAt: occurredAt,
		ExpiresAt:  now.Add(s.pendingTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.pendingRepo.Insert(ctx, s.db, pe); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		// Already queued: bump the retry count, keep the original expiry.
		return s.pendingRepo.IncrementRetry(ctx, s.db, evt.EventID, now)
	}
	s.log.Info("transcription event queued, meeting unresolved",
		zap.String("room", room),
		zap.String("event_id", evt.EventID),
		zap.String("type", evt.Type),
	)
	return nil
}

func (s *Service) ReplayPending(ctx context.Context, room string) ([]string, error) {
	now := s.clock.Now()
	entries, err := s.pendingRepo.ListByRoom(ctx, s.db, room, now)
	if err != nil {
		return nil, err
	}

	var replayed []string
	for i := range entries {
		entry := entries[i]
		evt := event.Envelope{
			EventID:   entry.EventID,
			Type:      entry.EventType,
			Payload:   map[string]any(entry.Payload),
			Timestamp: entry.OccurredAt.UnixMilli(),
			RoomName:  entry.RoomName,
		}
		queued, err := s.HandleEvent(ctx, evt)
		if err != nil {
			s.log.Warn("pending event replay failed",
				zap.String("event_id", entry.EventID),
				zap.Error(err),
			)
			continue
		}
		if queued {
			// Still unresolvable; the queue upsert already bumped retryCount.
			continue
		}
		if err := s.pendingRepo.Delete(ctx, s.db, entry.ID); err != nil {
			return replayed, err
		}
		replayed = append(replayed, entry.EventID)
	}

	if len(replayed) > 0 {
		s.log.Info("pending transcription events replayed",
			zap.String("room", room),
			zap.Int("count", len(replayed)),
		)
	}
	return replayed, nil
}

func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.pendingRepo.DeleteExpired(ctx, s.db, s.clock.Now())
}

func (s *Service) ReapOrphans(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.orphanThreshold)
	stuck, err := s.repo.ListStuckProcessing(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for i := range stuck {
		if _, err := s.CompileFullText(ctx, stuck[i].MeetingID); err != nil {
			s.log.Warn("orphan transcript compile failed",
				zap.String("meeting_id", stuck[i].MeetingID),
				zap.Error(err),
			)
			continue
		}
		reaped++
	}
	if reaped > 0 {
		s.log.Info("orphaned transcripts force-completed", zap.Int("count", reaped))
	}
	return reaped, nil
}

func (s *Service) GetByMeeting(ctx context.Context, meetingID string) (*transcriptdomain.Transcript, []transcriptdomain.Segment, error) {
	tr, err := s.repo.FindByMeeting(ctx, s.db, meetingID)
	if err != nil {
		return nil, nil, err
	}
	if tr == nil {
		return nil, nil, transcriptdomain.ErrNotFound
	}
	segments, err := s.repo.ListSegments(ctx, s.db, tr.ID)
	if err != nil {
		return nil, nil, err
	}
	return tr, segments, nil
}
