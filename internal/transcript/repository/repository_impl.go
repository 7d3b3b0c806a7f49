package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() transcriptdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, t *transcriptdomain.Transcript) error {
	return db.WithContext(ctx).Create(t).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, t *transcriptdomain.Transcript) error {
	return db.WithContext(ctx).Save(t).Error
}

func (r *repo) FindByMeeting(ctx context.Context, db *gorm.DB, meetingID string) (*transcriptdomain.Transcript, error) {
	var t transcriptdomain.Transcript
	err := db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *repo) ListStuckProcessing(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]transcriptdomain.Transcript, error) {
	var transcripts []transcriptdomain.Transcript
	err := db.WithContext(ctx).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", transcriptdomain.StatusProcessing, cutoff).
		Find(&transcripts).Error
	return transcripts, err
}

func (r *repo) InsertSegment(ctx context.Context, db *gorm.DB, seg *transcriptdomain.Segment) error {
	return db.WithContext(ctx).Create(seg).Error
}

func (r *repo) UpdateSegment(ctx context.Context, db *gorm.DB, seg *transcriptdomain.Segment) error {
	return db.WithContext(ctx).Save(seg).Error
}

func (r *repo) FindSegment(ctx context.Context, db *gorm.DB, transcriptID snowflake.ID, messageID string) (*transcriptdomain.Segment, error) {
	var seg transcriptdomain.Segment
	err := db.WithContext(ctx).
		Where("transcript_id = ? AND message_id = ?", transcriptID, messageID).
		First(&seg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &seg, nil
}

func (r *repo) ListSegments(ctx context.Context, db *gorm.DB, transcriptID snowflake.ID) ([]transcriptdomain.Segment, error) {
	var segments []transcriptdomain.Segment
	err := db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("received_at ASC").Order("id ASC").
		Find(&segments).Error
	return segments, err
}

func (r *repo) ListFinalSegments(ctx context.Context, db *gorm.DB, transcriptID snowflake.ID) ([]transcriptdomain.Segment, error) {
	var segments []transcriptdomain.Segment
	err := db.WithContext(ctx).
		Where("transcript_id = ? AND is_final = ?", transcriptID, true).
		Order("received_at ASC").Order("id ASC").
		Find(&segments).Error
	return segments, err
}

type pendingRepo struct{}

func ProvidePending() transcriptdomain.PendingRepository {
	return &pendingRepo{}
}

func (r *pendingRepo) Insert(ctx context.Context, db *gorm.DB, pe *transcriptdomain.PendingEvent) error {
	return db.WithContext(ctx).Create(pe).Error
}

func (r *pendingRepo) IncrementRetry(ctx context.Context, db *gorm.DB, eventID string, now time.Time) error {
	return db.WithContext(ctx).Model(&transcriptdomain.PendingEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  now,
		}).Error
}

func (r *pendingRepo) ListByRoom(ctx context.Context, db *gorm.DB, room string, now time.Time) ([]transcriptdomain.PendingEvent, error) {
	var events []transcriptdomain.PendingEvent
	err := db.WithContext(ctx).
		Where("room_name = ? AND expires_at > ?", room, now).
		Order("created_at ASC").Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *pendingRepo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&transcriptdomain.PendingEvent{}).Error
}

func (r *pendingRepo) DeleteExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&transcriptdomain.PendingEvent{})
	return result.RowsAffected, result.Error
}
