package repository

import (
	"context"
	"errors"

	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() participantdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *participantdomain.Participant) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, p *participantdomain.Participant) error {
	return db.WithContext(ctx).Save(p).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*participantdomain.Participant, error) {
	var p participantdomain.Participant
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListByMeeting(ctx context.Context, db *gorm.DB, meetingID string) ([]participantdomain.Participant, error) {
	var participants []participantdomain.Participant
	err := db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

func (r *repo) CountPresentByMeeting(ctx context.Context, db *gorm.DB, meetingID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&participantdomain.Participant{}).
		Where("meeting_id = ? AND left_at IS NULL", meetingID).
		Count(&count).Error
	return count, err
}
