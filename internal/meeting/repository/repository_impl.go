package repository

import (
	"context"
	"errors"

	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() meetingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *meetingdomain.Meeting) error {
	return db.WithContext(ctx).Create(m).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, m *meetingdomain.Meeting) error {
	return db.WithContext(ctx).Save(m).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*meetingdomain.Meeting, error) {
	var m meetingdomain.Meeting
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) FindActiveByRoom(ctx context.Context, db *gorm.DB, room string) (*meetingdomain.Meeting, error) {
	return r.firstByRoom(ctx, db, room, []meetingdomain.Status{meetingdomain.StatusActive})
}

func (r *repo) FindResolvableByRoom(ctx context.Context, db *gorm.DB, room string) (*meetingdomain.Meeting, error) {
	return r.firstByRoom(ctx, db, room, []meetingdomain.Status{meetingdomain.StatusActive, meetingdomain.StatusEnded})
}

func (r *repo) FindScheduledByRoom(ctx context.Context, db *gorm.DB, room string) (*meetingdomain.Meeting, error) {
	return r.firstByRoom(ctx, db, room, []meetingdomain.Status{meetingdomain.StatusScheduled})
}

func (r *repo) FindLatestByRoom(ctx context.Context, db *gorm.DB, room string) (*meetingdomain.Meeting, error) {
	return r.firstByRoom(ctx, db, room, nil)
}

func (r *repo) firstByRoom(ctx context.Context, db *gorm.DB, room string, statuses []meetingdomain.Status) (*meetingdomain.Meeting, error) {
	var m meetingdomain.Meeting
	stmt := db.WithContext(ctx).Where("room_name = ?", room)
	if len(statuses) > 0 {
		stmt = stmt.Where("status IN ?", statuses)
	}
	err := stmt.Order("created_at DESC").Order("occurrence_seq DESC").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) CountByRoom(ctx context.Context, db *gorm.DB, room string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&meetingdomain.Meeting{}).
		Where("room_name = ?", room).
		Count(&count).Error
	return count, err
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]meetingdomain.Meeting, error) {
	var meetings []meetingdomain.Meeting
	err := db.WithContext(ctx).
		Where("status = ?", meetingdomain.StatusActive).
		Order("created_at DESC").
		Find(&meetings).Error
	return meetings, err
}

func (r *repo) ListByHost(ctx context.Context, db *gorm.DB, hostID string) ([]meetingdomain.Meeting, error) {
	var meetings []meetingdomain.Meeting
	err := db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&meetings).Error
	return meetings, err
}
