package repository

import (
	"context"
	"errors"

	eventlogdomain "github.com/roomloghq/roomlog/internal/eventlog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() eventlogdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *eventlogdomain.Event) error {
	return db.WithContext(ctx).Create(e).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, e *eventlogdomain.Event) error {
	return db.WithContext(ctx).Save(e).Error
}

func (r *repo) FindByEventID(ctx context.Context, db *gorm.DB, eventID string) (*eventlogdomain.Event, error) {
	var e eventlogdomain.Event
	err := db.WithContext(ctx).Where("event_id = ?", eventID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, status eventlogdomain.Status, offset, limit int) ([]eventlogdomain.Event, error) {
	var events []eventlogdomain.Event
	q := db.WithContext(ctx).Model(&eventlogdomain.Event{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&events).Error
	return events, err
}
