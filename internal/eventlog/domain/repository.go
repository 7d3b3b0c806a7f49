package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, e *Event) error
	Update(ctx context.Context, db *gorm.DB, e *Event) error
	FindByEventID(ctx context.Context, db *gorm.DB, eventID string) (*Event, error)
	List(ctx context.Context, db *gorm.DB, status Status, offset, limit int) ([]Event, error)
}
