package user

import (
	userdomain "github.com/roomloghq/roomlog/internal/user/domain"
	"github.com/roomloghq/roomlog/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func provideStore(db *gorm.DB) repository.Repository[userdomain.User] {
	return repository.ProvideStore[userdomain.User](db)
}

var Module = fx.Module("user",
	fx.Provide(provideStore),
)
