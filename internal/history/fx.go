package history

import (
	"github.com/roomloghq/roomlog/internal/history/repository"
	"github.com/roomloghq/roomlog/internal/history/service"
	"go.uber.org/fx"
)

var Module = fx.Module("history.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
