package meeting

import (
	"github.com/roomloghq/roomlog/internal/meeting/repository"
	"github.com/roomloghq/roomlog/internal/meeting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meeting.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
