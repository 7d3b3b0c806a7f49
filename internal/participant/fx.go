package participant

import (
	"github.com/roomloghq/roomlog/internal/participant/repository"
	"github.com/roomloghq/roomlog/internal/participant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("participant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
