package transcript

import (
	"github.com/roomloghq/roomlog/internal/transcript/repository"
	"github.com/roomloghq/roomlog/internal/transcript/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transcript.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvidePending),
	fx.Provide(service.New),
)
