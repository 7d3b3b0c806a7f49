package eventlog

import (
	"github.com/roomloghq/roomlog/internal/eventlog/repository"
	"github.com/roomloghq/roomlog/internal/eventlog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("eventlog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
