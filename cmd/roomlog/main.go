package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/config"
	"github.com/roomloghq/roomlog/internal/eventlog"
	"github.com/roomloghq/roomlog/internal/history"
	"github.com/roomloghq/roomlog/internal/logger"
	"github.com/roomloghq/roomlog/internal/meeting"
	"github.com/roomloghq/roomlog/internal/migration"
	"github.com/roomloghq/roomlog/internal/observability"
	"github.com/roomloghq/roomlog/internal/participant"
	"github.com/roomloghq/roomlog/internal/server"
	"github.com/roomloghq/roomlog/internal/sweeper"
	"github.com/roomloghq/roomlog/internal/transcript"
	"github.com/roomloghq/roomlog/internal/user"
	"github.com/roomloghq/roomlog/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		user.Module,
		meeting.Module,
		participant.Module,
		transcript.Module,
		eventlog.Module,
		history.Module,
		sweeper.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
