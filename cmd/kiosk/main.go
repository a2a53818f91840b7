package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/config"
	"github.com/smallbiznis/kiosk/internal/migration"
	"github.com/smallbiznis/kiosk/internal/observability"
	"github.com/smallbiznis/kiosk/internal/providers"
	"github.com/smallbiznis/kiosk/internal/ratelimit"
	"github.com/smallbiznis/kiosk/internal/scheduler"
	"github.com/smallbiznis/kiosk/internal/seed"
	"github.com/smallbiznis/kiosk/internal/server"
	"github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		providers.Module,

		// HTTP server with the ledger domains
		server.Module,

		seed.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
