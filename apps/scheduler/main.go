package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/audit"
	"github.com/smallbiznis/kiosk/internal/billingperiod"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/config"
	"github.com/smallbiznis/kiosk/internal/debt"
	"github.com/smallbiznis/kiosk/internal/migration"
	"github.com/smallbiznis/kiosk/internal/observability"
	"github.com/smallbiznis/kiosk/internal/order"
	"github.com/smallbiznis/kiosk/internal/product"
	"github.com/smallbiznis/kiosk/internal/ratelimit"
	"github.com/smallbiznis/kiosk/internal/scheduler"
	"github.com/smallbiznis/kiosk/internal/stock"
	"github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
)

// Standalone scheduler process. Run it next to cmd/kiosk started with
// RUN_SCHEDULER=false, and give it its own SNOWFLAKE_NODE_ID.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Domain services required by scheduler
		scheduler.Module,
		billingperiod.Module,
		stock.Module,
		audit.Module,

		// Repositories the closure and reconciliation read through
		product.Module,
		order.Module,
		debt.Module,

		// No server module!
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
