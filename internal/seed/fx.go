package seed

import (
	"context"

	"github.com/smallbiznis/kiosk/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("seed",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, s *Seeder) {
	if !cfg.SeedDemo {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.EnsureDemoData(ctx)
		},
	})
}
