package billingperiod

import (
	"github.com/smallbiznis/kiosk/internal/billingperiod/repository"
	"github.com/smallbiznis/kiosk/internal/billingperiod/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingperiod.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
