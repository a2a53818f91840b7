package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/kiosk/internal/config"
	"go.uber.org/fx"
)

type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type PDFProvider struct {
	holder *config.KioskConfigHolder
}

func New(holder *config.KioskConfigHolder) Provider {
	return &PDFProvider{holder: holder}
}

func (p *PDFProvider) statementConfig() config.StatementConfig {
	if p.holder == nil {
		return config.DefaultKioskConfig().Statement
	}
	return p.holder.Get().Statement
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	return nil, nil
}
