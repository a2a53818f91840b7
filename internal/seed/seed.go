package seed

import (
	"context"
	"errors"

	"github.com/smallbiznis/kiosk/internal/auditcontext"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type demoProduct struct {
	name       string
	priceCents int64
	qty        int64
}

type demoUser struct {
	name   string
	badge  string
	active bool
}

var demoProducts = []demoProduct{
	{name: "Coca", priceCents: 100, qty: 10},
	{name: "Ice Tea", priceCents: 120, qty: 8},
	{name: "Eau", priceCents: 60, qty: 20},
}

var demoUsers = []demoUser{
	{name: "Raphael", badge: "TEST123", active: true},
	{name: "User Bloqué", badge: "BLOCK999", active: false},
}

type Params struct {
	fx.In

	Log        *zap.Logger
	ProductSvc productdomain.Service
	UserSvc    userdomain.Service
}

type Seeder struct {
	log        *zap.Logger
	productSvc productdomain.Service
	userSvc    userdomain.Service
}

func New(p Params) *Seeder {
	return &Seeder{
		log:        p.Log.Named("seed"),
		productSvc: p.ProductSvc,
		userSvc:    p.UserSvc,
	}
}

// EnsureDemoData creates the demo catalog and members. Rows that already
// exist are left untouched, so it can run on every start.
func (s *Seeder) EnsureDemoData(ctx context.Context) error {
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeSystem, "seed")

	for _, p := range demoProducts {
		price := p.priceCents
		_, err := s.productSvc.Create(ctx, productdomain.CreateProductRequest{
			Name:       p.name,
			PriceCents: &price,
			InitialQty: p.qty,
		})
		switch {
		case err == nil:
			s.log.Info("seeded product", zap.String("name", p.name))
		case errors.Is(err, productdomain.ErrNameTaken):
		default:
			return err
		}
	}

	for _, u := range demoUsers {
		badge := u.badge
		active := u.active
		_, err := s.userSvc.Create(ctx, userdomain.CreateUserRequest{
			Name:     u.name,
			BadgeUID: &badge,
			Active:   &active,
		})
		switch {
		case err == nil:
			s.log.Info("seeded user", zap.String("name", u.name), zap.Bool("active", u.active))
		case errors.Is(err, userdomain.ErrBadgeTaken):
		default:
			return err
		}
	}
	return nil
}
