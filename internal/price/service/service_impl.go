package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/price/domain"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProductRepo productdomain.Repository
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	productRepo productdomain.Repository
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("price.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		productRepo: p.ProductRepo,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) CurrentPrice(ctx context.Context, productID snowflake.ID, at time.Time) (domain.PriceVersion, error) {
	return s.EffectivePrice(ctx, s.db, productID, at)
}

func (s *Service) EffectivePrice(ctx context.Context, tx *gorm.DB, productID snowflake.ID, at time.Time) (domain.PriceVersion, error) {
	if productID == 0 {
		return domain.PriceVersion{}, domain.ErrInvalidProduct
	}
	version, err := s.repo.Effective(ctx, tx, productID, at.UTC())
	if err != nil {
		return domain.PriceVersion{}, err
	}
	if version == nil {
		return domain.PriceVersion{}, domain.ErrNotFound
	}
	return *version, nil
}

func (s *Service) CurrentPrices(ctx context.Context, tx *gorm.DB, at time.Time) (map[snowflake.ID]int64, error) {
	if tx == nil {
		tx = s.db
	}
	versions, err := s.repo.EffectiveAll(ctx, tx, at.UTC())
	if err != nil {
		return nil, err
	}
	prices := make(map[snowflake.ID]int64, len(versions))
	for _, version := range versions {
		prices[version.ProductID] = version.PriceCents
	}
	return prices, nil
}

func (s *Service) SetPrice(ctx context.Context, req domain.SetPriceRequest) (domain.PriceVersion, error) {
	var version domain.PriceVersion
	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var err error
		version, err = s.Append(ctx, tx, req)
		return err
	})
	if err != nil {
		return domain.PriceVersion{}, err
	}

	s.log.Info("price set",
		zap.String("product_id", version.ProductID.String()),
		zap.Int64("price_cents", version.PriceCents),
		zap.Time("starts_at", version.StartsAt),
	)
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionPriceSet, "product", version.ProductID.String(), map[string]any{
			"price_version_id": version.ID.String(),
			"price_cents":      strconv.FormatInt(version.PriceCents, 10),
			"starts_at":        version.StartsAt.Format(time.RFC3339),
		})
	}
	return version, nil
}

// Append inserts a new version inside the caller's transaction.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, req domain.SetPriceRequest) (domain.PriceVersion, error) {
	if req.ProductID == 0 {
		return domain.PriceVersion{}, domain.ErrInvalidProduct
	}
	if req.PriceCents < 0 {
		return domain.PriceVersion{}, domain.ErrInvalidPrice
	}

	product, err := s.productRepo.FindByID(ctx, tx, req.ProductID)
	if err != nil {
		return domain.PriceVersion{}, err
	}
	if product == nil {
		return domain.PriceVersion{}, domain.ErrProductNotFound
	}

	now := s.clock.Now().UTC()
	startsAt := now
	if req.StartsAt != nil && !req.StartsAt.IsZero() {
		startsAt = req.StartsAt.UTC()
	}

	version := domain.PriceVersion{
		ID:         s.genID.Generate(),
		ProductID:  req.ProductID,
		PriceCents: req.PriceCents,
		StartsAt:   startsAt,
		CreatedAt:  now,
	}
	if err := s.repo.Insert(ctx, tx, &version); err != nil {
		return domain.PriceVersion{}, err
	}
	return version, nil
}

func (s *Service) History(ctx context.Context, productID snowflake.ID) ([]domain.PriceVersion, error) {
	if productID == 0 {
		return nil, domain.ErrInvalidProduct
	}
	product, err := s.productRepo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return s.repo.ListByProduct(ctx, s.db, productID)
}
