package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
	"github.com/smallbiznis/kiosk/internal/product/domain"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const initialStockComment = "stock initial"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	PriceSvc pricedomain.Service
	StockSvc stockdomain.Service
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	priceSvc pricedomain.Service
	stockSvc stockdomain.Service
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		priceSvc: p.PriceSvc,
		stockSvc: p.StockSvc,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.CatalogItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CatalogItem{}, domain.ErrInvalidName
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		return domain.CatalogItem{}, domain.ErrInvalidPrice
	}
	if req.InitialQty < 0 {
		return domain.CatalogItem{}, domain.ErrInvalidQuantity
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now().UTC()
	product := domain.Product{
		ID:        s.genID.Generate(),
		Name:      name,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &product); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrNameTaken
			}
			return err
		}

		if req.InitialQty > 0 {
			comment := initialStockComment
			if _, err := s.stockSvc.Adjust(ctx, tx, stockdomain.AdjustRequest{
				ProductID: product.ID,
				Delta:     req.InitialQty,
				Reason:    stockdomain.ReasonRestock,
				Comment:   &comment,
			}); err != nil {
				return err
			}
		}

		if req.PriceCents != nil {
			if _, err := s.priceSvc.Append(ctx, tx, pricedomain.SetPriceRequest{
				ProductID:  product.ID,
				PriceCents: *req.PriceCents,
				StartsAt:   &now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.CatalogItem{}, err
	}

	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	if s.auditSvc != nil {
		metadata := map[string]any{"name": product.Name, "initial_qty": req.InitialQty}
		if req.PriceCents != nil {
			metadata["price_cents"] = *req.PriceCents
		}
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionProductCreate, "product", product.ID.String(), metadata)
	}

	item := domain.CatalogItem{
		ID:         product.ID,
		Name:       product.Name,
		Active:     product.Active,
		PriceCents: req.PriceCents,
		Qty:        req.InitialQty,
		Available:  req.InitialQty > 0,
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProductRequest) (domain.Product, error) {
	if req.ID == 0 {
		return domain.Product{}, domain.ErrInvalidID
	}
	if req.Name == nil && req.Active == nil {
		return domain.Product{}, domain.ErrEmptyUpdate
	}

	var product domain.Product
	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		product = *existing

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			product.Name = name
		}
		if req.Active != nil {
			product.Active = *req.Active
		}
		product.UpdatedAt = s.clock.Now().UTC()

		if err := s.repo.Update(ctx, tx, &product); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrNameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionProductUpdate, "product", product.ID.String(), map[string]any{
			"name":   product.Name,
			"active": product.Active,
		})
	}
	return product, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Product, error) {
	if id == 0 {
		return domain.Product{}, domain.ErrInvalidID
	}
	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) List(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.catalog(ctx, false)
}

func (s *Service) ListOrderable(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.catalog(ctx, true)
}

func (s *Service) catalog(ctx context.Context, activeOnly bool) ([]domain.CatalogItem, error) {
	items, err := s.repo.Catalog(ctx, s.db, domain.CatalogFilter{
		ActiveOnly: activeOnly,
		At:         s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}
	return items, nil
}
