package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	"github.com/smallbiznis/kiosk/internal/clock"
	"github.com/smallbiznis/kiosk/internal/user/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("user.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

// NormalizeBadge returns the stored form of a badge uid.
func NormalizeBadge(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.User{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.User{}, err
	}

	var badge *string
	if req.BadgeUID != nil {
		if b := NormalizeBadge(*req.BadgeUID); b != "" {
			badge = &b
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now().UTC()
	user := domain.User{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		BadgeUID:  badge,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrBadgeTaken
		}
		return domain.User{}, err
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionUserCreate, "user", user.ID.String(), map[string]any{
			"name":      user.Name,
			"badge_uid": deref(user.BadgeUID),
			"active":    user.Active,
		})
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateUserRequest) (domain.User, error) {
	if req.ID == 0 {
		return domain.User{}, domain.ErrInvalidID
	}
	if req.Name == nil && req.Email == nil && req.Active == nil {
		return domain.User{}, domain.ErrEmptyUpdate
	}

	user, err := s.mutate(ctx, req.ID, func(user *domain.User) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			user.Name = name
		}
		if req.Email != nil {
			email, err := normalizeEmail(req.Email)
			if err != nil {
				return err
			}
			user.Email = email
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionUserUpdate, "user", user.ID.String(), map[string]any{
			"name":   user.Name,
			"active": user.Active,
		})
	}
	return user, nil
}

func (s *Service) LinkBadge(ctx context.Context, req domain.LinkBadgeRequest) (domain.User, error) {
	if req.ID == 0 {
		return domain.User{}, domain.ErrInvalidID
	}
	badge := NormalizeBadge(req.BadgeUID)
	if badge == "" {
		return domain.User{}, domain.ErrInvalidBadge
	}

	user, err := s.mutate(ctx, req.ID, func(user *domain.User) error {
		user.BadgeUID = &badge
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, auditdomain.ActionUserLinkBadge, "user", user.ID.String(), map[string]any{
			"badge_uid": badge,
		})
	}
	return user, nil
}

func (s *Service) mutate(ctx context.Context, id snowflake.ID, apply func(*domain.User) error) (domain.User, error) {
	var user domain.User
	err := dbpkg.Serializable(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		user = *existing
		if err := apply(&user); err != nil {
			return err
		}
		user.UpdatedAt = s.clock.Now().UTC()

		if err := s.repo.Update(ctx, tx, &user); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrBadgeTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.User, error) {
	if id == 0 {
		return domain.User{}, domain.ErrInvalidID
	}
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *Service) IdentifyByBadge(ctx context.Context, badgeUID string) (domain.User, error) {
	badge := NormalizeBadge(badgeUID)
	if badge == "" {
		return domain.User{}, domain.ErrInvalidBadge
	}

	user, err := s.repo.FindByBadge(ctx, s.db, badge)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	if !user.Active {
		return *user, domain.ErrDisabled
	}
	return *user, nil
}

func normalizeEmail(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	email := strings.TrimSpace(*value)
	if email == "" {
		return nil, nil
	}
	if !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	return &email, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
