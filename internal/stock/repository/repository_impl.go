package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kiosk/internal/stock/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxMoves = 500

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) EnsureLevel(ctx context.Context, db *gorm.DB, productID snowflake.ID, at time.Time) error {
	level := domain.StockLevel{ProductID: productID, Qty: 0, UpdatedAt: at}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&level).Error
}

func (r *repo) ApplyDelta(ctx context.Context, db *gorm.DB, productID snowflake.ID, delta int64, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE stock_levels SET qty = qty + ?, updated_at = ?
		 WHERE product_id = ? AND qty + ? BETWEEN 0 AND ?`,
		delta,
		at,
		productID,
		delta,
		domain.MaxLevelQty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertMove(ctx context.Context, db *gorm.DB, move *domain.StockMove) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO stock_moves (id, product_id, delta_qty, reason, ref_id, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		move.ID,
		move.ProductID,
		move.DeltaQty,
		move.Reason,
		move.RefID,
		move.Comment,
		move.CreatedAt,
	).Error
}

func (r *repo) FindLevel(ctx context.Context, db *gorm.DB, productID snowflake.ID) (*domain.StockLevel, error) {
	var level domain.StockLevel
	err := db.WithContext(ctx).Raw(
		`SELECT product_id, qty, updated_at FROM stock_levels WHERE product_id = ?`,
		productID,
	).Scan(&level).Error
	if err != nil {
		return nil, err
	}
	if level.ProductID == 0 {
		return nil, nil
	}
	return &level, nil
}

func (r *repo) ListLevels(ctx context.Context, db *gorm.DB) ([]domain.StockLevel, error) {
	var levels []domain.StockLevel
	err := db.WithContext(ctx).
		Model(&domain.StockLevel{}).
		Order("product_id asc").
		Find(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *repo) ListMoves(ctx context.Context, db *gorm.DB, filter domain.MoveFilter) ([]domain.StockMove, error) {
	stmt := db.WithContext(ctx).Model(&domain.StockMove{})
	if filter.ProductID != 0 {
		stmt = stmt.Where("product_id = ?", filter.ProductID)
	}
	if filter.Reason != "" {
		stmt = stmt.Where("reason = ?", filter.Reason)
	}
	if filter.RefID != 0 {
		stmt = stmt.Where("ref_id = ?", filter.RefID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > maxMoves {
		limit = maxMoves
	}

	var moves []domain.StockMove
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&moves).Error
	if err != nil {
		return nil, err
	}
	return moves, nil
}

func (r *repo) Drifts(ctx context.Context, db *gorm.DB) ([]domain.Drift, error) {
	var drifts []domain.Drift
	err := db.WithContext(ctx).Raw(
		`SELECT sl.product_id AS product_id, sl.qty AS qty, COALESCE(SUM(sm.delta_qty), 0) AS moves_qty
		 FROM stock_levels sl
		 LEFT JOIN stock_moves sm ON sm.product_id = sl.product_id
		 GROUP BY sl.product_id, sl.qty
		 HAVING sl.qty <> COALESCE(SUM(sm.delta_qty), 0)
		 ORDER BY sl.product_id`,
	).Scan(&drifts).Error
	if err != nil {
		return nil, err
	}
	return drifts, nil
}
