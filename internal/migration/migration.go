package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	debtdomain "github.com/smallbiznis/kiosk/internal/debt/domain"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations/postgres"

// RunMigrations applies the embedded PostgreSQL migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the ledger.
func Models() []any {
	return []any{
		&productdomain.Product{},
		&pricedomain.PriceVersion{},
		&stockdomain.StockLevel{},
		&stockdomain.StockMove{},
		&userdomain.User{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&billingperioddomain.BillingPeriod{},
		&debtdomain.PeriodDebt{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema from the models on stores without
// versioned migrations (SQLite, MySQL).
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(Models()...)
}

// Apply picks the migration strategy for the connected dialect.
func Apply(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if db.Dialector.Name() != "postgres" {
		return AutoMigrate(db)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
