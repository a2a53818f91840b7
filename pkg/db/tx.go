package db

import (
	"database/sql"

	"gorm.io/gorm"
)

// TxOptions returns the options every ledger write transaction runs with.
// SQLite transactions are already serializable and reject explicit levels.
func TxOptions(db *gorm.DB) *sql.TxOptions {
	if db == nil || db.Dialector == nil {
		return nil
	}
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	default:
		return nil
	}
}

// Serializable runs fn in a transaction with TxOptions.
func Serializable(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if opts := TxOptions(db); opts != nil {
		return db.Transaction(fn, opts)
	}
	return db.Transaction(fn)
}
