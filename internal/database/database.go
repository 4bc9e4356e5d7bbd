package database

import (
	"log"
	"os"
	"path/filepath"

	"gameauth/internal/domain"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// Connect opens the single-file SQLite database at path, creating the
// parent directory if needed. The in-memory DSN is passed through as-is
// for tests.
func Connect(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	log.Println("Opening SQLite database:", path)

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        path,
		}),
		&gorm.Config{},
	)
	if err != nil {
		return nil, err
	}

	// Every pooled connection to a plain :memory: DSN sees a fresh empty
	// database, so keep the in-memory case on a single connection.
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates the users and refresh_tokens tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.RefreshToken{})
}
