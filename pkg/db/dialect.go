package db

import (
	"fmt"
	"os"
	"path/filepath"

	puresqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	// TypeSQLite uses the pure Go driver and needs no cgo toolchain.
	TypeSQLite = "sqlite"
	// TypeSQLite3 uses the cgo mattn driver.
	TypeSQLite3 = "sqlite3"
)

func Dialect(cfg Config) (gorm.Dialector, error) {
	switch cfg.Type {
	case TypeMySQL:
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
		)), nil
	case TypePostgres:
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case TypeSQLite, "":
		path, err := sqlitePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return puresqlite.Open(path), nil
	case TypeSQLite3:
		path, err := sqlitePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(path), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.Type)
	}
}

func sqlitePath(path string) (string, error) {
	if path == "" {
		path = "mealplan.db"
	}
	if path == ":memory:" || filepath.Dir(path) == "." {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create sqlite directory: %w", err)
	}
	return path, nil
}

// IsPostgres reports whether the schema is managed by versioned migrations.
func IsPostgres(conn *gorm.DB) bool {
	return conn != nil && conn.Dialector.Name() == TypePostgres
}
