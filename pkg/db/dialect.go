package db

import (
	"fmt"

	"github.com/comptaline/backoffice/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the gorm driver for the configured database type. The
// DSN itself comes from config, so overrides land in one place.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn := cfg.DatabaseDSN()
	switch cfg.DBType {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.DBType)
	}
}
