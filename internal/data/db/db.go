package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type Config struct {
	Driver     string // sqlite|postgres
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string
	PostgresSSLMode  string
}

func (c Config) postgresDSN() string {
	sslMode := c.PostgresSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresName,
		sslMode,
	)
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// Open connects to the configured database. sqlite is the default so a
// single binary runs without external services.
func Open(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "", "sqlite":
		driver = "sqlite"
		path := cfg.SQLitePath
		if path == "" {
			path = "traitforge.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
		}
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.postgresDSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}

	serviceLog.Info("database connected", "driver", driver)
	return &Service{db: db, log: serviceLog, driver: driver}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
