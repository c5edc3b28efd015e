package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/data/db"
	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/platform/blob"
	"github.com/yungbote/traitforge-backend/internal/platform/envutil"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	DB   db.Config
	Blob blob.Config

	JWTSecretKey string
	AuthDisabled bool
	DevUserID    uuid.UUID

	DefaultCanvasWidth  int
	DefaultCanvasHeight int
	MaxCollectionSize   int
	ItemPause           time.Duration
	DecodeConcurrency   int
	RunRetention        time.Duration

	RedisAddr    string
	RedisChannel string

	MetricsAddr    string
	AllowedOrigins []string
}

// devUserFallback is the identity used when AUTH_DISABLED is set and no
// DEV_USER_ID is given.
var devUserFallback = uuid.MustParse("00000000-0000-4000-8000-000000000001")

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", "sqlite"),
			SQLitePath:       envutil.String("SQLITE_PATH", "traitforge.db"),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "traitforge"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		Blob: blob.Config{
			Driver:    envutil.String("BLOB_DRIVER", string(blob.DriverFilesystem)),
			FSRoot:    envutil.String("BLOB_FS_ROOT", "data/exports"),
			FSBaseURL: envutil.String("BLOB_FS_BASE_URL", ""),
			GCS: blob.GCSConfig{
				Bucket:      envutil.String("BLOB_GCS_BUCKET", ""),
				CDNDomain:   envutil.String("BLOB_GCS_CDN_DOMAIN", ""),
				Credentials: envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")),
			},
			S3: blob.S3Config{
				Region:    envutil.String("BLOB_S3_REGION", "us-east-1"),
				Bucket:    envutil.String("BLOB_S3_BUCKET", ""),
				Endpoint:  envutil.String("BLOB_S3_ENDPOINT", ""),
				PathStyle: envutil.Bool("BLOB_S3_PATH_STYLE", false),
			},
		},
		JWTSecretKey:        envutil.String("JWT_SECRET_KEY", ""),
		AuthDisabled:        envutil.Bool("AUTH_DISABLED", false),
		DevUserID:           devUserFallback,
		DefaultCanvasWidth:  envutil.Int("DEFAULT_CANVAS_WIDTH", collection.DefaultCanvasWidth),
		DefaultCanvasHeight: envutil.Int("DEFAULT_CANVAS_HEIGHT", collection.DefaultCanvasHeight),
		MaxCollectionSize:   envutil.Int("MAX_COLLECTION_SIZE", collection.MaxCollectionSize),
		ItemPause:           envutil.Duration("GENERATION_ITEM_PAUSE", 0),
		DecodeConcurrency:   envutil.Int("DECODE_CONCURRENCY", 4),
		RunRetention:        envutil.Duration("GENERATION_RETENTION", 30*time.Minute),
		RedisAddr:           envutil.String("REDIS_ADDR", ""),
		RedisChannel:        envutil.String("REDIS_CHANNEL", "traitforge:sse"),
		MetricsAddr:         envutil.String("METRICS_ADDR", ""),
		AllowedOrigins:      envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if raw := envutil.String("DEV_USER_ID", ""); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			cfg.DevUserID = id
		} else if log != nil {
			log.Warn("ignoring invalid DEV_USER_ID", "value", raw)
		}
	}
	if cfg.JWTSecretKey == "" && !cfg.AuthDisabled && log != nil {
		log.Warn("JWT_SECRET_KEY is empty; every token will be rejected")
	}
	return cfg
}
