package db

import (
	"context"
	"time"

	"github.com/mantodeus/mantodeus-manager/internal/config"
	"github.com/mantodeus/mantodeus-manager/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens the database connection, configures the pool and registers
// connect/close lifecycle hooks. The handle is constructed once here and
// injected everywhere else; no package holds a lazy global connection.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialect, &gorm.Config{
		Logger: logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Use(otelgorm.NewPlugin()); err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := sqlDB.PingContext(ctx); err != nil {
					return err
				}
				log.Info("database connected",
					zap.String("type", cfg.DBType),
					zap.String("name", cfg.DBName),
				)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return sqlDB.Close()
			},
		})
	}

	return conn, nil
}
