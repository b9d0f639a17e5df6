package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/config"
	"github.com/iliyamo/special-academy-api/internal/database"
	"github.com/iliyamo/special-academy-api/internal/repository"
)

// OpenStore connects the backend named by STORE_DRIVER. MySQL gets its
// schema applied on the way; Mongo indexes are ensured by the store itself.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (*repository.Store, error) {
	switch cfg.StoreDriver {
	case "mongodb":
		client, db, err := database.OpenMongo(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		log.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
		return repository.NewMongoStore(client, db, log), nil

	case "mysql":
		db, err := database.Open(mysqlOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("connected to mysql", zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))
		return repository.NewMySQLStore(db), nil

	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// Migrate applies the MySQL schema without starting anything else.
func Migrate(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.StoreDriver != "mysql" {
		return errors.New("migrate only applies to STORE_DRIVER=mysql")
	}
	db, err := database.Open(mysqlOptions(cfg))
	if err != nil {
		return fmt.Errorf("connect mysql: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info("schema applied", zap.Int("statements", len(database.Statements())))
	return nil
}

func mysqlOptions(cfg config.Config) database.MySQLOptions {
	return database.MySQLOptions{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	}
}
