package bootstrap

import (
	"shorts_backend/config"
	"shorts_backend/pkg/logging"
	"shorts_backend/platform/database"
	"shorts_backend/platform/events"
	"shorts_backend/platform/redis"
	"shorts_backend/platform/storage"
)

type Infrastructure struct {
	DB             *database.DB
	Storage        *storage.Service
	Mirror         *storage.ObjectMirror
	EventPublisher events.Publisher

	redisClient interface{ Close() error }
}

func NewInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}

	// database, only when sessions live in postgres
	if cfg.SessionStore == "postgres" {
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, err
		}
		infra.DB = db
		if err := infra.DB.AutoMigrate(); err != nil {
			return nil, err
		}
	}

	// storage services
	storageService, err := storage.InitStorageService(cfg)
	if err != nil {
		logging.Logger.Error("fail Initializing Storage", "error", err)
		return nil, err
	}
	infra.Storage = storageService

	// object mirror (optional)
	mirror, err := storage.InitObjectMirror(cfg)
	if err != nil {
		logging.Logger.Error("fail Initializing Object Mirror", "error", err)
		return nil, err
	}
	infra.Mirror = mirror

	// event publisher: redis fan-out when configured, in-process otherwise
	if cfg.RedisURL != "" {
		rdb, err := redis.InitRedis(cfg)
		if err != nil {
			logging.Logger.Error("fail Initializing Redis", "error", err)
			return nil, err
		}
		infra.redisClient = rdb
		infra.EventPublisher = events.NewRedisPublisher(rdb)
	} else {
		infra.EventPublisher = events.NewLocalBroker()
	}

	return infra, nil
}

func (infra *Infrastructure) Shutdown() error {
	if infra.DB != nil {
		if err := infra.DB.Close(); err != nil {
			logging.Logger.Error("fail closing database", "error", err)
			return err
		}
	}
	if infra.redisClient != nil {
		if err := infra.redisClient.Close(); err != nil {
			logging.Logger.Error("fail closing redis", "error", err)
			return err
		}
	}
	return nil
}
