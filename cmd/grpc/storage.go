package main

import (
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	orderRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/order/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/uow"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/product/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/storage/memory"
	"go.uber.org/zap"
)

// storage is one backend's set of repositories sharing a unit of work.
type storage struct {
	tx        uow.Transactor
	inventory inventory.Repository
	orders    order.Repository
	products  product.Repository
	close     func() error
}

func newStorage(cfg *config.Config, log logger.ZapLogger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		return &storage{
			tx:        postgres.NewTransactor(db, cfg.Storage.LockTimeout, cfg.Postgres.StatementTimeout),
			inventory: invRepoPkg.NewPGRepository(db),
			orders:    orderRepoPkg.NewPGRepository(db),
			products:  prodRepoPkg.NewPGRepository(db),
			close:     db.Close,
		}, nil

	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage; state is lost on restart")
		store := memory.NewStore(cfg.Storage.LockTimeout)
		return &storage{
			tx:        store,
			inventory: store.Inventory(),
			orders:    store.Orders(),
			products:  store.Products(),
			close:     func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
