package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
)

// entry maps a stored key/value pair onto the kv_entries table.
type entry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

type sqlStore struct {
	db     *bun.DB
	driver string
}

func newSQLStore(lc fx.Lifecycle, cfg config.Database, logger *zap.Logger) (Store, error) {
	dial, err := selectDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := openSQLDB(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}
	applyPoolSettings(sqlDB, cfg)

	db := bun.NewDB(sqlDB, dial)
	store := &sqlStore{db: db, driver: cfg.Driver}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.DB.PingContext(pingCtx); err != nil {
				return fmt.Errorf("ping store database: %w", err)
			}
			if logger != nil {
				logger.Info("sql store connected", zap.String("driver", cfg.Driver))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	return store, nil
}

// DB exposes the underlying bun connection for the migrator.
func (s *sqlStore) DB() *bun.DB { return s.db }

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	e := new(entry)
	err := s.db.NewSelect().Model(e).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Set ignores ttl: the table has no native expiry, so stale rows are dropped
// by the read path or an external cleanup over updated_at.
func (s *sqlStore) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if key == "" {
		return errors.New("kvstore: key is required")
	}
	e := &entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}

	insert := s.db.NewInsert().Model(e)
	if s.driver == "mysql" {
		insert = insert.On("DUPLICATE KEY UPDATE").
			Set("value = VALUES(value)").
			Set("updated_at = VALUES(updated_at)")
	} else {
		insert = insert.On("CONFLICT (key) DO UPDATE").
			Set("value = EXCLUDED.value").
			Set("updated_at = EXCLUDED.updated_at")
	}
	_, err := insert.Exec(ctx)
	return err
}

func (s *sqlStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.db.NewDelete().Model((*entry)(nil)).Where("key = ?", key).Exec(ctx)
	return err
}

func (s *sqlStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().Model((*entry)(nil)).Where("key IN (?)", bun.In(keys)).Exec(ctx)
	return err
}

func (s *sqlStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.NewSelect().Model((*entry)(nil)).
		Column("key").
		Where("key LIKE ?", prefix+"%").
		Scan(ctx, &keys)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func selectDialect(driver string) (schema.Dialect, error) {
	switch driver {
	case "postgres":
		return pgdialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQLDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}
	switch driver {
	case "postgres":
		connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
		return sql.OpenDB(connector), nil
	case "mysql":
		return sql.Open("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

func applyPoolSettings(db *sql.DB, cfg config.Database) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}
