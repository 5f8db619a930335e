// Package storage opens the persistence backend that holds the session
// credential between runs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/mdrscore/client/internal/client/migrations"
	"github.com/mdrscore/client/internal/client/repositories/metadata"
	"github.com/mdrscore/client/internal/filex"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	_ "modernc.org/sqlite"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

type Options struct {
	Backend string

	// SQLitePath is the database file. Parent directories are created.
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Store is an open backend. Close releases the underlying connection.
type Store struct {
	metadata.Repository
	closer io.Closer
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema. Safe to call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InitDatabase opens (creating if needed) the SQLite file at path and
// migrates it.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open returns the repository selected by opts.Backend.
func Open(ctx context.Context, opts Options) (*Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		db, err := InitDatabase(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{Repository: metadata.NewSQLiteRepository(db), closer: db}, nil

	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis %s: %w", opts.RedisAddr, err)
		}
		return &Store{Repository: metadata.NewRedisRepository(rdb, opts.RedisPrefix), closer: rdb}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
