package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"TabSorter/internal/ports"
	"TabSorter/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const kvTable = "kv_store"

// Dialect names understood by OpenSQL.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// SQLStore persists blobs in a single key/value table on SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() int64
}

var _ ports.KeyValueStore = (*SQLStore)(nil)

// NewSQLStore wires an already migrated sql.DB.
func NewSQLStore(db *sql.DB, dialect string, now func() int64) *SQLStore {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     now,
	}
}

// OpenSQL opens the database, applies the embedded migrations and returns
// the store together with the handle to close.
func OpenSQL(ctx context.Context, dialect, dsn string, now func() int64) (*SQLStore, *sql.DB, error) {
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if err := migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewSQLStore(db, dialect, now), db, nil
}

func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(logger.New("goose"))
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate kv store: %w", err)
	}
	return nil
}

// Get returns the blob stored under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := s.getQuery(key)
	if err != nil {
		return nil, false, err
	}

	var value string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set upserts every value in one transaction.
func (s *SQLStore) Set(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	query, args, err := s.upsertQuery(values)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert blobs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit blobs: %w", err)
	}
	return nil
}

func (s *SQLStore) getQuery(key string) (string, []any, error) {
	query, args, err := s.builder.
		Select("value").
		From(kvTable).
		Where(sq.Eq{"blob_key": key}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build select: %w", err)
	}
	return query, args, nil
}

func (s *SQLStore) upsertQuery(values map[string][]byte) (string, []any, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stamp := s.now()
	insert := s.builder.
		Insert(kvTable).
		Columns("blob_key", "value", "updated_at")
	for _, k := range keys {
		insert = insert.Values(k, string(values[k]), stamp)
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (blob_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return query, args, nil
}
