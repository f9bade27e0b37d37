package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const notifyChannel = "auction_state"

const schema = `
CREATE TABLE IF NOT EXISTS auction_state (
	key        TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// PostgresBlob stores documents in a jsonb table and announces every write
// with NOTIFY so other server instances can reload.
type PostgresBlob struct {
	pool     *pgxpool.Pool
	instance string
	log      *zap.Logger
}

func NewPostgresBlob(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) (*PostgresBlob, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create auction_state table: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresBlob{pool: pool, instance: uuid.NewString(), log: log}, nil
}

func (b *PostgresBlob) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT body FROM auction_state WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (b *PostgresBlob) Put(ctx context.Context, key string, data []byte) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO auction_state (key, body, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		key, string(data))
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, b.instance+"|"+key); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Notifier reports writes to key made by other instances.
func (b *PostgresBlob) Notifier(key string) *PostgresNotifier {
	return &PostgresNotifier{blob: b, key: key, backoff: defaultBackoff}
}

type PostgresNotifier struct {
	blob    *PostgresBlob
	key     string
	backoff backoff
}

// Watch holds a dedicated connection in LISTEN until ctx is done. A dropped
// connection is re-established, and onChange fires once after each
// reconnect since writes may have been missed in between.
func (n *PostgresNotifier) Watch(ctx context.Context, onChange func()) error {
	return keepListening(ctx, n.backoff, n.blob.log, func(ctx context.Context, ready func()) error {
		return n.listen(ctx, ready, onChange)
	}, onChange)
}

func (n *PostgresNotifier) listen(ctx context.Context, ready, onChange func()) error {
	conn, err := n.blob.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	ready()
	for {
		note, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		instance, key, ok := strings.Cut(note.Payload, "|")
		if !ok || instance == n.blob.instance || key != n.key {
			continue
		}
		n.blob.log.Debug("state changed elsewhere", zap.String("key", key))
		onChange()
	}
}
