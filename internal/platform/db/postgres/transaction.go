package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type transactionContextKey struct{}

var txContextKey = transactionContextKey{}

// txStarter は pgxpool.Pool と pgxmock のどちらでも満たせる BeginTx の抽象です。
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// txMode はトランザクションの開始オプションと試行回数の組です。
type txMode struct {
	name     string
	options  pgx.TxOptions
	attempts int
}

// MaxSerializableAttempts は直列化失敗時に fn を実行する最大回数です。
const MaxSerializableAttempts = 3

var (
	modeReadOnly = txMode{
		name:     "read-only",
		options:  pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly},
		attempts: 1,
	}
	modeReadWrite = txMode{
		name:     "read-write",
		options:  pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite},
		attempts: 1,
	}
	modeSerializable = txMode{
		name:     "serializable",
		options:  pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite},
		attempts: MaxSerializableAttempts,
	}
)

// TransactionManager は親子検証と書き込みを同じトランザクションで実行します。
// 通常の書き込みは READ COMMITTED、ツリーの形を変える書き込みは SERIALIZABLE で実行し、
// 後者は直列化失敗を検出すると最初からやり直します。
type TransactionManager struct {
	pool txStarter
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter) *TransactionManager {
	if pool == nil {
		return nil
	}
	return &TransactionManager{pool: pool}
}

// WithinReadOnly は読み取り専用トランザクションで fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, modeReadOnly, fn)
}

// WithinReadWrite は READ COMMITTED の読み書きトランザクションで fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, modeReadWrite, fn)
}

// WithinSerializable は SERIALIZABLE トランザクションで fn を実行します。
// 同時に走った付け替え同士が古いツリーを前提に検証を通過することはなく、負けた側は再実行されます。
func (m *TransactionManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, modeSerializable, fn)
}

func (m *TransactionManager) run(ctx context.Context, mode txMode, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}
	if m == nil {
		return fn(ctx)
	}
	// 外側のトランザクションに参加する
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= mode.attempts; attempt++ {
		err = m.once(ctx, mode.options, fn)
		if err == nil || !isRetryable(err) || attempt == mode.attempts {
			break
		}
		zerolog.Ctx(ctx).Debug().
			Str("mode", mode.name).
			Int("attempt", attempt).
			Err(err).
			Msg("retrying transaction after serialization failure")
	}
	return err
}

func (m *TransactionManager) once(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(contextWithTx(ctx, tx)); err != nil {
		done = true
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}

	done = true
	return nil
}

// isRetryable は直列化失敗かデッドロック検出かを判定します。
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

func contextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey, tx)
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey).(pgx.Tx)
	return tx, ok
}

// QueryerFromContext はコンテキスト内のトランザクションか、なければ fallback を返します。
// リポジトリはすべてこの関数経由でクエリを発行します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx と pgxpool.Pool の共通部分です。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
