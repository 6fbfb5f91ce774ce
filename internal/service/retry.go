package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// TxRunner runs compound operations in one database transaction with a deadline,
// retrying the whole operation on transient failures.
type TxRunner struct {
	db       *gorm.DB
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

type TxOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

func NewTxRunner(db *gorm.DB, opts TxOptions, logger *slog.Logger) *TxRunner {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &TxRunner{db: db, timeout: opts.Timeout, attempts: opts.MaxAttempts, backoff: opts.Backoff, logger: logger}
}

// DB returns a handle for plain reads bound to ctx.
func (r *TxRunner) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Run executes fn inside a transaction. fn may run more than once and must not
// publish side effects itself.
func (r *TxRunner) Run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.once(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt == r.attempts {
			break
		}
		r.logger.Warn("retrying transaction", "op", op, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return newErr(ErrTransient, op, "", nil, ctx.Err())
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	if IsRetryable(err) && !errors.Is(err, ErrTransient) {
		return newErr(ErrTransient, op, "", nil, err)
	}
	return err
}

func (r *TxRunner) once(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.WithContext(ctx).Transaction(fn)
}
