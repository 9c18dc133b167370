// internal/app/system/txn/txn.go

// Package txn runs store operations inside a Mongo multi-document
// transaction when the server supports them, and degrades to plain
// sequential writes on standalone servers.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone mongod, or a server too old for
// sessions).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, pair := range [][2]string{
		{"transaction", "replica set"},
		{"transaction", "session"},
		{"session", "not supported"},
		{"illegal operation", "transaction"},
	} {
		if strings.Contains(msg, pair[0]) && strings.Contains(msg, pair[1]) {
			return true
		}
	}
	return false
}

// Runner executes callbacks transactionally. Once a not-supported error is
// seen it stops trying and runs callbacks directly for the rest of the
// process lifetime.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

func NewRunner(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// RunTx runs fn inside a transaction, committing on nil and aborting on
// error. The context passed to fn carries the session, so store calls made
// with it participate in the transaction.
func (r *Runner) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.client == nil || r.unsupported.Load() {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.degrade(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.degrade(err)
		return fn(ctx)
	}
	return err
}

func (r *Runner) degrade(err error) {
	if r.unsupported.CompareAndSwap(false, true) {
		r.log.Warn("mongo transactions unavailable, running multi-document writes without them",
			zap.Error(err))
	}
}
