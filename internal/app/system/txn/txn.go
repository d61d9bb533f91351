// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one.
//
// Standalone servers (common in development) reject transactions. Run then
// executes the function directly; RunWithFallback lets the caller supply a
// compensating implementation instead, which batch ingestion uses to undo a
// partially written batch.
//
// Usage:
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if _, err := groups.InsertOne(ctx, g); err != nil {
//	        return err
//	    }
//	    _, err := members.InsertOne(ctx, m)
//	    return err
//	})
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work. ctx is a mongo.SessionContext inside a
// transaction and the caller's context otherwise; use it for every call.
type Func func(ctx context.Context) error

// Run executes fn in a transaction, or directly when transactions are not
// supported. log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	return RunWithFallback(ctx, db, log, fn, fn)
}

// RunWithFallback executes txnFn in a transaction. When the deployment has no
// transaction support, fallbackFn runs instead, outside any transaction.
func RunWithFallback(ctx context.Context, db *mongo.Database, log *zap.Logger, txnFn, fallbackFn Func) error {
	session, err := db.Client().StartSession()
	if err != nil {
		if log != nil {
			log.Warn("failed to start session, running without transaction", zap.Error(err))
		}
		return fallbackFn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, txnFn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Warn("transactions not supported, running without transaction", zap.Error(err))
		}
		return fallbackFn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions.
//
// Known codes:
//   - 20: IllegalOperation, "Transaction numbers are only allowed on a replica set member or mongos"
//   - 51: IllegalOperation on some DocumentDB versions
//   - 263: OperationNotSupportedInTransaction
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	// Fall back to message matching; two keywords are required so that an
	// ordinary write error mentioning "session" is not misread.
	msg := strings.ToLower(err.Error())
	matches := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			matches++
		}
	}
	return matches >= 2
}
