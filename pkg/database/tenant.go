package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

type tenantKey struct{}

// WithTenantRLS runs fn inside a transaction bound to tenantID.
//
// The transaction sets app.current_tenant with transaction scope, which the row level
// security policies on employees, attendance_records and ledger_entries compare against.
// Repositories still filter by tenant_id explicitly; the policy is the second fence.
// fn must issue its statements through db.Conn(ctx) to run inside the transaction.
//
// Calls nest: if ctx already carries a transaction for the same tenant, fn joins it.
func (db *DB) WithTenantRLS(ctx context.Context, tenantID string, fn func(context.Context) error) error {
	if tx := getTx(ctx); tx != nil {
		if current, _ := ctx.Value(tenantKey{}).(string); current == tenantID {
			return fn(ctx)
		}
		return fmt.Errorf("nested tenant transaction for %s inside %v", tenantID, ctx.Value(tenantKey{}))
	}

	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID); err != nil {
			return fmt.Errorf("failed to set app.current_tenant: %w", err)
		}

		txCtx := context.WithValue(ctx, txKey{}, tx)
		txCtx = context.WithValue(txCtx, tenantKey{}, tenantID)

		return fn(txCtx)
	})
}

// getTx extracts transaction from context if present
func getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
