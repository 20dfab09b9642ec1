package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" { // unique_violation
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// applyTransactionTx performs the ledger mutation inside an open database
// transaction: locks the account row, checks the freeze flag for spends,
// applies the balance delta via a conditional UPDATE that refuses to go
// negative, and inserts the transaction record. Returns the new balance.
//
// The FOR UPDATE lock serializes concurrent mutations of the same account,
// and the WHERE clause re-checks affordability at write time, so a stale
// read can never produce a negative balance.
func applyTransactionTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) (int64, error) {
	var frozen bool
	var isActive bool
	err := tx.QueryRow(ctx, `
		SELECT frozen, is_active
		FROM child_accounts
		WHERE account_id = $1
		FOR UPDATE;
	`, txn.AccountID).Scan(&frozen, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to lock account %s: %w", txn.AccountID, err)
	}
	if !isActive {
		return 0, apperrors.ErrNotFound
	}
	if frozen && txn.Kind == domain.KindSpent {
		return 0, apperrors.ErrAccountFrozen
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE child_accounts
		SET time_bucks = time_bucks + $1,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE account_id = $4 AND time_bucks + $1 >= 0
		RETURNING time_bucks;
	`, txn.Amount, txn.CreatedAt, txn.ActorID, txn.AccountID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("failed to update balance for account %s: %w", txn.AccountID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (transaction_id, account_id, actor_id, kind, amount, notes, reference_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9);
	`,
		txn.TransactionID,
		txn.AccountID,
		txn.ActorID,
		txn.Kind,
		txn.Amount,
		txn.Notes,
		txn.ReferenceID,
		txn.IdempotencyKey,
		txn.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_account_idempotency_key") {
			return 0, apperrors.ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}

	return newBalance, nil
}

// insertAuditTx appends an audit entry inside an open database transaction.
// A failure here aborts the whole mutation the entry describes.
func insertAuditTx(ctx context.Context, tx pgx.Tx, entry domain.AuditEntry) error {
	metadata := []byte("{}")
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO audit_logs (audit_id, actor_id, account_id, action, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`,
		entry.AuditID,
		entry.ActorID,
		entry.AccountID,
		entry.Action,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", entry.AuditID, err)
	}
	return nil
}
