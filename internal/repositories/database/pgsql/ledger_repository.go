package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(db *pgxpool.Pool) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{BaseRepository{Pool: db}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepository
var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

const transactionColumns = `transaction_id, account_id, actor_id, kind, amount, notes, COALESCE(reference_id, ''), COALESCE(idempotency_key, ''), created_at`

func (r *PgxLedgerRepository) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.Pool.QueryRow(ctx, `
		SELECT time_bucks FROM child_accounts WHERE account_id = $1;
	`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get balance for account %s: %w", accountID, err)
	}
	return balance, nil
}

func (r *PgxLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, accountID, key string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND idempotency_key = $2;
	`
	var txn domain.Transaction
	err := r.Pool.QueryRow(ctx, query, accountID, key).Scan(
		&txn.TransactionID,
		&txn.AccountID,
		&txn.ActorID,
		&txn.Kind,
		&txn.Amount,
		&txn.Notes,
		&txn.ReferenceID,
		&txn.IdempotencyKey,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	return &txn, nil
}

func (r *PgxLedgerRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		var txn domain.Transaction
		err := rows.Scan(
			&txn.TransactionID,
			&txn.AccountID,
			&txn.ActorID,
			&txn.Kind,
			&txn.Amount,
			&txn.Notes,
			&txn.ReferenceID,
			&txn.IdempotencyKey,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txns, nil
}

func (r *PgxLedgerRepository) ApplyTransaction(ctx context.Context, txn domain.Transaction, audit *domain.AuditEntry) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	newBalance, err := applyTransactionTx(ctx, tx, txn)
	if err != nil {
		return 0, err
	}
	if audit != nil {
		if err := insertAuditTx(ctx, tx, *audit); err != nil {
			return 0, err
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (r *PgxLedgerRepository) SetFreeze(ctx context.Context, accountID string, frozen bool, audit domain.AuditEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE child_accounts
		SET frozen = $1,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE account_id = $4;
	`, frozen, audit.CreatedAt, audit.ActorID, accountID)
	if err != nil {
		return fmt.Errorf("failed to set freeze flag for account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := insertAuditTx(ctx, tx, audit); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}
