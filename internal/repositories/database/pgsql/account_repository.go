package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/apperrors"
	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
	portsrepo "github.com/ScreenBuddy/screenbuddy_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(db *pgxpool.Pool) portsrepo.ChildAccountRepository {
	return &PgxAccountRepository{BaseRepository{Pool: db}}
}

// Ensure PgxAccountRepository implements portsrepo.ChildAccountRepository
var _ portsrepo.ChildAccountRepository = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, owner_id, name, time_bucks, frozen, is_active, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.ChildAccount) error {
	query := `
        INSERT INTO child_accounts (` + accountColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
    `
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID,
		account.OwnerID,
		account.Name,
		account.TimeBucks,
		account.Frozen,
		account.IsActive,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.ChildAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM child_accounts
		WHERE account_id = $1;
	`
	var account domain.ChildAccount
	err := r.Pool.QueryRow(ctx, query, accountID).Scan(
		&account.AccountID,
		&account.OwnerID,
		&account.Name,
		&account.TimeBucks,
		&account.Frozen,
		&account.IsActive,
		&account.CreatedAt,
		&account.CreatedBy,
		&account.LastUpdatedAt,
		&account.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return &account, nil
}

func (r *PgxAccountRepository) ListAccountsByOwner(ctx context.Context, ownerID string) ([]domain.ChildAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM child_accounts
		WHERE owner_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	accounts := []domain.ChildAccount{}
	for rows.Next() {
		var account domain.ChildAccount
		err := rows.Scan(
			&account.AccountID,
			&account.OwnerID,
			&account.Name,
			&account.TimeBucks,
			&account.Frozen,
			&account.IsActive,
			&account.CreatedAt,
			&account.CreatedBy,
			&account.LastUpdatedAt,
			&account.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, actorID string, now time.Time) error {
	query := `
		UPDATE child_accounts
		SET is_active = FALSE,
		    last_updated_at = $1,
		    last_updated_by = $2
		WHERE account_id = $3;
	`
	tag, err := r.Pool.Exec(ctx, query, now, actorID, accountID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
