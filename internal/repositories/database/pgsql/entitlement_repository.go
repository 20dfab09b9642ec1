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

type PgxEntitlementRepository struct {
	BaseRepository
}

func newPgxEntitlementRepository(db *pgxpool.Pool) portsrepo.EntitlementRepository {
	return &PgxEntitlementRepository{BaseRepository{Pool: db}}
}

// Ensure PgxEntitlementRepository implements portsrepo.EntitlementRepository
var _ portsrepo.EntitlementRepository = (*PgxEntitlementRepository)(nil)

const ruleColumns = `rule_id, account_id, app_ref, app_name, rate_per_minute, active, created_at, created_by, last_updated_at, last_updated_by`

const sessionColumns = `session_id, account_id, app_ref, minutes_granted, cost, status, started_at, expires_at, expired_at`

func (r *PgxEntitlementRepository) UpsertRule(ctx context.Context, rule domain.AppEntitlementRule) error {
	query := `
        INSERT INTO app_entitlement_rules (` + ruleColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (account_id, app_ref) DO UPDATE SET
            app_name = EXCLUDED.app_name,
            rate_per_minute = EXCLUDED.rate_per_minute,
            active = EXCLUDED.active,
            last_updated_at = EXCLUDED.last_updated_at,
            last_updated_by = EXCLUDED.last_updated_by;
    `
	_, err := r.Pool.Exec(ctx, query,
		rule.RuleID,
		rule.AccountID,
		rule.AppRef,
		rule.AppName,
		rule.RatePerMinute,
		rule.Active,
		rule.CreatedAt,
		rule.CreatedBy,
		rule.LastUpdatedAt,
		rule.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rule for app %s: %w", rule.AppRef, err)
	}
	return nil
}

func (r *PgxEntitlementRepository) FindActiveRule(ctx context.Context, accountID, appRef string) (*domain.AppEntitlementRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM app_entitlement_rules
		WHERE account_id = $1 AND app_ref = $2 AND active = TRUE;
	`
	return r.scanRule(r.Pool.QueryRow(ctx, query, accountID, appRef))
}

func (r *PgxEntitlementRepository) ListRulesByAccount(ctx context.Context, accountID string) ([]domain.AppEntitlementRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM app_entitlement_rules
		WHERE account_id = $1
		ORDER BY app_name ASC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules for account %s: %w", accountID, err)
	}
	defer rows.Close()

	rules := []domain.AppEntitlementRule{}
	for rows.Next() {
		var rule domain.AppEntitlementRule
		err := rows.Scan(
			&rule.RuleID,
			&rule.AccountID,
			&rule.AppRef,
			&rule.AppName,
			&rule.RatePerMinute,
			&rule.Active,
			&rule.CreatedAt,
			&rule.CreatedBy,
			&rule.LastUpdatedAt,
			&rule.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", err)
	}
	return rules, nil
}

func (r *PgxEntitlementRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.EntitlementSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM entitlement_sessions
		WHERE session_id = $1;
	`
	return r.scanSession(r.Pool.QueryRow(ctx, query, sessionID))
}

func (r *PgxEntitlementRepository) FindActiveSessionByApp(ctx context.Context, accountID, appRef string) (*domain.EntitlementSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM entitlement_sessions
		WHERE account_id = $1 AND app_ref = $2 AND status = $3
		ORDER BY expires_at DESC
		LIMIT 1;
	`
	return r.scanSession(r.Pool.QueryRow(ctx, query, accountID, appRef, domain.SessionActive))
}

func (r *PgxEntitlementRepository) ListSessionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.EntitlementSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM entitlement_sessions
		WHERE account_id = $1
		ORDER BY started_at DESC, session_id DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	sessions := []domain.EntitlementSession{}
	for rows.Next() {
		var session domain.EntitlementSession
		err := rows.Scan(
			&session.SessionID,
			&session.AccountID,
			&session.AppRef,
			&session.MinutesGranted,
			&session.Cost,
			&session.Status,
			&session.StartedAt,
			&session.ExpiresAt,
			&session.ExpiredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

func (r *PgxEntitlementRepository) OpenSessionAtomic(ctx context.Context, session domain.EntitlementSession, txn domain.Transaction, audit domain.AuditEntry) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	newBalance, err := applyTransactionTx(ctx, tx, txn)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO entitlement_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`,
		session.SessionID,
		session.AccountID,
		session.AppRef,
		session.MinutesGranted,
		session.Cost,
		session.Status,
		session.StartedAt,
		session.ExpiresAt,
		session.ExpiredAt,
	)
	if err != nil {
		// A concurrent open can slip past the service's active-session check;
		// the partial unique index rejects the loser here.
		if isUniqueViolation(err, "entitlement_sessions_active_app") {
			return 0, fmt.Errorf("%w: an unlock session is already active for this app", apperrors.ErrInvalidState)
		}
		return 0, fmt.Errorf("failed to insert session %s: %w", session.SessionID, err)
	}

	if err := insertAuditTx(ctx, tx, audit); err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (r *PgxEntitlementRepository) MarkSessionExpired(ctx context.Context, sessionID string, now time.Time) error {
	// Idempotent: flipping an already expired session affects zero rows,
	// which is only an error when the session does not exist at all.
	tag, err := r.Pool.Exec(ctx, `
		UPDATE entitlement_sessions
		SET status = $1, expired_at = $2
		WHERE session_id = $3 AND status = $4;
	`, domain.SessionExpired, now, sessionID, domain.SessionActive)
	if err != nil {
		return fmt.Errorf("failed to mark session %s expired: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entitlement_sessions WHERE session_id = $1);`, sessionID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check session %s: %w", sessionID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
	}
	return nil
}

func (r *PgxEntitlementRepository) ExpireDueSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE entitlement_sessions
		SET status = $1, expired_at = $3
		WHERE status = $2 AND expires_at <= $3;
	`, domain.SessionExpired, domain.SessionActive, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire due sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxEntitlementRepository) scanRule(row pgx.Row) (*domain.AppEntitlementRule, error) {
	var rule domain.AppEntitlementRule
	err := row.Scan(
		&rule.RuleID,
		&rule.AccountID,
		&rule.AppRef,
		&rule.AppName,
		&rule.RatePerMinute,
		&rule.Active,
		&rule.CreatedAt,
		&rule.CreatedBy,
		&rule.LastUpdatedAt,
		&rule.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	return &rule, nil
}

func (r *PgxEntitlementRepository) scanSession(row pgx.Row) (*domain.EntitlementSession, error) {
	var session domain.EntitlementSession
	err := row.Scan(
		&session.SessionID,
		&session.AccountID,
		&session.AppRef,
		&session.MinutesGranted,
		&session.Cost,
		&session.Status,
		&session.StartedAt,
		&session.ExpiresAt,
		&session.ExpiredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &session, nil
}
