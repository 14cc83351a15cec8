// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fptsphere/fptsphere/internal/access"
	"github.com/fptsphere/fptsphere/internal/platform/dberr"
)

// # Postgres Repository

// accountColumns is the select list shared by every read.
const accountColumns = `id, email, full_name, role_id, created_at, updated_at`

// PostgresRepository implements [Repository] on the users.account table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a pgx-backed [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users.account
		WHERE id = $1 AND deleted_at IS NULL`

	account, err := scanAccount(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("postgres_account_find_by_id_failed: %w", dberr.Wrap(err, "Account"))
	}
	return account, nil
}

// FindByEmail implements [Repository].
func (repository *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM users.account
		WHERE lower(email) = lower($1) AND deleted_at IS NULL`

	account, err := scanAccount(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("postgres_account_find_by_email_failed: %w", dberr.Wrap(err, "Account"))
	}
	return account, nil
}

/*
List implements [Repository].

The total is computed with a window function so one round trip returns both
the page and the count.
*/
func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Account, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []any{}

	if len(filter.RoleIDs) > 0 {
		ids := make([]int16, len(filter.RoleIDs))
		for i, id := range filter.RoleIDs {
			ids[i] = int16(id)
		}
		args = append(args, ids)
		conditions = append(conditions, fmt.Sprintf("role_id = ANY($%d)", len(args)))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		conditions = append(conditions, fmt.Sprintf("(email ILIKE $%[1]d OR full_name ILIKE $%[1]d)", len(args)))
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER()
		FROM users.account
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		accountColumns, strings.Join(conditions, " AND "), len(args)-1, len(args),
	)

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_list_failed: %w", dberr.Wrap(err, "Account"))
	}
	defer rows.Close()

	accounts := []*Account{}
	total := 0
	for rows.Next() {
		account, err := scanAccount(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_list_scan_failed: %w", dberr.Wrap(err, "Account"))
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_list_failed: %w", dberr.Wrap(err, "Account"))
	}

	return accounts, total, nil
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(ctx context.Context, account *Account) error {
	query := `INSERT INTO users.account (id, email, full_name, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := repository.pool.QueryRow(ctx, query,
		account.ID, account.Email, account.FullName, roleArg(account.RoleID),
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_account_create_failed: %w", dberr.Wrap(err, "Account"))
	}

	account.hydrateRoleName()
	return nil
}

// UpdateRole implements [Repository].
func (repository *PostgresRepository) UpdateRole(ctx context.Context, id string, roleID access.RoleID) (*Account, error) {
	query := `UPDATE users.account
		SET role_id = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + accountColumns

	account, err := scanAccount(repository.pool.QueryRow(ctx, query, id, roleArg(&roleID)))
	if err != nil {
		return nil, fmt.Errorf("postgres_account_update_role_failed: %w", dberr.Wrap(err, "Account"))
	}
	return account, nil
}

// # Helpers

// scanAccount reads accountColumns, followed by any extra destinations.
func scanAccount(row pgx.Row, extra ...any) (*Account, error) {
	account := &Account{}
	var roleID *int16

	dest := append([]any{
		&account.ID,
		&account.Email,
		&account.FullName,
		&roleID,
		&account.CreatedAt,
		&account.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if roleID != nil {
		id := access.RoleID(*roleID)
		account.RoleID = &id
	}
	account.hydrateRoleName()

	return account, nil
}

// roleArg maps NoRole and nil to SQL NULL.
func roleArg(id *access.RoleID) any {
	if id == nil || *id == access.NoRole {
		return nil
	}
	return int16(*id)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
