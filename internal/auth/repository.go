package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository implements CredentialStore on Postgres. The table name comes
// from configuration and is validated there as a plain identifier before it
// is interpolated into queries.
type Repository struct {
	db    *sql.DB
	table string
}

func NewRepository(db *sql.DB, table string) *Repository {
	return &Repository{db: db, table: table}
}

func (r *Repository) Query(ctx context.Context, usernameEquals string) (CredentialQueryResult, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT username, password
		FROM %s
		WHERE username = $1
	`, r.table), usernameEquals)
	if err != nil {
		return CredentialQueryResult{}, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var result CredentialQueryResult
	for rows.Next() {
		var c Credential
		if err := rows.Scan(&c.Username, &c.Password); err != nil {
			return CredentialQueryResult{}, fmt.Errorf("scan credential: %w", err)
		}
		result.Items = append(result.Items, c)
	}

	if err := rows.Err(); err != nil {
		return CredentialQueryResult{}, fmt.Errorf("iterate credentials: %w", err)
	}

	result.Count = len(result.Items)
	return result, nil
}

// EnsureCredential upserts a single credential record. Used by the bootstrap
// seeding path only; the request path never writes to the store.
func (r *Repository) EnsureCredential(ctx context.Context, username, password string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (username, password, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (username)
		DO UPDATE SET password = EXCLUDED.password, updated_at = EXCLUDED.updated_at
	`, r.table), username, password, now)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}

	return nil
}
