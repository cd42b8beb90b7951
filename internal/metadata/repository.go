package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository stores metadata records in Postgres. The table name comes from
// configuration, validated there as a plain identifier.
type Repository struct {
	db    *sql.DB
	table string
}

func NewRepository(db *sql.DB, table string) *Repository {
	return &Repository{db: db, table: table}
}

// Put writes the full record under its id, replacing any existing item. This
// keeps the put-overwrites semantics callers rely on: creating twice resets
// createdAt as well.
func (r *Repository) Put(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, text, checked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			text = EXCLUDED.text,
			checked = EXCLUDED.checked,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, r.table), rec.ID, rec.Text, rec.Checked, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, text, checked, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.table), id).Scan(&rec.ID, &rec.Text, &rec.Checked, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("query metadata: %w", err)
	}

	return rec, nil
}

func (r *Repository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, text, checked, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC
	`, r.table))
	if err != nil {
		return nil, fmt.Errorf("query metadata list: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.Checked, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata: %w", err)
	}

	return records, nil
}

func (r *Repository) Update(ctx context.Context, id string, input RecordInput) (Record, error) {
	var rec Record
	now := time.Now().UnixMilli()

	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET text = $2, checked = $3, updated_at = $4
		WHERE id = $1
		RETURNING id, text, checked, created_at, updated_at
	`, r.table), id, input.Text, input.Checked, now).
		Scan(&rec.ID, &rec.Text, &rec.Checked, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("update metadata: %w", err)
	}

	return rec, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// PruneStale deletes up to batchSize records whose updated_at is older than
// the cutoff. Called from the maintenance endpoint.
func (r *Repository) PruneStale(ctx context.Context, cutoffMillis int64, batchSize int) (int64, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		WITH stale AS (
			SELECT id
			FROM %s
			WHERE updated_at < $1
			ORDER BY updated_at ASC
			LIMIT $2
		)
		DELETE FROM %s t
		USING stale
		WHERE t.id = stale.id
	`, r.table, r.table), cutoffMillis, batchSize)
	if err != nil {
		return 0, fmt.Errorf("prune stale metadata: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale metadata rows affected: %w", err)
	}

	return affected, nil
}
