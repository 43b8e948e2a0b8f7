package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	"github.com/ogurasousui/hr-records-api/internal/core/status"
	pgdb "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

// StatusRepository は PostgreSQL を利用した雇用状態の永続化の実装です。
type StatusRepository struct {
	pool pgdb.Queryer
}

// NewStatusRepository は StatusRepository を生成します。
func NewStatusRepository(pool pgdb.Queryer) *StatusRepository {
	return &StatusRepository{pool: pool}
}

// Create は雇用状態を新規作成します。
func (r *StatusRepository) Create(ctx context.Context, s *status.Status) (*status.Status, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO statuses (name)
        VALUES ($1)
        RETURNING id, name
    `, s.Name)

	return scanStatus(row)
}

// Update は雇用状態を更新します。
func (r *StatusRepository) Update(ctx context.Context, s *status.Status) (*status.Status, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE statuses
           SET name = $1
         WHERE id = $2
        RETURNING id, name
    `, s.Name, s.ID)

	return scanStatus(row)
}

// Delete は雇用状態を削除します。
func (r *StatusRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM statuses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return status.ErrStatusNotFound
	}
	return nil
}

// FindByID は ID で雇用状態を取得します。
func (r *StatusRepository) FindByID(ctx context.Context, id int64) (*status.Status, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name
          FROM statuses
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanStatus(row)
}

// List は雇用状態を ID 昇順で取得します。
func (r *StatusRepository) List(ctx context.Context, page pagination.Page) ([]*status.Status, string, error) {
	clause, args := pageClause(nil, page)
	query := `
        SELECT id, name
          FROM statuses
         ORDER BY id ASC` + clause + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var statuses []*status.Status
	for rows.Next() {
		found, err := scanStatus(rows)
		if err != nil {
			return nil, "", err
		}
		statuses = append(statuses, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	statuses, next := pagination.Trim(statuses, page)
	return statuses, next, nil
}

// DetachEmployees は当該状態を参照する社員の status_id を NULL にします。
func (r *StatusRepository) DetachEmployees(ctx context.Context, id int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE employees SET status_id = NULL WHERE status_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanStatus(row pgx.Row) (*status.Status, error) {
	var s status.Status
	if err := row.Scan(&s.ID, &s.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrStatusNotFound
		}
		return nil, err
	}
	return &s, nil
}
