package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	"github.com/ogurasousui/hr-records-api/internal/core/position"
	pgdb "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

// PositionRepository は PostgreSQL を利用した職位の永続化の実装です。
// salary は NUMERIC(10,2) をテキストで受け渡し、decimal.Decimal に変換します。
type PositionRepository struct {
	pool pgdb.Queryer
}

// NewPositionRepository は PositionRepository を生成します。
func NewPositionRepository(pool pgdb.Queryer) *PositionRepository {
	return &PositionRepository{pool: pool}
}

// Create は職位を新規作成します。
func (r *PositionRepository) Create(ctx context.Context, p *position.Position) (*position.Position, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO positions (name, salary)
        VALUES ($1, $2::numeric)
        RETURNING id, name, salary::text
    `, p.Name, p.Salary.StringFixed(2))

	return scanPosition(row)
}

// Update は職位を更新します。
func (r *PositionRepository) Update(ctx context.Context, p *position.Position) (*position.Position, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE positions
           SET name = $1,
               salary = $2::numeric
         WHERE id = $3
        RETURNING id, name, salary::text
    `, p.Name, p.Salary.StringFixed(2), p.ID)

	return scanPosition(row)
}

// Delete は職位を削除します。
func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return position.ErrPositionNotFound
	}
	return nil
}

// FindByID は ID で職位を取得します。
func (r *PositionRepository) FindByID(ctx context.Context, id int64) (*position.Position, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, salary::text
          FROM positions
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanPosition(row)
}

// List は職位を ID 昇順で取得します。
func (r *PositionRepository) List(ctx context.Context, page pagination.Page) ([]*position.Position, string, error) {
	clause, args := pageClause(nil, page)
	query := `
        SELECT id, name, salary::text
          FROM positions
         ORDER BY id ASC` + clause + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var positions []*position.Position
	for rows.Next() {
		found, err := scanPosition(rows)
		if err != nil {
			return nil, "", err
		}
		positions = append(positions, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	positions, next := pagination.Trim(positions, page)
	return positions, next, nil
}

// DetachEmployees は当該職位を参照する社員の position_id を NULL にします。
func (r *PositionRepository) DetachEmployees(ctx context.Context, id int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE employees SET position_id = NULL WHERE position_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPosition(row pgx.Row) (*position.Position, error) {
	var (
		p      position.Position
		salary string
	)
	if err := row.Scan(&p.ID, &p.Name, &salary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, position.ErrPositionNotFound
		}
		return nil, err
	}

	parsed, err := decimal.NewFromString(salary)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse salary %q: %w", salary, err)
	}
	p.Salary = parsed
	return &p, nil
}
