package postgres

import (
	"context"

	pgdb "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

// ReferenceRepository は外部キーの参照先が存在するかを確認します。
type ReferenceRepository struct {
	pool pgdb.Queryer
}

// NewReferenceRepository は ReferenceRepository を生成します。
func NewReferenceRepository(pool pgdb.Queryer) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// StatusExists は雇用状態が存在するかを返します。
func (r *ReferenceRepository) StatusExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM statuses WHERE id = $1)`, id)
}

// PositionExists は職位が存在するかを返します。
func (r *ReferenceRepository) PositionExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM positions WHERE id = $1)`, id)
}

// DepartmentExists は部署が存在するかを返します。
func (r *ReferenceRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id)
}

// EmployeeExists は社員が存在するかを返します。
func (r *ReferenceRepository) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, id)
}

func (r *ReferenceRepository) exists(ctx context.Context, query string, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var found bool
	if err := exec.QueryRow(ctx, query, id).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}
