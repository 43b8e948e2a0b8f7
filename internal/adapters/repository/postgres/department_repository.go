package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/hr-records-api/internal/core/department"
	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	pgdb "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

// DepartmentRepository は PostgreSQL を利用した部署の永続化の実装です。
type DepartmentRepository struct {
	pool pgdb.Queryer
}

// NewDepartmentRepository は DepartmentRepository を生成します。
func NewDepartmentRepository(pool pgdb.Queryer) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

// Create は部署を新規作成します。
func (r *DepartmentRepository) Create(ctx context.Context, d *department.Department) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO departments (name, manager_id)
        VALUES ($1, $2)
        RETURNING id, name, manager_id
    `, d.Name, nullableInt64(d.ManagerID))

	created, err := scanDepartment(row)
	if err != nil {
		return nil, translateForeignKeyError(err)
	}
	return created, nil
}

// Update は部署を更新します。
func (r *DepartmentRepository) Update(ctx context.Context, d *department.Department) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE departments
           SET name = $1,
               manager_id = $2
         WHERE id = $3
        RETURNING id, name, manager_id
    `, d.Name, nullableInt64(d.ManagerID), d.ID)

	updated, err := scanDepartment(row)
	if err != nil {
		return nil, translateForeignKeyError(err)
	}
	return updated, nil
}

// Delete は部署を削除します。
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return department.ErrDepartmentNotFound
	}
	return nil
}

// FindByID は ID で部署を取得します。
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, manager_id
          FROM departments
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanDepartment(row)
}

// List は部署を ID 昇順で取得します。
func (r *DepartmentRepository) List(ctx context.Context, page pagination.Page) ([]*department.Department, string, error) {
	clause, args := pageClause(nil, page)
	query := `
        SELECT id, name, manager_id
          FROM departments
         ORDER BY id ASC` + clause + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var departments []*department.Department
	for rows.Next() {
		found, err := scanDepartment(rows)
		if err != nil {
			return nil, "", err
		}
		departments = append(departments, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	departments, next := pagination.Trim(departments, page)
	return departments, next, nil
}

// DetachEmployees は当該部署に所属する社員の department_id を NULL にします。
func (r *DepartmentRepository) DetachEmployees(ctx context.Context, id int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE employees SET department_id = NULL WHERE department_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanDepartment(row pgx.Row) (*department.Department, error) {
	var d department.Department
	if err := row.Scan(&d.ID, &d.Name, &d.ManagerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, department.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}
