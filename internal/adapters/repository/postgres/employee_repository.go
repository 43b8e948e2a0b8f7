package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/hr-records-api/internal/core/employee"
	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	pgdb "github.com/ogurasousui/hr-records-api/internal/platform/db/postgres"
)

const employeeColumns = `e.id, e.name, e.address, e.is_manager, e.status_id, e.position_id, e.department_id, e.image,
               s.name`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
// 読み出し時は雇用状態を LEFT JOIN してスナップショットを組み立てます。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH e AS (
            INSERT INTO employees (name, address, is_manager, status_id, position_id, department_id, image)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id, name, address, is_manager, status_id, position_id, department_id, image
        )
        SELECT `+employeeColumns+`
          FROM e
          LEFT JOIN statuses s ON s.id = e.status_id
    `,
		e.Name,
		e.Address,
		e.IsManager,
		nullableInt64(e.StatusID),
		nullableInt64(e.PositionID),
		nullableInt64(e.DepartmentID),
		nullableString(e.ImageKey),
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateForeignKeyError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH e AS (
            UPDATE employees
               SET name = $1,
                   address = $2,
                   is_manager = $3,
                   status_id = $4,
                   position_id = $5,
                   department_id = $6,
                   image = $7
             WHERE id = $8
            RETURNING id, name, address, is_manager, status_id, position_id, department_id, image
        )
        SELECT `+employeeColumns+`
          FROM e
          LEFT JOIN statuses s ON s.id = e.status_id
    `,
		e.Name,
		e.Address,
		e.IsManager,
		nullableInt64(e.StatusID),
		nullableInt64(e.PositionID),
		nullableInt64(e.DepartmentID),
		nullableString(e.ImageKey),
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateForeignKeyError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees e
          LEFT JOIN statuses s ON s.id = e.status_id
         WHERE e.id = $1
         LIMIT 1
    `, id)

	return scanEmployee(row)
}

// List は条件に一致する社員を ID 昇順で取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	args := make([]any, 0, 6)
	conditions := make([]string, 0, 4)

	eq := func(column string, value *int64) {
		if value == nil {
			return
		}
		args = append(args, *value)
		conditions = append(conditions, column+" = "+placeholder(len(args)))
	}
	eq("e.status_id", filter.StatusID)
	eq("e.position_id", filter.PositionID)
	eq("e.department_id", filter.DepartmentID)

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		p := placeholder(len(args))
		conditions = append(conditions, "(e.name ILIKE "+p+" OR e.address ILIKE "+p+")")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	clause, args := pageClause(args, filter.Page)
	query := `
        SELECT ` + employeeColumns + `
          FROM employees e
          LEFT JOIN statuses s ON s.id = e.status_id` + whereClause + `
         ORDER BY e.id ASC` + clause + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var employees []*employee.Employee
	for rows.Next() {
		found, err := scanEmployee(rows)
		if err != nil {
			return nil, "", err
		}
		employees = append(employees, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	employees, next := pagination.Trim(employees, filter.Page)
	return employees, next, nil
}

// DetachManagedDepartments は当該社員を管理者とする部署の manager_id を NULL にします。
func (r *EmployeeRepository) DetachManagedDepartments(ctx context.Context, id int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE departments SET manager_id = NULL WHERE manager_id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e          employee.Employee
		statusName *string
	)
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Address,
		&e.IsManager,
		&e.StatusID,
		&e.PositionID,
		&e.DepartmentID,
		&e.ImageKey,
		&statusName,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	if e.StatusID != nil && statusName != nil {
		e.Status = &employee.StatusSnapshot{ID: *e.StatusID, Name: *statusName}
	}
	return &e, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike は LIKE のワイルドカードを既定のエスケープ文字 \ でエスケープします。
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
