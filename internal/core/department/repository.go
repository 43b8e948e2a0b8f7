package department

import (
	"context"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
)

// Repository は部署の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, department *Department) (*Department, error)
	Update(ctx context.Context, department *Department) (*Department, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Department, error)
	List(ctx context.Context, page pagination.Page) ([]*Department, string, error)
	// DetachEmployees は当該部署に所属する社員の department_id を NULL にします。
	DetachEmployees(ctx context.Context, id int64) (int64, error)
}

// EmployeeLookup は管理者として指定された社員の存在確認を行います。
type EmployeeLookup interface {
	EmployeeExists(ctx context.Context, id int64) (bool, error)
}
