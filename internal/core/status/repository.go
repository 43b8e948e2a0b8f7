package status

import (
	"context"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
)

// Repository は雇用状態の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, status *Status) (*Status, error)
	Update(ctx context.Context, status *Status) (*Status, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Status, error)
	List(ctx context.Context, page pagination.Page) ([]*Status, string, error)
	// DetachEmployees は当該状態を参照する社員の status_id を NULL にし、更新件数を返します。
	DetachEmployees(ctx context.Context, id int64) (int64, error)
}
