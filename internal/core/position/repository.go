package position

import (
	"context"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
)

// Repository は職位の永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, position *Position) (*Position, error)
	Update(ctx context.Context, position *Position) (*Position, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Position, error)
	List(ctx context.Context, page pagination.Page) ([]*Position, string, error)
	// DetachEmployees は当該職位を参照する社員の position_id を NULL にします。
	DetachEmployees(ctx context.Context, id int64) (int64, error)
}
