package employee

import (
	"context"
	"io"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
	// DetachManagedDepartments は当該社員を管理者とする部署の manager_id を NULL にします。
	DetachManagedDepartments(ctx context.Context, id int64) (int64, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。各条件は AND で結合されます。
type ListEmployeesFilter struct {
	StatusID     *int64
	PositionID   *int64
	DepartmentID *int64
	// Search は name または address に対する大文字小文字を区別しない部分一致です。
	Search string
	Page   pagination.Page
}

// References は外部キーの参照先の存在確認を行います。
type References interface {
	StatusExists(ctx context.Context, id int64) (bool, error)
	PositionExists(ctx context.Context, id int64) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
}

// ImageStore は社員画像を保存するオブジェクトストアです。
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}
