package department

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	"github.com/ogurasousui/hr-records-api/internal/core/rules"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// UseCase は部署ユースケースの公開インターフェースです。
type UseCase interface {
	CreateDepartment(ctx context.Context, in CreateDepartmentInput) (*Department, error)
	GetDepartment(ctx context.Context, id int64) (*Department, error)
	ListDepartments(ctx context.Context, in ListDepartmentsInput) (*ListDepartmentsResult, error)
	UpdateDepartment(ctx context.Context, in UpdateDepartmentInput) (*Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
}

// Service は部署に関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeLookup
	tx        TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeLookup, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, tx: tx}
}

// CreateDepartmentInput は作成時の入力です。
type CreateDepartmentInput struct {
	Name      *string
	ManagerID *int64
}

// UpdateDepartmentInput は更新時の入力です。ManagerSet が true で ManagerID が nil の場合は管理者を解除します。
type UpdateDepartmentInput struct {
	ID         int64
	Name       *string
	ManagerID  *int64
	ManagerSet bool
	Partial    bool
}

// ListDepartmentsInput は一覧取得時の入力です。
type ListDepartmentsInput struct {
	PageSize  int
	PageToken string
}

// ListDepartmentsResult は一覧取得結果です。
type ListDepartmentsResult struct {
	Departments   []*Department
	NextPageToken string
}

// CreateDepartment は部署を作成します。
func (s *Service) CreateDepartment(ctx context.Context, in CreateDepartmentInput) (*Department, error) {
	name := rules.Trimmed(in.Name)
	errs := validation.Errors{
		"name": validation.Validate(name, rules.RequiredText(rules.MaxNameLength)...),
	}

	var created *Department
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.checkManager(txCtx, in.ManagerID, errs); err != nil {
			return err
		}
		if err := errs.Filter(); err != nil {
			return err
		}

		var err error
		created, err = s.repo.Create(txCtx, &Department{Name: *name, ManagerID: cloneID(in.ManagerID)})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetDepartment は部署を取得します。
func (s *Service) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	if id <= 0 {
		return nil, ErrDepartmentNotFound
	}

	var found *Department
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		found, err = s.repo.FindByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListDepartments は部署を ID 昇順で返します。
func (s *Service) ListDepartments(ctx context.Context, in ListDepartmentsInput) (*ListDepartmentsResult, error) {
	page, err := pagination.Parse(in.PageSize, in.PageToken)
	if err != nil {
		return nil, err
	}

	result := &ListDepartmentsResult{}
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		result.Departments, result.NextPageToken, err = s.repo.List(txCtx, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateDepartment は部署を更新します。
func (s *Service) UpdateDepartment(ctx context.Context, in UpdateDepartmentInput) (*Department, error) {
	if in.ID <= 0 {
		return nil, ErrDepartmentNotFound
	}

	name := rules.Trimmed(in.Name)
	errs := validation.Errors{}
	if name != nil || !in.Partial {
		errs["name"] = validation.Validate(name, rules.RequiredText(rules.MaxNameLength)...)
	}

	var updated *Department
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if in.ManagerSet {
			if err := s.checkManager(txCtx, in.ManagerID, errs); err != nil {
				return err
			}
		}
		if err := errs.Filter(); err != nil {
			return err
		}

		if name != nil {
			existing.Name = *name
		}
		if in.ManagerSet {
			existing.ManagerID = cloneID(in.ManagerID)
		}
		updated, err = s.repo.Update(txCtx, existing)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDepartment は部署を削除し、所属していた社員の department を NULL にします。
func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrDepartmentNotFound
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.DetachEmployees(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

// checkManager は管理者として指定された社員が存在しない場合に errs へ field エラーを追加します。
func (s *Service) checkManager(ctx context.Context, managerID *int64, errs validation.Errors) error {
	if managerID == nil {
		return nil
	}
	ok, err := s.employees.EmployeeExists(ctx, *managerID)
	if err != nil {
		return err
	}
	if !ok {
		errs["manager"] = rules.DoesNotExist(*managerID)
	}
	return nil
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
