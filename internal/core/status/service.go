package status

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

// UseCase は雇用状態ユースケースの公開インターフェースです。
type UseCase interface {
	CreateStatus(ctx context.Context, in CreateStatusInput) (*Status, error)
	GetStatus(ctx context.Context, id int64) (*Status, error)
	ListStatuses(ctx context.Context, in ListStatusesInput) (*ListStatusesResult, error)
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*Status, error)
	DeleteStatus(ctx context.Context, id int64) error
}

// Service は雇用状態に関するユースケースをまとめます。
type Service struct {
	repo Repository
	tx   TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, tx: tx}
}

// CreateStatusInput は作成時の入力です。
type CreateStatusInput struct {
	Name *string
}

// UpdateStatusInput は更新時の入力です。Partial が false の場合は全項目の指定が必要です。
type UpdateStatusInput struct {
	ID      int64
	Name    *string
	Partial bool
}

// ListStatusesInput は一覧取得時の入力です。
type ListStatusesInput struct {
	PageSize  int
	PageToken string
}

// ListStatusesResult は一覧取得結果です。
type ListStatusesResult struct {
	Statuses      []*Status
	NextPageToken string
}

// CreateStatus は雇用状態を作成します。
func (s *Service) CreateStatus(ctx context.Context, in CreateStatusInput) (*Status, error) {
	name := rules.Trimmed(in.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	var created *Status
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, &Status{Name: *name})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetStatus は雇用状態を取得します。
func (s *Service) GetStatus(ctx context.Context, id int64) (*Status, error) {
	if id <= 0 {
		return nil, ErrStatusNotFound
	}

	var found *Status
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

// ListStatuses は雇用状態を ID 昇順で返します。
func (s *Service) ListStatuses(ctx context.Context, in ListStatusesInput) (*ListStatusesResult, error) {
	page, err := pagination.Parse(in.PageSize, in.PageToken)
	if err != nil {
		return nil, err
	}

	result := &ListStatusesResult{}
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		result.Statuses, result.NextPageToken, err = s.repo.List(txCtx, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus は雇用状態を更新します。
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*Status, error) {
	if in.ID <= 0 {
		return nil, ErrStatusNotFound
	}

	name := rules.Trimmed(in.Name)
	if name != nil || !in.Partial {
		if err := validateName(name); err != nil {
			return nil, err
		}
	}

	var updated *Status
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if name != nil {
			existing.Name = *name
		}
		updated, err = s.repo.Update(txCtx, existing)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteStatus は雇用状態を削除します。参照している社員の status は同一トランザクション内で NULL になります。
func (s *Service) DeleteStatus(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrStatusNotFound
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.DetachEmployees(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

func validateName(name *string) error {
	return validation.Errors{
		"name": validation.Validate(name, rules.RequiredText(rules.MaxNameLength)...),
	}.Filter()
}
