package position

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	"github.com/ogurasousui/hr-records-api/internal/core/rules"
)

const (
	salaryDecimalPlaces = 2
	salaryWholeDigits   = 8
)

var (
	salaryWholeLimit = decimal.New(1, salaryWholeDigits)

	errSalaryPlaces = validation.NewError("max_decimal_places", "Ensure that there are no more than 2 decimal places.")
	errSalaryWhole  = validation.NewError("max_whole_digits", "Ensure that there are no more than 8 digits before the decimal point.")
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

// UseCase は職位ユースケースの公開インターフェースです。
type UseCase interface {
	CreatePosition(ctx context.Context, in CreatePositionInput) (*Position, error)
	GetPosition(ctx context.Context, id int64) (*Position, error)
	ListPositions(ctx context.Context, in ListPositionsInput) (*ListPositionsResult, error)
	UpdatePosition(ctx context.Context, in UpdatePositionInput) (*Position, error)
	DeletePosition(ctx context.Context, id int64) error
}

// Service は職位に関するユースケースをまとめます。
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

// CreatePositionInput は作成時の入力です。
type CreatePositionInput struct {
	Name   *string
	Salary *decimal.Decimal
}

// UpdatePositionInput は更新時の入力です。
type UpdatePositionInput struct {
	ID      int64
	Name    *string
	Salary  *decimal.Decimal
	Partial bool
}

// ListPositionsInput は一覧取得時の入力です。
type ListPositionsInput struct {
	PageSize  int
	PageToken string
}

// ListPositionsResult は一覧取得結果です。
type ListPositionsResult struct {
	Positions     []*Position
	NextPageToken string
}

// CreatePosition は職位を作成します。
func (s *Service) CreatePosition(ctx context.Context, in CreatePositionInput) (*Position, error) {
	name := rules.Trimmed(in.Name)
	if err := validateFields(name, in.Salary, false); err != nil {
		return nil, err
	}

	var created *Position
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, &Position{Name: *name, Salary: in.Salary.Round(salaryDecimalPlaces)})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetPosition は職位を取得します。
func (s *Service) GetPosition(ctx context.Context, id int64) (*Position, error) {
	if id <= 0 {
		return nil, ErrPositionNotFound
	}

	var found *Position
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

// ListPositions は職位を ID 昇順で返します。
func (s *Service) ListPositions(ctx context.Context, in ListPositionsInput) (*ListPositionsResult, error) {
	page, err := pagination.Parse(in.PageSize, in.PageToken)
	if err != nil {
		return nil, err
	}

	result := &ListPositionsResult{}
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		result.Positions, result.NextPageToken, err = s.repo.List(txCtx, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatePosition は職位を更新します。
func (s *Service) UpdatePosition(ctx context.Context, in UpdatePositionInput) (*Position, error) {
	if in.ID <= 0 {
		return nil, ErrPositionNotFound
	}

	name := rules.Trimmed(in.Name)
	if err := validateFields(name, in.Salary, in.Partial); err != nil {
		return nil, err
	}

	var updated *Position
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if name != nil {
			existing.Name = *name
		}
		if in.Salary != nil {
			existing.Salary = in.Salary.Round(salaryDecimalPlaces)
		}
		updated, err = s.repo.Update(txCtx, existing)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePosition は職位を削除し、参照している社員の position を NULL にします。
func (s *Service) DeletePosition(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrPositionNotFound
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.DetachEmployees(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

// validateFields は partial が true の場合、指定されたフィールドのみ検証します。
func validateFields(name *string, salary *decimal.Decimal, partial bool) error {
	errs := validation.Errors{}
	if name != nil || !partial {
		errs["name"] = validation.Validate(name, rules.RequiredText(rules.MaxNameLength)...)
	}
	if salary != nil || !partial {
		errs["salary"] = validation.Validate(salary,
			validation.NotNil.Error(rules.MsgRequired),
			validation.By(checkSalaryPrecision),
		)
	}
	return errs.Filter()
}

func checkSalaryPrecision(value any) error {
	d, ok := value.(*decimal.Decimal)
	if !ok || d == nil {
		return nil
	}
	if !d.Equal(d.Round(salaryDecimalPlaces)) {
		return errSalaryPlaces
	}
	if d.Abs().Cmp(salaryWholeLimit) >= 0 {
		return errSalaryWhole
	}
	return nil
}
