package employee

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
	"github.com/ogurasousui/hr-records-api/internal/core/rules"
)

// DefaultImageNamespace は社員画像を保存する既定の名前空間です。
const DefaultImageNamespace = "employee_images"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

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

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo      Repository
	refs      References
	images    ImageStore
	tx        TransactionManager
	namespace string
	newName   func() string
}

// Option は Service の挙動を変更します。
type Option func(*Service)

// WithImageNamespace は画像を保存する名前空間を指定します。
func WithImageNamespace(ns string) Option {
	return func(s *Service) {
		if ns = strings.Trim(ns, "/"); ns != "" {
			s.namespace = ns
		}
	}
}

// WithObjectNamer は画像のオブジェクト名の生成方法を差し替えます。
func WithObjectNamer(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newName = fn
		}
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, refs References, images ImageStore, tx TransactionManager, opts ...Option) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{
		repo:      repo,
		refs:      refs,
		images:    images,
		tx:        tx,
		namespace: DefaultImageNamespace,
		newName:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	Name         *string
	Address      *string
	IsManager    *bool
	StatusID     *int64
	PositionID   *int64
	DepartmentID *int64
	Image        *Image
}

// UpdateEmployeeInput は社員更新時の入力です。Partial が false の場合 name と address が必須になります。
type UpdateEmployeeInput struct {
	ID         int64
	Name       *string
	Address    *string
	IsManager  *bool
	Status     Ref
	Position   Ref
	Department Ref
	Image      *Image
	// ImageSet が true で Image が nil の場合は画像を解除します。
	ImageSet bool
	Partial  bool
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	StatusID     *int64
	PositionID   *int64
	DepartmentID *int64
	Search       string
	PageSize     int
	PageToken    string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// CreateEmployee は新しい社員を作成します。画像がある場合はトランザクションの開始前にオブジェクトストアへ書き込みます。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	name := rules.Trimmed(in.Name)
	address := rules.Trimmed(in.Address)
	errs := validateText(name, address, false)

	imageKey, err := s.uploadBeforeWrite(ctx, in.Image, errs)
	if err != nil {
		return nil, err
	}

	var created *Employee
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.checkReferences(txCtx, errs, in.StatusID, in.PositionID, in.DepartmentID); err != nil {
			return err
		}
		if err := errs.Filter(); err != nil {
			return err
		}

		emp := &Employee{
			Name:         *name,
			Address:      *address,
			StatusID:     cloneID(in.StatusID),
			PositionID:   cloneID(in.PositionID),
			DepartmentID: cloneID(in.DepartmentID),
		}
		if in.IsManager != nil {
			emp.IsManager = *in.IsManager
		}

		if imageKey != "" {
			key := imageKey
			emp.ImageKey = &key
		}

		var err error
		created, err = s.repo.Create(txCtx, emp)
		return err
	})
	if err != nil {
		return nil, s.discardImage(ctx, imageKey, err)
	}
	return created, nil
}

// UpdateEmployee は社員情報を更新します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if in.ID <= 0 {
		return nil, ErrEmployeeNotFound
	}

	name := rules.Trimmed(in.Name)
	address := rules.Trimmed(in.Address)
	errs := validateText(name, address, in.Partial)

	imageKey, err := s.uploadBeforeWrite(ctx, in.Image, errs)
	if err != nil {
		return nil, err
	}

	var updated *Employee
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if err := s.checkReferences(txCtx, errs, setID(in.Status), setID(in.Position), setID(in.Department)); err != nil {
			return err
		}
		if err := errs.Filter(); err != nil {
			return err
		}

		if name != nil {
			existing.Name = *name
		}
		if address != nil {
			existing.Address = *address
		}
		if in.IsManager != nil {
			existing.IsManager = *in.IsManager
		}
		if in.Status.Set {
			existing.StatusID = cloneID(in.Status.ID)
		}
		if in.Position.Set {
			existing.PositionID = cloneID(in.Position.ID)
		}
		if in.Department.Set {
			existing.DepartmentID = cloneID(in.Department.ID)
		}

		switch {
		case imageKey != "":
			key := imageKey
			existing.ImageKey = &key
		case in.ImageSet:
			existing.ImageKey = nil
		}

		updated, err = s.repo.Update(txCtx, existing)
		return err
	})
	if err != nil {
		return nil, s.discardImage(ctx, imageKey, err)
	}
	return updated, nil
}

// DeleteEmployee は社員を削除します。管理者として参照している部署の manager は同一トランザクション内で NULL になります。
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrEmployeeNotFound
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.DetachManagedDepartments(txCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	if id <= 0 {
		return nil, ErrEmployeeNotFound
	}

	var found *Employee
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

// ListEmployees は条件に一致する社員を ID 昇順で返します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	page, err := pagination.Parse(in.PageSize, in.PageToken)
	if err != nil {
		return nil, err
	}

	filter := ListEmployeesFilter{
		StatusID:     cloneID(in.StatusID),
		PositionID:   cloneID(in.PositionID),
		DepartmentID: cloneID(in.DepartmentID),
		Search:       strings.TrimSpace(in.Search),
		Page:         page,
	}

	result := &ListEmployeesResult{}
	err = s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		result.Employees, result.NextPageToken, err = s.repo.List(txCtx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) checkReferences(ctx context.Context, errs validation.Errors, statusID, positionID, departmentID *int64) error {
	checks := []struct {
		field  string
		id     *int64
		exists func(context.Context, int64) (bool, error)
	}{
		{"status_id", statusID, s.refs.StatusExists},
		{"position_id", positionID, s.refs.PositionExists},
		{"department_id", departmentID, s.refs.DepartmentExists},
	}

	for _, c := range checks {
		if c.id == nil {
			continue
		}
		ok, err := c.exists(ctx, *c.id)
		if err != nil {
			return fmt.Errorf("employee: resolve %s: %w", c.field, err)
		}
		if !ok {
			errs[c.field] = rules.DoesNotExist(*c.id)
		}
	}
	return nil
}

// uploadBeforeWrite はトランザクションを開始する前に画像をアップロードします。
// 入力検証に失敗している場合はアップロードせず空のキーを返します。
func (s *Service) uploadBeforeWrite(ctx context.Context, img *Image, errs validation.Errors) (string, error) {
	if img == nil || errs.Filter() != nil {
		return "", nil
	}
	return s.storeImage(ctx, img)
}

func (s *Service) storeImage(ctx context.Context, img *Image) (string, error) {
	if s.images == nil {
		return "", errors.New("employee: image store is not configured")
	}
	key := path.Join(s.namespace, s.newName()+imageExtension(img))
	if err := s.images.Put(ctx, key, img.Body, img.Size, img.ContentType); err != nil {
		return "", fmt.Errorf("employee: store image: %w", err)
	}
	return key, nil
}

// discardImage は行の保存に失敗した場合にアップロード済みの画像を削除します。
func (s *Service) discardImage(ctx context.Context, key string, cause error) error {
	if key == "" {
		return cause
	}
	if err := s.images.Delete(context.WithoutCancel(ctx), key); err != nil {
		return errors.Join(cause, fmt.Errorf("employee: remove orphaned image %s: %w", key, err))
	}
	return cause
}

func validateText(name, address *string, partial bool) validation.Errors {
	errs := validation.Errors{}
	if name != nil || !partial {
		errs["name"] = validation.Validate(name, rules.RequiredText(rules.MaxNameLength)...)
	}
	if address != nil || !partial {
		errs["address"] = validation.Validate(address,
			validation.NotNil.Error(rules.MsgRequired),
			validation.Required.Error(rules.MsgBlank),
		)
	}
	return errs
}

func imageExtension(img *Image) string {
	ext := strings.ToLower(path.Ext(img.Filename))
	if ext != "" && len(ext) <= 6 && isAlnum(ext[1:]) {
		return ext
	}
	return imageExtensions[img.ContentType]
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func setID(ref Ref) *int64 {
	if !ref.Set {
		return nil
	}
	return ref.ID
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
