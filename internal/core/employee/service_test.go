package employee

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
)

type fakeEmployeeRepo struct {
	employees map[int64]*Employee
	order     []int64
	sequence  int64
	statuses  map[int64]string
	// managers は部署 ID から管理者の社員 ID への対応です。
	managers   map[int64]*int64
	createErr  error
	lastFilter ListEmployeesFilter
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{
		employees: make(map[int64]*Employee),
		statuses:  map[int64]string{1: "normal"},
		managers:  make(map[int64]*int64),
	}
}

func cloneEmployee(e *Employee) *Employee {
	out := *e
	out.StatusID = cloneID(e.StatusID)
	out.PositionID = cloneID(e.PositionID)
	out.DepartmentID = cloneID(e.DepartmentID)
	if e.ImageKey != nil {
		key := *e.ImageKey
		out.ImageKey = &key
	}
	if e.Status != nil {
		snap := *e.Status
		out.Status = &snap
	}
	return &out
}

func (r *fakeEmployeeRepo) withStatus(e *Employee) *Employee {
	out := cloneEmployee(e)
	out.Status = nil
	if e.StatusID != nil {
		out.Status = &StatusSnapshot{ID: *e.StatusID, Name: r.statuses[*e.StatusID]}
	}
	return out
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.sequence++
	stored := r.withStatus(e)
	stored.ID = r.sequence
	r.employees[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneEmployee(stored), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *Employee) (*Employee, error) {
	if _, ok := r.employees[e.ID]; !ok {
		return nil, ErrEmployeeNotFound
	}
	stored := r.withStatus(e)
	r.employees[e.ID] = stored
	return cloneEmployee(stored), nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(r.employees, id)
	return nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id int64) (*Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter ListEmployeesFilter) ([]*Employee, string, error) {
	r.lastFilter = filter
	var matched []*Employee
	for _, id := range r.order {
		e, ok := r.employees[id]
		if !ok {
			continue
		}
		if filter.StatusID != nil && (e.StatusID == nil || *e.StatusID != *filter.StatusID) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(e.Name), needle) && !strings.Contains(strings.ToLower(e.Address), needle) {
				continue
			}
		}
		matched = append(matched, cloneEmployee(e))
	}
	items, token := pagination.Trim(matched, filter.Page)
	return items, token, nil
}

func (r *fakeEmployeeRepo) DetachManagedDepartments(_ context.Context, id int64) (int64, error) {
	var n int64
	for dept, manager := range r.managers {
		if manager != nil && *manager == id {
			r.managers[dept] = nil
			n++
		}
	}
	return n, nil
}

type fakeReferences struct {
	statuses, positions, departments map[int64]bool
}

func (f fakeReferences) StatusExists(_ context.Context, id int64) (bool, error) {
	return f.statuses[id], nil
}

func (f fakeReferences) PositionExists(_ context.Context, id int64) (bool, error) {
	return f.positions[id], nil
}

func (f fakeReferences) DepartmentExists(_ context.Context, id int64) (bool, error) {
	return f.departments[id], nil
}

type fakeImageStore struct {
	objects map[string][]byte
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (f *fakeImageStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func defaultRefs() fakeReferences {
	return fakeReferences{
		statuses:    map[int64]bool{1: true},
		positions:   map[int64]bool{2: true},
		departments: map[int64]bool{3: true},
	}
}

func strPtr(s string) *string { return &s }

func idPtr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func fixedName() string { return "fixed" }

func TestService_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), newFakeImageStore(), nil)

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:       strPtr(" Anan "),
		Address:    strPtr("Bangkok"),
		IsManager:  boolPtr(true),
		StatusID:   idPtr(1),
		PositionID: idPtr(2),
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if created.Name != "Anan" || created.Address != "Bangkok" || !created.IsManager {
		t.Fatalf("unexpected employee: %+v", created)
	}
	if created.Status == nil || created.Status.ID != 1 || created.Status.Name != "normal" {
		t.Fatalf("expected nested status snapshot, got %+v", created.Status)
	}
	if created.PositionID == nil || *created.PositionID != 2 {
		t.Fatalf("expected position 2, got %+v", created.PositionID)
	}
	if created.DepartmentID != nil || created.ImageKey != nil {
		t.Fatalf("expected optional fields to be empty, got %+v", created)
	}
}

func TestService_CreateEmployee_DefaultsIsManagerFalse(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), nil, nil)

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Name: strPtr("A"), Address: strPtr("B")})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if created.IsManager {
		t.Fatalf("expected is_manager to default to false")
	}
}

func TestService_CreateEmployee_ValidationErrors(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), nil, nil)

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:         strPtr("A"),
		StatusID:     idPtr(99),
		DepartmentID: idPtr(3),
	})

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation.Errors, got %v", err)
	}
	if verrs["address"] == nil || verrs["address"].Error() != "This field is required." {
		t.Fatalf("expected address required error, got %v", verrs)
	}
	if verrs["status_id"] == nil || verrs["status_id"].Error() != `Invalid pk "99" - object does not exist.` {
		t.Fatalf("expected status_id error, got %v", verrs)
	}
	if _, ok := verrs["department_id"]; ok {
		t.Fatalf("department 3 exists and must not be reported")
	}
}

func TestService_CreateEmployee_StoresImageUnderNamespace(t *testing.T) {
	t.Parallel()

	store := newFakeImageStore()
	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), store, nil, WithObjectNamer(fixedName))

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:    strPtr("A"),
		Address: strPtr("B"),
		Image: &Image{
			Filename:    "Portrait.PNG",
			ContentType: "image/png",
			Size:        4,
			Body:        strings.NewReader("\x89PNG"),
		},
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if created.ImageKey == nil || *created.ImageKey != "employee_images/fixed.png" {
		t.Fatalf("unexpected image key: %v", created.ImageKey)
	}
	if string(store.objects["employee_images/fixed.png"]) != "\x89PNG" {
		t.Fatalf("expected image bytes to be stored")
	}
}

func TestService_CreateEmployee_RemovesImageWhenInsertFails(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	repo.createErr = errors.New("insert failed")
	store := newFakeImageStore()
	svc := NewService(repo, defaultRefs(), store, nil, WithObjectNamer(fixedName), WithImageNamespace("/avatars/"))

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:    strPtr("A"),
		Address: strPtr("B"),
		Image:   &Image{Filename: "x", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
	})
	if !errors.Is(err, repo.createErr) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "avatars/fixed.jpg" {
		t.Fatalf("expected orphaned image to be removed, got %v", store.deleted)
	}
	if len(store.objects) != 0 {
		t.Fatalf("expected no stored objects, got %d", len(store.objects))
	}
}

type trackingTx struct {
	active bool
}

func (tx *trackingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return tx.WithinReadWrite(ctx, fn)
}

func (tx *trackingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	tx.active = true
	defer func() { tx.active = false }()
	return fn(ctx)
}

type txCheckingStore struct {
	*fakeImageStore
	tx          *trackingTx
	putsInTx    int
	putsOutside int
}

func (s *txCheckingStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.tx.active {
		s.putsInTx++
	} else {
		s.putsOutside++
	}
	return s.fakeImageStore.Put(ctx, key, body, size, contentType)
}

func TestService_UploadsImageOutsideTransaction(t *testing.T) {
	t.Parallel()

	tx := &trackingTx{}
	store := &txCheckingStore{fakeImageStore: newFakeImageStore(), tx: tx}
	repo := newFakeEmployeeRepo()
	svc := NewService(repo, defaultRefs(), store, tx, WithObjectNamer(fixedName))

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:    strPtr("A"),
		Address: strPtr("B"),
		Image:   &Image{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("png")},
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	_, err = svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		ID:      created.ID,
		Image:   &Image{Filename: "b.png", ContentType: "image/png", Body: strings.NewReader("png")},
		Partial: true,
	})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}

	if store.putsInTx != 0 || store.putsOutside != 2 {
		t.Fatalf("expected both uploads before the transaction, got in=%d outside=%d", store.putsInTx, store.putsOutside)
	}
}

func TestService_CreateEmployee_SkipsUploadWhenInputInvalid(t *testing.T) {
	t.Parallel()

	store := newFakeImageStore()
	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), store, nil, WithObjectNamer(fixedName))

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:  strPtr(""),
		Image: &Image{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("png")},
	})
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation.Errors, got %v", err)
	}
	if len(store.objects) != 0 || len(store.deleted) != 0 {
		t.Fatalf("expected no upload, got objects=%v deleted=%v", store.objects, store.deleted)
	}
}

func TestService_UpdateEmployee_RemovesImageWhenEmployeeMissing(t *testing.T) {
	t.Parallel()

	store := newFakeImageStore()
	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), store, nil, WithObjectNamer(fixedName))

	_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		ID:      404,
		Image:   &Image{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("png")},
		Partial: true,
	})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	if len(store.objects) != 0 || len(store.deleted) != 1 {
		t.Fatalf("expected uploaded image to be removed, got objects=%v deleted=%v", store.objects, store.deleted)
	}
}

func TestService_UpdateEmployee_PartialRoundTrip(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), nil, nil)

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:     strPtr("A"),
		Address:  strPtr("B"),
		StatusID: idPtr(1),
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if _, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		ID:      created.ID,
		Address: strPtr("C"),
		Partial: true,
	}); err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}

	got, err := svc.GetEmployee(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetEmployee returned error: %v", err)
	}
	if got.Name != "A" || got.Address != "C" {
		t.Fatalf("expected {A, C}, got {%s, %s}", got.Name, got.Address)
	}
	if got.StatusID == nil || *got.StatusID != 1 {
		t.Fatalf("expected status to be unchanged, got %+v", got.StatusID)
	}
}

func TestService_UpdateEmployee_FullRequiresMandatoryFields(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), nil, nil)
	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Name: strPtr("A"), Address: strPtr("B")})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	_, err = svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: created.ID, Name: strPtr("A2")})
	var verrs validation.Errors
	if !errors.As(err, &verrs) || verrs["address"] == nil {
		t.Fatalf("expected address required error, got %v", err)
	}
}

func TestService_UpdateEmployee_ClearReferenceAndImage(t *testing.T) {
	t.Parallel()

	store := newFakeImageStore()
	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), store, nil)
	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:         strPtr("A"),
		Address:      strPtr("B"),
		StatusID:     idPtr(1),
		DepartmentID: idPtr(3),
		Image:        &Image{Filename: "a.gif", ContentType: "image/gif", Body: strings.NewReader("GIF8")},
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	updated, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		ID:       created.ID,
		Status:   Ref{Set: true},
		ImageSet: true,
		Partial:  true,
	})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}
	if updated.StatusID != nil || updated.Status != nil {
		t.Fatalf("expected status to be cleared, got %+v", updated.Status)
	}
	if updated.ImageKey != nil {
		t.Fatalf("expected image to be cleared, got %s", *updated.ImageKey)
	}
	if updated.DepartmentID == nil || *updated.DepartmentID != 3 {
		t.Fatalf("expected department to be kept, got %+v", updated.DepartmentID)
	}
}

func TestService_UpdateEmployee_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), defaultRefs(), nil, nil)

	_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: 404, Name: strPtr("x"), Partial: true})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_DeleteEmployee_NullsDepartmentManager(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := NewService(repo, defaultRefs(), nil, nil)
	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Name: strPtr("Anan"), Address: strPtr("Bangkok")})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	repo.managers[10] = idPtr(created.ID)

	if err := svc.DeleteEmployee(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}
	if repo.managers[10] != nil {
		t.Fatalf("expected department manager to be nulled")
	}
	if _, err := svc.GetEmployee(context.Background(), created.ID); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_ListEmployees_FilterAndSearch(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := NewService(repo, defaultRefs(), nil, nil)

	seed := []CreateEmployeeInput{
		{Name: strPtr("Anan"), Address: strPtr("Bangkok"), StatusID: idPtr(1)},
		{Name: strPtr("Somchai"), Address: strPtr("Chiang Mai"), StatusID: idPtr(1)},
		{Name: strPtr("Kanya"), Address: strPtr("BANGKOK Noi")},
	}
	for _, in := range seed {
		if _, err := svc.CreateEmployee(context.Background(), in); err != nil {
			t.Fatalf("seed error: %v", err)
		}
	}

	searched, err := svc.ListEmployees(context.Background(), ListEmployeesInput{Search: "  bangkok "})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if repo.lastFilter.Search != "bangkok" {
		t.Fatalf("expected trimmed search term, got %q", repo.lastFilter.Search)
	}
	if len(searched.Employees) != 2 {
		t.Fatalf("expected 2 employees matching bangkok, got %d", len(searched.Employees))
	}

	combined, err := svc.ListEmployees(context.Background(), ListEmployeesInput{Search: "bangkok", StatusID: idPtr(1)})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(combined.Employees) != 1 || combined.Employees[0].Name != "Anan" {
		t.Fatalf("expected only Anan, got %d employees", len(combined.Employees))
	}

	if _, err := svc.ListEmployees(context.Background(), ListEmployeesInput{PageSize: pagination.MaxPageSize + 1}); err == nil {
		t.Fatalf("expected page size validation error")
	}
}
