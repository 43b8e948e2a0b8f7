package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/employee"
)

const defaultMaxImageBytes = 5 << 20

// ImageURLResolver はオブジェクトストアのキーを公開 URL に変換します。
type ImageURLResolver interface {
	URL(key string) string
}

// EmployeeStatusResponse は社員に埋め込まれる雇用状態です。
type EmployeeStatusResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EmployeeResponse は社員のレスポンスです。status は展開し、position と department は ID のみを返します。
type EmployeeResponse struct {
	ID         int64                   `json:"id"`
	Name       string                  `json:"name"`
	Address    string                  `json:"address"`
	IsManager  bool                    `json:"is_manager"`
	Status     *EmployeeStatusResponse `json:"status"`
	Position   *int64                  `json:"position"`
	Department *int64                  `json:"department"`
	Image      *string                 `json:"image"`
}

// EmployeeHandler は社員の HTTP ハンドラです。
type EmployeeHandler struct {
	svc           employee.UseCase
	images        ImageURLResolver
	maxImageBytes int64
}

// NewEmployeeHandler は EmployeeHandler を生成します。maxImageBytes が 0 以下の場合は defaultMaxImageBytes を使います。
func NewEmployeeHandler(svc employee.UseCase, images ImageURLResolver, maxImageBytes int64) *EmployeeHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = defaultMaxImageBytes
	}
	return &EmployeeHandler{svc: svc, images: images, maxImageBytes: maxImageBytes}
}

// List は社員の一覧を返します。status・position・department で絞り込み、search で name と address を部分一致検索します。
func (h *EmployeeHandler) List(c *gin.Context) {
	errs := validation.Errors{}
	size, token := pageParams(c, errs)
	in := employee.ListEmployeesInput{
		StatusID:     queryID(c, "status", errs),
		PositionID:   queryID(c, "position", errs),
		DepartmentID: queryID(c, "department", errs),
		Search:       c.Query("search"),
		PageSize:     size,
		PageToken:    token,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.svc.ListEmployees(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]EmployeeResponse, 0, len(result.Employees))
	for _, e := range result.Employees {
		out = append(out, h.toResponse(e))
	}
	setNextPageToken(c, result.NextPageToken)
	c.JSON(http.StatusOK, out)
}

// Create は社員を作成します。画像はマルチパートの image パートで受け付けます。
func (h *EmployeeHandler) Create(c *gin.Context) {
	p, err := readPayload(c, h.maxImageBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	img, _, err := p.image("image", h.maxImageBytes, errs)
	if err != nil {
		respondError(c, err)
		return
	}
	in := employee.CreateEmployeeInput{
		Name:         p.text("name", errs),
		Address:      p.text("address", errs),
		IsManager:    p.boolean("is_manager", errs),
		StatusID:     p.ref("status_id", errs).ID,
		PositionID:   p.ref("position_id", errs).ID,
		DepartmentID: p.ref("department_id", errs).ID,
		Image:        img,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.svc.CreateEmployee(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(created))
}

// Get は社員を返します。
func (h *EmployeeHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}

	found, err := h.svc.GetEmployee(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(found))
}

// Update は社員を更新します。PUT では name と address が必須です。
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	p, err := readPayload(c, h.maxImageBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	img, imgSet, err := p.image("image", h.maxImageBytes, errs)
	if err != nil {
		respondError(c, err)
		return
	}
	in := employee.UpdateEmployeeInput{
		ID:         id,
		Name:       p.text("name", errs),
		Address:    p.text("address", errs),
		IsManager:  p.boolean("is_manager", errs),
		Status:     p.ref("status_id", errs),
		Position:   p.ref("position_id", errs),
		Department: p.ref("department_id", errs),
		Image:      img,
		ImageSet:   imgSet,
		Partial:    c.Request.Method == http.MethodPatch,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.svc.UpdateEmployee(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(updated))
}

// Delete は社員を削除します。
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	if err := h.svc.DeleteEmployee(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EmployeeHandler) toResponse(e *employee.Employee) EmployeeResponse {
	out := EmployeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Address:    e.Address,
		IsManager:  e.IsManager,
		Position:   e.PositionID,
		Department: e.DepartmentID,
	}
	if e.Status != nil {
		out.Status = &EmployeeStatusResponse{ID: e.Status.ID, Name: e.Status.Name}
	}
	if e.ImageKey != nil && h.images != nil {
		url := h.images.URL(*e.ImageKey)
		out.Image = &url
	}
	return out
}
