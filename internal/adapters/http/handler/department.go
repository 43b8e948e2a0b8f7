package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/department"
)

// DepartmentResponse は部署のレスポンスです。manager は社員 ID または null です。
type DepartmentResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Manager *int64 `json:"manager"`
}

// DepartmentHandler は部署の HTTP ハンドラです。
type DepartmentHandler struct {
	svc department.UseCase
}

// NewDepartmentHandler は DepartmentHandler を生成します。
func NewDepartmentHandler(svc department.UseCase) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

// List は部署の一覧を返します。
func (h *DepartmentHandler) List(c *gin.Context) {
	errs := validation.Errors{}
	size, token := pageParams(c, errs)
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.svc.ListDepartments(c.Request.Context(), department.ListDepartmentsInput{PageSize: size, PageToken: token})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]DepartmentResponse, 0, len(result.Departments))
	for _, d := range result.Departments {
		out = append(out, toDepartmentResponse(d))
	}
	setNextPageToken(c, result.NextPageToken)
	c.JSON(http.StatusOK, out)
}

// Create は部署を作成します。
func (h *DepartmentHandler) Create(c *gin.Context) {
	p, err := readPayload(c, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	manager := p.ref("manager", errs)
	in := department.CreateDepartmentInput{
		Name:      p.text("name", errs),
		ManagerID: manager.ID,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.svc.CreateDepartment(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDepartmentResponse(created))
}

// Get は部署を返します。
func (h *DepartmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}

	found, err := h.svc.GetDepartment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDepartmentResponse(found))
}

// Update は部署を更新します。manager に null を指定すると管理者を解除します。
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	p, err := readPayload(c, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	manager := p.ref("manager", errs)
	in := department.UpdateDepartmentInput{
		ID:         id,
		Name:       p.text("name", errs),
		ManagerID:  manager.ID,
		ManagerSet: manager.Set,
		Partial:    c.Request.Method == http.MethodPatch,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.svc.UpdateDepartment(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDepartmentResponse(updated))
}

// Delete は部署を削除し、所属していた社員の department を NULL にします。
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	if err := h.svc.DeleteDepartment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toDepartmentResponse(d *department.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Manager: d.ManagerID}
}
