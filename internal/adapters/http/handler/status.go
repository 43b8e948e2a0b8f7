package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/status"
)

// StatusResponse は雇用状態のレスポンスです。
type StatusResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StatusHandler は雇用状態の HTTP ハンドラです。
type StatusHandler struct {
	svc status.UseCase
}

// NewStatusHandler は StatusHandler を生成します。
func NewStatusHandler(svc status.UseCase) *StatusHandler {
	return &StatusHandler{svc: svc}
}

// List は雇用状態の一覧を返します。
func (h *StatusHandler) List(c *gin.Context) {
	errs := validation.Errors{}
	size, token := pageParams(c, errs)
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.svc.ListStatuses(c.Request.Context(), status.ListStatusesInput{PageSize: size, PageToken: token})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]StatusResponse, 0, len(result.Statuses))
	for _, s := range result.Statuses {
		out = append(out, toStatusResponse(s))
	}
	setNextPageToken(c, result.NextPageToken)
	c.JSON(http.StatusOK, out)
}

// Create は雇用状態を作成します。
func (h *StatusHandler) Create(c *gin.Context) {
	p, err := readPayload(c, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	in := status.CreateStatusInput{Name: p.text("name", errs)}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.svc.CreateStatus(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStatusResponse(created))
}

// Get は雇用状態を返します。
func (h *StatusHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}

	found, err := h.svc.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(found))
}

// Update は PUT では全体更新、PATCH では部分更新を行います。
func (h *StatusHandler) Update(c *gin.Context) {
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
	in := status.UpdateStatusInput{
		ID:      id,
		Name:    p.text("name", errs),
		Partial: c.Request.Method == http.MethodPatch,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.svc.UpdateStatus(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(updated))
}

// Delete は雇用状態を削除します。
func (h *StatusHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	if err := h.svc.DeleteStatus(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toStatusResponse(s *status.Status) StatusResponse {
	return StatusResponse{ID: s.ID, Name: s.Name}
}
