package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/position"
)

// PositionResponse は職位のレスポンスです。salary は小数点以下 2 桁の文字列です。
type PositionResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Salary string `json:"salary"`
}

// PositionHandler は職位の HTTP ハンドラです。
type PositionHandler struct {
	svc position.UseCase
}

// NewPositionHandler は PositionHandler を生成します。
func NewPositionHandler(svc position.UseCase) *PositionHandler {
	return &PositionHandler{svc: svc}
}

// List は職位の一覧を返します。
func (h *PositionHandler) List(c *gin.Context) {
	errs := validation.Errors{}
	size, token := pageParams(c, errs)
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.svc.ListPositions(c.Request.Context(), position.ListPositionsInput{PageSize: size, PageToken: token})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]PositionResponse, 0, len(result.Positions))
	for _, p := range result.Positions {
		out = append(out, toPositionResponse(p))
	}
	setNextPageToken(c, result.NextPageToken)
	c.JSON(http.StatusOK, out)
}

// Create は職位を作成します。
func (h *PositionHandler) Create(c *gin.Context) {
	p, err := readPayload(c, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	errs := validation.Errors{}
	in := position.CreatePositionInput{
		Name:   p.text("name", errs),
		Salary: p.decimal("salary", errs),
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.svc.CreatePosition(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPositionResponse(created))
}

// Get は職位を返します。
func (h *PositionHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}

	found, err := h.svc.GetPosition(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPositionResponse(found))
}

// Update は職位を更新します。
func (h *PositionHandler) Update(c *gin.Context) {
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
	in := position.UpdatePositionInput{
		ID:      id,
		Name:    p.text("name", errs),
		Salary:  p.decimal("salary", errs),
		Partial: c.Request.Method == http.MethodPatch,
	}
	if err := errs.Filter(); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.svc.UpdatePosition(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPositionResponse(updated))
}

// Delete は職位を削除します。
func (h *PositionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		notFound(c)
		return
	}
	if err := h.svc.DeletePosition(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toPositionResponse(p *position.Position) PositionResponse {
	return PositionResponse{ID: p.ID, Name: p.Name, Salary: p.Salary.StringFixed(2)}
}
