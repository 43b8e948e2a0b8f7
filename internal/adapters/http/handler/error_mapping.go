package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ogurasousui/hr-records-api/internal/core/auth"
	"github.com/ogurasousui/hr-records-api/internal/core/department"
	"github.com/ogurasousui/hr-records-api/internal/core/employee"
	"github.com/ogurasousui/hr-records-api/internal/core/position"
	"github.com/ogurasousui/hr-records-api/internal/core/status"
)

const (
	detailNotFound        = "Not found."
	detailInternal        = "Internal server error."
	msgInvalidCredentials = "Unable to log in with provided credentials."
	fieldNonFieldErrors   = "non_field_errors"
)

// respondError はエラーを HTTP ステータスとレスポンス本文に変換します。
// 想定外のエラーは c.Error に登録し、アクセスログで出力されるようにします。
func respondError(c *gin.Context, err error) {
	var (
		fieldErrs   validation.Errors
		badReq      *badRequestError
		unsupported *unsupportedMediaTypeError
		tooLarge    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, fieldErrorBody(fieldErrs))
	case errors.As(err, &badReq):
		c.JSON(http.StatusBadRequest, gin.H{"detail": badReq.detail})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": msgBodyTooLarge})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"detail": unsupported.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{fieldNonFieldErrors: []string{msgInvalidCredentials}})
	case errors.Is(err, status.ErrStatusNotFound),
		errors.Is(err, position.ErrPositionNotFound),
		errors.Is(err, department.ErrDepartmentNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
	}
}

// fieldErrorBody は validation.Errors を {"field": ["message"]} 形式に変換します。
func fieldErrorBody(errs validation.Errors) gin.H {
	body := gin.H{}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		err := errs[field]
		if err == nil {
			continue
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			body[field] = fieldErrorBody(nested)
			continue
		}
		body[field] = []string{err.Error()}
	}
	return body
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
}
