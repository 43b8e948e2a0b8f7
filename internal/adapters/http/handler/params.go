package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NextPageTokenHeader は次ページのトークンを返すレスポンスヘッダーです。
const NextPageTokenHeader = "X-Next-Page-Token"

// pathID はパスパラメータ id を取り出します。整数でない場合は false を返します。
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageParams はクエリの page_size と page_token を取り出します。
func pageParams(c *gin.Context, errs validation.Errors) (int, string) {
	size := 0
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errs["page_size"] = validation.NewError("invalid", "A valid integer is required.")
		} else {
			size = parsed
		}
	}
	return size, c.Query("page_token")
}

// queryID は整数のクエリパラメータを取り出します。空の場合は nil を返します。
func queryID(c *gin.Context, name string, errs validation.Errors) *int64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errs[name] = validation.NewError("invalid_choice", "Select a valid choice. That choice is not one of the available choices.")
		return nil
	}
	return &id
}

func setNextPageToken(c *gin.Context, token string) {
	if token != "" {
		c.Header(NextPageTokenHeader, token)
	}
}
