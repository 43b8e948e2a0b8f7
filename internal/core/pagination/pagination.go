// Package pagination はオフセット方式のページトークンを扱います。
package pagination

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxPageSize は 1 ページで返せる最大件数です。
const MaxPageSize = 200

// Page は一覧取得の範囲です。Limit が 0 の場合は件数制限を行いません。
type Page struct {
	Limit  int
	Offset int
}

// Parse は page_size と page_token を検証し Page に変換します。
func Parse(pageSize int, pageToken string) (Page, error) {
	errs := validation.Errors{}

	if pageSize < 0 || pageSize > MaxPageSize {
		errs["page_size"] = validation.NewError("invalid_page_size",
			"Ensure this value is between 1 and "+strconv.Itoa(MaxPageSize)+".")
	}

	offset := 0
	if token := strings.TrimSpace(pageToken); token != "" {
		parsed, err := strconv.Atoi(token)
		if err != nil || parsed < 0 {
			errs["page_token"] = validation.NewError("invalid_page_token", "Invalid page token.")
		} else {
			offset = parsed
		}
	}

	if err := errs.Filter(); err != nil {
		return Page{}, err
	}
	return Page{Limit: pageSize, Offset: offset}, nil
}

// Trim は limit+1 件で取得した結果を Limit 件に切り詰め、次ページのトークンを返します。
func Trim[T any](items []T, page Page) ([]T, string) {
	if page.Limit <= 0 || len(items) <= page.Limit {
		return items, ""
	}
	return items[:page.Limit], strconv.Itoa(page.Offset + page.Limit)
}
