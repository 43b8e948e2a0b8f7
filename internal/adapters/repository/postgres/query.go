package postgres

import (
	"strconv"

	"github.com/ogurasousui/hr-records-api/internal/core/pagination"
)

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// pageClause は LIMIT/OFFSET 句を組み立てます。次ページ判定のため Limit+1 件を取得します。
// Limit が 0 の場合は OFFSET のみを付与します。
func pageClause(args []any, page pagination.Page) (string, []any) {
	clause := ""
	if page.Limit > 0 {
		args = append(args, page.Limit+1)
		clause += "\n         LIMIT " + placeholder(len(args))
	}
	args = append(args, page.Offset)
	clause += "\n        OFFSET " + placeholder(len(args))
	return clause, args
}
