package postgres

import (
	"errors"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/hr-records-api/internal/core/rules"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// foreignKeyFields は外部キー制約名と入力フィールド名の対応です。
var foreignKeyFields = map[string]string{
	"employees_status_id_fkey":     "status_id",
	"employees_position_id_fkey":   "position_id",
	"employees_department_id_fkey": "department_id",
	"departments_manager_id_fkey":  "manager",
}

// translateForeignKeyError は外部キー違反を field エラーへ変換します。該当しない場合は err をそのまま返します。
func translateForeignKeyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolationCode {
		return err
	}
	field, ok := foreignKeyFields[pgErr.ConstraintName]
	if !ok {
		return err
	}
	return validation.Errors{field: referencedKeyError(pgErr.Detail)}
}

// referencedKeyError は `Key (status_id)=(5) is not present in table "statuses".` 形式の詳細から主キーを取り出します。
func referencedKeyError(detail string) error {
	if _, rest, ok := strings.Cut(detail, ")=("); ok {
		if raw, _, ok := strings.Cut(rest, ")"); ok {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return rules.DoesNotExist(id)
			}
		}
	}
	return validation.NewError("does_not_exist", "Invalid pk - object does not exist.")
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
