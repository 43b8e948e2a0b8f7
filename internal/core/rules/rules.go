// Package rules はエンティティ共通の入力検証ルールとメッセージを提供します。
package rules

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
	MsgNull     = "This field may not be null."

	// MaxNameLength は name 列の最大文字数です。
	MaxNameLength = 100
)

// RequiredText は必須の文字列フィールドに適用するルールです。
func RequiredText(maxLen int) []validation.Rule {
	return []validation.Rule{
		validation.NotNil.Error(MsgRequired),
		validation.Required.Error(MsgBlank),
		validation.RuneLength(0, maxLen).Error(fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen)),
	}
}

// Trimmed は前後の空白を取り除いたコピーを返します。
func Trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// DoesNotExist は参照先が存在しない主キーに対するエラーです。
func DoesNotExist(id int64) error {
	return validation.NewError("does_not_exist", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
}
