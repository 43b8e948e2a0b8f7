package position

import "github.com/shopspring/decimal"

// Position は職位と基本給を表します。Salary は小数点以下 2 桁の固定精度です。
type Position struct {
	ID     int64
	Name   string
	Salary decimal.Decimal
}
