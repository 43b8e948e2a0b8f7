package status

// Status は雇用状態のマスタです。
type Status struct {
	ID   int64
	Name string
}
