package employee

import "io"

// Employee は社員エンティティです。外部キーは未設定の場合 nil になります。
type Employee struct {
	ID           int64
	Name         string
	Address      string
	IsManager    bool
	StatusID     *int64
	PositionID   *int64
	DepartmentID *int64
	// ImageKey はオブジェクトストア上のキーです。
	ImageKey *string
	Status   *StatusSnapshot
}

// StatusSnapshot は社員に紐づく雇用状態のスナップショットです。
type StatusSnapshot struct {
	ID   int64
	Name string
}

// Image はアップロードされた社員画像です。
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Ref は更新リクエストで指定された外部キーです。Set が false の場合は未指定、ID が nil の場合は解除を表します。
type Ref struct {
	ID  *int64
	Set bool
}
