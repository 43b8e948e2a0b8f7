package department

// Department は部署です。ManagerID は管理者である社員を指し、未設定の場合は nil です。
type Department struct {
	ID        int64
	Name      string
	ManagerID *int64
}
