package transaction

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbgorm"
	"gorm.io/gorm"
)

// Manager 管理数据库事务生命周期和上下文传播
type Manager struct {
	db *gorm.DB
}

// NewManager 事务可重试错误时自动重试，结束时提交或回滚
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Execute 在事务中执行 operation，事务通过 ctx 传给 Conn
func (m *Manager) Execute(
	ctx context.Context,
	opts *sql.TxOptions,
	operation func(ctx context.Context) error,
) error {
	return crdbgorm.ExecuteTx(ctx, m.db, opts, func(tx *gorm.DB) error {
		return operation(WithTransaction(ctx, tx))
	})
}
