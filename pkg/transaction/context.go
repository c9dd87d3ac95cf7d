package transaction

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTransaction 把 tx 挂到 ctx 上，同一调用链里的仓储通过 Conn 复用
func WithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// FromContext 取出 ctx 上的事务
func FromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn 事务内返回 tx，否则返回 db，两者都绑定 ctx
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := FromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
