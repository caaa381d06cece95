package repo

import (
	"context"

	"gorm.io/gorm"
)

// SystemStore 全局统计与健康检查所需的查询
type SystemStore interface {
	CountUsers() (int64, error)
	CountImages() (int64, error)
	SumImageBytes() (int64, error)
	Ping(ctx context.Context) error
}

func NewSystemRepository(db *gorm.DB) SystemStore {
	return &SystemRepository{db: db}
}
