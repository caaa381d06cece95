package repo

import (
	"context"

	"sd-gallery-server/internal/model"

	"gorm.io/gorm"
)

type SystemRepository struct {
	db *gorm.DB
}

func (r *SystemRepository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *SystemRepository) CountImages() (int64, error) {
	var count int64
	err := r.db.Model(&model.Image{}).Count(&count).Error
	return count, err
}

func (r *SystemRepository) SumImageBytes() (int64, error) {
	var total int64
	err := r.db.Model(&model.Image{}).Select("COALESCE(SUM(LENGTH(data)), 0)").Scan(&total).Error
	return total, err
}

func (r *SystemRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
