package repo

import (
	"sd-gallery-server/internal/model"

	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func (r *ImageRepository) Create(image *model.Image) error {
	return r.db.Create(image).Error
}

func (r *ImageRepository) FindByID(id uint) (*model.Image, error) {
	var image model.Image
	if err := r.db.First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) FindMetaByID(id uint) (*model.Image, error) {
	var image model.Image
	if err := r.db.Select(model.ImageMetaColumns).First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) ListByOwner(params ListImagesParams) ([]model.Image, int64, error) {
	var images []model.Image
	var total int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&model.Image{}).Where("owner_id = ?", params.OwnerID)
		if params.FavoritesOnly {
			query = query.Where("favorite = ?", true)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}

		order := "created_at asc"
		if params.Newest {
			order = "created_at desc"
		}
		query = query.Select(model.ImageMetaColumns).Order(order).Order("id asc")
		if params.Limit > 0 {
			query = query.Offset(params.Offset).Limit(params.Limit)
		}
		return query.Find(&images).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

func (r *ImageRepository) DeleteOwned(id uint, ownerID uint) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Image{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}

func (r *ImageRepository) SetFavorite(id uint, ownerID uint, favorite bool) (int64, error) {
	return r.updateOwned(id, ownerID, "favorite", favorite)
}

func (r *ImageRepository) SetRating(id uint, ownerID uint, rating int) (int64, error) {
	return r.updateOwned(id, ownerID, "rating", rating)
}

func (r *ImageRepository) updateOwned(id uint, ownerID uint, column string, value interface{}) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Image{}).Where("id = ? AND owner_id = ?", id, ownerID).UpdateColumn(column, value)
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}
