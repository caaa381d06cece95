package repo

import (
	"sd-gallery-server/internal/model"

	"gorm.io/gorm"
)

// ListImagesParams 分页查询条件。Limit <= 0 表示不分页。
type ListImagesParams struct {
	OwnerID       uint
	Newest        bool
	FavoritesOnly bool
	Offset        int
	Limit         int
}

// ImageStore 图片记录存储。查询不到记录时返回 gorm.ErrRecordNotFound。
type ImageStore interface {
	Create(image *model.Image) error
	// FindByID 返回包含二进制数据的完整记录
	FindByID(id uint) (*model.Image, error)
	// FindMetaByID 返回不含二进制数据的元信息
	FindMetaByID(id uint) (*model.Image, error)
	// ListByOwner 返回元信息与满足条件的总数，两者来自同一快照
	ListByOwner(params ListImagesParams) ([]model.Image, int64, error)
	// DeleteOwned 仅当记录仍存在且属于 ownerID 时删除，返回删除的行数
	DeleteOwned(id uint, ownerID uint) (int64, error)
	SetFavorite(id uint, ownerID uint, favorite bool) (int64, error)
	SetRating(id uint, ownerID uint, rating int) (int64, error)
}

// UserStore 图库只需要确认归属用户存在
type UserStore interface {
	Exists(id uint) (bool, error)
}

func NewImageRepository(db *gorm.DB) ImageStore {
	return &ImageRepository{db: db}
}
