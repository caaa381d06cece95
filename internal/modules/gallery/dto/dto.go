package dto

import (
	"time"

	"sd-gallery-server/internal/model"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ImageMeta 图片元信息，不含二进制数据
type ImageMeta struct {
	ID        uint      `json:"id"`
	OwnerID   uint      `json:"owner_id"`
	Filename  string    `json:"filename"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	Favorite  bool      `json:"favorite"`
	Rating    int       `json:"rating"`
}

func NewImageMeta(img *model.Image) ImageMeta {
	return ImageMeta{
		ID:        img.ID,
		OwnerID:   img.OwnerID,
		Filename:  img.Filename,
		Prompt:    img.Prompt,
		CreatedAt: img.CreatedAt,
		Favorite:  img.Favorite,
		Rating:    img.Rating,
	}
}

type PageRequest struct {
	OwnerID       uint
	Page          int
	PageSize      int
	Sort          SortOrder
	FavoritesOnly bool
}

// GalleryPage 分页视图，TotalPages = ceil(TotalItems / ItemsPerPage)
type GalleryPage struct {
	Items        []ImageMeta `json:"items"`
	PageNumber   int         `json:"page_number"`
	ItemsPerPage int         `json:"items_per_page"`
	TotalItems   int64       `json:"total_items"`
	TotalPages   int         `json:"total_pages"`
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}

type RatingRequest struct {
	Rating *int `json:"rating" binding:"required"`
}
