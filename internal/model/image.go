package model

import "time"

// Image 一张已持久化的生成图片。Data 仅在取原图时加载，列表查询不读取该列。
type Image struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   uint      `json:"owner_id" gorm:"not null;index:idx_owner_created,priority:1"`
	Owner     User      `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE;"`
	Data      []byte    `json:"-" gorm:"not null"`
	Prompt    string    `json:"prompt" gorm:"type:text;not null"`
	Filename  string    `json:"filename" gorm:"not null;size:255"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_owner_created,priority:2"`
	Favorite  bool      `json:"favorite" gorm:"not null;default:false"`
	Rating    int       `json:"rating" gorm:"not null;default:0"`
}

// ImageMetaColumns 列表查询读取的列（不含二进制数据）
var ImageMetaColumns = []string{"id", "owner_id", "prompt", "filename", "created_at", "favorite", "rating"}
