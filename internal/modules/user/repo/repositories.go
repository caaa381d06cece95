package repo

import (
	"sd-gallery-server/internal/model"

	"gorm.io/gorm"
)

type UserStore interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	// FindByEmail 邮箱不唯一，返回最早注册的用户
	FindByEmail(email string) (*model.User, error)
	UsernameExists(username string) (bool, error)
	Exists(id uint) (bool, error)
}

func NewUserRepository(db *gorm.DB) UserStore {
	return &UserRepository{db: db}
}
