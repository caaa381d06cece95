package repo

import (
	"sort"
	"sync"

	"sd-gallery-server/internal/model"

	"gorm.io/gorm"
)

// MemoryStore 进程内的图片与用户存储，仅用于测试或数据库不可用时的降级运行，重启即丢失。
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[uint]struct{}
	images map[uint]model.Image
	nextID uint
}

// NewMemoryStore 创建内存存储，users 为预置存在的用户 ID
func NewMemoryStore(users ...uint) *MemoryStore {
	s := &MemoryStore{
		users:  make(map[uint]struct{}, len(users)),
		images: make(map[uint]model.Image),
		nextID: 1,
	}
	for _, id := range users {
		s.users[id] = struct{}{}
	}
	return s
}

func (s *MemoryStore) AddUser(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = struct{}{}
}

func (s *MemoryStore) Exists(id uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *MemoryStore) Create(image *model.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[image.OwnerID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	image.ID = s.nextID
	s.nextID++
	stored := *image
	stored.Data = append([]byte(nil), image.Data...)
	s.images[stored.ID] = stored
	return nil
}

func (s *MemoryStore) FindByID(id uint) (*model.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	img.Data = append([]byte(nil), img.Data...)
	return &img, nil
}

func (s *MemoryStore) FindMetaByID(id uint) (*model.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	img.Data = nil
	return &img, nil
}

func (s *MemoryStore) ListByOwner(params ListImagesParams) ([]model.Image, int64, error) {
	s.mu.RLock()
	matched := make([]model.Image, 0)
	for _, img := range s.images {
		if img.OwnerID != params.OwnerID || (params.FavoritesOnly && !img.Favorite) {
			continue
		}
		img.Data = nil
		matched = append(matched, img)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if params.Newest {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	if params.Limit <= 0 {
		return matched, total, nil
	}
	start := min(max(params.Offset, 0), len(matched))
	end := min(start+params.Limit, len(matched))
	return matched[start:end], total, nil
}

func (s *MemoryStore) DeleteOwned(id uint, ownerID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok || img.OwnerID != ownerID {
		return 0, nil
	}
	delete(s.images, id)
	return 1, nil
}

func (s *MemoryStore) SetFavorite(id uint, ownerID uint, favorite bool) (int64, error) {
	return s.update(id, ownerID, func(img *model.Image) { img.Favorite = favorite })
}

func (s *MemoryStore) SetRating(id uint, ownerID uint, rating int) (int64, error) {
	return s.update(id, ownerID, func(img *model.Image) { img.Rating = rating })
}

func (s *MemoryStore) update(id uint, ownerID uint, fn func(img *model.Image)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok || img.OwnerID != ownerID {
		return 0, nil
	}
	fn(&img)
	s.images[id] = img
	return 1, nil
}
