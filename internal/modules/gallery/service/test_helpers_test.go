package service

import (
	"sync"
	"testing"
	"time"

	"sd-gallery-server/internal/modules/gallery/repo"
	userrepo "sd-gallery-server/internal/modules/user/repo"
	platformservice "sd-gallery-server/internal/platform/service"
	"sd-gallery-server/internal/testutils"

	"go.uber.org/zap/zaptest"
)

// stepClock 每次调用前进一秒；hold 为 true 时返回相同时刻，用于构造 created_at 相同的记录
type stepClock struct {
	mu   sync.Mutex
	cur  time.Time
	hold bool
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hold {
		c.cur = c.cur.Add(time.Second)
	}
	return c.cur
}

func (c *stepClock) Hold(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hold = v
}

type fixture struct {
	svc   *Service
	clock *stepClock
	alice uint
	bob   uint
}

// storeFactories 同一组用例分别在 gorm 与内存存储上运行
var storeFactories = map[string]func(t *testing.T) (repo.UserStore, repo.ImageStore, uint, uint){
	"gorm": func(t *testing.T) (repo.UserStore, repo.ImageStore, uint, uint) {
		gdb := testutils.SetupDB(t)
		alice := testutils.CreateUser(t, gdb, "alice", "abc12345")
		bob := testutils.CreateUser(t, gdb, "bob", "abc12345")
		return userrepo.NewUserRepository(gdb), repo.NewImageRepository(gdb), alice.ID, bob.ID
	},
	"memory": func(t *testing.T) (repo.UserStore, repo.ImageStore, uint, uint) {
		store := repo.NewMemoryStore(1, 2)
		return store, store, 1, 2
	},
}

func eachStore(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			users, images, alice, bob := factory(t)
			clock := &stepClock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			app := platformservice.NewAppService(zaptest.NewLogger(t))
			app.SetClock(clock.Now)
			fn(t, &fixture{
				svc:   New(app, users, images, Options{MaxPageSize: 100, ThumbnailSize: 64}),
				clock: clock,
				alice: alice,
				bob:   bob,
			})
		})
	}
}
