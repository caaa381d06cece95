package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sd-gallery-server/internal/config"
	"sd-gallery-server/internal/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open 按配置打开数据库、配置连接池并同步表结构。
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialector, err := buildDialector(cfg)
	if err != nil {
		return nil, err
	}

	// TranslateError 把驱动的唯一键、外键错误转换为 gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层 sql.DB 以配置连接池
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取 sql.DB: %w", err)
	}

	if isSQLite(cfg.Type) {
		// SQLite 建议单连接写
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(gdb); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	logger.Info("✅ 数据库连接成功，表结构已同步", zap.String("type", normalizedType(cfg.Type)))
	return gdb, nil
}

// Migrate 同步用户与图片表结构
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.User{},
		&model.Image{},
	)
}

// Close 关闭底层连接
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func buildDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch normalizedType(cfg.Type) {
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				cfg.User,
				cfg.Password,
				cfg.Host,
				cfg.Port,
				cfg.Name,
			)
			if cfg.SSL {
				dsn += "&tls=true"
			}
		}
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			sslMode := "disable"
			if cfg.SSL {
				sslMode = "require"
			}
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
				cfg.Host,
				cfg.User,
				cfg.Password,
				cfg.Name,
				cfg.Port,
				sslMode,
			)
		}
		return postgres.Open(dsn), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			// 自动创建数据库目录
			dbDir := filepath.Dir(cfg.Filename)
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, fmt.Errorf("无法创建数据库目录 '%s': %w", dbDir, err)
			}
			// 启用 WAL 模式和繁忙等待，提升 SQLite 并发性能
			dsn = cfg.Filename + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", cfg.Type)
	}
}

func normalizedType(t string) string {
	if t == "" {
		return "sqlite"
	}
	return t
}

func isSQLite(t string) bool {
	return normalizedType(t) == "sqlite"
}
