package db

import (
	"fmt"
	"strings"

	"fantasy-backend/internal/common"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func GetDB() *gorm.DB {
	return db
}

// InitDB 按配置连接数据库并迁移表结构，失败直接panic
func InitDB(cfg *common.Config) {
	var err error
	db, err = Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	common.Logger.Infow("数据库连接成功", "driver", cfg.Database.Driver)
}

// Open 打开指定驱动的数据库并自动迁移
func Open(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("ENV OF MYSQL_DSN IS EMPTY")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "mysql", "":
		dialector = mysql.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(strings.ToLower(driver), "sqlite") {
		// 内存库每个连接都是独立的数据库
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return conn, nil
}

// Migrate 自动迁移表结构
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&User{},
		&Record{},
		&MoodAnalysis{},
		&ScheduledAnalysis{},
		&Category{},
		&Tag{},
	)
}
