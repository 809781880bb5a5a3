package models

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// OpenDB 按驱动打开数据库并迁移全部表
func OpenDB(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// 设置命名策略
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := migrateAllTables(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

// InitDB 初始化主数据库
func InitDB(driver, dsn string, debug bool) error {
	db, err := OpenDB(driver, dsn, debug)
	if err != nil {
		return err
	}
	DB = db
	log.Info().Str("driver", driver).Msg("数据库初始化成功")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// migrateAllTables 批量迁移所有表
func migrateAllTables(db *gorm.DB) error {
	models := []interface{}{
		&GeoObject{},
		&GeoNameFeature{},
		&GeometryVersion{},
		&GeoObjectRelation{},
		&GeoObjectInfo{},
		&GeoClassifier{},
		&GeoObjectsGeoClassifiers{},
		&InputTopologyLink{},
		&OutputTopologyLink{},
		&Aspect{},
		&GeoObjectRecord{},
		&EditSession{},
	}

	return db.AutoMigrate(models...)
}
