package mysql

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/stockmanagement/internal/infrastructure/config"
)

// NewDB 创建GORM数据库连接
// 设计说明：
// 1. driver=mysql 使用gorm.io/driver/mysql
// 2. driver=sqlite 使用纯Go的glebarez/sqlite（单机部署、测试）
// 3. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 4. 不做表结构迁移，books表由DBA按scripts/schema维护
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.Database.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("GORM不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	logLevel := logger.Silent
	if cfg.Database.LogSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	if cfg.Database.Driver == config.DriverSQLite {
		// SQLite同一时刻只有一个写者；:memory: 库每个连接各自独立，必须单连接
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return db, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BookModel GORM图书模型
// 设计说明:
// 1. 列名与books表一致(isbncode、saledate、explanation)
// 2. id由仓储分配(最大ID+1)，关闭自增
type BookModel struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name        string    `gorm:"column:name;size:200;index"`
	Author      string    `gorm:"column:author;size:100"`
	Publisher   string    `gorm:"column:publisher;size:100"`
	Price       int64     `gorm:"column:price"`
	ISBNCode    string    `gorm:"column:isbncode;size:20"`
	SaleDate    time.Time `gorm:"column:saledate;type:date"`
	Explanation string    `gorm:"column:explanation;type:text"`
	Image       string    `gorm:"column:image;size:500"`
	Stock       int       `gorm:"column:stock"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}
