package database

import (
	"fmt"
	"log"

	"github.com/docuhub/backend-go/internal/config"
	"github.com/docuhub/backend-go/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() (*gorm.DB, error) {
	cfg := config.AppConfig
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层的sql.DB设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := autoMigrate(db); err != nil {
		log.Printf("⚠️  Database migration warning: %v", err)
	}

	DB = db
	log.Println("✅ Database connected successfully")
	return db, nil
}

// autoMigrate 自动迁移文档相关表
func autoMigrate(db *gorm.DB) error {
	// 按依赖顺序迁移：先文档表，再问答记录表
	if err := db.AutoMigrate(&models.Document{}); err != nil {
		log.Printf("⚠️  Failed to migrate documents: %v", err)
	}

	if err := db.AutoMigrate(&models.QuestionRecord{}); err != nil {
		log.Printf("⚠️  Failed to migrate question_records: %v", err)
		// 如果 AutoMigrate 失败，尝试手动创建
		db.Exec(`
			CREATE TABLE IF NOT EXISTS question_records (
				id bigserial PRIMARY KEY,
				document_id bigint NOT NULL,
				question text NOT NULL,
				answer text,
				source varchar(20),
				chunks_used integer DEFAULT 0,
				created_at timestamptz DEFAULT NOW(),
				CONSTRAINT fk_documents_questions FOREIGN KEY (document_id) REFERENCES documents(id)
			)
		`)
	}

	return nil
}

func CloseDB() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
