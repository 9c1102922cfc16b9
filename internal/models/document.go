package models

import (
	"time"
)

// 文档处理状态
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusError      = "error"
)

// Document 文档表
type Document struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	Title      string    `gorm:"column:title;size:255;not null" json:"title"`
	FilePath   string    `gorm:"column:file_path;size:500;not null" json:"file_path"`
	FileType   string    `gorm:"column:file_type;size:20;not null" json:"file_type"`
	Size       int64     `gorm:"column:size;not null;default:0" json:"size"`
	Pages      int       `gorm:"column:pages;default:0" json:"pages"`
	Status     string    `gorm:"column:status;size:100;default:'processing'" json:"status"`
	UploadedAt time.Time `gorm:"column:uploaded_at;autoCreateTime;index" json:"uploaded_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// QuestionRecord 问答记录表
type QuestionRecord struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	DocumentID uint      `gorm:"column:document_id;not null;index" json:"document_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text" json:"answer"`
	Source     string    `gorm:"column:source;size:20" json:"source"`
	ChunksUsed int       `gorm:"column:chunks_used;default:0" json:"chunks_used"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`

	Document Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (QuestionRecord) TableName() string {
	return "question_records"
}
