package rag

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat 文件格式不受支持
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ExtractionError 文本提取失败，包装底层解码错误
type ExtractionError struct {
	Filename string
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("文本提取失败 %s: %v", e.Filename, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// EmbeddingError 向量化失败
type EmbeddingError struct {
	Cause error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("向量化失败: %v", e.Cause)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// IndexError 向量索引操作失败，单次调用内不重试
type IndexError struct {
	Op    string
	Cause error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("向量索引%s失败: %v", e.Op, e.Cause)
}

func (e *IndexError) Unwrap() error {
	return e.Cause
}
