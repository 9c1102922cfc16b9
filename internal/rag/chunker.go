package rag

import (
	"strings"
	"unicode/utf8"
)

// Chunk 表示分块后的文本结构
type Chunk struct {
	Index int
	Text  string
}

// Chunker 行贪心文本分块器：按行累积，缓冲区加入下一行会达到
// 上限时封口当前块。块大小是软上限，超长单行独立成块。
type Chunker struct {
	maxChunkSize int
}

// NewChunker 创建分块器
func NewChunker(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 500
	}
	return &Chunker{maxChunkSize: maxChunkSize}
}

// Split 将文本切分为多个chunk。相同输入产生相同分块，
// 块顺序与原文行顺序一致，空文本返回nil。
func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var chunks []Chunk
	var current strings.Builder
	currentLen := 0 // 按字符计数，与块上限同单位

	appendChunk := func(raw string) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  trimmed,
		})
	}

	for _, line := range lines {
		lineLen := utf8.RuneCountInString(line)
		if currentLen+lineLen < c.maxChunkSize {
			current.WriteString(line)
			current.WriteString(" ")
			currentLen += lineLen + 1
			continue
		}
		appendChunk(current.String())
		current.Reset()
		current.WriteString(line)
		current.WriteString(" ")
		currentLen = lineLen + 1
	}

	if currentLen > 0 {
		appendChunk(current.String())
	}

	return chunks
}
