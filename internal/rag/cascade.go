package rag

import (
	"context"
	"strings"

	"github.com/docuhub/backend-go/internal/logger"
	"go.uber.org/zap"
)

// 固定答案：检索无结果与兜底模型失败时返回，保证Answer永不为空
const (
	NoContextAnswer = "🔍 Top 3 relevant chunks:\nNo chunks found."
	ExhaustedAnswer = "LLM fallback failed."
)

// 答案来源
const (
	AnswerSourceNoContext  = "no_context"
	AnswerSourceExtractive = "extractive"
	AnswerSourceFallback   = "fallback"
	AnswerSourceExhausted  = "exhausted"
)

// AnswerResult 级联问答结果，Answer永不为空
type AnswerResult struct {
	Answer string
	Source string
	Chunks []QueryMatch
}

// Cascade 两级问答级联：先抽取式，失败或空答案时降级到
// 生成式兜底，兜底也失败时返回固定答案。模型错误在各级边界
// 被转换为状态迁移，从不向调用方传播。
type Cascade struct {
	extractive AnswerModel
	fallback   AnswerModel
}

// NewCascade 创建问答级联
func NewCascade(extractive, fallback AnswerModel) *Cascade {
	return &Cascade{
		extractive: extractive,
		fallback:   fallback,
	}
}

// Run 执行级联问答。无检索结果时不调用任何模型，
// 直接返回固定答案与空块列表。
func (c *Cascade) Run(ctx context.Context, question string, matches []QueryMatch) AnswerResult {
	if len(matches) == 0 {
		return AnswerResult{
			Answer: NoContextAnswer,
			Source: AnswerSourceNoContext,
			Chunks: []QueryMatch{},
		}
	}

	contextText := joinChunkTexts(matches)

	if c.extractive != nil && c.extractive.Ready() {
		answer, err := c.extractive.Answer(ctx, question, contextText)
		if err == nil && strings.TrimSpace(answer) != "" {
			return AnswerResult{
				Answer: answer,
				Source: AnswerSourceExtractive,
				Chunks: matches,
			}
		}
		if err != nil {
			logger.Warn("抽取式问答失败，降级到生成式兜底", zap.Error(err))
		}
	}

	if c.fallback != nil && c.fallback.Ready() {
		answer, err := c.fallback.Answer(ctx, question, contextText)
		if err == nil && strings.TrimSpace(answer) != "" {
			return AnswerResult{
				Answer: answer,
				Source: AnswerSourceFallback,
				Chunks: matches,
			}
		}
		if err != nil {
			logger.Warn("生成式兜底失败", zap.Error(err))
		}
	}

	return AnswerResult{
		Answer: ExhaustedAnswer,
		Source: AnswerSourceExhausted,
		Chunks: matches,
	}
}

func joinChunkTexts(matches []QueryMatch) string {
	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, "\n")
}
