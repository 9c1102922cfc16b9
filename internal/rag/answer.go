package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/docuhub/backend-go/internal/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// AnswerModel 问答模型接口：给定问题与上下文生成答案
type AnswerModel interface {
	Answer(ctx context.Context, question, context string) (string, error)
	Ready() bool
}

// ExtractiveClient 抽取式问答推理服务客户端
type ExtractiveClient struct {
	baseURL string
	model   string
	client  *http.Client
	limiter sync.Mutex
}

// ExtractiveRequest 抽取式问答请求
type ExtractiveRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	Model    string `json:"model,omitempty"`
}

// ExtractiveResponse 抽取式问答响应
type ExtractiveResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// NewExtractiveClient 创建抽取式问答客户端
func NewExtractiveClient(baseURL, model string, timeout time.Duration) *ExtractiveClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ExtractiveClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Answer 调用抽取式问答接口，从上下文中抽取答案片段
func (c *ExtractiveClient) Answer(ctx context.Context, question, contextText string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("extractive QA service not initialized")
	}

	c.limiter.Lock()
	defer c.limiter.Unlock()

	jsonData, err := json.Marshal(ExtractiveRequest{
		Question: question,
		Context:  contextText,
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/question-answering", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API调用失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("抽取式问答API错误: HTTP %d - %s", resp.StatusCode, string(body))
	}

	var qaResp ExtractiveResponse
	if err := json.Unmarshal(body, &qaResp); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	logger.Debug("抽取式问答成功",
		zap.String("model", c.model),
		zap.Float64("score", qaResp.Score))

	return qaResp.Answer, nil
}

func (c *ExtractiveClient) Ready() bool {
	return c != nil && c.client != nil && c.baseURL != ""
}

// 生成式兜底模型的系统提示词
const fallbackSystemPrompt = "You are a helpful assistant that answers questions from documents."

// OpenAIAnswerModel 生成式兜底问答模型
type OpenAIAnswerModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	limiter     sync.Mutex
}

// NewOpenAIAnswerModel 创建生成式问答模型
func NewOpenAIAnswerModel(apiKey, model string, maxTokens int, temperature float64) *OpenAIAnswerModel {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &OpenAIAnswerModel{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

func (m *OpenAIAnswerModel) Answer(ctx context.Context, question, contextText string) (string, error) {
	if m == nil || m.client == nil {
		return "", errors.New("fallback model not initialized")
	}

	m.limiter.Lock()
	defer m.limiter.Unlock()

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fallbackSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Context: %s\n\nQuestion: %s", contextText, question),
			},
		},
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion response empty")
	}

	return resp.Choices[0].Message.Content, nil
}

func (m *OpenAIAnswerModel) Ready() bool {
	return m != nil && m.client != nil
}
