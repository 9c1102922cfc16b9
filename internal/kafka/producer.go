package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/docuhub/backend-go/internal/logger"
	"go.uber.org/zap"
)

// Producer Kafka生产者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// GetProducerInstance 获取底层sarama producer实例（用于扩展功能）
func (p *Producer) GetProducerInstance() sarama.SyncProducer {
	return p.producer
}

// 文档生命周期事件类型
const (
	EventDocumentUploaded  = "document.uploaded"
	EventDocumentProcessed = "document.processed"
	EventDocumentFailed    = "document.failed"
	EventDocumentDeleted   = "document.deleted"
	EventQuestionAnswered  = "question.answered"
)

// DocumentEvent 文档事件结构
type DocumentEvent struct {
	Event      string    `json:"event"`
	DocumentID uint      `json:"document_id"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	Chunks     int       `json:"chunks,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

var globalProducer *Producer

// InitProducer 初始化Kafka生产者
func InitProducer(brokers []string, topic string) error {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	globalProducer = &Producer{
		producer: producer,
		topic:    topic,
	}

	logger.Info("Kafka生产者初始化成功", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return nil
}

// GetProducer 获取全局生产者实例
func GetProducer() *Producer {
	return globalProducer
}

// SendEvent 发送事件到Kafka
func (p *Producer) SendEvent(evt *DocumentEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("Kafka生产者未初始化")
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", evt.DocumentID)),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event"),
				Value: []byte(evt.Event),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		logger.Error("发送Kafka消息失败", zap.Error(err))
		return fmt.Errorf("发送消息失败: %w", err)
	}

	logger.Debug("Kafka消息发送成功",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.String("event", evt.Event),
		zap.Uint("document_id", evt.DocumentID))

	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p != nil && p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// SendDocumentEvent 发送文档事件（便捷方法）
func SendDocumentEvent(event string, documentID uint, title, status string, chunks int, detail string) error {
	producer := GetProducer()
	if producer == nil {
		// 如果Kafka未配置，静默失败（不影响主流程）
		logger.Warn("Kafka生产者未初始化，跳过消息发送")
		return nil
	}

	evt := &DocumentEvent{
		Event:      event,
		DocumentID: documentID,
		Title:      title,
		Status:     status,
		Chunks:     chunks,
		Detail:     detail,
		Timestamp:  time.Now(),
	}

	return producer.SendEvent(evt)
}
