// Package kafka 封装了 Kafka 生产者与消费者的创建和读写操作。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"yedam-go/internal/config"
	"yedam-go/pkg/log"

	kafkago "github.com/segmentio/kafka-go"
)

// Producer 封装了向固定 topic 写消息的 kafka writer。
type Producer struct {
	writer *kafkago.Writer
}

// NewProducer 根据全局配置创建 Kafka 生产者。
func NewProducer() *Producer {
	cfg := config.Conf.Kafka
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish 将任意可序列化对象以 JSON 形式写入 topic。
// key 用于分区，相同 key 的消息保证顺序。
func (p *Producer) Publish(ctx context.Context, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("写入 Kafka 消息失败: %w", err)
	}
	return nil
}

// Close 关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewReader 创建一个属于指定消费组的 kafka reader。
// 偏移量由调用方显式 CommitMessages，确保任务处理完成后才确认。
func NewReader(groupID string) *kafkago.Reader {
	cfg := config.Conf.Kafka
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        strings.Split(cfg.Brokers, ","),
		Topic:          cfg.Topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // 手动提交
	})
}

// LogStats 打印 writer 的统计信息，便于排查堆积。
func (p *Producer) LogStats() {
	stats := p.writer.Stats()
	log.Infow("kafka producer stats",
		"writes", stats.Writes,
		"messages", stats.Messages,
		"errors", stats.Errors,
	)
}
