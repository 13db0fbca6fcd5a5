// Package pipeline 实现了把回忆记录异步索引到 Elasticsearch 的后台管道。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/pkg/es"
	"yedam-go/pkg/log"
	"yedam-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	kafkago "github.com/segmentio/kafka-go"
)

// 同一条任务重试达到该次数后放弃并提交偏移量，避免阻塞分区。
const maxIndexAttempts = 3

// Indexer 消费 Kafka 中的索引任务，把对应的回忆写入 Elasticsearch。
type Indexer struct {
	reader     *kafkago.Reader
	memoryRepo repository.MemoryRepository
	rdb        *redis.Client
	indexDoc   func(ctx context.Context, doc *model.MemoryDocument) error
	retryDelay time.Duration
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(reader *kafkago.Reader, memoryRepo repository.MemoryRepository, rdb *redis.Client) *Indexer {
	return &Indexer{
		reader:     reader,
		memoryRepo: memoryRepo,
		rdb:        rdb,
		indexDoc:   es.IndexDocument,
		retryDelay: time.Second,
	}
}

// Run 启动消费循环，直到 ctx 取消。
// 每条消息在本进程内处理到成功或放弃后才提交偏移量：提交任何后续偏移量
// 都会隐式跳过之前的消息，因此失败重试期间不拉取新消息。
func (idx *Indexer) Run(ctx context.Context) {
	log.Info("memory indexer started")
	for {
		msg, err := idx.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("memory indexer stopped")
				return
			}
			log.Errorf("fetch kafka message failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		idx.handleWithRetry(ctx, msg)
		if ctx.Err() != nil {
			// 处理被打断的消息不提交，重启后重新投递
			log.Info("memory indexer stopped")
			return
		}
		if err := idx.reader.CommitMessages(ctx, msg); err != nil {
			log.Errorf("commit kafka offset failed: %v", err)
		}
	}
}

// handleWithRetry 反复处理同一条消息直到成功或达到放弃上限，返回后偏移量即可提交。
func (idx *Indexer) handleWithRetry(ctx context.Context, msg kafkago.Message) {
	for {
		err := idx.handle(ctx, msg.Value)
		if err == nil {
			idx.clearFailure(ctx, msg)
			return
		}

		attempts := idx.recordFailure(ctx, msg)
		log.Errorf("index task failed (attempt %d): %v", attempts, err)
		if attempts >= maxIndexAttempts {
			log.Errorf("index task abandoned after %d attempts, key: %s", attempts, string(msg.Key))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(idx.retryDelay):
		}
	}
}

// handle 处理一条索引任务：读库、组装文档、写入索引。
func (idx *Indexer) handle(ctx context.Context, value []byte) error {
	var task tasks.MemoryIndexTask
	if err := json.Unmarshal(value, &task); err != nil {
		// 消息体损坏无法重试，记录后按成功提交
		log.Errorf("malformed index task: %v", err)
		return nil
	}

	memory, err := idx.memoryRepo.FindByID(task.MemoryID)
	if err != nil {
		return fmt.Errorf("load memory %d: %w", task.MemoryID, err)
	}

	doc := &model.MemoryDocument{
		MemoryID:       memory.ID,
		UserID:         memory.UserID,
		Title:          memory.Title,
		Content:        memory.Content,
		StoryLine:      memory.StoryLine,
		MoodTag:        memory.MoodTag,
		ThemeTag:       memory.ThemeTag,
		AnimationTheme: memory.AnimationTheme,
		Intensity:      memory.Intensity,
		MemoryDate:     memory.MemoryDate,
		CreatedAt:      memory.CreatedAt,
	}
	if err := idx.indexDoc(ctx, doc); err != nil {
		return err
	}

	log.Infof("memory %d indexed", memory.ID)
	return nil
}

// recordFailure 在 Redis 中累加该消息的失败次数，返回当前次数。
// 计数跨进程重启存活，消息重投后不会从零重数。
// Redis 不可用时按达到上限处理，避免无限重试同一条消息。
func (idx *Indexer) recordFailure(ctx context.Context, msg kafkago.Message) int {
	key := failureKey(msg)
	attempts, err := idx.rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Warnf("record index failure failed: %v", err)
		return maxIndexAttempts
	}
	idx.rdb.Expire(ctx, key, time.Hour)
	return int(attempts)
}

func (idx *Indexer) clearFailure(ctx context.Context, msg kafkago.Message) {
	idx.rdb.Del(ctx, failureKey(msg))
}

func failureKey(msg kafkago.Message) string {
	return fmt.Sprintf("index:fail:%s:%d:%d", msg.Topic, msg.Partition, msg.Offset)
}
