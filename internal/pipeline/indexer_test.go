package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/pkg/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	kafkago "github.com/segmentio/kafka-go"
)

// fakeMemoryRepo 只实现索引管道用到的 FindByID。
type fakeMemoryRepo struct {
	memory *model.Memory
	err    error
}

func (r *fakeMemoryRepo) Create(*model.Memory) error                 { return nil }
func (r *fakeMemoryRepo) AddImages(uint, []model.MemoryImage) error  { return nil }
func (r *fakeMemoryRepo) Delete(uint) error                          { return nil }
func (r *fakeMemoryRepo) FindWithPagination(uint, repository.MemoryFilter, int, int) ([]model.Memory, int64, error) {
	return nil, 0, nil
}

func (r *fakeMemoryRepo) FindByID(uint) (*model.Memory, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.memory, nil
}

func newTestIndexer(t *testing.T, repo repository.MemoryRepository) *Indexer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	idx := NewIndexer(nil, repo, rdb)
	idx.retryDelay = time.Millisecond
	return idx
}

func taskMessage(t *testing.T, memoryID uint) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(tasks.MemoryIndexTask{MemoryID: memoryID, UserID: 1})
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	return kafkago.Message{Topic: "memory-index-tasks", Partition: 0, Offset: 5, Value: payload}
}

func TestHandleWithRetry_IndexesMemory(t *testing.T) {
	repo := &fakeMemoryRepo{memory: &model.Memory{
		ID:        7,
		UserID:    1,
		Title:     "바닷가의 하루",
		MoodTag:   "행복",
		Intensity: 80,
	}}
	idx := newTestIndexer(t, repo)

	var indexed *model.MemoryDocument
	idx.indexDoc = func(ctx context.Context, doc *model.MemoryDocument) error {
		indexed = doc
		return nil
	}

	msg := taskMessage(t, 7)
	idx.handleWithRetry(context.Background(), msg)

	if indexed == nil {
		t.Fatal("document was not indexed")
	}
	if indexed.MemoryID != 7 || indexed.Title != "바닷가의 하루" || indexed.MoodTag != "행복" {
		t.Fatalf("document mismatch: %+v", indexed)
	}
	if _, err := idx.rdb.Get(context.Background(), failureKey(msg)).Result(); err != redis.Nil {
		t.Fatalf("failure counter should be absent, got %v", err)
	}
}

func TestHandleWithRetry_RetriesSameMessageThenSucceeds(t *testing.T) {
	repo := &fakeMemoryRepo{memory: &model.Memory{ID: 7, UserID: 1}}
	idx := newTestIndexer(t, repo)

	calls := 0
	idx.indexDoc = func(ctx context.Context, doc *model.MemoryDocument) error {
		calls++
		if calls == 1 {
			return errors.New("es timeout")
		}
		return nil
	}

	msg := taskMessage(t, 7)
	idx.handleWithRetry(context.Background(), msg)

	// 同一条消息在本进程内重试，不靠拉取后续消息跳过
	if calls != 2 {
		t.Fatalf("attempts = %d, want 2", calls)
	}
	if _, err := idx.rdb.Get(context.Background(), failureKey(msg)).Result(); err != redis.Nil {
		t.Fatalf("failure counter should be cleared on success, got %v", err)
	}
}

func TestHandleWithRetry_AbandonsAfterMaxAttempts(t *testing.T) {
	repo := &fakeMemoryRepo{memory: &model.Memory{ID: 7, UserID: 1}}
	idx := newTestIndexer(t, repo)

	calls := 0
	idx.indexDoc = func(ctx context.Context, doc *model.MemoryDocument) error {
		calls++
		return errors.New("es down")
	}

	msg := taskMessage(t, 7)
	idx.handleWithRetry(context.Background(), msg)

	if calls != maxIndexAttempts {
		t.Fatalf("attempts = %d, want %d", calls, maxIndexAttempts)
	}
	got, err := idx.rdb.Get(context.Background(), failureKey(msg)).Result()
	if err != nil || got != "3" {
		t.Fatalf("failure counter = %q (%v), want 3", got, err)
	}
}

func TestHandle_MalformedTaskIsDropped(t *testing.T) {
	idx := newTestIndexer(t, &fakeMemoryRepo{})

	// 损坏的消息体无法重试，按处理成功提交
	if err := idx.handle(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("malformed task should be dropped, got %v", err)
	}
}
