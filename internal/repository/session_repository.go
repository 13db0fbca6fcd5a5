// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yedam-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound 表示按 sessionId 找不到采访会话（不存在或已过期）。
var ErrSessionNotFound = errors.New("interview session not found")

// SessionRepository 定义了采访会话的存取接口。
// 会话以可序列化值的形式按 sessionId 存取，不依赖进程内全局状态。
type SessionRepository interface {
	Save(ctx context.Context, session *model.InterviewSession) error
	Find(ctx context.Context, sessionID string) (*model.InterviewSession, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionRepository 创建一个基于 Redis 的 SessionRepository 实例。
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("interview:session:%s", sessionID)
}

// Save 将会话序列化后写入 Redis，并刷新过期时间。
func (r *redisSessionRepository) Save(ctx context.Context, session *model.InterviewSession) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal interview session: %w", err)
	}
	if err := r.redisClient.Set(ctx, sessionKey(session.ID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save interview session: %w", err)
	}
	return nil
}

// Find 从 Redis 读取并反序列化会话。
func (r *redisSessionRepository) Find(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interview session: %w", err)
	}
	var session model.InterviewSession
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interview session: %w", err)
	}
	return &session, nil
}

// Delete 删除会话，会话不存在时视为成功。
func (r *redisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.redisClient.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete interview session: %w", err)
	}
	return nil
}
