package llm

import (
	"context"
	"errors"
	"time"

	"yedam-go/pkg/log"
)

// retryClient 是 Client 的装饰器，在传输失败时按指数退避重试。
// 重试是调用方显式配置的策略，而不是隐藏在核心逻辑里。
type retryClient struct {
	inner       Client
	maxAttempts int
	backoff     time.Duration
}

// NewRetryClient 包装一个 Client，对 ErrModelUnavailable 最多重试 maxAttempts 次。
// maxAttempts <= 1 时等价于不重试。
func NewRetryClient(inner Client, maxAttempts int, backoff time.Duration) Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &retryClient{inner: inner, maxAttempts: maxAttempts, backoff: backoff}
}

func (c *retryClient) Complete(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	var lastErr error
	wait := c.backoff
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.inner.Complete(ctx, messages, gen)
		if err == nil {
			return text, nil
		}
		lastErr = err
		// 只有传输层失败才值得重试，其他错误直接返回
		if !errors.Is(err, ErrModelUnavailable) {
			return "", err
		}
		if attempt == c.maxAttempts {
			break
		}
		log.Warnf("[llm] 调用失败 (attempt %d/%d)，%s 后重试: %v", attempt, c.maxAttempts, wait, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return "", lastErr
}
