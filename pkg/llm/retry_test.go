package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// flakyClient 前 failures 次调用返回 transportErr，之后返回 reply。
type flakyClient struct {
	failures int
	calls    int
	reply    string
	err      error
}

func (f *flakyClient) Complete(ctx context.Context, messages []Message, gen *GenerationParams) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return f.reply, nil
}

func TestRetryClient_SucceedsAfterTransientFailure(t *testing.T) {
	inner := &flakyClient{
		failures: 2,
		reply:    "ok",
		err:      fmt.Errorf("%w: connection refused", ErrModelUnavailable),
	}
	client := NewRetryClient(inner, 3, 0)

	text, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if text != "ok" {
		t.Errorf("expected reply ok, got %q", text)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryClient_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyClient{
		failures: 10,
		err:      fmt.Errorf("%w: timeout", ErrModelUnavailable),
	}
	client := NewRetryClient(inner, 3, 0)

	_, err := client.Complete(context.Background(), nil, nil)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", inner.calls)
	}
}

func TestRetryClient_DoesNotRetryOtherErrors(t *testing.T) {
	inner := &flakyClient{
		failures: 10,
		err:      errors.New("marshal failed"),
	}
	client := NewRetryClient(inner, 3, 0)

	_, err := client.Complete(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("non-transport errors must not be retried, got %d attempts", inner.calls)
	}
}

func TestRetryClient_RespectsContextCancellation(t *testing.T) {
	inner := &flakyClient{
		failures: 10,
		err:      fmt.Errorf("%w: timeout", ErrModelUnavailable),
	}
	client := NewRetryClient(inner, 5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
