package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"yedam-go/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRepo(t *testing.T) SessionRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client, time.Hour)
}

func TestSessionRepository_SaveAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	session := &model.InterviewSession{
		ID:     "1700000000-7",
		UserID: 7,
		Step:   model.StepInterviewing,
		ConversationHistory: []model.ConversationMessage{
			{Role: "assistant", Content: "안녕하세요!"},
			{Role: "user", Content: "바다에 갔어요."},
		},
		Questions:            []string{"Q1", "Q2", "Q3"},
		InitialQuestionCount: 3,
		Progress: model.InterviewProgress{
			QuestionsAnswered: 1,
			TotalQuestions:    3,
			NarrativeDepth:    21.5,
		},
	}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Find(ctx, session.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.UserID != 7 || got.Step != model.StepInterviewing {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.ConversationHistory) != 2 || got.ConversationHistory[1].Content != "바다에 갔어요." {
		t.Fatalf("history mismatch: %+v", got.ConversationHistory)
	}
	if got.Progress.NarrativeDepth != 21.5 {
		t.Fatalf("narrativeDepth = %v", got.Progress.NarrativeDepth)
	}
}

func TestSessionRepository_FindMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Find(context.Background(), "no-such-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	session := &model.InterviewSession{ID: "s1", Step: model.StepContext}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Find(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound after delete, got %v", err)
	}
	// 删除不存在的会话不应报错
	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}
