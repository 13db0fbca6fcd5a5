package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"yedam-go/internal/model"
	"yedam-go/pkg/llm"
)

// fakeLLMClient 按脚本返回回复，记录收到的消息，用于离线测试。
type fakeLLMClient struct {
	replies  []string
	err      error
	calls    int
	lastMsgs []llm.Message
}

func (f *fakeLLMClient) Complete(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	f.calls++
	f.lastMsgs = messages
	if f.err != nil {
		return "", f.err
	}
	idx := f.calls - 1
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return f.replies[idx], nil
}

func TestAnalyze_ProseOnlyReplyYieldsDefaults(t *testing.T) {
	client := &fakeLLMClient{replies: []string{"정말 즐거운 여행이었군요! 멋진 추억이네요."}}
	analyzer := NewAnalyzerService(client)

	got, err := analyzer.Analyze(context.Background(), "완전 즐거운 여행이었어요")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := model.DefaultAnalysis()
	if *got != want {
		t.Fatalf("got %+v, want all defaults %+v", got, want)
	}
}

func TestAnalyze_PartialFieldPreservation(t *testing.T) {
	// intensity 缺失：其余字段保持原值，只有 intensity 取默认 50
	reply := `{"moodTag":"행복","themeTag":"여행","storyLine":"x","animationTheme":"happy"}`
	client := &fakeLLMClient{replies: []string{reply}}
	analyzer := NewAnalyzerService(client)

	got, err := analyzer.Analyze(context.Background(), "내용")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.MoodTag != "행복" || got.ThemeTag != "여행" || got.StoryLine != "x" || got.AnimationTheme != "happy" {
		t.Fatalf("fields not preserved: %+v", got)
	}
	if got.Intensity != model.DefaultIntensity {
		t.Fatalf("intensity = %d, want %d", got.Intensity, model.DefaultIntensity)
	}
}

func TestAnalyze_IntensityClamped(t *testing.T) {
	cases := []struct {
		raw  int
		want int
	}{
		{-10, 0},
		{250, 100},
		{63, 63},
	}
	for _, c := range cases {
		reply := fmt.Sprintf(`{"moodTag":"행복","intensity":%d,"themeTag":"여행","storyLine":"x","animationTheme":"happy"}`, c.raw)
		analyzer := NewAnalyzerService(&fakeLLMClient{replies: []string{reply}})
		got, err := analyzer.Analyze(context.Background(), "내용")
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if got.Intensity != c.want {
			t.Fatalf("intensity %d clamped to %d, want %d", c.raw, got.Intensity, c.want)
		}
	}
}

func TestAnalyze_UnknownEnumsFallBack(t *testing.T) {
	reply := `{"moodTag":"분노","intensity":80,"themeTag":"복수","storyLine":"x","animationTheme":"scary"}`
	analyzer := NewAnalyzerService(&fakeLLMClient{replies: []string{reply}})

	got, err := analyzer.Analyze(context.Background(), "내용")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.MoodTag != model.DefaultMoodTag {
		t.Fatalf("moodTag = %s", got.MoodTag)
	}
	if got.ThemeTag != model.DefaultThemeTag {
		t.Fatalf("themeTag = %s", got.ThemeTag)
	}
	if got.AnimationTheme != model.DefaultAnimationTheme {
		t.Fatalf("animationTheme = %s", got.AnimationTheme)
	}
	// 合法字段不受影响
	if got.Intensity != 80 || got.StoryLine != "x" {
		t.Fatalf("valid fields corrupted: %+v", got)
	}
}

func TestAnalyze_TransportFailureSurfaces(t *testing.T) {
	client := &fakeLLMClient{err: llm.ErrModelUnavailable}
	analyzer := NewAnalyzerService(client)

	_, err := analyzer.Analyze(context.Background(), "내용")
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("want ErrAnalysisFailed, got %v", err)
	}
}

func TestAnalyzeConversation_SendsHistoryInOrder(t *testing.T) {
	client := &fakeLLMClient{replies: []string{`{"moodTag":"그리움","intensity":70,"themeTag":"가족","storyLine":"이야기","animationTheme":"nostalgic"}`}}
	analyzer := NewAnalyzerService(client)

	history := []model.ConversationMessage{
		{Role: "assistant", Content: "안녕하세요!"},
		{Role: "user", Content: "할머니 댁에 갔어요."},
		{Role: "assistant", Content: "따뜻한 기억이네요."},
	}
	got, err := analyzer.AnalyzeConversation(context.Background(), history)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	if got.MoodTag != "그리움" || got.AnimationTheme != "nostalgic" {
		t.Fatalf("analysis = %+v", got)
	}

	// 历史按原顺序传递，末尾追加一条生成指令
	if len(client.lastMsgs) != len(history)+1 {
		t.Fatalf("message count = %d", len(client.lastMsgs))
	}
	for i, m := range history {
		if client.lastMsgs[i].Role != m.Role || client.lastMsgs[i].Content != m.Content {
			t.Fatalf("message %d mismatch: %+v", i, client.lastMsgs[i])
		}
	}
	if client.lastMsgs[len(history)].Role != "user" {
		t.Fatalf("final instruction should be a user message")
	}
}
