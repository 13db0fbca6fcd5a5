// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"

	"yedam-go/internal/model"
	"yedam-go/pkg/aiparse"
	"yedam-go/pkg/llm"
	"yedam-go/pkg/log"
)

// ErrAnalysisFailed 表示生成后端不可用导致分析失败，由调用方决定是否整体重试。
// 注意与解析失败的区别：模型有回复但 JSON 残缺时静默按字段兜底，绝不报错。
var ErrAnalysisFailed = errors.New("ai analysis failed")

const analysisPrompt = `당신은 추억을 분석하는 AI입니다. 제공된 텍스트와 이미지를 분석하여 감정과 주제를 파악하세요.

다음 형식의 JSON으로만 응답하세요 (다른 텍스트 없이):

{
  "moodTag": "감정 태그 (행복, 그리움, 설렘, 평온, 슬픔, 감사 중 하나)",
  "intensity": 0-100 사이의 감정 강도,
  "themeTag": "주제 태그 (여행, 성장, 사랑, 우정, 가족, 성취, 일상 중 하나)",
  "storyLine": "3-5문장으로 추억을 감성적으로 요약",
  "animationTheme": "애니메이션 테마 (happy, nostalgic, exciting, peaceful, melancholy 중 하나)"
}

규칙:
- moodTag는 한글로 정확히 작성
- intensity는 감정의 강도 (0=약함, 100=매우 강함)
- storyLine은 감성적이고 서정적으로 작성
- animationTheme는 moodTag에 매칭되는 영어 키워드`

const storyPrompt = `대화 내용을 바탕으로 사용자의 추억을 분석하고 감성적인 서사를 생성하세요.

다음 형식의 JSON으로 응답하세요:

{
  "moodTag": "감정 태그 (행복, 그리움, 설렘, 평온, 슬픔, 감사 중 하나)",
  "intensity": 0-100 사이의 감정 강도,
  "themeTag": "주제 태그 (여행, 성장, 사랑, 우정, 가족, 성취, 일상 중 하나)",
  "storyLine": "대화 내용을 바탕으로 3-5문장의 감성적인 이야기",
  "animationTheme": "애니메이션 테마 (happy, nostalgic, exciting, peaceful, melancholy 중 하나)"
}`

// AnalyzerService 定义了回忆分析的接口：单段文本或整场采访对话 → 结构化分析结果。
type AnalyzerService interface {
	Analyze(ctx context.Context, content string) (*model.StoryAnalysis, error)
	AnalyzeConversation(ctx context.Context, history []model.ConversationMessage) (*model.StoryAnalysis, error)
}

type analyzerService struct {
	llmClient llm.Client
}

// NewAnalyzerService 创建一个新的 AnalyzerService 实例。
func NewAnalyzerService(llmClient llm.Client) AnalyzerService {
	return &analyzerService{llmClient: llmClient}
}

// Analyze 分析一段自由文本的回忆描述。
func (s *analyzerService) Analyze(ctx context.Context, content string) (*model.StoryAnalysis, error) {
	messages := []llm.Message{
		{Role: "user", Content: fmt.Sprintf("%s\n\n추억 내용:\n%s", analysisPrompt, content)},
	}
	reply, err := s.llmClient.Complete(ctx, messages, nil)
	if err != nil {
		log.Errorf("[Analyzer] 分析调用失败: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	result := parseAnalysis(reply)
	log.Infof("[Analyzer] 分析完成: %s (%d)", result.MoodTag, result.Intensity)
	return result, nil
}

// AnalyzeConversation 把整场采访对话转写成最终的分析结果。
// 对话按原始顺序传给模型，最后追加一条生成指令。
func (s *analyzerService) AnalyzeConversation(ctx context.Context, history []model.ConversationMessage) (*model.StoryAnalysis, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: storyPrompt})

	reply, err := s.llmClient.Complete(ctx, messages, nil)
	if err != nil {
		log.Errorf("[Analyzer] 对话分析调用失败: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	result := parseAnalysis(reply)
	log.Infof("[Analyzer] 对话分析完成: %s/%s (%d)", result.MoodTag, result.ThemeTag, result.Intensity)
	return result, nil
}

// parseAnalysis 将模型回复解析为完整填充的分析结果。
// 提取不到 JSON 时整体取默认值；提取到时逐字段独立校验与兜底，
// 一个字段损坏不影响其余字段的真实取值。
func parseAnalysis(reply string) *model.StoryAnalysis {
	obj, ok := aiparse.ExtractObject(reply)
	if !ok {
		log.Warnf("[Analyzer] 模型回复中未找到可解析的 JSON，使用默认分析结果")
		result := model.DefaultAnalysis()
		return &result
	}
	return &model.StoryAnalysis{
		MoodTag:        aiparse.Enum(obj, "moodTag", model.MoodTags, model.DefaultMoodTag),
		Intensity:      aiparse.IntInRange(obj, "intensity", model.DefaultIntensity, 0, 100),
		ThemeTag:       aiparse.Enum(obj, "themeTag", model.ThemeTags, model.DefaultThemeTag),
		StoryLine:      aiparse.String(obj, "storyLine", model.DefaultStoryLine),
		AnimationTheme: aiparse.Enum(obj, "animationTheme", model.AnimationThemes, model.DefaultAnimationTheme),
	}
}
