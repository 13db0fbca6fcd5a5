// Package model 包含了应用的数据模型定义。
package model

// 分析结果的固定词表。moodTag/themeTag 为韩文闭集，animationTheme 为英文闭集，
// 模型输出不在词表内时回退到各自的默认值。
var (
	MoodTags        = []string{"행복", "그리움", "설렘", "평온", "슬픔", "감사"}
	ThemeTags       = []string{"여행", "성장", "사랑", "우정", "가족", "성취", "일상"}
	AnimationThemes = []string{"happy", "nostalgic", "exciting", "peaceful", "melancholy"}
)

// 各字段独立兜底的默认值。
const (
	DefaultMoodTag        = "평온"
	DefaultThemeTag       = "일상"
	DefaultStoryLine      = "소중한 추억입니다."
	DefaultAnimationTheme = "peaceful"
	DefaultIntensity      = 50
)

// StoryAnalysis 是模型对一段回忆内容（或整场采访对话）的结构化分析结果。
// 字段永远完整填充：解析失败的字段以默认值替代，而不是整体置空。
type StoryAnalysis struct {
	MoodTag        string `json:"moodTag"`
	Intensity      int    `json:"intensity"` // 0-100 的情感强度
	ThemeTag       string `json:"themeTag"`
	StoryLine      string `json:"storyLine"` // 3-5 句的感性叙事
	AnimationTheme string `json:"animationTheme"`
}

// DefaultAnalysis 返回全默认的分析结果，用于模型回复完全不可解析时。
func DefaultAnalysis() StoryAnalysis {
	return StoryAnalysis{
		MoodTag:        DefaultMoodTag,
		Intensity:      DefaultIntensity,
		ThemeTag:       DefaultThemeTag,
		StoryLine:      DefaultStoryLine,
		AnimationTheme: DefaultAnimationTheme,
	}
}
