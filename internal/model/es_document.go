package model

import "time"

// MemoryDocument 是索引到 Elasticsearch 的回忆文档结构。
// 文本字段使用 nori 韩文分词器，标签字段为 keyword 供过滤。
type MemoryDocument struct {
	MemoryID       uint      `json:"memory_id"`
	UserID         uint      `json:"user_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	StoryLine      string    `json:"story_line"`
	MoodTag        string    `json:"mood_tag"`
	ThemeTag       string    `json:"theme_tag"`
	AnimationTheme string    `json:"animation_theme"`
	Intensity      int       `json:"intensity"`
	MemoryDate     time.Time `json:"memory_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// MemorySearchHit 是搜索接口返回的单条命中结果。
type MemorySearchHit struct {
	MemoryID  uint    `json:"memoryId"`
	Title     string  `json:"title"`
	StoryLine string  `json:"storyLine"`
	MoodTag   string  `json:"moodTag"`
	ThemeTag  string  `json:"themeTag"`
	Score     float64 `json:"score"`
}
