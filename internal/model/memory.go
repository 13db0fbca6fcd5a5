package model

import "time"

// Memory 定义了 memories 表的 ORM 模型，保存一条结构化的"추억"记录。
// 分析字段（moodTag 等）来自采访分析结果，样式元数据不入库、按需推导。
type Memory struct {
	ID             uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint          `gorm:"index;not null" json:"userId"`
	Title          string        `gorm:"type:varchar(255);not null" json:"title"`
	Content        string        `gorm:"type:text" json:"content"`
	MemoryDate     time.Time     `gorm:"index;not null" json:"memoryDate"`
	Location       string        `gorm:"type:varchar(255)" json:"location"`
	MoodTag        string        `gorm:"type:varchar(20);index;not null" json:"moodTag"`
	Intensity      int           `gorm:"not null" json:"intensity"`
	ThemeTag       string        `gorm:"type:varchar(20);index;not null" json:"themeTag"`
	StoryLine      string        `gorm:"type:text;not null" json:"storyLine"`
	AnimationTheme string        `gorm:"type:varchar(20);not null" json:"animationTheme"`
	Images         []MemoryImage `gorm:"foreignKey:MemoryID" json:"images"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Memory) TableName() string {
	return "memories"
}

// MemoryImage 对应 memory_images 表，记录每张上传图片的存储位置与尺寸。
type MemoryImage struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MemoryID     uint   `gorm:"index;not null" json:"memoryId"`
	URL          string `gorm:"type:varchar(512);not null" json:"url"`
	ThumbnailURL string `gorm:"type:varchar(512);not null" json:"thumbnailUrl"`
	Width        int    `gorm:"not null" json:"width"`
	Height       int    `gorm:"not null" json:"height"`
	SortOrder    int    `gorm:"not null;default:0" json:"order"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (MemoryImage) TableName() string {
	return "memory_images"
}

// Analysis 以 StoryAnalysis 的形式返回该回忆的分析字段。
func (m *Memory) Analysis() StoryAnalysis {
	return StoryAnalysis{
		MoodTag:        m.MoodTag,
		Intensity:      m.Intensity,
		ThemeTag:       m.ThemeTag,
		StoryLine:      m.StoryLine,
		AnimationTheme: m.AnimationTheme,
	}
}
