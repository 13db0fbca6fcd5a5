// Package style 将分析结果映射为渲染层消费的视觉样式档案。
// 全部为纯函数查表推导：无模型调用、无 I/O、同一输入永远得到同一输出，
// 因此样式档案从不作为权威数据持久化，随时可以由分析结果重新计算。
package style

import (
	"fmt"
	"strconv"

	"yedam-go/internal/model"
)

// ColorPalette 是按情绪推导出的配色方案。
type ColorPalette struct {
	Primary    string   `json:"primary"`
	Secondary  string   `json:"secondary"`
	Accent     string   `json:"accent"`
	Background string   `json:"background"`
	Text       string   `json:"text"`
	Gradient   []string `json:"gradient"`
}

// AnimationConfig 是动画主题对应的参数。
type AnimationConfig struct {
	Duration      float64 `json:"duration"`
	Easing        string  `json:"easing"`
	Intensity     float64 `json:"intensity"` // 0-1
	ParticleCount int     `json:"particleCount,omitempty"`
}

// LayoutConfig 是主题标签对应的版式。
type LayoutConfig struct {
	ImageLayout     string `json:"imageLayout"`     // masonry/grid/carousel/stacked
	ContentPosition string `json:"contentPosition"` // left/center/right
	Spacing         string `json:"spacing"`         // compact/normal/spacious
}

// TypographyConfig 由情感强度分档得到的字体设置。
type TypographyConfig struct {
	HeadingSize string `json:"headingSize"` // small/medium/large
	BodySize    string `json:"bodySize"`
	FontWeight  string `json:"fontWeight"` // light/normal/bold
	LineHeight  string `json:"lineHeight"` // tight/normal/relaxed
}

// Profile 是完整的视觉样式档案。
type Profile struct {
	Colors     ColorPalette     `json:"colors"`
	Animation  AnimationConfig  `json:"animation"`
	Layout     LayoutConfig     `json:"layout"`
	Typography TypographyConfig `json:"typography"`
}

type moodColor struct {
	primary   string
	secondary string
	accent    string
}

// 情绪 → 基础三色。未知情绪回退到 행복(幸福) 的配色。
var moodColors = map[string]moodColor{
	"행복":  {"#FCD34D", "#FDE68A", "#F59E0B"},
	"그리움": {"#A78BFA", "#C4B5FD", "#8B5CF6"},
	"설렘":  {"#FB7185", "#FDA4AF", "#F43F5E"},
	"평온":  {"#6EE7B7", "#A7F3D0", "#10B981"},
	"슬픔":  {"#60A5FA", "#93C5FD", "#3B82F6"},
	"감사":  {"#FCA5A5", "#FECACA", "#EF4444"},
	"뿌듯함": {"#A3E635", "#BEF264", "#84CC16"},
	"애틋함": {"#C084FC", "#D8B4FE", "#A855F7"},
}

type animationBase struct {
	duration      float64
	easing        string
	particleCount int
}

// 动画主题 → 基础参数。未知主题回退到 peaceful。
var animationBases = map[string]animationBase{
	"happy":      {2, "cubic-bezier(0.68, -0.55, 0.265, 1.55)", 30},
	"nostalgic":  {4, "cubic-bezier(0.4, 0, 0.2, 1)", 15},
	"exciting":   {1.5, "cubic-bezier(0.34, 1.56, 0.64, 1)", 50},
	"peaceful":   {6, "cubic-bezier(0.25, 0.1, 0.25, 1)", 10},
	"melancholy": {5, "cubic-bezier(0.4, 0, 0.6, 1)", 8},
}

// 主题标签 → 版式。未知主题回退到 일상(日常)。
var themeLayouts = map[string]LayoutConfig{
	"여행": {ImageLayout: "masonry", ContentPosition: "left", Spacing: "spacious"},
	"성장": {ImageLayout: "grid", ContentPosition: "center", Spacing: "normal"},
	"사랑": {ImageLayout: "carousel", ContentPosition: "center", Spacing: "compact"},
	"우정": {ImageLayout: "grid", ContentPosition: "left", Spacing: "normal"},
	"가족": {ImageLayout: "masonry", ContentPosition: "left", Spacing: "spacious"},
	"성취": {ImageLayout: "stacked", ContentPosition: "center", Spacing: "normal"},
	"일상": {ImageLayout: "grid", ContentPosition: "left", Spacing: "compact"},
	"도전": {ImageLayout: "stacked", ContentPosition: "center", Spacing: "spacious"},
}

// Generate 由分析结果组合出完整的样式档案。
func Generate(analysis model.StoryAnalysis) Profile {
	return Profile{
		Colors:     ColorsFor(analysis.MoodTag),
		Animation:  AnimationFor(analysis.AnimationTheme, analysis.Intensity),
		Layout:     LayoutFor(analysis.ThemeTag),
		Typography: TypographyFor(analysis.Intensity),
	}
}

// ColorsFor 按情绪查表取三色，再推导背景（大幅提亮）、文字（压暗）与渐变。
func ColorsFor(moodTag string) ColorPalette {
	base, ok := moodColors[moodTag]
	if !ok {
		base = moodColors["행복"]
	}
	return ColorPalette{
		Primary:    base.primary,
		Secondary:  base.secondary,
		Accent:     base.accent,
		Background: shiftColor(base.primary, 95),
		Text:       shiftColor(base.primary, -20),
		Gradient:   []string{base.primary, base.secondary, base.accent},
	}
}

// AnimationFor 按动画主题查表，intensity 归一化到 0-1。
func AnimationFor(animationTheme string, intensity int) AnimationConfig {
	base, ok := animationBases[animationTheme]
	if !ok {
		base = animationBases["peaceful"]
	}
	return AnimationConfig{
		Duration:      base.duration,
		Easing:        base.easing,
		Intensity:     float64(intensity) / 100,
		ParticleCount: base.particleCount,
	}
}

// LayoutFor 按主题标签查表取版式。
func LayoutFor(themeTag string) LayoutConfig {
	layout, ok := themeLayouts[themeTag]
	if !ok {
		return themeLayouts["일상"]
	}
	return layout
}

// TypographyFor 按情感强度分档：>70 大标题紧行距，>60 加粗，>40 中号标题。
func TypographyFor(intensity int) TypographyConfig {
	headingSize := "small"
	if intensity > 70 {
		headingSize = "large"
	} else if intensity > 40 {
		headingSize = "medium"
	}
	fontWeight := "normal"
	if intensity > 60 {
		fontWeight = "bold"
	}
	lineHeight := "normal"
	if intensity > 70 {
		lineHeight = "tight"
	}
	return TypographyConfig{
		HeadingSize: headingSize,
		BodySize:    "medium",
		FontWeight:  fontWeight,
		LineHeight:  lineHeight,
	}
}

// shiftColor 将 #RRGGBB 的每个通道按百分比线性平移（正为提亮、负为压暗），
// 逐通道夹取到 [0,255]。
func shiftColor(hex string, percent int) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	num, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return hex
	}
	amt := int(2.55*float64(percent) + 0.5)
	if percent < 0 {
		amt = -int(2.55*float64(-percent) + 0.5)
	}
	r := clampChannel(int(num>>16&0xFF) + amt)
	g := clampChannel(int(num>>8&0xFF) + amt)
	b := clampChannel(int(num&0xFF) + amt)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
