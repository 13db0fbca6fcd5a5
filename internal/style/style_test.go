package style

import (
	"reflect"
	"testing"

	"yedam-go/internal/model"
)

func TestGenerate_Deterministic(t *testing.T) {
	analysis := model.StoryAnalysis{
		MoodTag:        "그리움",
		Intensity:      72,
		ThemeTag:       "여행",
		StoryLine:      "오래된 골목을 걸었다.",
		AnimationTheme: "nostalgic",
	}
	first := Generate(analysis)
	second := Generate(analysis)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Generate is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestColorsFor_KnownMood(t *testing.T) {
	p := ColorsFor("행복")
	if p.Primary != "#FCD34D" || p.Secondary != "#FDE68A" || p.Accent != "#F59E0B" {
		t.Fatalf("unexpected palette: %+v", p)
	}
	if len(p.Gradient) != 3 || p.Gradient[0] != p.Primary || p.Gradient[2] != p.Accent {
		t.Fatalf("gradient should be [primary secondary accent], got %v", p.Gradient)
	}
	// 95% 提亮后所有通道都应打到 255
	if p.Background != "#ffffff" {
		t.Fatalf("background = %s", p.Background)
	}
}

func TestColorsFor_UnknownMoodFallsBack(t *testing.T) {
	if got, want := ColorsFor("무서움"), ColorsFor("행복"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unknown mood should use 행복 palette, got %+v", got)
	}
}

func TestShiftColor_Clamps(t *testing.T) {
	if got := shiftColor("#FFFFFF", 50); got != "#ffffff" {
		t.Fatalf("lighten white = %s", got)
	}
	if got := shiftColor("#000000", -50); got != "#000000" {
		t.Fatalf("darken black = %s", got)
	}
	if got := shiftColor("#808080", 0); got != "#808080" {
		t.Fatalf("zero shift = %s", got)
	}
	// 非法输入原样返回
	if got := shiftColor("red", 20); got != "red" {
		t.Fatalf("invalid hex = %s", got)
	}
}

func TestAnimationFor(t *testing.T) {
	cfg := AnimationFor("exciting", 80)
	if cfg.Duration != 1.5 || cfg.ParticleCount != 50 {
		t.Fatalf("exciting config = %+v", cfg)
	}
	if cfg.Intensity != 0.8 {
		t.Fatalf("intensity = %v, want 0.8", cfg.Intensity)
	}

	fallback := AnimationFor("scary", 50)
	peaceful := AnimationFor("peaceful", 50)
	if !reflect.DeepEqual(fallback, peaceful) {
		t.Fatalf("unknown theme should use peaceful, got %+v", fallback)
	}
}

func TestLayoutFor(t *testing.T) {
	if got := LayoutFor("여행"); got.ImageLayout != "masonry" || got.Spacing != "spacious" {
		t.Fatalf("여행 layout = %+v", got)
	}
	if got, want := LayoutFor("미지의주제"), LayoutFor("일상"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unknown theme layout = %+v", got)
	}
}

func TestTypographyFor_Thresholds(t *testing.T) {
	cases := []struct {
		intensity   int
		headingSize string
		fontWeight  string
		lineHeight  string
	}{
		{30, "small", "normal", "normal"},
		{41, "medium", "normal", "normal"},
		{61, "medium", "bold", "normal"},
		{71, "large", "bold", "tight"},
		{100, "large", "bold", "tight"},
	}
	for _, c := range cases {
		got := TypographyFor(c.intensity)
		if got.HeadingSize != c.headingSize || got.FontWeight != c.fontWeight || got.LineHeight != c.lineHeight {
			t.Fatalf("TypographyFor(%d) = %+v, want %+v", c.intensity, got, c)
		}
		if got.BodySize != "medium" {
			t.Fatalf("bodySize should be fixed medium, got %s", got.BodySize)
		}
	}
}
