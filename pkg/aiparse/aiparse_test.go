package aiparse

import "testing"

func TestExtractObject_NoJSON(t *testing.T) {
	cases := []string{
		"",
		"그냥 평범한 문장입니다.",
		"only a brace {",
		"} backwards {",
	}
	for _, raw := range cases {
		if obj, ok := ExtractObject(raw); ok {
			t.Fatalf("ExtractObject(%q) = %v, want no object", raw, obj)
		}
	}
}

func TestExtractObject_JSONWrappedInProse(t *testing.T) {
	raw := "알겠습니다! 분석 결과는 다음과 같습니다:\n{\"moodTag\":\"행복\",\"intensity\":80}\n도움이 되었길 바랍니다."
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatal("expected an object")
	}
	if obj["moodTag"] != "행복" {
		t.Fatalf("moodTag = %v", obj["moodTag"])
	}
}

func TestExtractObject_MalformedJSON(t *testing.T) {
	if _, ok := ExtractObject("{\"moodTag\": \"행복\","); ok {
		t.Fatal("malformed JSON should not parse")
	}
}

func TestString(t *testing.T) {
	obj := map[string]interface{}{"a": "x", "b": "", "c": 3.0}
	if got := String(obj, "a", "d"); got != "x" {
		t.Fatalf("String a = %q", got)
	}
	if got := String(obj, "b", "d"); got != "d" {
		t.Fatalf("empty string should default, got %q", got)
	}
	if got := String(obj, "c", "d"); got != "d" {
		t.Fatalf("non-string should default, got %q", got)
	}
	if got := String(nil, "a", "d"); got != "d" {
		t.Fatalf("nil obj should default, got %q", got)
	}
}

func TestEnum(t *testing.T) {
	allowed := []string{"happy", "peaceful"}
	obj := map[string]interface{}{"theme": "scary", "ok": "happy"}
	if got := Enum(obj, "theme", allowed, "peaceful"); got != "peaceful" {
		t.Fatalf("unknown enum should fall back, got %q", got)
	}
	if got := Enum(obj, "ok", allowed, "peaceful"); got != "happy" {
		t.Fatalf("valid enum should pass through, got %q", got)
	}
	if got := Enum(obj, "missing", allowed, "peaceful"); got != "peaceful" {
		t.Fatalf("missing enum should fall back, got %q", got)
	}
}

func TestIntInRange_Clamps(t *testing.T) {
	cases := []struct {
		val  interface{}
		want int
	}{
		{-10.0, 0},
		{250.0, 100},
		{42.0, 42},
		{"85", 50},  // 字符串数值不接受
		{nil, 50},
	}
	for _, c := range cases {
		obj := map[string]interface{}{"intensity": c.val}
		if got := IntInRange(obj, "intensity", 50, 0, 100); got != c.want {
			t.Fatalf("IntInRange(%v) = %d, want %d", c.val, got, c.want)
		}
	}
	if got := IntInRange(map[string]interface{}{}, "intensity", 50, 0, 100); got != 50 {
		t.Fatalf("missing key = %d, want 50", got)
	}
}

func TestStringSlice(t *testing.T) {
	obj := map[string]interface{}{
		"qs":    []interface{}{"q1", "", 7.0, "q2"},
		"notqs": "q1",
	}
	got := StringSlice(obj, "qs")
	if len(got) != 2 || got[0] != "q1" || got[1] != "q2" {
		t.Fatalf("StringSlice = %v", got)
	}
	if got := StringSlice(obj, "notqs"); len(got) != 0 {
		t.Fatalf("non-array should be empty, got %v", got)
	}
	if got := StringSlice(nil, "qs"); got == nil || len(got) != 0 {
		t.Fatalf("nil obj should be empty non-nil slice, got %v", got)
	}
}

func TestBoolDefaultTrue(t *testing.T) {
	obj := map[string]interface{}{"stop": false, "go": true, "weird": "false"}
	if BoolDefaultTrue(obj, "stop") {
		t.Fatal("explicit false must be false")
	}
	if !BoolDefaultTrue(obj, "go") {
		t.Fatal("explicit true must be true")
	}
	// 只有字面 false 才停止，字符串 "false" 仍然继续
	if !BoolDefaultTrue(obj, "weird") {
		t.Fatal("non-bool must default to true")
	}
	if !BoolDefaultTrue(obj, "missing") {
		t.Fatal("missing must default to true")
	}
	if !BoolDefaultTrue(nil, "stop") {
		t.Fatal("nil obj must default to true")
	}
}
