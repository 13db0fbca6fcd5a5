// Package aiparse 从模型的自由文本回复中提取并校验 JSON 对象。
//
// 模型经常在 JSON 前后包裹说明文字，甚至输出残缺字段。这里的解析是全函数：
// 提取失败返回"无对象"，字段级校验失败只影响该字段，调用方用每个字段各自的
// 默认值兜底，永远能得到一个完整填充的结果。
package aiparse

import (
	"encoding/json"
	"strings"
)

// ExtractObject 在原始文本中定位第一个 '{' 和最后一个 '}'，将其间的子串
// 作为候选 JSON 文档解析。找不到区间或解析失败时返回 (nil, false)。
func ExtractObject(raw string) (map[string]interface{}, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// String 返回 obj[key] 的非空字符串值，否则返回 def。
func String(obj map[string]interface{}, key, def string) string {
	if obj == nil {
		return def
	}
	if s, ok := obj[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Enum 返回 obj[key] 在 allowed 中的字符串值，不在允许列表内时返回 def。
func Enum(obj map[string]interface{}, key string, allowed []string, def string) string {
	if obj == nil {
		return def
	}
	s, ok := obj[key].(string)
	if !ok {
		return def
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return def
}

// IntInRange 返回 obj[key] 的整数值并夹取到 [min, max]；缺失或非数值时返回 def。
// 越界的值只做夹取，不判为非法。
func IntInRange(obj map[string]interface{}, key string, def, min, max int) int {
	if obj == nil {
		return def
	}
	f, ok := obj[key].(float64)
	if !ok {
		return def
	}
	v := int(f)
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// StringSlice 返回 obj[key] 中的字符串数组元素，非数组时返回空切片。
func StringSlice(obj map[string]interface{}, key string) []string {
	result := []string{}
	if obj == nil {
		return result
	}
	arr, ok := obj[key].([]interface{})
	if !ok {
		return result
	}
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			result = append(result, s)
		}
	}
	return result
}

// BoolDefaultTrue 只有在 obj[key] 明确为 false 时才返回 false。
// 缺失或类型错乱一律视为 true，这是采访流程"除非明确停止否则继续"的约定。
func BoolDefaultTrue(obj map[string]interface{}, key string) bool {
	if obj == nil {
		return true
	}
	if b, ok := obj[key].(bool); ok {
		return b
	}
	return true
}
