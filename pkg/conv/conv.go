// Package conv 读取 YAML/JSON 节点配置（map[string]any）与请求参数 rctx.Params。
//
// YAML 解析出 int，JSON 解析出 float64，调用方通过这里的 getter 统一拿到目标类型，
// 缺失或类型不符时一律回落到默认值。
package conv

import (
	"fmt"
	"math"
	"strings"
)

// ToFloat64 将数值类型转为 float64，NaN 与非数值返回 false。
func ToFloat64(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case uint64:
		f = float64(val)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ConfigGet 按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	t, ok := m[key].(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetFloat64 取 float64，兼容整数写法。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	if f, ok := ToFloat64(m[key]); ok {
		return f
	}
	return defaultVal
}

// ConfigGetInt 取 int，小数部分截断（JSON 中的 3 会解析为 3.0）。
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	f, ok := ToFloat64(m[key])
	if !ok || math.IsInf(f, 0) {
		return defaultVal
	}
	return int(f)
}

// ConfigGetSeed 取随机种子。负数没有意义，按缺失处理。
func ConfigGetSeed(m map[string]any, key string) uint64 {
	if n := ConfigGetInt(m, key, 0); n > 0 {
		return uint64(n)
	}
	return 0
}

// ConfigGetStrings 取字符串列表，例如黑名单 item_ids。
// 支持 YAML 列表、[]string 与逗号分隔的字符串；纯数字 ID 按 "%.0f" 格式化。
func ConfigGetStrings(m map[string]any, key string) []string {
	switch val := m[key].(type) {
	case []string:
		return val
	case string:
		var out []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
				continue
			}
			if f, ok := ToFloat64(e); ok {
				out = append(out, fmt.Sprintf("%.0f", f))
			}
		}
		return out
	default:
		return nil
	}
}
