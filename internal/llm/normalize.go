package llm

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON strips markdown code fences some models wrap around JSON.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

// String reads a trimmed string at path, or fallback when missing or blank.
func String(raw []byte, path, fallback string) string {
	v := gjson.GetBytes(raw, path)
	if !v.Exists() || v.Type == gjson.Null {
		return fallback
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return fallback
	}
	return s
}

// Strings reads a string array at path. Blank entries are dropped; a missing
// array yields an empty, non-nil slice.
func Strings(raw []byte, path string) []string {
	out := []string{}
	v := gjson.GetBytes(raw, path)
	if !v.IsArray() {
		if s := strings.TrimSpace(v.String()); v.Type == gjson.String && s != "" {
			out = append(out, s)
		}
		return out
	}
	v.ForEach(func(_, item gjson.Result) bool {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Score reads a number at path and clamps it to 0..100. Fractions in 0..1 are
// treated as percentages.
func Score(raw []byte, path string) int {
	v := gjson.GetBytes(raw, path)
	if !v.Exists() {
		return 0
	}
	f := v.Float()
	if f > 0 && f < 1 && strings.Contains(v.Raw, ".") {
		f *= 100
	}
	return clamp(int(math.Round(f)), 0, 100)
}

// Number reads a non-negative number at path.
func Number(raw []byte, path string) float64 {
	f := gjson.GetBytes(raw, path).Float()
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Each calls fn for every element of the array at path.
func Each(raw []byte, path string, fn func(item []byte)) {
	gjson.GetBytes(raw, path).ForEach(func(_, item gjson.Result) bool {
		fn([]byte(item.Raw))
		return true
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
