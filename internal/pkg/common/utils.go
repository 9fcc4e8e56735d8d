package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeName 名稱正規化：去除前後空白並轉小寫
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NameSet 建立正規化後的名稱集合，忽略空字串
func NameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key := NormalizeName(n); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// SplitList 以逗號切分並去除空白項目
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
