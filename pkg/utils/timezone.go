package utils

import (
	"time"
)

// ISOLayout 与浏览器 Date.toISOString() 输出一致，毫秒精度、UTC
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// NowISO 当前 UTC 时间的 ISO-8601 字符串
func NowISO() string {
	return FormatISO(time.Now())
}

// FormatISO 格式化为 ISO-8601 (UTC)
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// NormalizeISO 尽量把上游的时间字符串规整为 ISO-8601，无法解析时原样返回
func NormalizeISO(s string) string {
	if s == "" {
		return s
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatISO(t)
		}
	}
	return s
}
