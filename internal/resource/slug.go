package resource

import (
	"strings"
	"unicode"
)

// DeriveSlug 由标题生成 URL 安全的 slug：
// 转小写，去掉非字母数字字符，空白转连字符，合并连续连字符。
func DeriveSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case unicode.IsSpace(r):
			return '-'
		}
		return -1
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
