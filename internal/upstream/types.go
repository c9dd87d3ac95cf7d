package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt 兼容上游把数字写成字符串的情况 ("12" 与 12)
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("flexint: %q is not a number", s)
		}
		*n = FlexInt(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = FlexInt(int(f))
	return nil
}

// FlexStrings 兼容 ["a","b"] 与 "a, b" 两种标签写法
type FlexStrings []string

func (s *FlexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*s = out
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*s = list
	return nil
}

// Blog 主站 /api/blogs 的单条记录
type Blog struct {
	ID            FlexInt     `json:"id"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Excerpt       string      `json:"excerpt"`
	Content       string      `json:"content"`
	Author        string      `json:"author"`
	AuthorName    string      `json:"author_name"`
	Industry      string      `json:"industry"`
	Tags          FlexStrings `json:"tags"`
	Image         string      `json:"image"`
	FeaturedImage string      `json:"featured_image"`
	CreatedAt     string      `json:"created_at"`
	PublishedAt   string      `json:"published_at"`
}

// UseCase 主站 /api/usecases 的单条记录
type UseCase struct {
	ID          FlexInt     `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Details     string      `json:"details"`
	Content     string      `json:"content"`
	Industry    string      `json:"industry"`
	Tags        FlexStrings `json:"tags"`
	Image       string      `json:"image"`
	CreatedAt   string      `json:"created_at"`
}

// CaseStudy 主站 /api/casestudies 的单条记录
type CaseStudy struct {
	ID         FlexInt     `json:"id"`
	Title      string      `json:"title"`
	Slug       string      `json:"slug"`
	Summary    string      `json:"summary"`
	Body       string      `json:"body"`
	Content    string      `json:"content"`
	ClientName string      `json:"client_name"`
	Industry   string      `json:"industry"`
	Tags       FlexStrings `json:"tags"`
	Image      string      `json:"image"`
	CreatedAt  string      `json:"created_at"`
}

// decodeList 上游既可能直接返回数组，也可能包一层 {"data": [...]}
func decodeList[T any](body []byte, out *[]T) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		*out = nil
		return nil
	}
	if body[0] == '[' {
		return json.Unmarshal(body, out)
	}
	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	*out = envelope.Data
	return nil
}
