package resource

import "strings"

// Industry 固定行业枚举
type Industry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// DefaultIndustryID 无法识别的行业统一归到 Technology
const DefaultIndustryID = 6

var industries = []Industry{
	{ID: 1, Name: "Healthcare", Slug: "healthcare"},
	{ID: 2, Name: "Finance", Slug: "finance"},
	{ID: 3, Name: "Retail", Slug: "retail"},
	{ID: 4, Name: "Manufacturing", Slug: "manufacturing"},
	{ID: 5, Name: "Education", Slug: "education"},
	{ID: 6, Name: "Technology", Slug: "technology"},
}

var tags = []string{
	"AI",
	"Automation",
	"Cloud",
	"Data Analytics",
	"Cybersecurity",
	"Digital Transformation",
	"Machine Learning",
	"IoT",
}

// Industries 返回行业枚举的副本
func Industries() []Industry {
	out := make([]Industry, len(industries))
	copy(out, industries)
	return out
}

// Tags 返回标签枚举的副本
func Tags() []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// IndustryByName 按名称 (忽略大小写) 解析行业，找不到时返回 Technology
func IndustryByName(name string) Industry {
	name = strings.TrimSpace(name)
	for _, ind := range industries {
		if strings.EqualFold(ind.Name, name) || strings.EqualFold(ind.Slug, name) {
			return ind
		}
	}
	return industries[DefaultIndustryID-1]
}

// IndustryByID 按 id 查找行业
func IndustryByID(id int) (Industry, bool) {
	for _, ind := range industries {
		if ind.ID == id {
			return ind, true
		}
	}
	return Industry{}, false
}
