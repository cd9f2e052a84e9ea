package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Project 表示作品集中的一个项目。
type Project struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Image        string    `json:"image" gorm:"type:text"` // 绝对 URL 或 data URL
	LiveLink     string    `json:"liveLink" gorm:"type:text"`
	GithubLink   string    `json:"githubLink" gorm:"type:text"`
	Technologies []string  `json:"technologies" gorm:"type:text;serializer:json"`
	Featured     bool      `json:"featured" gorm:"default:false;index"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index;autoCreateTime:false"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// ProjectInput 创建或整体替换项目时提交的字段。
//
// 不支持部分更新：缺省的可选字段一律回落为空值。
type ProjectInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	LiveLink     string   `json:"liveLink"`
	GithubLink   string   `json:"githubLink"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
}

// UnmarshalJSON 兼容两种技术标签格式：字符串数组，或管理表单提交的逗号分隔字符串
func (p *ProjectInput) UnmarshalJSON(data []byte) error {
	type alias ProjectInput
	aux := struct {
		*alias
		Technologies json.RawMessage `json:"technologies"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.Technologies = nil
	if len(aux.Technologies) == 0 || string(aux.Technologies) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(aux.Technologies, &list); err == nil {
		p.Technologies = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(aux.Technologies, &joined); err != nil {
		return err
	}
	p.Technologies = strings.Split(joined, ",")
	return nil
}

// Apply 用输入整体覆盖项目的可变字段
func (p *Project) Apply(input ProjectInput) {
	p.Title = input.Title
	p.Description = input.Description
	p.Image = input.Image
	p.LiveLink = input.LiveLink
	p.GithubLink = input.GithubLink
	p.Technologies = normalizeTags(input.Technologies)
	p.Featured = input.Featured
}

// Input 返回项目当前字段对应的输入，用于重新提交
func (p *Project) Input() ProjectInput {
	return ProjectInput{
		Title:        p.Title,
		Description:  p.Description,
		Image:        p.Image,
		LiveLink:     p.LiveLink,
		GithubLink:   p.GithubLink,
		Technologies: append([]string(nil), p.Technologies...),
		Featured:     p.Featured,
	}
}

// SortNewestFirst 按创建时间倒序排列
func SortNewestFirst(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
}

// SortForDisplay 按展示顺序排列：精选项目在前，其余按创建时间倒序。
func SortForDisplay(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// normalizeTags 保证标签列表非 nil，序列化时输出 [] 而不是 null
func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
