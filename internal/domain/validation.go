package domain

import (
	"fmt"
	"strings"
)

// 验证相关的错误定义
var (
	ErrMessageFieldsRequired = fmt.Errorf("%w: name, email and message are required", ErrValidation)
	ErrProjectFieldsRequired = fmt.Errorf("%w: title and description are required", ErrValidation)
)

// NormalizeMessageInput 去除首尾空白并将邮箱转为小写，缺少必填字段时返回错误
func NormalizeMessageInput(input MessageInput) (MessageInput, error) {
	out := MessageInput{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Body:  strings.TrimSpace(input.Body),
	}
	if out.Name == "" || out.Email == "" || out.Body == "" {
		return MessageInput{}, ErrMessageFieldsRequired
	}
	return out, nil
}

// NormalizeProjectInput 校验项目标题与描述，并清理可选字段
//
// 技术标签去除空白与空项，缺省时为空列表。
func NormalizeProjectInput(input ProjectInput) (ProjectInput, error) {
	out := ProjectInput{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Image:       strings.TrimSpace(input.Image),
		LiveLink:    strings.TrimSpace(input.LiveLink),
		GithubLink:  strings.TrimSpace(input.GithubLink),
		Featured:    input.Featured,
	}
	if out.Title == "" || out.Description == "" {
		return ProjectInput{}, ErrProjectFieldsRequired
	}

	out.Technologies = make([]string, 0, len(input.Technologies))
	for _, tech := range input.Technologies {
		if trimmed := strings.TrimSpace(tech); trimmed != "" {
			out.Technologies = append(out.Technologies, trimmed)
		}
	}
	return out, nil
}
