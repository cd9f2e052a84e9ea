package domain

import (
	"sort"
	"time"
)

// Message 表示一条联系表单提交的留言。
//
// 创建后不可修改：公开接口只负责创建，管理后台只读。
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;index"`
	Body      string    `json:"message" gorm:"column:message;type:text;not null"`
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"index;autoCreateTime:false"`
}

// MessageInput 创建留言的输入
type MessageInput struct {
	Name  string
	Email string
	Body  string
}

// SortMessagesNewestFirst 按创建时间倒序稳定排序
func SortMessagesNewestFirst(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
}
