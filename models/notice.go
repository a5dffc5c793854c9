package models

import "time"

// Notice statuses. A notice is created as draft and may only move to published.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Notice represents an announcement shown to the miniapp client.
type Notice struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	ContentDelta string     `gorm:"type:text" json:"content_delta"` // structured-editor payload, stored verbatim
	Status       string     `gorm:"size:16;not null;default:'draft';index" json:"status"`
	PublishTime  *time.Time `json:"publish_time"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName keeps the legacy singular table name.
func (Notice) TableName() string {
	return "notice"
}
