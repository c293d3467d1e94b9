package models

import "time"

// Reply is a response attached to a thread; it is removed together with its thread.
type Reply struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	ThreadID           string     `gorm:"size:36;not null;index" json:"thread_id"`
	Content            string     `gorm:"type:text;not null" json:"content"`
	AuthorUsername     string     `gorm:"size:50;not null;index" json:"author_username"`
	CreatedAt          time.Time  `gorm:"not null" json:"created_at"`
	IsEdited           bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt           *time.Time `json:"edited_at,omitempty"`
	AttachmentURL      *string    `gorm:"size:1024" json:"attachment_url,omitempty"`
	AttachmentFileName *string    `gorm:"size:255" json:"attachment_file_name,omitempty"`
	Violation
}
