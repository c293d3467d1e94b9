package models

import "time"

// Thread is a top-level discussion under a category.
// AuthorUsername is a denormalized copy of the author's name, not a foreign key:
// removing a user would leave it dangling.
type Thread struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CategoryID     string    `gorm:"size:50;not null;index" json:"category_id"`
	AuthorUsername string    `gorm:"size:50;not null;index" json:"author_username"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	LastReplyAt    time.Time `gorm:"not null;index" json:"last_reply_at"`
	ReplyCount     int       `gorm:"not null;default:0" json:"reply_count"`
	IsPinned       bool      `gorm:"not null;default:false" json:"is_pinned"`
	IsLocked       bool      `gorm:"not null;default:false" json:"is_locked"`
	ImageURL       *string   `gorm:"size:1024" json:"image_url,omitempty"`
	Violation
	Replies []Reply `gorm:"foreignKey:ThreadID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"replies,omitempty"`
}
