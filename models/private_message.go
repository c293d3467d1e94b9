package models

import "time"

// PrivateMessage is a direct message between two users. Each party hides it
// independently; the row is purged once both flags are set.
type PrivateMessage struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	SenderUsername       string     `gorm:"size:50;not null;index" json:"sender_username"`
	RecipientUsername    string     `gorm:"size:50;not null;index;index:idx_pm_recipient_read,priority:1" json:"recipient_username"`
	Subject              string     `gorm:"size:200;not null" json:"subject"`
	Content              string     `gorm:"size:5000;not null" json:"content"`
	SentAt               time.Time  `gorm:"not null" json:"sent_at"`
	IsRead               bool       `gorm:"not null;default:false;index:idx_pm_recipient_read,priority:2" json:"is_read"`
	ReadAt               *time.Time `json:"read_at,omitempty"`
	IsDeletedBySender    bool       `gorm:"not null;default:false" json:"-"`
	IsDeletedByRecipient bool       `gorm:"not null;default:false" json:"-"`
}
