package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/engforum/engforum/models"
)

// MessageService stores private messages. Each party deletes a message for
// itself only; the row disappears once both have deleted it.
type MessageService struct {
	db *gorm.DB
}

// NewMessageService creates a MessageService on db.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// SendMessage stores an unread message. Recipient existence is checked by the caller.
func (s *MessageService) SendMessage(ctx context.Context, sender, recipient, subject, content string) (*models.PrivateMessage, error) {
	msg := models.PrivateMessage{
		ID:                uuid.NewString(),
		SenderUsername:    sender,
		RecipientUsername: recipient,
		Subject:           subject,
		Content:           content,
		SentAt:            time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// GetInbox lists messages addressed to username that it has not deleted, newest first.
func (s *MessageService) GetInbox(ctx context.Context, username string) ([]models.PrivateMessage, error) {
	var msgs []models.PrivateMessage
	err := s.db.WithContext(ctx).
		Where("LOWER(recipient_username) = LOWER(?) AND is_deleted_by_recipient = ?", username, false).
		Order("sent_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("inbox of %q: %w", username, err)
	}
	return msgs, nil
}

// GetSent lists messages sent by username that it has not deleted, newest first.
func (s *MessageService) GetSent(ctx context.Context, username string) ([]models.PrivateMessage, error) {
	var msgs []models.PrivateMessage
	err := s.db.WithContext(ctx).
		Where("LOWER(sender_username) = LOWER(?) AND is_deleted_by_sender = ?", username, false).
		Order("sent_at DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("sent of %q: %w", username, err)
	}
	return msgs, nil
}

// GetMessage returns a message visible to username as either party.
// (nil, nil) covers missing messages, strangers and messages the caller deleted.
func (s *MessageService) GetMessage(ctx context.Context, id, username string) (*models.PrivateMessage, error) {
	var msg models.PrivateMessage
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	visible := (IsRecipient(&msg, username) && !msg.IsDeletedByRecipient) ||
		(strings.EqualFold(msg.SenderUsername, username) && !msg.IsDeletedBySender)
	if !visible {
		return nil, nil
	}
	return &msg, nil
}

// IsRecipient reports whether username (any case) is the addressee of msg.
func IsRecipient(msg *models.PrivateMessage, username string) bool {
	return username != "" && strings.EqualFold(msg.RecipientUsername, username)
}

// GetUnreadCount counts unread, undeleted messages addressed to username.
func (s *MessageService) GetUnreadCount(ctx context.Context, username string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PrivateMessage{}).
		Where("LOWER(recipient_username) = LOWER(?) AND is_read = ? AND is_deleted_by_recipient = ?", username, false, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("unread count of %q: %w", username, err)
	}
	return n, nil
}

// MarkRead marks a message read, keeping ReadAt from the first read. It reports
// false when the message does not exist. Only the recipient should call it.
func (s *MessageService) MarkRead(ctx context.Context, id string) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.PrivateMessage
		if err := tx.Where("id = ?", id).First(&msg).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		ok = true
		if msg.IsRead {
			return nil
		}
		return tx.Model(&models.PrivateMessage{}).Where("id = ?", id).Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("mark message %s read: %w", id, err)
	}
	return ok, nil
}

// Delete hides a message for username. When the other party has already
// deleted it the row is removed.
func (s *MessageService) Delete(ctx context.Context, id, username string) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.PrivateMessage
		if err := tx.Where("id = ?", id).First(&msg).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		isSender := strings.EqualFold(msg.SenderUsername, username)
		isRecipient := IsRecipient(&msg, username)
		if !isSender && !isRecipient {
			return nil
		}
		// a self-addressed message is deleted for both roles at once
		if isSender {
			msg.IsDeletedBySender = true
		}
		if isRecipient {
			msg.IsDeletedByRecipient = true
		}

		ok = true
		if msg.IsDeletedBySender && msg.IsDeletedByRecipient {
			return tx.Delete(&models.PrivateMessage{}, "id = ?", id).Error
		}
		return tx.Model(&models.PrivateMessage{}).Where("id = ?", id).Updates(map[string]interface{}{
			"is_deleted_by_sender":    msg.IsDeletedBySender,
			"is_deleted_by_recipient": msg.IsDeletedByRecipient,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("delete message %s: %w", id, err)
	}
	return ok, nil
}
