package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/engforum/engforum/models"
)

// ForumService is the content store for threads and their replies.
type ForumService struct {
	db *gorm.DB
}

// NewForumService creates a ForumService on db.
func NewForumService(db *gorm.DB) *ForumService {
	return &ForumService{db: db}
}

// ThreadEdit carries the mutable fields of a thread. A nil ImageURL keeps the current image.
type ThreadEdit struct {
	Title    string
	Content  string
	ImageURL *string
}

func listOrder(tx *gorm.DB) *gorm.DB {
	return tx.Order("is_pinned DESC").Order("last_reply_at DESC")
}

// CreateThread stores a new thread. LastReplyAt starts at the creation time.
func (s *ForumService) CreateThread(ctx context.Context, categoryID, title, content, author string, imageURL *string) (*models.Thread, error) {
	now := time.Now().UTC()
	thread := models.Thread{
		ID:             uuid.NewString(),
		Title:          title,
		Content:        content,
		CategoryID:     categoryID,
		AuthorUsername: author,
		CreatedAt:      now,
		LastReplyAt:    now,
		ImageURL:       imageURL,
	}
	if err := s.db.WithContext(ctx).Create(&thread).Error; err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &thread, nil
}

// GetThread returns the thread with its replies oldest first; (nil, nil) when absent.
func (s *ForumService) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.WithContext(ctx).
		Preload("Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&thread).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}
	return &thread, nil
}

// ListAll returns every thread, pinned first, then by latest activity.
func (s *ForumService) ListAll(ctx context.Context) ([]models.Thread, error) {
	var threads []models.Thread
	if err := listOrder(s.db.WithContext(ctx)).Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return threads, nil
}

// ListByCategory is ListAll restricted to one category. Unknown categories yield an empty list.
func (s *ForumService) ListByCategory(ctx context.Context, categoryID string) ([]models.Thread, error) {
	var threads []models.Thread
	if err := listOrder(s.db.WithContext(ctx)).Where("category_id = ?", categoryID).Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("list threads in %s: %w", categoryID, err)
	}
	return threads, nil
}

// ListAllForModeration returns every thread with replies, newest first.
func (s *ForumService) ListAllForModeration(ctx context.Context) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.db.WithContext(ctx).
		Preload("Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Order("created_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("list threads for moderation: %w", err)
	}
	return threads, nil
}

// UpdateThread edits a thread owned by author. It reports false when the
// thread is missing or author does not own it.
func (s *ForumService) UpdateThread(ctx context.Context, id, author string, edit ThreadEdit) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Where("id = ?", id).First(&thread).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		if thread.AuthorUsername != author {
			return nil
		}
		cols := map[string]interface{}{
			"title":   edit.Title,
			"content": edit.Content,
		}
		if edit.ImageURL != nil {
			cols["image_url"] = *edit.ImageURL
		}
		if err := tx.Model(&models.Thread{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update thread %s: %w", id, err)
	}
	return ok, nil
}

// DeleteThread removes a thread owned by author together with all its replies.
func (s *ForumService) DeleteThread(ctx context.Context, id, author string) (bool, error) {
	return s.deleteThread(ctx, id, func(t *models.Thread) bool { return t.AuthorUsername == author })
}

// AdminDeleteThread removes any thread together with all its replies.
func (s *ForumService) AdminDeleteThread(ctx context.Context, id string) (bool, error) {
	return s.deleteThread(ctx, id, func(*models.Thread) bool { return true })
}

func (s *ForumService) deleteThread(ctx context.Context, id string, allowed func(*models.Thread) bool) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Where("id = ?", id).First(&thread).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		if !allowed(&thread) {
			return nil
		}
		// not every dialect enforces the FK cascade, so replies go first
		if err := tx.Where("thread_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Thread{}, "id = ?", id).Error; err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete thread %s: %w", id, err)
	}
	return ok, nil
}

// MarkThreadViolation flags a thread as violating the rules.
func (s *ForumService) MarkThreadViolation(ctx context.Context, id, reason, admin string) (bool, error) {
	var v models.Violation
	v.Mark(reason, admin, time.Now().UTC())
	return s.updateExisting(ctx, &models.Thread{}, id, v.ViolationColumns())
}

// ClearThreadViolation removes the violation flag from a thread.
func (s *ForumService) ClearThreadViolation(ctx context.Context, id string) (bool, error) {
	var v models.Violation
	return s.updateExisting(ctx, &models.Thread{}, id, v.ViolationColumns())
}

// SetThreadPinned pins or unpins a thread.
func (s *ForumService) SetThreadPinned(ctx context.Context, id string, pinned bool) (bool, error) {
	return s.updateExisting(ctx, &models.Thread{}, id, map[string]interface{}{"is_pinned": pinned})
}

// SetThreadLocked locks or unlocks a thread for new replies.
func (s *ForumService) SetThreadLocked(ctx context.Context, id string, locked bool) (bool, error) {
	return s.updateExisting(ctx, &models.Thread{}, id, map[string]interface{}{"is_locked": locked})
}

// updateExisting applies cols to the row with id. Existence is checked separately
// because MySQL reports zero affected rows when values are unchanged.
func (s *ForumService) updateExisting(ctx context.Context, model interface{}, id string, cols map[string]interface{}) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := tx.Model(model).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update %s: %w", id, err)
	}
	return ok, nil
}

// recountReplies rewrites the thread's reply counter from the replies table.
func recountReplies(tx *gorm.DB, threadID string, extra map[string]interface{}) error {
	cols := map[string]interface{}{
		"reply_count": tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Reply{}).Select("COUNT(*)").Where("thread_id = ?", threadID),
	}
	for k, v := range extra {
		cols[k] = v
	}
	return tx.Model(&models.Thread{}).Where("id = ?", threadID).Updates(cols).Error
}

// CreateReply adds a reply and refreshes the parent's counter and activity time
// in one transaction. It returns ErrThreadNotFound when the thread is missing.
func (s *ForumService) CreateReply(ctx context.Context, threadID, content, author string, attachmentURL, attachmentName *string) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Where("id = ?", threadID).First(&thread).Error; err != nil {
			if isNotFound(err) {
				return ErrThreadNotFound
			}
			return err
		}

		now := time.Now().UTC()
		if now.Before(thread.LastReplyAt) {
			now = thread.LastReplyAt
		}
		reply = models.Reply{
			ID:                 uuid.NewString(),
			ThreadID:           threadID,
			Content:            content,
			AuthorUsername:     author,
			CreatedAt:          now,
			AttachmentURL:      attachmentURL,
			AttachmentFileName: attachmentName,
		}
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return recountReplies(tx, threadID, map[string]interface{}{"last_reply_at": now})
	})
	if errors.Is(err, ErrThreadNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("create reply on %s: %w", threadID, err)
	}
	return &reply, nil
}

// GetReply returns a single reply; (nil, nil) when absent.
func (s *ForumService) GetReply(ctx context.Context, id string) (*models.Reply, error) {
	var reply models.Reply
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&reply).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reply %s: %w", id, err)
	}
	return &reply, nil
}

// GetThreadReplies returns the replies of a thread oldest first.
func (s *ForumService) GetThreadReplies(ctx context.Context, threadID string) ([]models.Reply, error) {
	var replies []models.Reply
	if err := s.db.WithContext(ctx).Where("thread_id = ?", threadID).Order("created_at ASC").Find(&replies).Error; err != nil {
		return nil, fmt.Errorf("list replies of %s: %w", threadID, err)
	}
	return replies, nil
}

// UpdateReply edits a reply owned by author and marks it edited.
func (s *ForumService) UpdateReply(ctx context.Context, id, author, content string) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reply models.Reply
		if err := tx.Where("id = ?", id).First(&reply).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		if reply.AuthorUsername != author {
			return nil
		}
		now := time.Now().UTC()
		err := tx.Model(&models.Reply{}).Where("id = ?", id).Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
			"edited_at": now,
		}).Error
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update reply %s: %w", id, err)
	}
	return ok, nil
}

// DeleteReply removes a reply owned by author and decrements the parent's counter.
func (s *ForumService) DeleteReply(ctx context.Context, id, author string) (bool, error) {
	return s.deleteReply(ctx, id, func(r *models.Reply) bool { return r.AuthorUsername == author })
}

// AdminDeleteReply removes any reply and decrements the parent's counter.
func (s *ForumService) AdminDeleteReply(ctx context.Context, id string) (bool, error) {
	return s.deleteReply(ctx, id, func(*models.Reply) bool { return true })
}

func (s *ForumService) deleteReply(ctx context.Context, id string, allowed func(*models.Reply) bool) (bool, error) {
	ok := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reply models.Reply
		if err := tx.Where("id = ?", id).First(&reply).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		if !allowed(&reply) {
			return nil
		}
		if err := tx.Delete(&models.Reply{}, "id = ?", id).Error; err != nil {
			return err
		}
		if err := recountReplies(tx, reply.ThreadID, nil); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete reply %s: %w", id, err)
	}
	return ok, nil
}

// MarkReplyViolation flags a reply as violating the rules.
func (s *ForumService) MarkReplyViolation(ctx context.Context, id, reason, admin string) (bool, error) {
	var v models.Violation
	v.Mark(reason, admin, time.Now().UTC())
	return s.updateExisting(ctx, &models.Reply{}, id, v.ViolationColumns())
}

// ClearReplyViolation removes the violation flag from a reply.
func (s *ForumService) ClearReplyViolation(ctx context.Context, id string) (bool, error) {
	var v models.Violation
	return s.updateExisting(ctx, &models.Reply{}, id, v.ViolationColumns())
}

// CountByAuthor returns how many threads and replies username has written.
func (s *ForumService) CountByAuthor(ctx context.Context, username string) (threads, replies int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Thread{}).Where("author_username = ?", username).Count(&threads).Error; err != nil {
		return 0, 0, fmt.Errorf("count threads of %q: %w", username, err)
	}
	if err = db.Model(&models.Reply{}).Where("author_username = ?", username).Count(&replies).Error; err != nil {
		return 0, 0, fmt.Errorf("count replies of %q: %w", username, err)
	}
	return threads, replies, nil
}

// RecentThreadsByAuthor returns up to limit of the author's newest threads.
func (s *ForumService) RecentThreadsByAuthor(ctx context.Context, username string, limit int) ([]models.Thread, error) {
	var threads []models.Thread
	err := s.db.WithContext(ctx).
		Where("author_username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("recent threads of %q: %w", username, err)
	}
	return threads, nil
}

// ContentTotals is the moderation summary of the content store.
type ContentTotals struct {
	Threads         int64 `json:"total_threads"`
	Replies         int64 `json:"total_replies"`
	ViolatedThreads int64 `json:"violated_threads"`
	ViolatedReplies int64 `json:"violated_replies"`
}

// Totals counts threads and replies, overall and flagged.
func (s *ForumService) Totals(ctx context.Context) (ContentTotals, error) {
	var t ContentTotals
	db := s.db.WithContext(ctx)
	steps := []struct {
		model interface{}
		where string
		dst   *int64
	}{
		{&models.Thread{}, "", &t.Threads},
		{&models.Reply{}, "", &t.Replies},
		{&models.Thread{}, "is_violation = ?", &t.ViolatedThreads},
		{&models.Reply{}, "is_violation = ?", &t.ViolatedReplies},
	}
	for _, st := range steps {
		q := db.Model(st.model)
		if st.where != "" {
			q = q.Where(st.where, true)
		}
		if err := q.Count(st.dst).Error; err != nil {
			return ContentTotals{}, fmt.Errorf("content totals: %w", err)
		}
	}
	return t, nil
}
