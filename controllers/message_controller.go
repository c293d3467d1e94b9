package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/services"
	"github.com/engforum/engforum/utils"
)

// MessageController serves private messages between users.
type MessageController struct {
	messages *services.MessageService
	users    *services.UserService
}

// NewMessageController creates a new MessageController instance.
func NewMessageController(messages *services.MessageService, users *services.UserService) *MessageController {
	return &MessageController{messages: messages, users: users}
}

func emptyIfNil(msgs []models.PrivateMessage) []models.PrivateMessage {
	if msgs == nil {
		return []models.PrivateMessage{}
	}
	return msgs
}

// Inbox lists messages received by the caller.
func (m *MessageController) Inbox(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	msgs, err := m.messages.GetInbox(ctx.Request.Context(), user.Username)
	if err != nil {
		internalError(ctx, 50040, "failed to load inbox", err)
		return
	}
	utils.Success(ctx, gin.H{"items": emptyIfNil(msgs)})
}

// Sent lists messages sent by the caller.
func (m *MessageController) Sent(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	msgs, err := m.messages.GetSent(ctx.Request.Context(), user.Username)
	if err != nil {
		internalError(ctx, 50041, "failed to load sent messages", err)
		return
	}
	utils.Success(ctx, gin.H{"items": emptyIfNil(msgs)})
}

// UnreadCount returns how many inbox messages are unread.
func (m *MessageController) UnreadCount(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	n, err := m.messages.GetUnreadCount(ctx.Request.Context(), user.Username)
	if err != nil {
		internalError(ctx, 50042, "failed to count unread messages", err)
		return
	}
	utils.Success(ctx, gin.H{"count": n})
}

// Get returns one message. With ?mark_read=1 the recipient also marks it read.
func (m *MessageController) Get(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	msg, err := m.messages.GetMessage(ctx.Request.Context(), id, user.Username)
	if err != nil {
		internalError(ctx, 50043, "failed to load message", err)
		return
	}
	if msg == nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "message not found")
		return
	}

	if ctx.Query("mark_read") == "1" && services.IsRecipient(msg, user.Username) && !msg.IsRead {
		if _, err := m.messages.MarkRead(ctx.Request.Context(), id); err != nil {
			internalError(ctx, 50044, "failed to mark message read", err)
			return
		}
		if fresh, err := m.messages.GetMessage(ctx.Request.Context(), id, user.Username); err == nil && fresh != nil {
			msg = fresh
		}
	}
	utils.Success(ctx, gin.H{"message": msg})
}

// Send delivers a message to an existing user other than the caller.
func (m *MessageController) Send(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	var req struct {
		Recipient string `json:"recipient" binding:"required,max=50"`
		Subject   string `json:"subject" binding:"required,min=1,max=200"`
		Content   string `json:"content" binding:"required,min=1,max=5000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	recipient, err := m.users.GetByUsername(ctx.Request.Context(), strings.TrimSpace(req.Recipient))
	if err != nil {
		internalError(ctx, 50045, "failed to look up recipient", err)
		return
	}
	if recipient == nil {
		utils.Error(ctx, http.StatusNotFound, 40421, "recipient not found")
		return
	}
	if recipient.ID == user.ID {
		utils.Error(ctx, http.StatusBadRequest, 40041, "cannot send a message to yourself")
		return
	}

	subject := utils.SanitizeText(req.Subject)
	content := utils.Sanitize(req.Content)
	if !runesWithin(subject, 1, 200) || !runesWithin(content, 1, 5000) {
		utils.Error(ctx, http.StatusBadRequest, 40042, "subject must be 1-200 and content 1-5000 characters")
		return
	}

	msg, err := m.messages.SendMessage(ctx.Request.Context(), user.Username, recipient.Username, subject, content)
	if err != nil {
		internalError(ctx, 50046, "failed to send message", err)
		return
	}
	utils.Created(ctx, gin.H{"message": msg})
}

// MarkRead marks a received message as read. Only the recipient may do so.
func (m *MessageController) MarkRead(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	msg, err := m.messages.GetMessage(ctx.Request.Context(), id, user.Username)
	if err != nil {
		internalError(ctx, 50043, "failed to load message", err)
		return
	}
	if msg == nil || !services.IsRecipient(msg, user.Username) {
		utils.Error(ctx, http.StatusNotFound, 40420, "message not found")
		return
	}
	done, err := m.messages.MarkRead(ctx.Request.Context(), id)
	if err != nil {
		internalError(ctx, 50044, "failed to mark message read", err)
		return
	}
	if !done {
		utils.Error(ctx, http.StatusNotFound, 40420, "message not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "marked as read"})
}

// Delete hides a message for the caller.
func (m *MessageController) Delete(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	done, err := m.messages.Delete(ctx.Request.Context(), ctx.Param("id"), user.Username)
	if err != nil {
		internalError(ctx, 50047, "failed to delete message", err)
		return
	}
	if !done {
		utils.Error(ctx, http.StatusNotFound, 40420, "message not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "message deleted"})
}
