package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/services"
	"github.com/engforum/engforum/utils"
)

// AdminController serves moderation endpoints. Every route sits behind AdminRequired.
type AdminController struct {
	users   *services.UserService
	forum   *services.ForumService
	uploads *utils.UploadStore
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(users *services.UserService, forum *services.ForumService, uploads *utils.UploadStore) *AdminController {
	return &AdminController{users: users, forum: forum, uploads: uploads}
}

// Dashboard returns moderation totals and every thread with its replies.
func (a *AdminController) Dashboard(ctx *gin.Context) {
	totals, err := a.forum.Totals(ctx.Request.Context())
	if err != nil {
		internalError(ctx, 50070, "failed to load totals", err)
		return
	}
	userCount, err := a.users.Count(ctx.Request.Context())
	if err != nil {
		internalError(ctx, 50071, "failed to count users", err)
		return
	}
	threads, err := a.forum.ListAllForModeration(ctx.Request.Context())
	if err != nil {
		internalError(ctx, 50072, "failed to list threads", err)
		return
	}
	if threads == nil {
		threads = []models.Thread{}
	}
	utils.Success(ctx, gin.H{
		"stats": gin.H{
			"total_threads":    totals.Threads,
			"total_replies":    totals.Replies,
			"violated_threads": totals.ViolatedThreads,
			"violated_replies": totals.ViolatedReplies,
			"total_users":      userCount,
		},
		"threads": threads,
	})
}

// ListUsers returns paginated users, newest first.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	users, err := a.users.ListAll(ctx.Request.Context())
	if err != nil {
		internalError(ctx, 50073, "failed to retrieve users", err)
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, pagination := paginate(users, page, pageSize)
	utils.Success(ctx, gin.H{"items": items, "pagination": pagination})
}

type violationRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

func (a *AdminController) markViolation(ctx *gin.Context, mark func(id, reason, admin string) (bool, error), notFound string) {
	admin, ok := caller(ctx)
	if !ok {
		return
	}
	var req violationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "a violation reason is required")
		return
	}
	reason := utils.SanitizeText(req.Reason)
	if !runesWithin(reason, 1, 500) {
		utils.Error(ctx, http.StatusBadRequest, 40070, "a violation reason of 1-500 characters is required")
		return
	}
	done, err := mark(ctx.Param("id"), reason, admin.Username)
	if err != nil {
		internalError(ctx, 50074, "failed to mark violation", err)
		return
	}
	if !done {
		utils.Error(ctx, http.StatusNotFound, 40470, notFound)
		return
	}
	utils.Success(ctx, gin.H{"message": "marked as violation"})
}

func (a *AdminController) applyByID(ctx *gin.Context, apply func(id string) (bool, error), notFound, success string) {
	done, err := apply(ctx.Param("id"))
	if err != nil {
		internalError(ctx, 50075, "moderation action failed", err)
		return
	}
	if !done {
		utils.Error(ctx, http.StatusNotFound, 40470, notFound)
		return
	}
	utils.Success(ctx, gin.H{"message": success})
}

// MarkThreadViolation flags a thread with a reason.
func (a *AdminController) MarkThreadViolation(ctx *gin.Context) {
	a.markViolation(ctx, func(id, reason, admin string) (bool, error) {
		return a.forum.MarkThreadViolation(ctx.Request.Context(), id, reason, admin)
	}, "thread not found")
}

// ClearThreadViolation removes a thread's violation flag.
func (a *AdminController) ClearThreadViolation(ctx *gin.Context) {
	a.applyByID(ctx, func(id string) (bool, error) {
		return a.forum.ClearThreadViolation(ctx.Request.Context(), id)
	}, "thread not found", "violation cleared")
}

// MarkReplyViolation flags a reply with a reason.
func (a *AdminController) MarkReplyViolation(ctx *gin.Context) {
	a.markViolation(ctx, func(id, reason, admin string) (bool, error) {
		return a.forum.MarkReplyViolation(ctx.Request.Context(), id, reason, admin)
	}, "reply not found")
}

// ClearReplyViolation removes a reply's violation flag.
func (a *AdminController) ClearReplyViolation(ctx *gin.Context) {
	a.applyByID(ctx, func(id string) (bool, error) {
		return a.forum.ClearReplyViolation(ctx.Request.Context(), id)
	}, "reply not found", "violation cleared")
}

// DeleteThread removes any thread and its replies.
func (a *AdminController) DeleteThread(ctx *gin.Context) {
	existing, err := a.forum.GetThread(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		internalError(ctx, 50076, "failed to load thread", err)
		return
	}
	if existing == nil {
		utils.Error(ctx, http.StatusNotFound, 40470, "thread not found")
		return
	}
	a.applyByID(ctx, func(id string) (bool, error) {
		done, err := a.forum.AdminDeleteThread(ctx.Request.Context(), id)
		if done {
			removeThreadFiles(a.uploads, existing)
			invalidateStats()
		}
		return done, err
	}, "thread not found", "thread deleted")
}

// DeleteReply removes any reply.
func (a *AdminController) DeleteReply(ctx *gin.Context) {
	existing, err := a.forum.GetReply(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		internalError(ctx, 50077, "failed to load reply", err)
		return
	}
	if existing == nil {
		utils.Error(ctx, http.StatusNotFound, 40470, "reply not found")
		return
	}
	a.applyByID(ctx, func(id string) (bool, error) {
		done, err := a.forum.AdminDeleteReply(ctx.Request.Context(), id)
		if done {
			removeUpload(a.uploads, existing.AttachmentURL)
			invalidateStats()
		}
		return done, err
	}, "reply not found", "reply deleted")
}

type flagRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// SetPinned pins or unpins a thread: {"value": true}.
func (a *AdminController) SetPinned(ctx *gin.Context) {
	var req flagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "value is required")
		return
	}
	a.applyByID(ctx, func(id string) (bool, error) {
		return a.forum.SetThreadPinned(ctx.Request.Context(), id, *req.Value)
	}, "thread not found", "pin updated")
}

// SetLocked locks or unlocks a thread: {"value": true}.
func (a *AdminController) SetLocked(ctx *gin.Context) {
	var req flagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "value is required")
		return
	}
	a.applyByID(ctx, func(id string) (bool, error) {
		return a.forum.SetThreadLocked(ctx.Request.Context(), id, *req.Value)
	}, "thread not found", "lock updated")
}

// SetAdmin grants or revokes administrator rights. Admins cannot demote themselves.
func (a *AdminController) SetAdmin(ctx *gin.Context) {
	admin, ok := caller(ctx)
	if !ok {
		return
	}
	var req flagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "value is required")
		return
	}
	username := strings.TrimSpace(ctx.Param("username"))
	if !*req.Value && strings.EqualFold(username, admin.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40072, "cannot revoke your own administrator rights")
		return
	}
	done, err := a.users.SetAdmin(ctx.Request.Context(), username, *req.Value)
	if err != nil {
		internalError(ctx, 50078, "failed to update user", err)
		return
	}
	if !done {
		utils.Error(ctx, http.StatusNotFound, 40471, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "user updated"})
}
