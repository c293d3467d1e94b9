package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/services"
	"github.com/engforum/engforum/utils"
)

// ThreadController manages threads and their replies.
type ThreadController struct {
	forum      *services.ForumService
	categories *models.CategoryRegistry
	uploads    *utils.UploadStore
}

// NewThreadController creates a new ThreadController instance.
func NewThreadController(forum *services.ForumService, categories *models.CategoryRegistry, uploads *utils.UploadStore) *ThreadController {
	return &ThreadController{forum: forum, categories: categories, uploads: uploads}
}

type threadForm struct {
	Category string `form:"category" json:"category"`
	Title    string `form:"title" json:"title" binding:"required,min=5,max=200"`
	Content  string `form:"content" json:"content" binding:"required,min=10,max=5000"`
}

// clean sanitizes the form and reports whether both fields still fit their bounds.
func (f *threadForm) clean() bool {
	f.Title = utils.SanitizeText(f.Title)
	f.Content = utils.Sanitize(f.Content)
	return runesWithin(f.Title, 5, 200) && runesWithin(f.Content, 10, 5000)
}

// ListThreads returns all threads, or those of ?category=, pinned first.
func (t *ThreadController) ListThreads(ctx *gin.Context) {
	category := strings.TrimSpace(ctx.Query("category"))

	var (
		threads []models.Thread
		err     error
	)
	if category == "" {
		threads, err = t.forum.ListAll(ctx.Request.Context())
	} else {
		if cat, ok := t.categories.GetByID(category); ok {
			category = cat.ID
		}
		threads, err = t.forum.ListByCategory(ctx.Request.Context(), category)
	}
	if err != nil {
		internalError(ctx, 50022, "failed to list threads", err)
		return
	}
	if threads == nil {
		threads = []models.Thread{}
	}
	utils.Success(ctx, gin.H{"items": threads})
}

// GetThread returns a single thread with its replies.
func (t *ThreadController) GetThread(ctx *gin.Context) {
	thread, err := t.forum.GetThread(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		internalError(ctx, 50023, "failed to load thread", err)
		return
	}
	if thread == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "thread not found")
		return
	}
	utils.Success(ctx, gin.H{"thread": thread})
}

// CreateThread posts a new thread with an optional image.
func (t *ThreadController) CreateThread(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}

	var form threadForm
	if err := ctx.ShouldBind(&form); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	cat, found := t.categories.GetByID(form.Category)
	if !found {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid category")
		return
	}
	if !form.clean() {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title must be 5-200 and content 10-5000 characters")
		return
	}

	image, ok := saveUpload(ctx, t.uploads, "image", "threads", utils.ImageExtensions)
	if !ok {
		return
	}
	var imageURL *string
	if image != nil {
		imageURL = &image.URL
	}

	thread, err := t.forum.CreateThread(ctx.Request.Context(), cat.ID, form.Title, form.Content, user.Username, imageURL)
	if err != nil {
		removeUpload(t.uploads, imageURL)
		internalError(ctx, 50020, "failed to create thread", err)
		return
	}
	invalidateStats()
	utils.Created(ctx, gin.H{"thread": thread})
}

// UpdateThread edits the caller's own thread. A new image replaces the old one.
func (t *ThreadController) UpdateThread(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")

	existing, err := t.forum.GetThread(ctx.Request.Context(), id)
	if err != nil {
		internalError(ctx, 50025, "failed to load thread", err)
		return
	}
	if existing == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "thread not found")
		return
	}
	if !services.IsOwner(user, existing.AuthorUsername) {
		utils.Error(ctx, http.StatusForbidden, 40302, "only the author can edit this thread")
		return
	}

	var form threadForm
	if err := ctx.ShouldBind(&form); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if !form.clean() {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title must be 5-200 and content 10-5000 characters")
		return
	}

	image, ok := saveUpload(ctx, t.uploads, "image", "threads", utils.ImageExtensions)
	if !ok {
		return
	}
	edit := services.ThreadEdit{Title: form.Title, Content: form.Content}
	if image != nil {
		edit.ImageURL = &image.URL
	}

	updated, err := t.forum.UpdateThread(ctx.Request.Context(), id, user.Username, edit)
	if err != nil || !updated {
		removeUpload(t.uploads, edit.ImageURL)
		if err != nil {
			internalError(ctx, 50026, "failed to update thread", err)
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40401, "thread not found")
		return
	}
	if edit.ImageURL != nil {
		removeUpload(t.uploads, existing.ImageURL)
	}

	thread, err := t.forum.GetThread(ctx.Request.Context(), id)
	if err != nil || thread == nil {
		utils.Success(ctx, gin.H{"id": id})
		return
	}
	utils.Success(ctx, gin.H{"thread": thread})
}

// DeleteThread removes a thread and its replies. Administrators may delete any thread.
func (t *ThreadController) DeleteThread(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")

	existing, err := t.forum.GetThread(ctx.Request.Context(), id)
	if err != nil {
		internalError(ctx, 50027, "failed to load thread", err)
		return
	}
	if existing == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "thread not found")
		return
	}
	if !services.CanModerate(user, existing.AuthorUsername) {
		utils.Error(ctx, http.StatusForbidden, 40303, "only the author can delete this thread")
		return
	}

	var deleted bool
	if services.IsOwner(user, existing.AuthorUsername) {
		deleted, err = t.forum.DeleteThread(ctx.Request.Context(), id, user.Username)
	} else {
		deleted, err = t.forum.AdminDeleteThread(ctx.Request.Context(), id)
	}
	if err != nil {
		internalError(ctx, 50028, "failed to delete thread", err)
		return
	}
	if !deleted {
		utils.Error(ctx, http.StatusNotFound, 40401, "thread not found")
		return
	}
	removeThreadFiles(t.uploads, existing)
	invalidateStats()
	utils.Success(ctx, gin.H{"message": "thread deleted"})
}

// CreateReply answers a thread with an optional attachment. Locked threads refuse replies.
func (t *ThreadController) CreateReply(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	threadID := ctx.Param("id")

	thread, err := t.forum.GetThread(ctx.Request.Context(), threadID)
	if err != nil {
		internalError(ctx, 50024, "failed to load thread", err)
		return
	}
	if thread == nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "thread not found")
		return
	}
	if thread.IsLocked {
		utils.Error(ctx, http.StatusConflict, 40902, "thread is locked")
		return
	}

	var req struct {
		Content string `form:"content" json:"content" binding:"required,min=1,max=3000"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if !runesWithin(content, 1, 3000) {
		utils.Error(ctx, http.StatusBadRequest, 40024, "content must be 1-3000 characters")
		return
	}

	file, ok := saveUpload(ctx, t.uploads, "attachment", "replies", utils.AttachmentExtensions)
	if !ok {
		return
	}
	var url, name *string
	if file != nil {
		url, name = &file.URL, &file.OriginalName
	}

	reply, err := t.forum.CreateReply(ctx.Request.Context(), threadID, content, user.Username, url, name)
	if err != nil {
		removeUpload(t.uploads, url)
		if errors.Is(err, services.ErrThreadNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "thread not found")
			return
		}
		internalError(ctx, 50029, "failed to create reply", err)
		return
	}
	invalidateStats()
	utils.Created(ctx, gin.H{"reply": reply})
}

// loadOwnReply fetches a reply and checks the caller may act on it.
func (t *ThreadController) loadOwnReply(ctx *gin.Context, user *models.User, allowAdmin bool) (*models.Reply, bool) {
	reply, err := t.forum.GetReply(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		internalError(ctx, 50031, "failed to load reply", err)
		return nil, false
	}
	if reply == nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "reply not found")
		return nil, false
	}
	allowed := services.IsOwner(user, reply.AuthorUsername)
	if allowAdmin {
		allowed = services.CanModerate(user, reply.AuthorUsername)
	}
	if !allowed {
		utils.Error(ctx, http.StatusForbidden, 40304, "only the author can change this reply")
		return nil, false
	}
	return reply, true
}

// UpdateReply edits the caller's own reply.
func (t *ThreadController) UpdateReply(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	reply, ok := t.loadOwnReply(ctx, user, false)
	if !ok {
		return
	}

	var req struct {
		Content string `form:"content" json:"content" binding:"required,min=1,max=3000"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	content := utils.Sanitize(req.Content)
	if !runesWithin(content, 1, 3000) {
		utils.Error(ctx, http.StatusBadRequest, 40024, "content must be 1-3000 characters")
		return
	}

	updated, err := t.forum.UpdateReply(ctx.Request.Context(), reply.ID, user.Username, content)
	if err != nil {
		internalError(ctx, 50032, "failed to update reply", err)
		return
	}
	if !updated {
		utils.Error(ctx, http.StatusNotFound, 40403, "reply not found")
		return
	}
	fresh, err := t.forum.GetReply(ctx.Request.Context(), reply.ID)
	if err != nil || fresh == nil {
		utils.Success(ctx, gin.H{"id": reply.ID})
		return
	}
	utils.Success(ctx, gin.H{"reply": fresh})
}

// DeleteReply removes a reply. Administrators may delete any reply.
func (t *ThreadController) DeleteReply(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	reply, ok := t.loadOwnReply(ctx, user, true)
	if !ok {
		return
	}

	var (
		deleted bool
		err     error
	)
	if services.IsOwner(user, reply.AuthorUsername) {
		deleted, err = t.forum.DeleteReply(ctx.Request.Context(), reply.ID, user.Username)
	} else {
		deleted, err = t.forum.AdminDeleteReply(ctx.Request.Context(), reply.ID)
	}
	if err != nil {
		internalError(ctx, 50033, "failed to delete reply", err)
		return
	}
	if !deleted {
		utils.Error(ctx, http.StatusNotFound, 40403, "reply not found")
		return
	}
	removeUpload(t.uploads, reply.AttachmentURL)
	invalidateStats()
	utils.Success(ctx, gin.H{"message": "reply deleted"})
}
