package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/engforum/engforum/middleware"
	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/utils"
)

const statsCacheKey = "cache:forum:stats"

// runesWithin reports whether s holds between lo and hi runes. Sanitizing
// can grow or shrink a field, so bounds are checked again on the stored form.
func runesWithin(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// cachedEnvelope mirrors utils.JSONResponse with data always present, so cached
// bytes can be written back verbatim.
type cachedEnvelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func serveCached(ctx *gin.Context, key string) bool {
	b, ok := utils.CacheGetBytes(key)
	if !ok {
		return false
	}
	ctx.Data(http.StatusOK, "application/json", b)
	return true
}

func successCached(ctx *gin.Context, key string, payload interface{}, ttl time.Duration) {
	utils.CacheSetJSON(key, cachedEnvelope{Code: 0, Message: "success", Data: payload}, ttl)
	utils.Success(ctx, payload)
}

func invalidateStats() {
	utils.CacheDelete(statsCacheKey)
}

// internalError logs err and answers 500 with code.
func internalError(ctx *gin.Context, code int, message string, err error) {
	utils.Logger.Error(message,
		zap.Int("code", code),
		zap.String("path", ctx.Request.URL.Path),
		zap.Error(err),
	)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}

// caller returns the authenticated user; routes using it sit behind AuthRequired.
func caller(ctx *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
		return nil, false
	}
	return user, true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func paginate[T any](items []T, page, pageSize int) ([]T, gin.H) {
	total := len(items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
}

// saveUpload stores the optional multipart file under field. A missing file yields (nil, true).
func saveUpload(ctx *gin.Context, uploads *utils.UploadStore, field, subdir string, allowed []string) (*utils.StoredFile, bool) {
	header, err := ctx.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid upload")
		return nil, false
	}
	stored, err := uploads.Save(header, subdir, allowed)
	switch {
	case errors.Is(err, utils.ErrUploadTooLarge):
		utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, "file size exceeds limit")
		return nil, false
	case errors.Is(err, utils.ErrUploadType):
		utils.Error(ctx, http.StatusBadRequest, 40031, "file type not allowed")
		return nil, false
	case err != nil:
		internalError(ctx, 50030, "failed to store upload", err)
		return nil, false
	}
	return stored, true
}

func removeUpload(uploads *utils.UploadStore, url *string) {
	if url == nil || *url == "" {
		return
	}
	if err := uploads.Remove(*url); err != nil {
		utils.Logger.Warn("remove upload failed", zap.String("url", *url), zap.Error(err))
	}
}

// removeThreadFiles deletes the image of a thread and the attachments of its replies.
func removeThreadFiles(uploads *utils.UploadStore, thread *models.Thread) {
	removeUpload(uploads, thread.ImageURL)
	for i := range thread.Replies {
		removeUpload(uploads, thread.Replies[i].AttachmentURL)
	}
}
