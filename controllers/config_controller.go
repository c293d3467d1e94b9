package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/utils"
)

// ConfigController serves client-facing settings derived from configuration.
type ConfigController struct {
	uploads *utils.UploadStore
}

// NewConfigController creates a ConfigController.
func NewConfigController(uploads *utils.UploadStore) *ConfigController {
	return &ConfigController{uploads: uploads}
}

// GetUploadLimits tells clients which files will be accepted before they upload.
func (c *ConfigController) GetUploadLimits(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"max_bytes":             c.uploads.MaxBytes,
		"image_extensions":      utils.ImageExtensions,
		"attachment_extensions": utils.AttachmentExtensions,
	})
}
