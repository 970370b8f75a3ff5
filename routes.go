package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"promptq/config"
	"promptq/http_handler"
)

const secretHeader = "X-Promptq-Secret"

func AuthRequired() gin.HandlerFunc {
	return func(context *gin.Context) {
		if config.Config.ApiSecret != "" {
			authHeader := context.Request.Header.Get(secretHeader)
			if authHeader != config.Config.ApiSecret {
				log.Errorf("Incorrect authorisation received on %s", context.Request.URL.Path)
				context.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Unauthorised"})
				context.Abort()
				return
			}
		}
		context.Next()
	}
}

// GetHealth provides unrestricted health status for monitoring tools
func GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func registerRoutes(r *gin.Engine, h *http_handler.HTTPHandler) {
	r.GET("/health", GetHealth)

	api := r.Group("/", AuthRequired())

	api.GET("/load/:filename", h.LoadFile)
	api.POST("/save/:filename", h.SaveFile)
	api.POST("/upload/zip", h.UploadZip)
	api.POST("/upload_zip", h.UploadZipToDrive)
	api.GET("/list_uploads", h.ListUploads)
	api.GET("/download/zip/:filename", h.DownloadZip)

	api.GET("/get_next_prompt", h.GetNextPrompt)
	api.POST("/mark_prompt_locked", h.MarkPromptLocked)
	api.POST("/clear_prompt_mark", h.ClearPromptMark)
	api.POST("/mark_prompt_used", h.MarkPromptUsed)
	api.POST("/mark_prompt_failed", h.MarkPromptFailed)
	api.POST("/insert_prompts", h.InsertPrompts)

	api.GET("/prompt_status", h.GetPromptStatus)
	api.POST("/cache/invalidate", h.InvalidateCache)
	api.GET("/consumers", h.GetConsumers)
	api.GET("/journal", h.GetJournal)
}
