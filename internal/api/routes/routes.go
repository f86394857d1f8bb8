package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jaydeesquared/FlagIt/internal/api/handlers"
)

type Deps struct {
	Recording *handlers.RecordingHandler
	Flag      *handlers.FlagHandler
	Category  *handlers.CategoryHandler
	Snippet   *handlers.SnippetHandler
	Export    *handlers.ExportHandler
	Capture   *handlers.CaptureWSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/recordings", d.Recording.Create)
	r.GET("/recordings", d.Recording.List)
	r.GET("/recordings/:id", d.Recording.Get)
	r.PATCH("/recordings/:id", d.Recording.Update)
	r.DELETE("/recordings/:id", d.Recording.Delete)

	r.PUT("/recordings/:id/audio", d.Recording.UploadAudio)
	r.GET("/recordings/:id/audio", d.Recording.DownloadAudio)

	r.POST("/recordings/:id/flags", d.Flag.Create)
	r.GET("/recordings/:id/flags", d.Flag.ListByRecording)
	r.PATCH("/flags/:flag_id", d.Flag.Update)
	r.DELETE("/flags/:flag_id", d.Flag.Delete)

	r.POST("/categories", d.Category.Create)
	r.GET("/categories", d.Category.List)
	r.DELETE("/categories/:id", d.Category.Delete)

	r.POST("/recordings/:id/snippets", d.Snippet.Create)

	r.POST("/export", d.Export.Batch)
	r.GET("/recordings/:id/export", d.Export.One)

	// WebSocket capture
	r.GET("/ws/capture", d.Capture.CaptureWS)
}
