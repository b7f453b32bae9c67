package http

import (
	"github.com/gin-gonic/gin"

	"studybuddy/internal/bootstrap"
	"studybuddy/internal/transport/http/handler"
	"studybuddy/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = int64(app.Config.App.MaxUploadMB) << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.GET("/status", healthHandler.Status)

	Register(v1, Routes{
		Transcripts: handler.NewTranscriptHandler(app.Services.Ingest, app.Services.Catalog, app.Config.App.MaxUploadMB),
		Study:       handler.NewStudyHandler(app.Services.Query),
		Sessions:    handler.NewSessionHandler(app.Services.Sessions),
		JWTSecret:   app.Config.Auth.JWTSecret,
		Features:    app.Features,
		Notices:     app.Notices,
	})
	return router
}

type Routes struct {
	Transcripts *handler.TranscriptHandler
	Study       *handler.StudyHandler
	Sessions    *handler.SessionHandler
	JWTSecret   string
	Features    bootstrap.Features
	Notices     []string
}

// Register mounts the versioned API on group, gating routes by feature.
func Register(v1 *gin.RouterGroup, r Routes) {
	sessionsOn := middleware.RequireFeature(r.Features.Sessions, "sessions", r.Notices)
	queryOn := middleware.RequireFeature(r.Features.Query, "query", r.Notices)
	auth := middleware.SessionJWT(r.JWTSecret)

	sessions := v1.Group("/sessions", sessionsOn)
	sessions.POST("", r.Sessions.Start)
	sessions.DELETE("", auth, r.Sessions.End)
	sessions.GET("/history", auth, r.Sessions.History)

	v1.POST("/transcripts", r.Transcripts.Upload)
	v1.GET("/transcripts", r.Transcripts.List)
	v1.GET("/transcripts/:id/file", r.Transcripts.Download)
	v1.GET("/storage/files", r.Transcripts.StoredFiles)
	v1.GET("/courses", r.Transcripts.ListCourses)
	v1.GET("/courses/:course/weeks", r.Transcripts.ListWeeks)

	v1.POST("/summaries", queryOn, r.Study.Summarize)
	v1.POST("/questions", queryOn, sessionsOn, auth, r.Study.Ask)
	v1.POST("/quizzes", queryOn, r.Study.Quiz)
	v1.POST("/exams", queryOn, r.Study.Exam)
}
