package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"studybuddy/internal/app"
	"studybuddy/internal/model"
	"studybuddy/internal/transport/http/middleware"
	"studybuddy/internal/transport/http/response"
)

type SessionService interface {
	Start(ctx context.Context) (*app.SessionToken, error)
	History(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	End(ctx context.Context, sessionID string) error
}

type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Start(c *gin.Context) {
	token, err := h.sessions.Start(c.Request.Context())
	if err != nil {
		writeError(c, err, "start session failed")
		return
	}
	response.OK(c, token)
}

func (h *SessionHandler) End(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	if err := h.sessions.End(c.Request.Context(), sessionID); err != nil {
		writeError(c, err, "end session failed")
		return
	}
	response.OK(c, gin.H{"ended_session_id": sessionID})
}

func (h *SessionHandler) History(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	messages, err := h.sessions.History(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err, "get history failed")
		return
	}
	response.OK(c, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}
