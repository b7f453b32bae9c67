package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studybuddy/internal/model"
	"studybuddy/internal/pkg/jwtutil"
)

type SessionService struct {
	chatLog   ChatLog
	jwtSecret string
	tokenTTL  time.Duration
}

func NewSessionService(chatLog ChatLog, jwtSecret string, tokenTTL time.Duration) *SessionService {
	if tokenTTL <= 0 {
		tokenTTL = 4 * time.Hour
	}
	return &SessionService{chatLog: chatLog, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type SessionToken struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Start opens an empty chat log and returns a bearer token for it.
func (s *SessionService) Start(ctx context.Context) (*SessionToken, error) {
	id := uuid.NewString()
	if err := s.chatLog.Start(ctx, id); err != nil {
		return nil, err
	}
	token, expiresAt, err := jwtutil.GenerateToken(s.jwtSecret, s.tokenTTL, id)
	if err != nil {
		_ = s.chatLog.End(ctx, id)
		return nil, err
	}
	return &SessionToken{SessionID: id, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *SessionService) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	messages, err := s.chatLog.History(ctx, sessionID)
	if err != nil {
		return nil, mapChatLogErr(err)
	}
	if messages == nil {
		messages = []model.ChatMessage{}
	}
	return messages, nil
}

func (s *SessionService) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	if err := s.chatLog.End(ctx, sessionID); err != nil {
		return mapChatLogErr(err)
	}
	return nil
}
