package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"studybuddy/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps each study session's chat log as a Redis list.
type SessionStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSessionStore(client *redisv9.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Start(ctx context.Context, sessionID string) error {
	created := time.Now().UTC().Format(time.RFC3339)
	if err := s.client.Set(ctx, s.sessionKey(sessionID), created, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis start session failed: %w", err)
	}
	return nil
}

func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session failed: %w", err)
	}
	return n > 0, nil
}

// Append adds messages to the end of the log and refreshes the session TTL.
func (s *SessionStore) Append(ctx context.Context, sessionID string, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	ok, err := s.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}

	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		payload, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal chat message failed: %w", err)
		}
		values = append(values, payload)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.RPush(ctx, s.messagesKey(sessionID), values...)
		pipe.Expire(ctx, s.messagesKey(sessionID), s.ttl)
		pipe.Expire(ctx, s.sessionKey(sessionID), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append chat log failed: %w", err)
	}
	return nil
}

// History returns the whole log in insertion order.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.rangeMessages(ctx, sessionID, 0, -1)
}

// Recent returns at most the last n messages, oldest first.
func (s *SessionStore) Recent(ctx context.Context, sessionID string, n int) ([]model.ChatMessage, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.rangeMessages(ctx, sessionID, int64(-n), -1)
}

func (s *SessionStore) End(ctx context.Context, sessionID string) error {
	n, err := s.client.Del(ctx, s.sessionKey(sessionID), s.messagesKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("redis end session failed: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) rangeMessages(ctx context.Context, sessionID string, start, stop int64) ([]model.ChatMessage, error) {
	ok, err := s.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	raw, err := s.client.LRange(ctx, s.messagesKey(sessionID), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read chat log failed: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("unmarshal chat message failed: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *SessionStore) sessionKey(sessionID string) string {
	return "study:session:" + sessionID
}

func (s *SessionStore) messagesKey(sessionID string) string {
	return "study:session:" + sessionID + ":messages"
}
