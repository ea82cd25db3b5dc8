package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/health-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

const redisKeyPrefix = "healthdesk:"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStore keeps each session as a JSON string key and its log as a list.
// Every write refreshes the TTL of both keys, so the TTL is the idle lifetime
// of a session.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	log.Info(log.Fields{"addr": opts.Addr, "db": opts.DB}, "connected to redis")
	return client, nil
}

func sessionKey(sessionID string) string {
	return redisKeyPrefix + "session:" + sessionID
}

func transcriptKey(sessionID string) string {
	return redisKeyPrefix + "turns:" + sessionID
}

func (s *RedisStore) CreateSession(ctx context.Context, session chat.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var session chat.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return chat.Session{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return session, nil
}

func (s *RedisStore) AppendTurns(ctx context.Context, sessionID string, turns ...chat.Turn) error {
	exists, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("check session %s: %w", sessionID, err)
	}
	if exists == 0 {
		return ErrSessionNotFound
	}
	if len(turns) == 0 {
		return nil
	}

	payloads := make([]any, 0, len(turns))
	for _, turn := range turns {
		payload, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		payloads = append(payloads, payload)
	}

	// MULTI/EXEC keeps the turns of one submission adjacent and all-or-nothing.
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, transcriptKey(sessionID), payloads...)
		if s.ttl > 0 {
			pipe.Expire(ctx, transcriptKey(sessionID), s.ttl)
			pipe.Expire(ctx, sessionKey(sessionID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append turns to %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	items, err := s.client.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", sessionID, err)
	}

	turns := make([]chat.Turn, 0, len(items))
	for _, item := range items {
		var turn chat.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode turn in %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
