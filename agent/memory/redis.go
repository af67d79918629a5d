package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKeyPrefix = "shopchat:conv:"
	defaultRedisTTL       = 24 * time.Hour
)

type RedisConfig struct {
	Addr      string        `envconfig:"ADDR" split_words:"true" required:"true"`
	Password  string        `envconfig:"PASSWORD" split_words:"true"`
	DB        int           `envconfig:"DB" split_words:"true" default:"0"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true"`
	TTL       time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// RedisStore persists conversations as JSON blobs with a TTL, so idle
// sessions expire server-side without a sweep.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	keyPrefix := strings.TrimSpace(cfg.KeyPrefix)
	if keyPrefix == "" {
		keyPrefix = defaultRedisKeyPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionKey string) (*Conversation, error) {
	key, err := s.redisKey(sessionKey)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if conv.Context == nil {
		conv.Context = make(map[string]any, 4)
	}
	return &conv, nil
}

func (s *RedisStore) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	key, err := s.redisKey(conv.SessionKey)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionKey string) error {
	key, err := s.redisKey(sessionKey)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) redisKey(sessionKey string) (string, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return "", ErrInvalidSessionKey
	}
	return s.keyPrefix + sessionKey, nil
}
