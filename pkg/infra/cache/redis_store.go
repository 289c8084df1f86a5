package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	KeyPrefix         = "shield:"
	VerdictKeyPattern = KeyPrefix + "%s"

	redisOpTimeout = 2 * time.Second
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

type RedisStore struct {
	redisClient *redis.Client
	logger      *logrus.Logger
}

func NewRedisStore(config Config, logger *logrus.Logger) *RedisStore {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return NewRedisStoreFromClient(redis.NewClient(options), logger)
}

func NewRedisStoreFromClient(client *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		redisClient: client,
		logger:      logger,
	}
}

func (s *RedisStore) Name() string {
	return BackendRedis
}

func (s *RedisStore) RedisClient() *redis.Client {
	return s.redisClient
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return domain.NewStoreError(BackendRedis, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (verdict.Verdict, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	raw, err := s.redisClient.Get(ctx, fmt.Sprintf(VerdictKeyPattern, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return verdict.Verdict{}, false, nil
		}
		return verdict.Verdict{}, false, domain.NewStoreError(BackendRedis, err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("discarding undecodable cached verdict")
		return verdict.Verdict{}, false, nil
	}
	return e.verdict(), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, v verdict.Verdict, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := json.Marshal(newEntry(v))
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	if err := s.redisClient.Set(ctx, fmt.Sprintf(VerdictKeyPattern, key), data, ttl).Err(); err != nil {
		return domain.NewStoreError(BackendRedis, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redisClient.Close()
}
