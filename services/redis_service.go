package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"stayops-http-service/config"

	"github.com/go-redis/redis/v8"
)

// InterfaceRedisService defines the Redis cache service interface
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheListingName(listingID uint, name string) error
	GetListingName(listingID uint) (string, error)
	MarkWebhookProcessed(provider, eventID string, expiration time.Duration) (bool, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheListingName caches a listing display name
func (s *RedisService) CacheListingName(listingID uint, name string) error {
	key := "listing_name:" + strconv.FormatUint(uint64(listingID), 10)
	return s.Client.Set(s.Ctx, key, name, 12*time.Hour).Err()
}

// GetListingName gets a listing display name from cache
func (s *RedisService) GetListingName(listingID uint) (string, error) {
	key := "listing_name:" + strconv.FormatUint(uint64(listingID), 10)
	return s.Client.Get(s.Ctx, key).Result()
}

// MarkWebhookProcessed records a webhook delivery and reports whether it was
// seen for the first time. Used to keep at-least-once vendor deliveries from
// re-running business logic.
func (s *RedisService) MarkWebhookProcessed(provider, eventID string, expiration time.Duration) (bool, error) {
	key := "webhook_seen:" + provider + ":" + eventID
	return s.Client.SetNX(s.Ctx, key, 1, expiration).Result()
}
