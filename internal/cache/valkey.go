package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"homerent/internal/models"
)

// ErrMiss - учётных данных нет в кеше
var ErrMiss = errors.New("credentials not cached")

type Config struct {
	Addr      string
	Password  string
	KeyPrefix string
	TTL       time.Duration
}

// ValkeyClient кеширует проверенные пары email/хеш пароля -> identity
type ValkeyClient struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return newValkeyClient(rdb, cfg), nil
}

func newValkeyClient(rdb *redis.Client, cfg Config) *ValkeyClient {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "users:auth"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	return &ValkeyClient{client: rdb, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}
}

func (v *ValkeyClient) key(email, passwordHash string) string {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	return v.keyPrefix + ":" + base64.StdEncoding.EncodeToString([]byte(authString))
}

// GetIdentity returns ErrMiss when the pair is unknown or expired
func (v *ValkeyClient) GetIdentity(ctx context.Context, email, passwordHash string) (models.Identity, error) {
	value, err := v.client.Get(ctx, v.key(email, passwordHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Identity{}, ErrMiss
		}
		return models.Identity{}, fmt.Errorf("cache lookup error: %w", err)
	}
	return decodeIdentity(value)
}

func (v *ValkeyClient) PutIdentity(ctx context.Context, email, passwordHash string, id models.Identity) error {
	if err := v.client.Set(ctx, v.key(email, passwordHash), encodeIdentity(id), v.ttl).Err(); err != nil {
		return fmt.Errorf("cache store error: %w", err)
	}
	return nil
}

func (v *ValkeyClient) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}

// формат значения: "<user_id>:<role>"
func encodeIdentity(id models.Identity) string {
	return strconv.FormatInt(id.UserID, 10) + ":" + string(id.Role)
}

func decodeIdentity(value string) (models.Identity, error) {
	idPart, rolePart, ok := strings.Cut(value, ":")
	if !ok {
		return models.Identity{}, fmt.Errorf("invalid cached identity %q", value)
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid user ID in cache: %w", err)
	}
	role, err := models.ParseRole(rolePart)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid role in cache: %w", err)
	}
	return models.Identity{UserID: userID, Role: role}, nil
}
