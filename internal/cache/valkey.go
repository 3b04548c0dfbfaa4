package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrCacheMiss is returned when a key is absent
var ErrCacheMiss = errors.New("cache miss")

type Config struct {
	Addr     string
	Password string
	Prefix   string
	TripsTTL time.Duration
}

type ValkeyClient struct {
	client   rueidis.Client
	prefix   string
	tripsTTL time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      []string{cfg.Addr},
		Password:         cfg.Password,
		ConnWriteTimeout: 2 * time.Second,
		DisableCache:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	if cfg.TripsTTL <= 0 {
		cfg.TripsTTL = 30 * time.Second
	}

	return &ValkeyClient{
		client:   client,
		prefix:   cfg.Prefix,
		tripsTTL: cfg.TripsTTL,
	}, nil
}

func (v *ValkeyClient) key(parts ...string) string {
	return buildKey(v.prefix, parts...)
}

func buildKey(prefix string, parts ...string) string {
	k := prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (v *ValkeyClient) Close() {
	v.client.Close()
}
