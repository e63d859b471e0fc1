package config

import (
	"fmt"
	"time"
)

type Config struct {
	ServerAddr     string
	RedisURL       string
	RoomTTL        time.Duration
	AllowedOrigins []string
}

// NewConfig validates the raw flag values. RedisURL may be empty: the process
// then runs on the in-memory store only.
func NewConfig(serverAddr, redisURL string, roomTTL time.Duration, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if roomTTL <= 0 {
		return nil, fmt.Errorf("room ttl must be positive")
	}

	return &Config{
		ServerAddr:     serverAddr,
		RedisURL:       redisURL,
		RoomTTL:        roomTTL,
		AllowedOrigins: allowedOrigins,
	}, nil
}
