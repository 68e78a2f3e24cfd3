package redis_client

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/captchakit/logging"
	"go.uber.org/zap"
)

const defaultPingTimeout = 3 * time.Second

// NewRedis 创建 Redis 客户端并检测连通性
func NewRedis(ctx context.Context, cnf Config, logger logging.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cnf.Addr(),
		Password:    cnf.Password,
		DB:          cnf.DB,
		PoolSize:    cnf.PoolSize,
		DialTimeout: cnf.DialTimeout,
	})

	timeout := cnf.DialTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cnf.Addr(), err)
	}

	logger.Info("redis连接成功", append([]zap.Field{zap.String("pong", pong)}, redisConfigLogFields(cnf)...)...)
	return client, nil
}

func redisConfigLogFields(cnf Config) []zap.Field {
	return []zap.Field{
		zap.String("addr", cnf.Addr()),
		zap.Int("db", cnf.DB),
		zap.String("password", redactedPassword(cnf.Password)),
	}
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
