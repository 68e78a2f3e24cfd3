// Package session provides the key/value session stores the captcha core
// keeps its counters and answer hash in, plus the HTTP middleware that binds
// a request to a session ID.
package session

import (
	"context"
	"errors"
)

// Store 会话存储接口，按会话 ID 隔离的字符串键值
type Store interface {
	// Get 获取值，不存在时 ok 为 false
	Get(ctx context.Context, sid, key string) (value string, ok bool, err error)

	// Set 设置值
	Set(ctx context.Context, sid, key, value string) error

	// Delete 删除值，不存在时不报错
	Delete(ctx context.Context, sid, key string) error
}

// Incrementer 可选接口：原子地增加整数值并返回新值
// 并发请求同一会话时，计数依赖该接口保证不丢失
type Incrementer interface {
	Incr(ctx context.Context, sid, key string, delta int64) (int64, error)
}

var (
	ErrEmptySessionID = errors.New("session id is empty")
	ErrNotInteger     = errors.New("session value is not an integer")
	ErrStoreClosed    = errors.New("session store closed")
)
