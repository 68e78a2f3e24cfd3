package session

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore 内存会话存储
// 每个会话的数据在最后一次写入后 ttl 过期，后台定期清理
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

type memorySession struct {
	values    map[string]string
	expiresAt time.Time
}

// NewMemoryStore 创建内存存储
// ttl <= 0 表示永不过期；cleanupInterval <= 0 表示不启动后台清理
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if ttl > 0 && cleanupInterval > 0 {
		go s.cleanupExpired(cleanupInterval)
	}

	return s
}

// Get 获取值
func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sid)
	if sess == nil {
		return "", false, nil
	}
	v, ok := sess.values[key]
	return v, ok, nil
}

// Set 设置值并刷新过期时间
func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	if sid == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(sid).values[key] = value
	return nil
}

// Delete 删除值
func (s *MemoryStore) Delete(_ context.Context, sid, key string) error {
	if sid == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.live(sid); sess != nil {
		delete(sess.values, key)
		if len(sess.values) == 0 {
			delete(s.sessions, sid)
		}
	}
	return nil
}

// Incr 在同一把锁内读取并写回，保证原子性
func (s *MemoryStore) Incr(_ context.Context, sid, key string, delta int64) (int64, error) {
	if sid == "" {
		return 0, ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(sid)
	var current int64
	if raw, ok := sess.values[key]; ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		current = n
	}
	current += delta
	sess.values[key] = strconv.FormatInt(current, 10)
	return current, nil
}

// Len 返回未过期的会话数
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for sid := range s.sessions {
		if s.live(sid) != nil {
			n++
		}
	}
	return n
}

// Close 停止后台清理
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// live 返回未过期的会话，已过期的顺便删除；调用方需持有锁
func (s *MemoryStore) live(sid string) *memorySession {
	sess, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	if s.ttl > 0 && s.now().After(sess.expiresAt) {
		delete(s.sessions, sid)
		return nil
	}
	return sess
}

// touch 返回会话（不存在则创建）并刷新过期时间；调用方需持有锁
func (s *MemoryStore) touch(sid string) *memorySession {
	sess := s.live(sid)
	if sess == nil {
		sess = &memorySession{values: make(map[string]string)}
		s.sessions[sid] = sess
	}
	if s.ttl > 0 {
		sess.expiresAt = s.now().Add(s.ttl)
	}
	return sess
}

// cleanupExpired 定期清理过期会话
func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			for sid := range s.sessions {
				s.live(sid)
			}
			s.mu.Unlock()
		}
	}
}

var (
	_ Store       = (*MemoryStore)(nil)
	_ Incrementer = (*MemoryStore)(nil)
)
