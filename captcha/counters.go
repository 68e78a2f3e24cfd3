package captcha

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/leeforge/captchakit/errors"
	"github.com/leeforge/captchakit/session"
)

// 会话内的键名，实际存储为 "<namespace>.<name>"
const (
	keyResponse     = "response"
	keyValidCount   = "valid_count"
	keyInvalidCount = "invalid_count"
)

// CounterStore reads and writes one session's counters and stored answer hash.
// Absent counters read as 0. Failures are store errors.
type CounterStore interface {
	Counter(ctx context.Context, namespace, name string) (int, error)
	SetCounter(ctx context.Context, namespace, name string, value int) error
	DeleteCounter(ctx context.Context, namespace, name string) error
	IncrCounter(ctx context.Context, namespace, name string) (int, error)

	StoredHash(ctx context.Context, namespace string) (string, bool, error)
	SetStoredHash(ctx context.Context, namespace, hash string) error
	DeleteStoredHash(ctx context.Context, namespace string) error
}

// SessionCounters adapts a session.Store to CounterStore for a single session ID.
type SessionCounters struct {
	store session.Store
	sid   string
}

func NewSessionCounters(store session.Store, sid string) *SessionCounters {
	return &SessionCounters{store: store, sid: sid}
}

func scopedKey(namespace, name string) string {
	return namespace + "." + name
}

func (c *SessionCounters) Counter(ctx context.Context, namespace, name string) (int, error) {
	raw, ok, err := c.store.Get(ctx, c.sid, scopedKey(namespace, name))
	if err != nil {
		return 0, errors.NewStore("get", err)
	}
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewStore("get", session.ErrNotInteger).WithDetail("key", scopedKey(namespace, name))
	}
	return n, nil
}

// SetCounter deletes the counter when value < 1.
func (c *SessionCounters) SetCounter(ctx context.Context, namespace, name string, value int) error {
	if value < 1 {
		return c.DeleteCounter(ctx, namespace, name)
	}
	if err := c.store.Set(ctx, c.sid, scopedKey(namespace, name), strconv.Itoa(value)); err != nil {
		return errors.NewStore("set", err)
	}
	return nil
}

func (c *SessionCounters) DeleteCounter(ctx context.Context, namespace, name string) error {
	if err := c.store.Delete(ctx, c.sid, scopedKey(namespace, name)); err != nil {
		return errors.NewStore("delete", err)
	}
	return nil
}

// IncrCounter is atomic when the store implements session.Incrementer.
func (c *SessionCounters) IncrCounter(ctx context.Context, namespace, name string) (int, error) {
	if inc, ok := c.store.(session.Incrementer); ok {
		n, err := inc.Incr(ctx, c.sid, scopedKey(namespace, name), 1)
		if err != nil {
			return 0, errors.NewStore("incr", err)
		}
		return int(n), nil
	}

	n, err := c.Counter(ctx, namespace, name)
	if err != nil {
		return 0, err
	}
	n++
	if err := c.SetCounter(ctx, namespace, name, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *SessionCounters) StoredHash(ctx context.Context, namespace string) (string, bool, error) {
	hash, ok, err := c.store.Get(ctx, c.sid, scopedKey(namespace, keyResponse))
	if err != nil {
		return "", false, errors.NewStore("get", err)
	}
	if !ok || hash == "" {
		return "", false, nil
	}
	return hash, true, nil
}

func (c *SessionCounters) SetStoredHash(ctx context.Context, namespace, hash string) error {
	if err := c.store.Set(ctx, c.sid, scopedKey(namespace, keyResponse), hash); err != nil {
		return errors.NewStore("set", err)
	}
	return nil
}

func (c *SessionCounters) DeleteStoredHash(ctx context.Context, namespace string) error {
	if err := c.store.Delete(ctx, c.sid, scopedKey(namespace, keyResponse)); err != nil {
		return errors.NewStore("delete", err)
	}
	return nil
}

// isStoreError reports whether err came from the session store.
func isStoreError(err error) bool {
	return err != nil && stderrors.Is(err, errors.ErrStore)
}
