package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"creditgw/internal/audit"
)

const defaultKey = "creditgw:credit_log"

// CreditLog keeps the audit log as a capped Redis list, oldest first.
type CreditLog struct {
	client   *goredis.Client
	key      string
	max      int
	addr     string
	password string
	db       int
}

type Option func(*CreditLog)

func WithPassword(password string) Option {
	return func(s *CreditLog) { s.password = password }
}

func WithDB(db int) Option {
	return func(s *CreditLog) { s.db = db }
}

func WithKey(key string) Option {
	return func(s *CreditLog) {
		if strings.TrimSpace(key) != "" {
			s.key = strings.TrimSpace(key)
		}
	}
}

func WithClient(client *goredis.Client) Option {
	return func(s *CreditLog) {
		if client != nil {
			s.client = client
		}
	}
}

// New connects to addr, retrying the initial ping with exponential backoff for up to
// maxWait.
func New(ctx context.Context, addr string, maxWait time.Duration, opts ...Option) (*CreditLog, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	s := &CreditLog{key: defaultKey, max: audit.MaxEntries, addr: addr}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     s.addr,
			Password: s.password,
			DB:       s.db,
		})
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	ping := func() error { return s.client.Ping(ctx).Err() }
	notify := func(err error, next time.Duration) {
		log.Warn().Err(err).Str("addr", s.addr).Dur("retry_in", next).Msg("redis not ready")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return s, nil
}

func (s *CreditLog) Close() error { return s.client.Close() }

func (s *CreditLog) Append(ctx context.Context, e audit.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, raw)
	pipe.LTrim(ctx, s.key, int64(-s.max), -1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *CreditLog) List(ctx context.Context, limit int, since time.Time) ([]audit.Entry, error) {
	raws, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil && err != goredis.Nil {
		return nil, err
	}
	out := make([]audit.Entry, 0, len(raws))
	for _, raw := range raws {
		var e audit.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return audit.Tail(out, limit, since), nil
}

func (s *CreditLog) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *CreditLog) Trim(ctx context.Context, max int) error {
	if max <= 0 {
		return s.Clear(ctx)
	}
	return s.client.LTrim(ctx, s.key, int64(-max), -1).Err()
}
