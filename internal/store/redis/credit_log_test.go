package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgw/internal/audit"
)

func TestNewRequiresAddr(t *testing.T) {
	_, err := New(context.Background(), " ", time.Second)
	assert.Error(t, err)
}

func TestNewGivesUpOnUnreachableServer(t *testing.T) {
	_, err := New(context.Background(), "127.0.0.1:1", 300*time.Millisecond)
	assert.Error(t, err)
}

func TestNewUsesInjectedClient(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	_, err := New(context.Background(), "127.0.0.1:6379", 300*time.Millisecond, WithClient(client))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

// Runs against a real server when TEST_REDIS_ADDR is set.
func TestCreditLogRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	s, err := New(ctx, addr, 5*time.Second, WithClient(client), WithKey("creditgw:test:"+uuid.NewString()))
	require.NoError(t, err)
	defer s.Close()
	defer func() { _ = s.Clear(ctx) }()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, audit.Entry{
			ID:      fmt.Sprintf("e-%d", i),
			TS:      base.Add(time.Duration(i) * time.Second),
			Level:   audit.LevelInfo,
			Source:  "test",
			Message: "entry",
			Payload: map[string]any{"i": i},
		}))
	}

	got, err := s.List(ctx, 2, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e-3", got[0].ID)
	assert.Equal(t, "e-4", got[1].ID)

	got, err = s.List(ctx, 0, base.Add(3*time.Second))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, s.Trim(ctx, 1))
	got, err = s.List(ctx, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e-4", got[0].ID)

	require.NoError(t, s.Clear(ctx))
	got, err = s.List(ctx, 0, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
