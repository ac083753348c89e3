package redisstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/session/redisstore"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/stretchr/testify/require"
)

// These tests need a reachable Redis, e.g. REDIS_ADDR=localhost:6379.
func newStorage(t *testing.T) *redisstore.RedisStorage {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := redisstore.Dial(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return redisstore.New(client, "portal-test:"+uuid.NewString()+":")
}

func TestRedisSaveLoadClear(t *testing.T) {
	rs := newStorage(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = rs.Clear(ctx) })

	rec, err := rs.Load(ctx)
	require.NoError(t, err)
	require.True(t, rec.Empty())

	want := session.Record{Token: "t1", User: &users.User{ID: "stu-1", Role: users.RoleStudent}}
	require.NoError(t, rs.Save(ctx, want))

	got, err := rs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, rs.Clear(ctx))
	got, err = rs.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.Empty())
	require.Nil(t, got.User)
}

func TestRedisSaveWithoutUserDropsCachedUser(t *testing.T) {
	rs := newStorage(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = rs.Clear(ctx) })

	require.NoError(t, rs.Save(ctx, session.Record{Token: "t1", User: &users.User{ID: "stu-1", Role: users.RoleStudent}}))
	require.NoError(t, rs.Save(ctx, session.Record{Token: "t2"}))

	got, err := rs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "t2", got.Token)
	require.Nil(t, got.User)
}

func TestRedisSaveRequiresToken(t *testing.T) {
	rs := redisstore.New(nil, "")
	require.Error(t, rs.Save(context.Background(), session.Record{}))
}
