package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/redis/go-redis/v9"
)

var _ session.Storage = (*RedisStorage)(nil)

const (
	tokenKey = "token"
	userKey  = "user"
)

// RedisStorage keeps the token and the cached user under two keys sharing a prefix.
// Both keys are written and removed in one MULTI/EXEC transaction.
type RedisStorage struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "portal:session:"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

// Dial connects and pings the server before handing the client back.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisstore Dial] ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisStorage) key(name string) string {
	return r.prefix + name
}

func (r *RedisStorage) Load(ctx context.Context) (session.Record, error) {
	vals, err := r.client.MGet(ctx, r.key(tokenKey), r.key(userKey)).Result()
	if err != nil {
		return session.Record{}, fmt.Errorf("[redisstore Load] %w", err)
	}

	var rec session.Record
	if len(vals) > 0 && vals[0] != nil {
		token, ok := vals[0].(string)
		if !ok {
			return session.Record{}, fmt.Errorf("[redisstore Load] %w: token is %T", session.ErrCorruptRecord, vals[0])
		}
		rec.Token = token
	}
	if len(vals) > 1 && vals[1] != nil {
		raw, ok := vals[1].(string)
		if !ok {
			return session.Record{}, fmt.Errorf("[redisstore Load] %w: user is %T", session.ErrCorruptRecord, vals[1])
		}
		var u users.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return session.Record{}, fmt.Errorf("[redisstore Load] %w: %w", session.ErrCorruptRecord, err)
		}
		rec.User = &u
	}
	return rec, nil
}

func (r *RedisStorage) Save(ctx context.Context, rec session.Record) error {
	if rec.Token == "" {
		return errors.New("[redisstore Save] token is required")
	}

	var userJSON []byte
	if rec.User != nil {
		var err error
		if userJSON, err = json.Marshal(rec.User); err != nil {
			return fmt.Errorf("[redisstore Save] marshal user: %w", err)
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(tokenKey), rec.Token, 0)
		if userJSON != nil {
			pipe.Set(ctx, r.key(userKey), userJSON, 0)
		} else {
			pipe.Del(ctx, r.key(userKey))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[redisstore Save] %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(tokenKey), r.key(userKey)).Err(); err != nil {
		return fmt.Errorf("[redisstore Clear] %w", err)
	}
	return nil
}
