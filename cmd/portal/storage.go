package main

import (
	"context"
	"fmt"

	"github.com/jrsteele09/paramed-portal/internal/config"
	"github.com/jrsteele09/paramed-portal/session"
	"github.com/jrsteele09/paramed-portal/session/filestore"
	"github.com/jrsteele09/paramed-portal/session/memstore"
	"github.com/jrsteele09/paramed-portal/session/redisstore"
	"github.com/rs/zerolog/log"
)

// openStorage returns the durable session storage selected by SESSION_STORAGE and a
// function releasing it.
func openStorage(ctx context.Context, c config.SessionConfig) (session.Storage, func(), error) {
	switch c.GetSessionStorage() {
	case config.StorageFile:
		log.Info().Str("path", c.GetSessionFile()).Msg("session storage: file")
		return filestore.New(c.GetSessionFile()), func() {}, nil
	case config.StorageRedis:
		client, err := redisstore.Dial(ctx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", c.GetRedisAddr()).Str("prefix", c.GetRedisKeyPrefix()).Msg("session storage: redis")
		return redisstore.New(client, c.GetRedisKeyPrefix()), func() {
			if err := client.Close(); err != nil {
				log.Err(err).Msg("closing redis client")
			}
		}, nil
	case config.StorageMemory:
		log.Warn().Msg("session storage: memory, the session will not survive a restart")
		return memstore.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("[openStorage] unsupported session storage %q", c.GetSessionStorage())
}
