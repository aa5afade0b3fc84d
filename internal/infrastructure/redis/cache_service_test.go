package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestCacheService(t *testing.T) {
	ctx := context.Background()

	t.Run("命中时应该反序列化", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "pm:")
		mock.ExpectGet("pm:user:id:1").SetVal(`{"id":1,"name":"alice"}`)

		var item cachedItem
		err := cache.Get(ctx, "user:id:1", &item)

		require.NoError(t, err)
		assert.Equal(t, cachedItem{ID: 1, Name: "alice"}, item)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("未命中返回ErrCacheMiss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "pm:")
		mock.ExpectGet("pm:tags:public").RedisNil()

		var item cachedItem
		err := cache.Get(ctx, "tags:public", &item)

		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Redis错误应该包装返回", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "pm:")
		mock.ExpectGet("pm:k").SetErr(errors.New("connection refused"))

		var item cachedItem
		err := cache.Get(ctx, "k", &item)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Set应该写入JSON和TTL", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "pm:")
		mock.ExpectSet("pm:user:id:2", []byte(`{"id":2,"name":"bob"}`), 5*time.Minute).SetVal("OK")

		err := cache.Set(ctx, "user:id:2", cachedItem{ID: 2, Name: "bob"}, 5*time.Minute)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete应该加前缀批量删除", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "pm:")
		mock.ExpectDel("pm:a", "pm:b").SetVal(2)

		err := cache.Delete(ctx, "a", "b")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete空列表不访问Redis", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "pm:")

		assert.NoError(t, cache.Delete(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ping", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewCacheService(client, "")
		mock.ExpectPing().SetVal("PONG")

		assert.NoError(t, cache.Ping(ctx))
	})
}
