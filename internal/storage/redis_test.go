package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "")
	t.Cleanup(store.Close)
	return store, mr
}

func TestRedisStoreMissingKeyIsNotFound(t *testing.T) {
	store, _ := newTestRedisStore(t)

	if _, err := store.GetState(context.Background(), "Powerball"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("缺失键应返回 ErrNotFound, 实际 %v", err)
	}
	got, err := LoadAmount(context.Background(), store, "Powerball")
	if err != nil || got != 0 {
		t.Fatalf("缺失键应视为 0: %v %v", got, err)
	}
}

func TestRedisStoreRoundTripUsesPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)
	want := FeedState{AmountMillions: 1550, ObservedAt: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}

	if err := store.PutState(ctx, "Mega Millions", want); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if !mr.Exists(defaultRedisPrefix + "Mega Millions") {
		t.Fatal("键应带默认前缀")
	}
	if ttl := mr.TTL(defaultRedisPrefix + "Mega Millions"); ttl != 0 {
		t.Fatalf("状态键不应过期, 实际 TTL %v", ttl)
	}

	got, err := store.GetState(ctx, "Mega Millions")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if got.AmountMillions != 1550 || !got.ObservedAt.Equal(want.ObservedAt) {
		t.Fatalf("读取结果不正确: %#v", got)
	}
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t)
	if err := mr.Set(defaultRedisPrefix+"Powerball", "not json"); err != nil {
		t.Fatalf("预置数据失败: %v", err)
	}
	if _, err := store.GetState(context.Background(), "Powerball"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("损坏的值应返回解码错误, 实际 %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.GetState(context.Background(), "Powerball")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("连接失败不应视为缺失键, 实际 %v", err)
	}
}
