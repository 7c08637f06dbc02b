package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	m       map[string]string
	ttl     time.Duration
	deleted []string
	err     error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.m[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.m[key], f.ttl = value.(string), exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.m, k)
	}
	f.deleted = append(f.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestSlugs_RoundTrip(t *testing.T) {
	t.Parallel()
	r := &fakeRedis{m: map[string]string{}}
	s := &Slugs{rdb: r, ttl: time.Minute}
	ctx := context.Background()

	if _, ok := s.Get(ctx, "sea-ray"); ok {
		t.Fatalf("empty cache reported a hit")
	}
	s.Set(ctx, "sea-ray", "l-1")
	if r.ttl != time.Minute {
		t.Fatalf("ttl got=%v want=1m", r.ttl)
	}
	if id, ok := s.Get(ctx, "sea-ray"); !ok || id != "l-1" {
		t.Fatalf("get got=%s,%v", id, ok)
	}
	s.Delete(ctx, "sea-ray", "old-sea-ray")
	if _, ok := s.Get(ctx, "sea-ray"); ok {
		t.Fatalf("deleted slug still cached")
	}
	if len(r.deleted) != 2 || r.deleted[1] != keyPrefix+"old-sea-ray" {
		t.Fatalf("deleted got=%v", r.deleted)
	}
}

func TestSlugs_ErrorIsMiss(t *testing.T) {
	t.Parallel()
	s := &Slugs{rdb: &fakeRedis{m: map[string]string{"x": "y"}, err: errors.New("conn reset")}}
	if _, ok := s.Get(context.Background(), "x"); ok {
		t.Fatalf("error should read as a miss")
	}
}
