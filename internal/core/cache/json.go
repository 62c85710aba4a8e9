package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetOrLoadJSON 在 Store 之上做 JSON 编解码；c 为 nil 时直接回源。
// 缓存里的值解不开（结构体改过字段）时当作未命中，删掉后重新回源。
func GetOrLoadJSON[T any](ctx context.Context, c Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	var (
		fresh  T
		loaded bool
	)
	fill := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		fresh, loaded = v, true
		return json.Marshal(v)
	}

	var zero T
	b, err := c.GetOrLoad(ctx, key, ttl, fill)
	if err != nil {
		return zero, err
	}
	if loaded {
		return fresh, nil
	}
	var out T
	if err := json.Unmarshal(b, &out); err == nil {
		return out, nil
	}
	if err := c.Del(ctx, key); err != nil {
		return zero, fmt.Errorf("drop undecodable %s: %w", key, err)
	}
	b, err = c.GetOrLoad(ctx, key, ttl, fill)
	if err != nil {
		return zero, err
	}
	if loaded {
		return fresh, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}
