package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetJSON decodes the value at key into dst. A value that no longer decodes
// is reported as a miss.
func GetJSON(ctx context.Context, kv KVStore, key string, dst any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return ErrCacheMiss
	}
	return nil
}

func SetJSON(ctx context.Context, kv KVStore, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return kv.Set(ctx, key, string(raw), ttl)
}
