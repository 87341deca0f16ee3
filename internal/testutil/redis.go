//go:build integration

package testutil

import (
	"context"
	"testing"
)

// FlushDB empties one redis database
func FlushDB(t *testing.T, db int) {
	t.Helper()
	if err := RedisClient(t, db).FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flushing DB %d: %v", db, err)
	}
}

// WriteEntry writes one hash at table|key
func WriteEntry(t *testing.T, db int, table, key string, fields map[string]string) {
	t.Helper()
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	redisKey := table + "|" + key
	if err := RedisClient(t, db).HSet(context.Background(), redisKey, args...).Err(); err != nil {
		t.Fatalf("writing %s: %v", redisKey, err)
	}
}

// ReadEntry reads the hash at table|key
func ReadEntry(t *testing.T, db int, table, key string) map[string]string {
	t.Helper()
	redisKey := table + "|" + key
	vals, err := RedisClient(t, db).HGetAll(context.Background(), redisKey).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", redisKey, err)
	}
	return vals
}

// EntryExists reports whether table|key exists
func EntryExists(t *testing.T, db int, table, key string) bool {
	t.Helper()
	redisKey := table + "|" + key
	n, err := RedisClient(t, db).Exists(context.Background(), redisKey).Result()
	if err != nil {
		t.Fatalf("checking %s: %v", redisKey, err)
	}
	return n > 0
}

// KeyCount returns the number of keys in db
func KeyCount(t *testing.T, db int) int {
	t.Helper()
	n, err := RedisClient(t, db).DBSize(context.Background()).Result()
	if err != nil {
		t.Fatalf("counting keys in DB %d: %v", db, err)
	}
	return int(n)
}
