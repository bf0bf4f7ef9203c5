//go:build integration

package cache

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a throwaway Redis for the test.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		client.Close()
		container.Terminate(ctx)
	})

	return client
}

func TestManager_SetAndGet(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))
	ctx := context.Background()

	key := CacheKey{
		Endpoint:    "/pokemon",
		QueryParams: url.Values{"limit": {"24"}, "offset": {"0"}},
	}

	entry := &CacheEntry{
		Data:       []byte(`{"count": 1302}`),
		ETag:       `"abc123"`,
		Expires:    time.Now().Add(5 * time.Minute),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now(),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if string(retrieved.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", retrieved.Data, entry.Data)
	}
	if retrieved.ETag != entry.ETag {
		t.Errorf("ETag mismatch: got %s, want %s", retrieved.ETag, entry.ETag)
	}
	if retrieved.StatusCode != entry.StatusCode {
		t.Errorf("StatusCode mismatch: got %d, want %d", retrieved.StatusCode, entry.StatusCode)
	}
}

func TestManager_Get_CacheMiss(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))

	_, err := manager.Get(context.Background(), CacheKey{Endpoint: "/pokemon/missingno"})
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestManager_Set_ExpiredEntrySkipped(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/pokemon/1"}

	entry := &CacheEntry{
		Data:    []byte(`{"id": 1}`),
		Expires: time.Now().Add(-1 * time.Hour),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/pokemon/1"}

	entry := &CacheEntry{
		Data:    []byte(`{"id": 1}`),
		Expires: time.Now().Add(5 * time.Minute),
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_UpdateTTL(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/pokemon/1"}

	entry := &CacheEntry{
		Data:    []byte(`{"id": 1}`),
		Expires: time.Now().Add(5 * time.Minute),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	newExpires := time.Now().Add(10 * time.Minute)
	if err := manager.UpdateTTL(ctx, key, newExpires); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}

	retrieved, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after UpdateTTL failed: %v", err)
	}

	diff := retrieved.Expires.Sub(newExpires)
	if diff < -1*time.Second || diff > 1*time.Second {
		t.Errorf("Expires time not updated correctly: got %v, want %v (diff: %v)",
			retrieved.Expires, newExpires, diff)
	}
}

func TestManager_Set_NilEntry(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))

	if err := manager.Set(context.Background(), CacheKey{Endpoint: "/pokemon/1"}, nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}

func TestManager_Lookup_ReturnsStaleEntry(t *testing.T) {
	manager := NewManager(setupRedisContainer(t))
	ctx := context.Background()
	key := CacheKey{Endpoint: "/pokemon/25"}

	entry := &CacheEntry{
		Data:    []byte(`{"id": 25}`),
		ETag:    `"pika"`,
		Expires: time.Now().Add(1 * time.Second),
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	stale, err := manager.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !stale.IsExpired() {
		t.Error("expected the looked-up entry to be expired")
	}
	if stale.ETag != `"pika"` {
		t.Errorf("ETag = %s, want \"pika\"", stale.ETag)
	}

	// Get treats the stale entry as a miss without evicting it.
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get on stale entry = %v, want ErrCacheMiss", err)
	}
	if _, err := manager.Lookup(ctx, key); err != nil {
		t.Errorf("stale entry evicted by Get: %v", err)
	}
}
