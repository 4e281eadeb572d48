package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestUpdateFromHeaders_NoRedisNeededForInvalidHeaders(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())

	tests := []struct {
		name        string
		headers     http.Header
		shouldError bool
	}{
		{name: "no budget headers", headers: http.Header{}, shouldError: false},
		{name: "invalid remain", headers: http.Header{HeaderRemaining: {"x"}, HeaderReset: {"60"}}, shouldError: true},
		{name: "invalid reset", headers: http.Header{HeaderRemaining: {"5"}, HeaderReset: {"x"}}, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tracker.UpdateFromHeaders(context.Background(), tt.headers)
			if (err != nil) != tt.shouldError {
				t.Errorf("UpdateFromHeaders() error = %v, shouldError %v", err, tt.shouldError)
			}
		})
	}
}

func TestTracker_DefaultStateIsHealthy(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !state.IsHealthy {
		t.Error("default state should be healthy")
	}

	allowed, err := tracker.ShouldAllowRequest(context.Background())
	if err != nil || !allowed {
		t.Errorf("ShouldAllowRequest() = (%v, %v), want (true, nil)", allowed, err)
	}
}

func TestTracker_RoundTrip(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{}
	headers.Set(HeaderRemaining, "25")
	headers.Set(HeaderReset, "40")
	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders: %v", err)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state.Remaining != 25 {
		t.Errorf("Remaining = %d, want 25", state.Remaining)
	}
	if state.IsHealthy {
		t.Error("25 remaining is below the healthy threshold")
	}
	if d := state.TimeUntilReset(); d <= 0 || d > 41*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~40s", d)
	}
}

func TestTracker_BlocksWhenCritical(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, zerolog.Nop())
	ctx := context.Background()

	now := time.Now()
	lastUpdate, _ := json.Marshal(now)
	redisClient.Set(ctx, RedisKeyRemaining, 1, 0)
	redisClient.Set(ctx, RedisKeyResetTimestamp, now.Add(time.Minute).Unix(), 0)
	redisClient.Set(ctx, RedisKeyLastUpdate, lastUpdate, 0)

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest: %v", err)
	}
	if allowed {
		t.Error("request should be blocked")
	}
}

func TestTracker_ThrottleHonoursContext(t *testing.T) {
	redisClient := setupTestRedis(t)
	tracker := NewTracker(redisClient, zerolog.Nop())
	tracker.SetThrottleDelay(time.Hour)

	now := time.Now()
	lastUpdate, _ := json.Marshal(now)
	bg := context.Background()
	redisClient.Set(bg, RedisKeyRemaining, 5, 0)
	redisClient.Set(bg, RedisKeyResetTimestamp, now.Add(time.Minute).Unix(), 0)
	redisClient.Set(bg, RedisKeyLastUpdate, lastUpdate, 0)

	ctx, cancel := context.WithTimeout(bg, 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	allowed, err := tracker.ShouldAllowRequest(ctx)
	if allowed || err == nil {
		t.Errorf("ShouldAllowRequest() = (%v, %v), want (false, context error)", allowed, err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("throttle wait ignored context cancellation")
	}
}
