package events_test

import (
	"context"
	"testing"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/logger"
	"ticketly/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisCacheIntegration exercises the event cache against a real Redis
// container.
func TestRedisCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	cache := events.NewRedisCache(client, 30*time.Second, logger.NewLogger())

	event := &models.Event{
		ID:             "event-1",
		Title:          "Jazz Night",
		TotalSeats:     100,
		AvailableSeats: 42,
		Status:         models.EventStatusActive,
	}

	// Detail round trip
	_, ok := cache.GetEvent(ctx, event.ID)
	assert.False(t, ok, "Expected a miss before caching")

	cache.SetEvent(ctx, event)
	got, ok := cache.GetEvent(ctx, event.ID)
	require.True(t, ok)
	assert.Equal(t, 42, got.AvailableSeats)

	// List round trip
	list := &models.EventList{Events: []models.Event{*event}, Total: 1, TotalPages: 1, CurrentPage: 1}
	cache.SetList(ctx, "events:list:active:1:10:date", list)
	gotList, ok := cache.GetList(ctx, "events:list:active:1:10:date")
	require.True(t, ok)
	assert.Equal(t, 1, gotList.Total)

	// Invalidate drops the detail and every tracked list
	cache.Invalidate(ctx, event.ID)

	_, ok = cache.GetEvent(ctx, event.ID)
	assert.False(t, ok, "Expected detail to be dropped after invalidation")
	_, ok = cache.GetList(ctx, "events:list:active:1:10:date")
	assert.False(t, ok, "Expected list to be dropped after invalidation")
}
