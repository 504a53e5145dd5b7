//go:build integration

package redisstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/conejoswing/restoeasy/internal/domain/channel"
	"github.com/conejoswing/restoeasy/internal/domain/order"
)

var testClient *redis.Client

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start redis: %v", err)
	}
	defer func() { _ = ctr.Terminate(context.Background()) }()

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		log.Fatalf("endpoint: %v", err)
	}
	testClient, err = NewClient(ctx, fmt.Sprintf("redis://%s/0", endpoint))
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	defer func() { _ = testClient.Close() }()

	return m.Run()
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient, time.Minute)

	empty, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty.Pending)
	assert.Empty(t, empty.Status)

	sess := channel.Session{
		Current: []order.LineItem{{ID: "l1", Name: "Completo", Quantity: 1, FinalPrice: decimal.NewFromInt(4000)}},
		Pending: []order.PendingGroup{{Number: 4, TipAmount: decimal.NewFromInt(400), TipIncluded: true}},
	}
	require.NoError(t, s.Save(ctx, "7", sess))
	require.NoError(t, s.SaveStatus(ctx, "7", channel.StatusOccupied))

	got, err := s.Load(ctx, "7")
	require.NoError(t, err)
	require.Len(t, got.Current, 1)
	assert.True(t, got.Current[0].FinalPrice.Equal(decimal.NewFromInt(4000)))
	require.Len(t, got.Pending, 1)
	assert.True(t, got.Pending[0].TipAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, channel.StatusOccupied, got.Status)

	ttl, err := testClient.TTL(ctx, s.sessionKey("7")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(testClient)

	events, err := n.Subscribe(ctx)
	require.NoError(t, err)

	e := channel.Event{ChannelID: "delivery", Status: channel.StatusAvailable}
	require.NoError(t, n.Publish(ctx, e))

	select {
	case got := <-events:
		assert.Equal(t, e, got)
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}

	cancel()
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not closed")
	}
}
