package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheGetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client)

	mock.ExpectGet("ride:1").RedisNil()

	var dest map[string]string
	err := c.Get(context.Background(), "ride:1", &dest)
	assert.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheSetGetJSON(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client)
	ctx := context.Background()

	mock.ExpectSet("ride:1", []byte(`{"status":"pending"}`), time.Minute).SetVal("OK")
	mock.ExpectGet("ride:1").SetVal(`{"status":"pending"}`)

	require.NoError(t, c.Set(ctx, "ride:1", map[string]string{"status": "pending"}, time.Minute))

	var dest map[string]string
	require.NoError(t, c.Get(ctx, "ride:1", &dest))
	assert.Equal(t, "pending", dest["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCachePublishJSON(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client)

	mock.ExpectPublish("ride_events:1", []byte(`{"type":"ride_accepted"}`)).SetVal(1)

	require.NoError(t, c.Publish(context.Background(), "ride_events:1", map[string]string{"type": "ride_accepted"}))
	require.NoError(t, mock.ExpectationsWereMet())
}
