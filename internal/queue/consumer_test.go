package queue

import (
    "context"
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/special-academy-api/internal/model"
    "github.com/iliyamo/special-academy-api/internal/repository"
)

func TestHandleMessageStoresRecord(t *testing.T) {
    store := repository.NewMemoryStore()
    at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
    ev := NewActivityLoggedEvent(model.ActivityLog{
        ID: "log-1", AdminID: "admin-1", Action: model.ActionDelete, Entity: model.EntityItem,
        EntityID: "item-9", Timestamp: at, Device: "Chrome 120.0 / Linux x86_64", IPAddress: "10.1.1.1",
    })
    body, err := json.Marshal(ev)
    require.NoError(t, err)

    require.NoError(t, handleMessage(context.Background(), body, store.ActivityLogs, time.Second))

    logs, err := store.ActivityLogs.List(context.Background(), repository.ActivityFilter{})
    require.NoError(t, err)
    require.Len(t, logs, 1)
    assert.Equal(t, "log-1", logs[0].ID)
    assert.Equal(t, "item-9", logs[0].EntityID)
    assert.True(t, at.Equal(logs[0].Timestamp))

    // redelivery of the same event is acknowledged without a second row
    require.NoError(t, handleMessage(context.Background(), body, store.ActivityLogs, time.Second))
    n, err := store.ActivityLogs.Count(context.Background(), repository.ActivityFilter{})
    require.NoError(t, err)
    assert.EqualValues(t, 1, n)
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
    store := repository.NewMemoryStore()
    ctx := context.Background()

    assert.Error(t, handleMessage(ctx, []byte("not json"), store.ActivityLogs, time.Second))
    assert.Error(t, handleMessage(ctx, []byte(`{"action":"purge","entity":"item"}`), store.ActivityLogs, time.Second))
    assert.Error(t, handleMessage(ctx, []byte(`{"action":"create","entity":"movie"}`), store.ActivityLogs, time.Second))

    n, err := store.ActivityLogs.Count(ctx, repository.ActivityFilter{})
    require.NoError(t, err)
    assert.Zero(t, n)
}

func TestEventRecordDefaultsTimestamp(t *testing.T) {
    rec := ActivityLoggedEvent{Action: model.ActionLogin, Entity: model.EntityUser}.Record()
    assert.False(t, rec.Timestamp.IsZero())
}

func TestStartActivityConsumerStopsOnCancel(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    err := StartActivityConsumer(ctx, ConsumerOptions{URL: "amqp://127.0.0.1:1/", Queue: "q"}, repository.NewMemoryStore().ActivityLogs, zap.NewNop())
    assert.ErrorIs(t, err, context.Canceled)
}
