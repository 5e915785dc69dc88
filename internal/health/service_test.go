package health

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads []HealthUpdatePayload
}

func (b *recordingBroadcaster) Broadcast(msgType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msgType == TypeHealthUpdated {
		b.payloads = append(b.payloads, payload.(HealthUpdatePayload))
	}
	return nil
}

func TestService_StatusTransitions(t *testing.T) {
	svc := NewService(zerolog.Nop())
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)

	svc.RegisterItem(CategoryUpstream, "tmdb", "TMDB")
	assert.True(t, svc.IsHealthy(CategoryUpstream, "tmdb"))
	assert.Equal(t, StatusOK, svc.GetAll().Status)

	svc.SetWarning(CategoryUpstream, "tmdb", "slow")
	assert.Equal(t, StatusWarning, svc.GetAll().Status)

	svc.SetError(CategoryUpstream, "tmdb", "down")
	item := svc.GetItem(CategoryUpstream, "tmdb")
	require.NotNil(t, item)
	assert.Equal(t, StatusError, item.Status)
	assert.NotNil(t, item.Timestamp)
	assert.Equal(t, StatusError, svc.GetAll().Status)

	// Repeating the same status does not broadcast again.
	svc.SetError(CategoryUpstream, "tmdb", "down")

	svc.ClearStatus(CategoryUpstream, "tmdb")
	assert.True(t, svc.IsHealthy(CategoryUpstream, "tmdb"))

	require.Len(t, b.payloads, 3)
	assert.Equal(t, StatusWarning, b.payloads[0].Status)
	assert.Equal(t, StatusError, b.payloads[1].Status)
	assert.Equal(t, StatusOK, b.payloads[2].Status)
}

func TestService_UnregisteredItemIgnored(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.SetError(CategoryStorage, "missing", "boom")
	assert.Nil(t, svc.GetItem(CategoryStorage, "missing"))
	assert.False(t, svc.IsHealthy(CategoryStorage, "missing"))
}

func TestHealthItem_MarshalOmitsMessageWhenOK(t *testing.T) {
	data, err := json.Marshal(HealthItem{ID: "a", Status: StatusOK, Message: "stale"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestChecker_Run(t *testing.T) {
	svc := NewService(zerolog.Nop())
	failing := errors.New("connection refused")

	checker := NewChecker(svc,
		Probe{Category: CategoryUpstream, ID: "tmdb", Name: "TMDB", Check: func(context.Context) error { return failing }},
		Probe{Category: CategoryStorage, ID: "sqlite", Name: "Search counters", Check: func(context.Context) error { return nil }},
	)

	err := checker.Run(context.Background())
	assert.ErrorIs(t, err, failing)

	resp := svc.GetAll()
	assert.Equal(t, StatusError, resp.Status)
	require.Len(t, resp.Upstream, 1)
	assert.Equal(t, "connection refused", resp.Upstream[0].Message)
	require.Len(t, resp.Storage, 1)
	assert.Equal(t, StatusOK, resp.Storage[0].Status)
}
