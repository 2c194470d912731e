package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

func TestSendPostsPayload(t *testing.T) {
	var received payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("X-Request-Id", "req-42")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := New(Config{Endpoints: map[domain.Channel]string{
		domain.ChannelSlack: server.URL,
	}})

	result, err := notifier.Send(context.Background(), domain.ChannelSlack, "[HIGH] Document doc-1 scored 0.91.")
	require.NoError(t, err)

	assert.Equal(t, domain.ChannelSlack, result.Channel)
	assert.Equal(t, "req-42", result.ProviderID)
	assert.Equal(t, "slack", received.Channel)
	assert.Contains(t, received.Text, "doc-1")
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	notifier := New(Config{Endpoints: map[domain.Channel]string{
		domain.ChannelEmail: server.URL,
	}})

	_, err := notifier.Send(context.Background(), domain.ChannelEmail, "message")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}

func TestSendUnconfiguredChannel(t *testing.T) {
	notifier := New(Config{})
	_, err := notifier.Send(context.Background(), domain.ChannelSMS, "message")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}
