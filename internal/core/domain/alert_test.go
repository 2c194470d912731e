package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlertDedupKey(t *testing.T) {
	key := AlertDedupKey("doc-1", TierHigh)
	assert.Equal(t, "doc-1:High", key)

	// Same document at a different tier is a different identity.
	assert.NotEqual(t, key, AlertDedupKey("doc-1", TierMedium))
	assert.NotEqual(t, key, AlertDedupKey("doc-2", TierHigh))
}

func TestAlertEventResolved(t *testing.T) {
	event := &AlertEvent{
		Deliveries: []ChannelDelivery{
			{Channel: ChannelSlack, State: DeliveryDelivered},
			{Channel: ChannelEmail, State: DeliveryPending},
		},
	}
	assert.False(t, event.Resolved())

	event.Deliveries[1].State = DeliveryFailed
	assert.True(t, event.Resolved())
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("slack")
	assert.NoError(t, err)
	assert.Equal(t, ChannelSlack, ch)

	_, err = ParseChannel("pager")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDocumentID(t *testing.T) {
	a := DocumentID("feed://sec/1")
	b := DocumentID("feed://sec/1")
	c := DocumentID("feed://sec/2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("filing text"), ContentHash("filing text"))
	assert.NotEqual(t, ContentHash("filing text"), ContentHash("amended filing text"))
}
