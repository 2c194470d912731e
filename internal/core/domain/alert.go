package domain

import (
	"fmt"
	"time"
)

// Channel identifies a notification delivery channel.
type Channel string

// Supported notification channels.
const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
)

// ParseChannel converts a string to a Channel.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSMS, ChannelEmail, ChannelSlack:
		return Channel(s), nil
	default:
		return "", fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, s)
	}
}

// DeliveryState tracks delivery progress on a single channel.
type DeliveryState int

// Per-channel delivery states. A delivery is terminal once it reaches
// DeliveryDelivered or DeliveryFailed.
const (
	DeliveryPending DeliveryState = iota
	DeliveryInFlight
	DeliveryDelivered
	DeliveryFailed
)

// String returns the delivery state label.
func (s DeliveryState) String() string {
	switch s {
	case DeliveryPending:
		return "pending"
	case DeliveryInFlight:
		return "in-flight"
	case DeliveryDelivered:
		return "delivered"
	case DeliveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChannelDelivery records delivery progress for one channel of an event.
type ChannelDelivery struct {
	// Channel is the target channel.
	Channel Channel

	// State is the current delivery state.
	State DeliveryState

	// Attempts is the number of send attempts made so far.
	Attempts int

	// LastError holds the most recent send error, if any.
	LastError string

	// UpdatedAt is when the state last changed.
	UpdatedAt time.Time
}

// AlertEvent is created when an assessment crosses the alert threshold.
// It is terminal once every channel delivery resolves.
type AlertEvent struct {
	// ID is the unique event identifier.
	ID string

	// DocumentID identifies the document that triggered the alert.
	DocumentID string

	// Revision is the document revision that was assessed.
	Revision int

	// Tier is the risk tier at firing time.
	Tier RiskTier

	// DedupKey suppresses repeat alerts for an unchanged assessment.
	DedupKey string

	// Jurisdictions are the tags on the triggering assessment.
	Jurisdictions []JurisdictionTag

	// Message is the rendered notification text.
	Message string

	// Deliveries holds per-channel delivery status.
	Deliveries []ChannelDelivery

	// CreatedAt is when the dispatcher fired the event.
	CreatedAt time.Time
}

// Channels returns the channels this event targets.
func (e *AlertEvent) Channels() []Channel {
	channels := make([]Channel, len(e.Deliveries))
	for i := range e.Deliveries {
		channels[i] = e.Deliveries[i].Channel
	}
	return channels
}

// Resolved reports whether every channel delivery reached a terminal state.
func (e *AlertEvent) Resolved() bool {
	for i := range e.Deliveries {
		switch e.Deliveries[i].State {
		case DeliveryDelivered, DeliveryFailed:
		default:
			return false
		}
	}
	return true
}

// AlertDedupKey derives the identity used to suppress duplicate alerts.
// Repeated evaluations of an unchanged (document, tier) pair share a key.
func AlertDedupKey(documentID string, tier RiskTier) string {
	return fmt.Sprintf("%s:%s", documentID, tier)
}
