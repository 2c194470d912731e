package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
	"github.com/veridian-labs/reguard/internal/logger"
	"github.com/veridian-labs/reguard/internal/metrics"
)

// AlertPolicy controls when alerts fire and how they are delivered.
type AlertPolicy struct {
	// Threshold is the minimum tier that triggers an alert.
	Threshold domain.RiskTier

	// Channels are the delivery channels every alert fans out to.
	Channels []domain.Channel

	// Cooldown suppresses repeat alerts for the same (document, tier)
	// pair.
	Cooldown time.Duration

	// MaxAttempts bounds send attempts per channel per event.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry; it doubles on
	// each subsequent retry.
	InitialBackoff time.Duration

	// RatePerSecond caps outbound sends across all channels.
	// Zero disables rate limiting.
	RatePerSecond float64
}

// DefaultAlertPolicy returns the default dispatch policy.
func DefaultAlertPolicy() AlertPolicy {
	return AlertPolicy{
		Threshold:      domain.TierMedium,
		Channels:       []domain.Channel{domain.ChannelEmail, domain.ChannelSlack},
		Cooldown:       time.Hour,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		RatePerSecond:  10,
	}
}

// Validate checks the policy for internal consistency.
func (p AlertPolicy) Validate() error {
	if p.Threshold < domain.TierLow || p.Threshold > domain.TierHigh {
		return fmt.Errorf("%w: alert threshold %d out of range", domain.ErrInvalidInput, p.Threshold)
	}
	if len(p.Channels) == 0 {
		return fmt.Errorf("%w: alert policy needs at least one channel", domain.ErrInvalidInput)
	}
	seen := make(map[domain.Channel]bool, len(p.Channels))
	for _, ch := range p.Channels {
		if _, err := domain.ParseChannel(string(ch)); err != nil {
			return err
		}
		if seen[ch] {
			return fmt.Errorf("%w: duplicate channel %q", domain.ErrInvalidInput, ch)
		}
		seen[ch] = true
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", domain.ErrInvalidInput)
	}
	if p.Cooldown < 0 || p.InitialBackoff < 0 || p.RatePerSecond < 0 {
		return fmt.Errorf("%w: negative durations or rate in alert policy", domain.ErrInvalidInput)
	}
	return nil
}

// alertState is the dispatcher's per-document firing memory.
type alertState struct {
	lastTier     domain.RiskTier
	lastRevision int
	lastFired    time.Time
}

// DispatcherStats summarises dispatcher activity.
type DispatcherStats struct {
	Fired      int
	Suppressed int
	Delivered  int
	Failed     int
}

// AlertDispatcher turns threshold-crossing assessments into alert events
// and fans them out to the configured channels.
//
// Firing rules, per document:
//   - below threshold: no alert; a downgrade clears the cooldown window
//   - at/above threshold, no prior firing: fire
//   - same tier within the cooldown window and same revision: suppress
//   - tier increase, or a new revision at/above threshold: fire
type AlertDispatcher struct {
	notifier driven.Notifier
	store    driven.AlertStore
	policy   AlertPolicy
	limiter  *rate.Limiter

	mu     sync.Mutex
	states map[string]*alertState
	stats  DispatcherStats

	wg   sync.WaitGroup
	now  func() time.Time
	slep func(ctx context.Context, d time.Duration) error
}

// NewAlertDispatcher creates a dispatcher. The policy must be valid.
func NewAlertDispatcher(
	notifier driven.Notifier, store driven.AlertStore, policy AlertPolicy,
) (*AlertDispatcher, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if policy.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(policy.RatePerSecond), 1)
	}

	return &AlertDispatcher{
		notifier: notifier,
		store:    store,
		policy:   policy,
		limiter:  limiter,
		states:   make(map[string]*alertState),
		now:      time.Now,
		slep:     sleepCtx,
	}, nil
}

// Evaluate applies the firing rules to one assessment. When the rules
// say fire, the event is persisted and delivery starts in the
// background; the returned event reflects its initial pending state.
// A nil event with a nil error means the assessment was absorbed
// without firing.
func (d *AlertDispatcher) Evaluate(
	ctx context.Context, assessment *domain.RiskAssessment,
) (*domain.AlertEvent, error) {
	d.mu.Lock()
	fire := d.shouldFireLocked(assessment)
	if !fire {
		d.mu.Unlock()
		return nil, nil
	}
	d.states[assessment.DocumentID] = &alertState{
		lastTier:     assessment.Tier,
		lastRevision: assessment.Revision,
		lastFired:    d.now(),
	}
	d.stats.Fired++
	d.mu.Unlock()

	event := d.newEvent(assessment)
	if err := d.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("saving alert event: %w", err)
	}

	logger.Info("Alert fired for %s rev %d (%s)", event.DocumentID, event.Revision, event.Tier)
	tags := make([]string, len(assessment.Jurisdictions))
	for i, tag := range assessment.Jurisdictions {
		tags[i] = string(tag)
	}
	metrics.IncAlertFired(assessment.Tier.String(), tags)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(context.WithoutCancel(ctx), event)
	}()

	return event, nil
}

// shouldFireLocked decides firing and maintains per-document state.
// Callers hold d.mu.
func (d *AlertDispatcher) shouldFireLocked(a *domain.RiskAssessment) bool {
	state, known := d.states[a.DocumentID]

	if a.Tier < d.policy.Threshold {
		// A downgrade re-arms the document: a later climb back over
		// the threshold alerts immediately.
		if known && a.Tier < state.lastTier {
			delete(d.states, a.DocumentID)
		}
		return false
	}

	if !known {
		return true
	}
	if a.Tier > state.lastTier {
		return true
	}
	if a.Revision > state.lastRevision {
		return true
	}
	if d.now().Sub(state.lastFired) >= d.policy.Cooldown {
		return true
	}

	d.stats.Suppressed++
	metrics.IncAlertSuppressed()
	logger.Debug("Alert suppressed for %s (cooldown)", a.DocumentID)
	return false
}

func (d *AlertDispatcher) newEvent(a *domain.RiskAssessment) *domain.AlertEvent {
	deliveries := make([]domain.ChannelDelivery, len(d.policy.Channels))
	for i, ch := range d.policy.Channels {
		deliveries[i] = domain.ChannelDelivery{
			Channel:   ch,
			State:     domain.DeliveryPending,
			UpdatedAt: d.now(),
		}
	}
	return &domain.AlertEvent{
		ID:            uuid.NewString(),
		DocumentID:    a.DocumentID,
		Revision:      a.Revision,
		Tier:          a.Tier,
		DedupKey:      domain.AlertDedupKey(a.DocumentID, a.Tier),
		Jurisdictions: a.Jurisdictions,
		Message:       renderAlertMessage(a),
		Deliveries:    deliveries,
		CreatedAt:     d.now(),
	}
}

// deliver fans the event out to every channel concurrently, each with
// its own retry budget, then persists the final delivery records.
func (d *AlertDispatcher) deliver(ctx context.Context, event *domain.AlertEvent) {
	var wg sync.WaitGroup
	results := make([]domain.ChannelDelivery, len(event.Deliveries))

	for i := range event.Deliveries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.deliverChannel(ctx, event, event.Deliveries[i].Channel)
		}(i)
	}
	wg.Wait()

	d.mu.Lock()
	for i := range results {
		if results[i].State == domain.DeliveryDelivered {
			d.stats.Delivered++
		} else {
			d.stats.Failed++
		}
	}
	d.mu.Unlock()

	// The caller of Evaluate still holds the returned event; final
	// delivery state goes to the store only, never back onto it.
	if err := d.store.UpdateDeliveries(ctx, event.ID, results); err != nil {
		logger.Error("Recording deliveries for event %s: %v", event.ID, err)
	}
}

// deliverChannel attempts one channel with exponential backoff between
// attempts and the global rate limit applied before each send.
func (d *AlertDispatcher) deliverChannel(
	ctx context.Context, event *domain.AlertEvent, channel domain.Channel,
) domain.ChannelDelivery {
	delivery := domain.ChannelDelivery{
		Channel: channel,
		State:   domain.DeliveryInFlight,
	}

	backoff := d.policy.InitialBackoff
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		delivery.Attempts = attempt

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				delivery.State = domain.DeliveryFailed
				delivery.LastError = err.Error()
				delivery.UpdatedAt = d.now()
				return delivery
			}
		}

		_, err := d.notifier.Send(ctx, channel, event.Message)
		if err == nil {
			metrics.IncDeliveryAttempt(string(channel), "delivered")
			delivery.State = domain.DeliveryDelivered
			delivery.LastError = ""
			delivery.UpdatedAt = d.now()
			logger.Debug("Delivered event %s on %s (attempt %d)", event.ID, channel, attempt)
			return delivery
		}

		delivery.LastError = err.Error()
		metrics.IncDeliveryAttempt(string(channel), "failed")
		logger.Warn("Send on %s failed (attempt %d/%d): %v", channel, attempt, d.policy.MaxAttempts, err)

		if attempt < d.policy.MaxAttempts {
			if err := d.slep(ctx, backoff); err != nil {
				break
			}
			backoff *= 2
		}
	}

	delivery.State = domain.DeliveryFailed
	delivery.UpdatedAt = d.now()
	return delivery
}

// Drain blocks until all in-flight deliveries complete.
func (d *AlertDispatcher) Drain() {
	d.wg.Wait()
}

// Stats returns a snapshot of dispatcher counters.
func (d *AlertDispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// renderAlertMessage produces the notification text for an assessment.
func renderAlertMessage(a *domain.RiskAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Document %s (rev %d) scored %.2f.",
		strings.ToUpper(a.Tier.String()), a.DocumentID, a.Revision, a.Score)
	if len(a.Jurisdictions) > 0 {
		tags := make([]string, len(a.Jurisdictions))
		for i, tag := range a.Jurisdictions {
			tags[i] = string(tag)
		}
		fmt.Fprintf(&b, " Jurisdictions: %s.", strings.Join(tags, ", "))
	}
	if a.Rationale != "" {
		b.WriteString(" ")
		b.WriteString(a.Rationale)
	}
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
