package subscriber

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/internal/core/services"
	"payesh/pkg/logging"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("channel-subscriber")

// Feature declares what one feature subscribes to and how its events
// surface to the user. Channel and event lists carry every naming
// variant the backend has used over time; all stay bound for backward
// compatibility.
type Feature struct {
	Name string
	// Channels derives the channel names for a subject, in the fixed
	// order they must be joined.
	Channels func(subject string) []string
	// Events are the event-name variants bound on every channel.
	Events []string
	// Resource is the cached resource invalidated on approval.
	Resource string
	// Fallback supplies user-facing text when the payload carries none.
	Fallback map[domain.Classification]string
}

// Deps are the collaborators a subscriber dispatches into.
type Deps struct {
	Registry contracts.ConnectionRegistry
	Notifier contracts.Notifier
	Cache    contracts.CacheInvalidator
	Journal  domain.NoticeJournal // optional
}

// ChannelSubscriber rides the shared connection for one feature and
// one subject: joins the feature's channels once the connection is
// available, funnels every bound event through normalize → dedup →
// classify → dispatch, and leaves exactly the joined channels on Close.
type ChannelSubscriber struct {
	log     *slog.Logger
	feature Feature
	subject string
	deps    Deps
	ledger  *services.DedupLedger

	mu     sync.Mutex
	conn   contracts.Connection
	joined []string
	closed bool
}

// Mount registers the subscriber's interest in the connection. When no
// handle exists yet it waits passively on the registry's readiness
// callback; there is no polling and no retry loop. An empty subject id
// yields an inert subscriber that is still safe to Close.
func Mount(ctx context.Context, log *slog.Logger, feature Feature, subject string, deps Deps, dedupWindow time.Duration) *ChannelSubscriber {
	s := &ChannelSubscriber{
		log:     log.With(logging.Feature(feature.Name), logging.Subject(subject)),
		feature: feature,
		subject: subject,
		deps:    deps,
		ledger:  services.NewDedupLedger(dedupWindow),
	}
	if subject == "" {
		s.log.Warn("subscriber - mount - skipped, empty subject")
		return s
	}
	deps.Registry.OnReady(func(conn contracts.Connection) {
		s.attach(ctx, conn)
	})
	return s
}

func (s *ChannelSubscriber) attach(ctx context.Context, conn contracts.Connection) {
	ctx, span := tracer.Start(ctx, "ChannelSubscriber.attach", trace.WithAttributes(
		attribute.String("feature", s.feature.Name),
		attribute.String("subject_id", s.subject),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.conn != nil {
		return
	}
	s.conn = conn

	for _, channel := range s.feature.Channels(s.subject) {
		if err := conn.Subscribe(ctx, channel); err != nil {
			span.RecordError(err)
			s.log.ErrorContext(ctx, "subscriber - attach - subscribe failed",
				logging.Channel(channel), logging.Err(err))
			continue
		}
		s.joined = append(s.joined, channel)
		for _, event := range s.feature.Events {
			conn.Bind(channel, event, s.handle)
		}
		s.log.InfoContext(ctx, "subscriber - attach - channel joined", logging.Channel(channel))
	}
	span.SetAttributes(attribute.Int("channels_joined", len(s.joined)))
}

// handle runs the inbound pipeline for one delivery.
func (s *ChannelSubscriber) handle(ctx context.Context, ev domain.Event) {
	s.mu.Lock()
	if s.closed {
		// Teardown raced an in-flight delivery; never process against
		// a torn-down subject.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "ChannelSubscriber.handle", trace.WithAttributes(
		attribute.String("feature", s.feature.Name),
		attribute.String("channel", ev.Channel),
		attribute.String("event", ev.Name),
	))
	defer span.End()

	normalized, err := services.NormalizePayload(ev.Payload)
	if err != nil {
		s.log.WarnContext(ctx, "subscriber - handle - payload parse failed, using raw",
			logging.Channel(ev.Channel), logging.Event(ev.Name), logging.Err(err))
	}

	fp := services.Fingerprint(ev.Name, normalized.Canonical())
	if !s.ledger.Observe(fp) {
		s.log.DebugContext(ctx, "subscriber - handle - duplicate suppressed",
			logging.Event(ev.Name), logging.Fingerprint(fp))
		return
	}

	class := services.Classify(ev.Name, normalized)
	text, _ := normalized.Field("message")
	if text == "" {
		text = s.feature.Fallback[class]
	}

	notice := domain.Notice{
		ID:        uuid.New(),
		Severity:  class.Severity(),
		Text:      text,
		DedupeKey: fp,
		Subject:   s.subject,
		Resource:  s.feature.Resource,
		Channel:   ev.Channel,
		Event:     ev.Name,
		CreatedAt: time.Now(),
	}
	s.dispatch(ctx, notice, class)
}

func (s *ChannelSubscriber) dispatch(ctx context.Context, notice domain.Notice, class domain.Classification) {
	if err := s.deps.Notifier.Notify(ctx, notice); err != nil {
		s.log.ErrorContext(ctx, "subscriber - dispatch - notify failed", logging.Err(err))
	}
	if class == domain.ClassApproved && s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx, s.feature.Resource, s.subject); err != nil {
			s.log.ErrorContext(ctx, "subscriber - dispatch - cache invalidate failed",
				slog.String("resource", s.feature.Resource), logging.Err(err))
		}
	}
	if s.deps.Journal != nil {
		if err := s.deps.Journal.Append(ctx, notice); err != nil {
			s.log.ErrorContext(ctx, "subscriber - dispatch - journal append failed", logging.Err(err))
		}
	}
	s.log.InfoContext(ctx, "subscriber - dispatch - notice delivered",
		logging.Event(notice.Event), slog.String("severity", string(notice.Severity)))
}

// Close leaves every channel that was joined, once each. Deliveries
// arriving after Close are ignored.
func (s *ChannelSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, channel := range s.joined {
		s.conn.Leave(channel)
		s.log.Info("subscriber - close - channel left", logging.Channel(channel))
	}
	s.joined = nil
	s.conn = nil
}
