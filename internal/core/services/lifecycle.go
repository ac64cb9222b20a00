package services

import (
	"context"
	"log/slog"
	"sync"

	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/pkg/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var lifecycleTracer = otel.Tracer("lifecycle-service")

// LifecycleService drives the connection registry from authentication
// state. It only reads the credential and verification outcome; the
// auth collaborator feeds both through Apply, in the order it observes
// them changing.
type LifecycleService struct {
	log      *slog.Logger
	registry contracts.ConnectionRegistry

	mu    sync.Mutex
	state domain.SessionState
}

func NewLifecycleService(log *slog.Logger, registry contracts.ConnectionRegistry) *LifecycleService {
	return &LifecycleService{
		log:      log,
		registry: registry,
		state:    domain.SessionNoToken,
	}
}

// State returns the controller's current derived state.
func (s *LifecycleService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply re-evaluates the state machine against the latest credential
// and verification outcome. Both inputs change independently and out
// of order relative to each other, so every change re-enters here.
// Updates are serialized: a rapid logout-then-login still results in
// destroy-then-create, in that order.
func (s *LifecycleService) Apply(ctx context.Context, token string, verification domain.VerificationState) {
	ctx, span := lifecycleTracer.Start(ctx, "LifecycleService.Apply", trace.WithAttributes(
		attribute.Bool("auth.token_present", token != ""),
		attribute.String("auth.verification", string(verification)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := deriveState(token, verification)
	if next == s.state {
		return
	}
	prev := s.state
	s.state = next
	s.log.DebugContext(ctx, "lifecycle - apply - state transition",
		slog.String("from", string(prev)), slog.String("to", string(next)))
	span.SetAttributes(attribute.String("session.state", string(next)))

	switch next {
	case domain.SessionTokenVerified:
		if _, err := s.registry.Create(ctx, domain.Credential{Token: token}); err != nil {
			// No retry loop: the next state transition (e.g. re-login)
			// is what triggers a fresh attempt.
			span.RecordError(err)
			s.log.ErrorContext(ctx, "lifecycle - apply - create connection failed", logging.Err(err))
		}
	case domain.SessionNoToken, domain.SessionTokenRejected:
		s.registry.Destroy()
	case domain.SessionTokenPending:
		// Neither connect nor disconnect: the server has not confirmed
		// the token yet, and verification may still be in flight.
	}
}

func deriveState(token string, verification domain.VerificationState) domain.SessionState {
	if token == "" {
		return domain.SessionNoToken
	}
	switch verification {
	case domain.VerificationSucceeded:
		return domain.SessionTokenVerified
	case domain.VerificationFailed:
		return domain.SessionTokenRejected
	default:
		return domain.SessionTokenPending
	}
}
