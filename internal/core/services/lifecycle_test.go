package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
)

type stubConn struct{}

func (stubConn) SocketID() string                                           { return "stub.1" }
func (stubConn) Subscribe(ctx context.Context, channel string) error        { return nil }
func (stubConn) Bind(channel, event string, handler contracts.EventHandler) {}
func (stubConn) Leave(channel string)                                       {}
func (stubConn) Close()                                                     {}

// recordingRegistry captures the order of create/destroy calls.
type recordingRegistry struct {
	calls     []string
	createErr error
}

func (r *recordingRegistry) Create(ctx context.Context, cred domain.Credential) (contracts.Connection, error) {
	r.calls = append(r.calls, "create")
	if r.createErr != nil {
		return nil, r.createErr
	}
	return stubConn{}, nil
}

func (r *recordingRegistry) Get() contracts.Connection          { return nil }
func (r *recordingRegistry) Destroy()                           { r.calls = append(r.calls, "destroy") }
func (r *recordingRegistry) OnReady(func(contracts.Connection)) {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// inputs that drive the controller into each derived state.
var stateInputs = map[domain.SessionState]struct {
	token        string
	verification domain.VerificationState
}{
	domain.SessionNoToken:       {"", domain.VerificationIdle},
	domain.SessionTokenPending:  {"tok", domain.VerificationLoading},
	domain.SessionTokenVerified: {"tok", domain.VerificationSucceeded},
	domain.SessionTokenRejected: {"tok", domain.VerificationFailed},
}

func TestLifecycle_AllTransitionPairs(t *testing.T) {
	states := []domain.SessionState{
		domain.SessionNoToken,
		domain.SessionTokenPending,
		domain.SessionTokenVerified,
		domain.SessionTokenRejected,
	}

	for _, from := range states {
		for _, to := range states {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				reg := &recordingRegistry{}
				lc := NewLifecycleService(discardLogger(), reg)

				in := stateInputs[from]
				lc.Apply(context.Background(), in.token, in.verification)
				reg.calls = nil

				in = stateInputs[to]
				lc.Apply(context.Background(), in.token, in.verification)

				var want []string
				if from != to {
					switch to {
					case domain.SessionTokenVerified:
						want = []string{"create"}
					case domain.SessionNoToken, domain.SessionTokenRejected:
						want = []string{"destroy"}
					}
				}
				if len(reg.calls) != len(want) {
					t.Fatalf("calls = %v, want %v", reg.calls, want)
				}
				for i := range want {
					if reg.calls[i] != want[i] {
						t.Fatalf("calls = %v, want %v", reg.calls, want)
					}
				}
				if lc.State() != to {
					t.Errorf("State() = %v, want %v", lc.State(), to)
				}
			})
		}
	}
}

func TestLifecycle_IdleAndLoadingBothPend(t *testing.T) {
	for _, vs := range []domain.VerificationState{domain.VerificationIdle, domain.VerificationLoading} {
		reg := &recordingRegistry{}
		lc := NewLifecycleService(discardLogger(), reg)
		lc.Apply(context.Background(), "tok", vs)
		if lc.State() != domain.SessionTokenPending {
			t.Errorf("verification %q: state = %v, want token_pending", vs, lc.State())
		}
		if len(reg.calls) != 0 {
			t.Errorf("verification %q: pending state must neither connect nor disconnect, got %v", vs, reg.calls)
		}
	}
}

func TestLifecycle_AbsentTokenWinsOverVerification(t *testing.T) {
	// Both inputs change independently and out of order: a stale
	// succeeded verification with no token must not connect.
	reg := &recordingRegistry{}
	lc := NewLifecycleService(discardLogger(), reg)
	lc.Apply(context.Background(), "", domain.VerificationSucceeded)
	if lc.State() != domain.SessionNoToken {
		t.Errorf("state = %v, want no_token", lc.State())
	}
	for _, call := range reg.calls {
		if call == "create" {
			t.Error("create must not be called without a token")
		}
	}
}

func TestLifecycle_LogoutThenLoginOrdering(t *testing.T) {
	reg := &recordingRegistry{}
	lc := NewLifecycleService(discardLogger(), reg)

	lc.Apply(context.Background(), "tok", domain.VerificationSucceeded)
	lc.Apply(context.Background(), "", domain.VerificationIdle)
	lc.Apply(context.Background(), "tok2", domain.VerificationSucceeded)

	want := []string{"create", "destroy", "create"}
	if len(reg.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", reg.calls, want)
	}
	for i := range want {
		if reg.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", reg.calls, want)
		}
	}
}

func TestLifecycle_CreateFailureIsNotRetried(t *testing.T) {
	reg := &recordingRegistry{createErr: errors.New("boom")}
	lc := NewLifecycleService(discardLogger(), reg)

	lc.Apply(context.Background(), "tok", domain.VerificationSucceeded)
	if got := len(reg.calls); got != 1 {
		t.Fatalf("create attempts = %d, want 1 (no retry loop)", got)
	}

	// Re-entering the verified state after a fresh login triggers the
	// next attempt.
	lc.Apply(context.Background(), "", domain.VerificationIdle)
	lc.Apply(context.Background(), "tok", domain.VerificationSucceeded)
	if reg.calls[len(reg.calls)-1] != "create" {
		t.Errorf("re-login should attempt create again, calls = %v", reg.calls)
	}
}
