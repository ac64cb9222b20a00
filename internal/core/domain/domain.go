package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the bearer token the authentication flow hands us.
// Presence of a token says nothing about validity; see VerificationState.
type Credential struct {
	Token string
}

func (c Credential) Present() bool {
	return c.Token != ""
}

// VerificationState is the server-confirmed validity of a credential,
// as reported by the authentication collaborator.
type VerificationState string

const (
	VerificationIdle      VerificationState = "idle"
	VerificationLoading   VerificationState = "loading"
	VerificationSucceeded VerificationState = "succeeded"
	VerificationFailed    VerificationState = "failed"
)

// SessionState is the lifecycle controller's view of the pair
// (credential presence, verification outcome).
type SessionState string

const (
	SessionNoToken       SessionState = "no_token"
	SessionTokenPending  SessionState = "token_pending"
	SessionTokenVerified SessionState = "token_verified"
	SessionTokenRejected SessionState = "token_rejected"
)

// Event is one inbound broadcast delivery: the channel it arrived on,
// the event name the backend published it as, and the raw payload bytes.
// Payload shape is not trusted; see services.NormalizePayload.
type Event struct {
	Channel string
	Name    string
	Payload []byte
}

// Severity of a user-facing notice.
type Severity string

const (
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Classification of a business event after status extraction.
type Classification string

const (
	ClassRejected Classification = "rejected"
	ClassApproved Classification = "approved"
	ClassOther    Classification = "other"
)

func (c Classification) Severity() Severity {
	switch c {
	case ClassRejected:
		return SeverityError
	case ClassApproved:
		return SeveritySuccess
	default:
		return SeverityInfo
	}
}

// Notice is a classified business event ready for display and journaling.
type Notice struct {
	ID        uuid.UUID
	Severity  Severity
	Text      string
	DedupeKey string
	Subject   string
	Resource  string
	Channel   string
	Event     string
	CreatedAt time.Time
}
