package services

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultDedupWindow is how long a delivered fingerprint suppresses
// repeats. Matches the backend's burst-redelivery behavior.
const DefaultDedupWindow = 3 * time.Second

// DedupLedger is a time-bounded set of recently seen event
// fingerprints. Entries expire on their own; within the window a
// duplicate fingerprint must not trigger a second side effect.
type DedupLedger struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]struct{}
}

func NewDedupLedger(window time.Duration) *DedupLedger {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &DedupLedger{
		window: window,
		seen:   make(map[string]struct{}),
	}
}

// Fingerprint derives the identity of a delivery from the event name
// and the normalized message body.
func Fingerprint(eventName string, canonicalBody []byte) string {
	h := sha256.New()
	h.Write([]byte(eventName))
	h.Write([]byte{0})
	h.Write(canonicalBody)
	return hex.EncodeToString(h.Sum(nil))
}

// Observe records a fingerprint and reports whether it is the first
// sighting within the window. The entry removes itself after the
// window elapses.
func (l *DedupLedger) Observe(fp string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[fp]; dup {
		return false
	}
	l.seen[fp] = struct{}{}
	time.AfterFunc(l.window, func() {
		l.mu.Lock()
		delete(l.seen, fp)
		l.mu.Unlock()
	})
	return true
}

// Len reports the number of live entries.
func (l *DedupLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
