package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// FallbackIdentifier is the shared key used when a caller cannot be identified
// (e.g. no resolvable network address). All such requests count against a single
// global window, which weakens the guarantee but still produces a decision.
const FallbackIdentifier = "unknown"

// Policy is the fixed configuration for one class of endpoints. Policies are
// built at startup and never change afterwards.
type Policy struct {
    Name    string
    Window  time.Duration
    Max     int
    Message string
}

// Validate reports a misconfigured policy. Call it when the application starts;
// a zero or negative window or quota is a programming/configuration error, not
// something to discover per request.
func (p Policy) Validate() error {
    if p.Name == "" {
        return fmt.Errorf("rate limit policy: name must be provided")
    }
    if p.Window <= 0 {
        return fmt.Errorf("rate limit policy %q: window must be positive, got %v", p.Name, p.Window)
    }
    if p.Max <= 0 {
        return fmt.Errorf("rate limit policy %q: max must be positive, got %d", p.Name, p.Max)
    }
    return nil
}

// Decision is the outcome of a single admission check. A denial is a normal
// result, not an error: RetryAfter tells the caller how many whole seconds to
// wait before the current window ends.
type Decision struct {
    Allowed    bool
    RetryAfter int
}

// window is the counting state for one identifier. count is only meaningful
// while now-start <= the policy window; once past that the entry is stale and
// the next check resets it in place.
type window struct {
    start time.Time
    count int
}

// Store holds the counting state for exactly one policy. Each policy gets its
// own Store, so the same identifier has independent counters per policy. A
// Store is safe for concurrent use.
type Store struct {
    policy Policy

    mu      sync.Mutex
    windows map[string]*window
}

// NewStore returns a Store for the given policy, or an error if the policy
// fails validation.
func NewStore(policy Policy) (*Store, error) {
    if err := policy.Validate(); err != nil {
        return nil, err
    }

    return &Store{
        policy:  policy,
        windows: make(map[string]*window),
    }, nil
}

// Policy returns the policy this store enforces.
func (s *Store) Policy() Policy {
    return s.policy
}

// Check runs the fixed-window counter for one identifier at time now and
// returns the admission decision. The clock is passed in rather than read
// inside so tests can drive simulated time.
//
// An empty identifier falls back to FallbackIdentifier, degrading that policy
// to a global counter for unidentifiable callers.
func (s *Store) Check(identifier string, now time.Time) Decision {
    if identifier == "" {
        identifier = FallbackIdentifier
    }

    s.mu.Lock()
    defer s.mu.Unlock()

    w, ok := s.windows[identifier]
    if !ok || now.Sub(w.start) > s.policy.Window {
        // First sighting, or the previous window has expired: start a fresh
        // window with this request as its first hit.
        s.windows[identifier] = &window{start: now, count: 1}
        return Decision{Allowed: true}
    }

    if w.count < s.policy.Max {
        w.count++
        return Decision{Allowed: true}
    }

    remaining := w.start.Add(s.policy.Window).Sub(now)
    retryAfter := int((remaining + time.Second - 1) / time.Second)
    if retryAfter < 0 {
        retryAfter = 0
    }

    return Decision{Allowed: false, RetryAfter: retryAfter}
}

// Len reports the number of tracked identifiers, including stale ones that
// have not been swept yet.
func (s *Store) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()

    return len(s.windows)
}

// Sweep removes every entry whose window had already expired at time now, and
// returns how many were removed. Sweeping is purely a memory bound: a stale
// entry left in place behaves identically to an absent one on the next Check.
//
// The key set is snapshotted first and each key is then re-checked under the
// lock, so the lock is never held across the whole scan and a concurrent Check
// that refreshed an entry will keep it.
func (s *Store) Sweep(now time.Time) int {
    s.mu.Lock()
    keys := make([]string, 0, len(s.windows))
    for k := range s.windows {
        keys = append(keys, k)
    }
    s.mu.Unlock()

    removed := 0

    for _, k := range keys {
        s.mu.Lock()
        if w, ok := s.windows[k]; ok && now.Sub(w.start) > s.policy.Window {
            delete(s.windows, k)
            removed++
        }
        s.mu.Unlock()
    }

    return removed
}

// StartSweep launches a background goroutine that sweeps the store every
// interval, and returns a function that stops it. The caller owns the sweep
// and must call stop on shutdown so the goroutine does not outlive the host.
// Calling stop more than once is safe.
func (s *Store) StartSweep(interval time.Duration) (stop func()) {
    done := make(chan struct{})

    go func() {
        ticker := time.NewTicker(interval)
        defer ticker.Stop()

        for {
            select {
            case <-ticker.C:
                s.Sweep(time.Now())
            case <-done:
                return
            }
        }
    }()

    var once sync.Once
    return func() {
        once.Do(func() { close(done) })
    }
}
