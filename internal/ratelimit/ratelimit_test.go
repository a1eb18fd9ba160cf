package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy(window time.Duration, max int) Policy {
    return Policy{
        Name:    "test",
        Window:  window,
        Max:     max,
        Message: "too many requests",
    }
}

func TestPolicyValidate(t *testing.T) {
    tests := []struct {
        name    string
        policy  Policy
        wantErr bool
    }{
        {name: "valid", policy: Policy{Name: "general", Window: 15 * time.Minute, Max: 100}, wantErr: false},
        {name: "missing name", policy: Policy{Window: time.Minute, Max: 10}, wantErr: true},
        {name: "zero window", policy: Policy{Name: "auth", Window: 0, Max: 10}, wantErr: true},
        {name: "negative window", policy: Policy{Name: "auth", Window: -time.Second, Max: 10}, wantErr: true},
        {name: "zero max", policy: Policy{Name: "upload", Window: time.Minute, Max: 0}, wantErr: true},
        {name: "negative max", policy: Policy{Name: "upload", Window: time.Minute, Max: -1}, wantErr: true},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            err := tt.policy.Validate()
            if tt.wantErr {
                assert.Error(t, err)
            } else {
                assert.NoError(t, err)
            }
        })
    }
}

func TestNewStoreRejectsBadPolicy(t *testing.T) {
    _, err := NewStore(Policy{Name: "broken", Window: 0, Max: 5})
    require.Error(t, err)
}

func TestCheckQuotaBoundary(t *testing.T) {
    // The N-th request inside the window is allowed, the (N+1)-th is denied.
    const max = 5

    store, err := NewStore(testPolicy(time.Minute, max))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    for i := 0; i < max; i++ {
        d := store.Check("10.0.0.1", now.Add(time.Duration(i)*time.Second))
        assert.True(t, d.Allowed, "request %d should be allowed", i+1)
    }

    d := store.Check("10.0.0.1", now.Add(5*time.Second))
    assert.False(t, d.Allowed)
    assert.Greater(t, d.RetryAfter, 0)
}

func TestCheckWindowReset(t *testing.T) {
    store, err := NewStore(testPolicy(time.Minute, 2))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    store.Check("a", now)
    store.Check("a", now)
    require.False(t, store.Check("a", now).Allowed)

    // Past the window end the counter resets regardless of prior count, and the
    // identifier immediately has a full quota again.
    later := now.Add(time.Minute + time.Second)
    assert.True(t, store.Check("a", later).Allowed)
    assert.True(t, store.Check("a", later).Allowed)
    assert.False(t, store.Check("a", later).Allowed)
}

func TestRetryAfterMonotonicallyDecreases(t *testing.T) {
    store, err := NewStore(testPolicy(time.Minute, 1))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    store.Check("a", now)

    prev := int(^uint(0) >> 1)

    for _, offset := range []time.Duration{time.Second, 15 * time.Second, 30 * time.Second, 45 * time.Second, 59 * time.Second} {
        d := store.Check("a", now.Add(offset))
        require.False(t, d.Allowed)
        assert.GreaterOrEqual(t, d.RetryAfter, 0)
        assert.LessOrEqual(t, d.RetryAfter, prev)
        prev = d.RetryAfter
    }
}

func TestIdentifierIndependence(t *testing.T) {
    store, err := NewStore(testPolicy(time.Minute, 3))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    // Saturate A's quota.
    for i := 0; i < 3; i++ {
        require.True(t, store.Check("A", now).Allowed)
    }
    require.False(t, store.Check("A", now).Allowed)

    // B is unaffected.
    for i := 0; i < 3; i++ {
        assert.True(t, store.Check("B", now).Allowed)
    }
}

func TestPolicyIndependence(t *testing.T) {
    // The same identifier has independent counters under distinct policies
    // because each policy owns its own store.
    upload, err := NewStore(Policy{Name: "upload", Window: time.Minute, Max: 2, Message: "upload limit"})
    require.NoError(t, err)

    general, err := NewStore(Policy{Name: "general", Window: 15 * time.Minute, Max: 100, Message: "general limit"})
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    upload.Check("X", now)
    upload.Check("X", now)
    require.False(t, upload.Check("X", now).Allowed)

    assert.True(t, general.Check("X", now).Allowed)
}

func TestEmptyIdentifierFallsBackToGlobalKey(t *testing.T) {
    store, err := NewStore(testPolicy(time.Minute, 2))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    require.True(t, store.Check("", now).Allowed)
    require.True(t, store.Check("", now).Allowed)

    // All unidentifiable callers share one window.
    d := store.Check("", now)
    assert.False(t, d.Allowed)
    assert.Equal(t, 1, store.Len())
}

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
    store, err := NewStore(testPolicy(time.Minute, 10))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    store.Check("stale", now)
    store.Check("fresh", now.Add(50*time.Second))

    removed := store.Sweep(now.Add(70 * time.Second))
    assert.Equal(t, 1, removed)
    assert.Equal(t, 1, store.Len())

    // A swept identifier behaves exactly as if its stale entry had been left in
    // place: the next check starts a fresh window.
    d := store.Check("stale", now.Add(70*time.Second))
    assert.True(t, d.Allowed)
}

func TestCheckEquivalentWhetherStaleEntrySweptOrNot(t *testing.T) {
    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    later := now.Add(2 * time.Minute)

    swept, err := NewStore(testPolicy(time.Minute, 2))
    require.NoError(t, err)
    unswept, err := NewStore(testPolicy(time.Minute, 2))
    require.NoError(t, err)

    for _, s := range []*Store{swept, unswept} {
        s.Check("a", now)
        s.Check("a", now)
    }

    swept.Sweep(later)

    for i := 0; i < 3; i++ {
        ds := swept.Check("a", later)
        du := unswept.Check("a", later)
        assert.Equal(t, du, ds, "decision %d diverged", i+1)
    }
}

func TestEndToEndExample(t *testing.T) {
    // Policy {window: 60s, max: 2}, identifier "X":
    // t=0s allow, t=10s allow, t=20s deny with retryAfter=40, t=61s allow again.
    store, err := NewStore(Policy{Name: "example", Window: 60 * time.Second, Max: 2, Message: "limited"})
    require.NoError(t, err)

    start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    assert.True(t, store.Check("X", start).Allowed)
    assert.True(t, store.Check("X", start.Add(10*time.Second)).Allowed)

    d := store.Check("X", start.Add(20*time.Second))
    require.False(t, d.Allowed)
    assert.Equal(t, 40, d.RetryAfter)

    assert.True(t, store.Check("X", start.Add(61*time.Second)).Allowed)
}

func TestConcurrentChecksStayWithinQuotaPlusRace(t *testing.T) {
    const (
        max     = 50
        workers = 8
        tries   = 100
    )

    store, err := NewStore(testPolicy(time.Minute, max))
    require.NoError(t, err)

    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

    var (
        wg      sync.WaitGroup
        mu      sync.Mutex
        allowed int
    )

    for w := 0; w < workers; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for i := 0; i < tries; i++ {
                if store.Check("shared", now).Allowed {
                    mu.Lock()
                    allowed++
                    mu.Unlock()
                }
            }
        }()
    }
    wg.Wait()

    assert.Equal(t, max, allowed)
}

func TestStartSweepStops(t *testing.T) {
    store, err := NewStore(testPolicy(time.Millisecond, 1))
    require.NoError(t, err)

    for i := 0; i < 10; i++ {
        store.Check(fmt.Sprintf("id-%d", i), time.Now().Add(-time.Minute))
    }

    stop := store.StartSweep(5 * time.Millisecond)

    assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

    stop()
    stop() // stopping twice must not panic
}
