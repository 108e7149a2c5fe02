package resilience

import (
	"errors"
	"sync"
	"time"
)

// BreakerState enumerates the circuit breaker state machine from
// spec.md section 4.D.
type BreakerState int32

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Allow when the breaker refuses a call.
// The AttemptLoop treats it as Transient so the request rolls to the
// next model in the fallback chain.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// BreakerConfig configures a single Breaker.
type BreakerConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// Breaker is a per-provider circuit breaker. It is safe for concurrent
// use; every transition is guarded by a single mutex so readers never
// observe a torn state, satisfying the linearizability requirement in
// spec.md section 5.
type Breaker struct {
	cfg BreakerConfig

	mu               sync.Mutex
	state            BreakerState
	consecutiveFails int
	openedAt         time.Time
	probeInFlight    bool
}

// NewBreaker constructs a Breaker in the Closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a call may proceed. On Open, it checks whether
// cooldown has elapsed: if so it transitions to HalfOpen and admits
// exactly the one caller making this call as the probe; every other
// caller (concurrent or subsequent, until the probe resolves) is
// refused.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateHalfOpen:
		// Exactly one probe admitted per half-open window.
		return ErrCircuitOpen
	case StateOpen:
		if time.Since(b.openedAt) >= b.cfg.Cooldown {
			b.state = StateHalfOpen
			b.probeInFlight = true
			return nil
		}
		return ErrCircuitOpen
	default:
		return ErrCircuitOpen
	}
}

// RecordSuccess reports a successful call. In HalfOpen this closes the
// breaker and resets counters; in Closed it resets the consecutive
// failure counter.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.state = StateClosed
		b.consecutiveFails = 0
		b.probeInFlight = false
	case StateClosed:
		b.consecutiveFails = 0
	}
}

// RecordFailure reports a failed call. In HalfOpen, the probe failed:
// reopen with a fresh cooldown. In Closed, increment the consecutive
// failure counter and trip to Open at the configured threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = time.Now()
		b.probeInFlight = false
	case StateClosed:
		b.consecutiveFails++
		if b.consecutiveFails >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.openedAt = time.Now()
		}
	}
}

// State returns the current state, for health reporting.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Registry holds one Breaker per upstream provider, process-wide.
type Registry struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry constructs an empty Registry using cfg for every breaker
// it lazily creates.
func NewRegistry(cfg BreakerConfig) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// Get returns the Breaker for providerName, creating it on first use.
func (r *Registry) Get(providerName string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[providerName]
	if !ok {
		b = NewBreaker(r.cfg)
		r.breakers[providerName] = b
	}
	return b
}

// Snapshot returns the current state of every known breaker, for the
// /healthz endpoint.
func (r *Registry) Snapshot() map[string]BreakerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]BreakerState, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
