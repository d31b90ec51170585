// Package poller drives the periodic authenticated fetch of agent
// statistics and maintains the connection state machine.
//
// Purpose:
//   - Polls the agent's stats endpoint on a fixed interval with Basic auth
//   - Tracks online/offline state and flips it only on actual transitions
//   - Keeps the last good snapshot visible while the agent is unreachable
//
// Key aspects:
//   - Polls are serialized: a single goroutine runs them, so a slow request
//     delays the next tick instead of overlapping it
//   - A 304 Not Modified counts as a successful contact and refreshes
//     liveness without replacing the stored snapshot
//   - Failure kinds (transport, auth, http, decode) stay distinct in logs
//     and counters but all map to the offline state
//
// Upstream: agent HTTP endpoint (stats JSON)
// Downstream: ui dashboard, console renderer, report command
package poller

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"agentwatch/internal/ratelimit"
	"agentwatch/snapshot"
	"agentwatch/stats"
)

// ConnState is the connection state toward the agent.
type ConnState uint8

const (
	StateOffline ConnState = iota
	StateOnline
)

func (s ConnState) String() string {
	if s == StateOnline {
		return "online"
	}
	return "offline"
}

// Poll outcome labels used with stats.Tracker.
const (
	OutcomeOK          = "ok"
	OutcomeNotModified = "not_modified"
)

// Config controls the polling loop. Credentials come from configuration,
// never from source.
type Config struct {
	URL              string
	Username         string
	Password         string
	IntervalMS       int
	RequestTimeoutMS int
	SeenLimit        int
}

func (c *Config) normalize() {
	if c.IntervalMS <= 0 {
		c.IntervalMS = 3000
	}
	if c.RequestTimeoutMS <= 0 {
		c.RequestTimeoutMS = 2500
	}
	if c.SeenLimit <= 0 {
		c.SeenLimit = 0 // snapshot.NewSeenSet applies its own default
	}
}

// View is an immutable copy of the poller's observable state. The embedded
// snapshot pointer is never mutated after being stored.
type View struct {
	Snap        *snapshot.StatsSnapshot
	Conn        ConnState
	LastSuccess time.Time
	LastAttempt time.Time
	LastError   string
	Polls       uint64
	Transitions uint64
}

// Manager owns the polling goroutine and the stored snapshot.
type Manager struct {
	cfg     Config
	logger  *log.Logger
	client  *http.Client
	fetch   *conditionalFetcher
	tracker *stats.Tracker
	seen    *snapshot.SeenSet
	failLog ratelimit.Counter

	onActivity   func([]snapshot.ActivityEntry)
	onTransition func(ConnState)

	mu          sync.RWMutex
	snap        *snapshot.StatsSnapshot
	conn        ConnState
	lastSuccess time.Time
	lastAttempt time.Time
	lastError   string
	polls       uint64
	transitions uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// Options carries the optional collaborators of a Manager.
type Options struct {
	Logger *log.Logger
	// Tracker receives poll outcome and entry-type counts. Optional.
	Tracker *stats.Tracker
	// OnActivity is called from the poll goroutine with history entries not
	// seen before, in agent order. Optional.
	OnActivity func([]snapshot.ActivityEntry)
	// OnTransition is called from the poll goroutine whenever the connection
	// state flips. Optional.
	OnTransition func(ConnState)
}

// NewManager builds a Manager in the offline state with no snapshot. The
// Authorization header is computed once here.
func NewManager(cfg Config, opts Options) *Manager {
	cfg.normalize()
	client := &http.Client{Timeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond}
	return &Manager{
		cfg:    cfg,
		logger: opts.Logger,
		client: client,
		fetch: &conditionalFetcher{
			url:        cfg.URL,
			authHeader: basicAuthHeader(cfg.Username, cfg.Password),
			client:     client,
		},
		tracker:      opts.Tracker,
		seen:         snapshot.NewSeenSet(cfg.SeenLimit),
		failLog:      ratelimit.NewCounter(30 * time.Second),
		onActivity:   opts.OnActivity,
		onTransition: opts.OnTransition,
		conn:         StateOffline,
	}
}

// Start launches the polling goroutine. The first poll runs immediately,
// then every IntervalMS. Safe to call once.
func (m *Manager) Start(ctx context.Context) {
	if m == nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		m.poll(ctx)
		ticker := time.NewTicker(time.Duration(m.cfg.IntervalMS) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.poll(ctx)
			}
		}
	}()
}

// Stop cancels the polling goroutine and waits for it to exit. Results of
// an in-flight poll are discarded.
func (m *Manager) Stop() {
	if m == nil || m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// View returns an immutable copy of the current state.
func (m *Manager) View() View {
	if m == nil {
		return View{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return View{
		Snap:        m.snap,
		Conn:        m.conn,
		LastSuccess: m.lastSuccess,
		LastAttempt: m.lastAttempt,
		LastError:   m.lastError,
		Polls:       m.polls,
		Transitions: m.transitions,
	}
}

func (m *Manager) poll(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.RequestTimeoutMS)*time.Millisecond)
	body, updated, err := m.fetch.Fetch(reqCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}
	now := time.Now().UTC()

	if err != nil {
		m.recordFailure(now, err)
		return
	}
	if !updated {
		m.recordContact(now, nil, OutcomeNotModified)
		return
	}
	snap, err := snapshot.Decode(body)
	if err != nil {
		m.recordFailure(now, &FetchError{Kind: KindDecode, Err: err})
		return
	}
	m.recordContact(now, snap, OutcomeOK)
}

// recordContact handles a successful poll. A nil snap (304) refreshes
// liveness only; the stored snapshot stays as-is.
func (m *Manager) recordContact(now time.Time, snap *snapshot.StatsSnapshot, outcome string) {
	var fresh []snapshot.ActivityEntry
	if snap != nil {
		fresh = snapshot.NewEntries(snap, m.seen)
	}

	m.mu.Lock()
	m.lastAttempt = now
	m.lastSuccess = now
	m.lastError = ""
	m.polls++
	if snap != nil {
		m.snap = snap
	}
	flipped := m.conn != StateOnline
	m.conn = StateOnline
	if flipped {
		m.transitions++
	}
	m.mu.Unlock()

	if m.tracker != nil {
		m.tracker.IncrementOutcome(outcome)
		for _, entry := range fresh {
			m.tracker.IncrementEntryType(entry.Type)
		}
		if flipped {
			m.tracker.IncrementTransitions()
		}
	}
	if flipped {
		m.failLog.Reset()
		m.logf("poller: agent online (%s)", m.cfg.URL)
		if m.onTransition != nil {
			m.onTransition(StateOnline)
		}
	}
	if len(fresh) > 0 && m.onActivity != nil {
		m.onActivity(fresh)
	}
}

func (m *Manager) recordFailure(now time.Time, err error) {
	kind := KindTransport
	if fe, ok := err.(*FetchError); ok {
		kind = fe.Kind
	}

	m.mu.Lock()
	m.lastAttempt = now
	m.lastError = err.Error()
	m.polls++
	flipped := m.conn != StateOffline
	m.conn = StateOffline
	if flipped {
		m.transitions++
	}
	m.mu.Unlock()

	if m.tracker != nil {
		m.tracker.IncrementOutcome(kind.String())
		if flipped {
			m.tracker.IncrementTransitions()
		}
	}
	if flipped {
		m.logf("poller: agent offline: %v", err)
		if m.onTransition != nil {
			m.onTransition(StateOffline)
		}
		return
	}
	// repeats while already offline are throttled
	if total, ok := m.failLog.Inc(); ok {
		m.logf("poller: still offline after %d failures: %v", total, err)
	}
}

func (m *Manager) logf(format string, args ...any) {
	if m == nil || m.logger == nil {
		return
	}
	m.logger.Printf(format, args...)
}
