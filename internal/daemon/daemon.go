// Package daemon implements the optional liveness daemon client: register
// each live workflow with a local daemon process and heartbeat it every few
// seconds. Heartbeat failures trip a circuit breaker; once open, the client
// retries reconnection on an exponential backoff bounded at 60s and
// re-registers every live workflow on success. A disabled or unreachable
// daemon is always a no-op from the workflow's point of view — this client
// never blocks or fails a running workflow.
package daemon

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/logging"
	"github.com/planwright/planwright/internal/metrics"
	"github.com/sony/gobreaker"
)

// Transport is the wire-level collaborator the daemon client speaks
// through: register a workflow and send a heartbeat for one. Left as an
// interface (spec.md does not define the daemon's wire protocol) so the
// concrete transport — a local Unix socket, a loopback HTTP endpoint,
// whatever the host binary wires up — can vary without the client caring.
type Transport interface {
	Register(ctx context.Context, workflowID domain.WorkflowId, feature string) error
	Heartbeat(ctx context.Context, workflowID domain.WorkflowId) error
	Close() error
}

// Config controls heartbeat cadence and breaker thresholds.
type Config struct {
	Enabled            bool
	HeartbeatInterval  time.Duration
	FailureThreshold   uint32
	MaxBackoff         time.Duration
}

// DefaultConfig returns the client's defaults: a 5s heartbeat, tripping
// after 3 consecutive failures, backing off up to 60s per spec.md's
// liveness daemon client contract.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		HeartbeatInterval: 5 * time.Second,
		FailureThreshold:  3,
		MaxBackoff:        60 * time.Second,
	}
}

// Client is a process-wide singleton: one breaker-wrapped connection to the
// daemon, a heartbeat goroutine per registered workflow, and the set of
// live workflows to re-register after a reconnect.
type Client struct {
	mu        sync.Mutex
	cfg       Config
	transport Transport
	breaker   *gobreaker.CircuitBreaker
	logger    *logging.Logger

	registered map[domain.WorkflowId]string // workflow id -> feature name
	cancels    map[domain.WorkflowId]context.CancelFunc

	backoffAttempt int
}

var (
	singleton     *Client
	singletonOnce sync.Once
)

// Get returns the process-wide daemon client, constructing it on first use
// with transport and cfg. Subsequent calls ignore their arguments and
// return the already-constructed singleton, matching the "global state:
// process-wide singleton behind a mutex" design note.
func Get(transport Transport, cfg Config, logger *logging.Logger) *Client {
	singletonOnce.Do(func() {
		singleton = newClient(transport, cfg, logger)
	})
	return singleton
}

func newClient(transport Transport, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NopLogger()
	}
	c := &Client{
		cfg:        cfg,
		transport:  transport,
		logger:     logger,
		registered: make(map[domain.WorkflowId]string),
		cancels:    make(map[domain.WorkflowId]context.CancelFunc),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "daemon-liveness",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.MaxBackoff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("daemon breaker state change", "from", from.String(), "to", to.String())
		},
	})
	return c
}

// RegisterWorkflow registers workflowID with the daemon and starts its
// heartbeat goroutine. A no-op if the client is disabled or has no
// transport. Safe to call even while the daemon is unreachable: the
// registration attempt goes through the breaker and failures are swallowed.
func (c *Client) RegisterWorkflow(ctx context.Context, workflowID domain.WorkflowId, feature string) {
	if !c.enabled() {
		return
	}

	c.mu.Lock()
	c.registered[workflowID] = feature
	hbCtx, cancel := context.WithCancel(ctx)
	c.cancels[workflowID] = cancel
	c.mu.Unlock()

	c.tryRegister(ctx, workflowID, feature)
	go c.heartbeatLoop(hbCtx, workflowID)
}

// UnregisterWorkflow stops heartbeating workflowID, e.g. on workflow
// completion or abort.
func (c *Client) UnregisterWorkflow(workflowID domain.WorkflowId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.cancels[workflowID]; ok {
		cancel()
		delete(c.cancels, workflowID)
	}
	delete(c.registered, workflowID)
}

// Close tears down every heartbeat goroutine and closes the transport.
func (c *Client) Close() error {
	c.mu.Lock()
	for id, cancel := range c.cancels {
		cancel()
		delete(c.cancels, id)
	}
	c.registered = make(map[domain.WorkflowId]string)
	c.mu.Unlock()

	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

func (c *Client) enabled() bool {
	return c.cfg.Enabled && c.transport != nil
}

func (c *Client) tryRegister(ctx context.Context, workflowID domain.WorkflowId, feature string) {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.transport.Register(ctx, workflowID, feature)
	})
	if err != nil {
		c.logger.Warn("daemon: registration failed, continuing without it", "workflow", workflowID, "err", err)
	}
}

func (c *Client) heartbeatLoop(ctx context.Context, workflowID domain.WorkflowId) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.beat(ctx, workflowID)
		}
	}
}

func (c *Client) beat(ctx context.Context, workflowID domain.WorkflowId) {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.transport.Heartbeat(ctx, workflowID)
	})
	if err == nil {
		if c.backoffAttempt > 0 {
			c.reconnectAndReregister(ctx)
		}
		return
	}

	metrics.RecordDaemonHeartbeatFailure()
	c.logger.Warn("daemon: heartbeat failed", "workflow", workflowID, "err", err)

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		c.sleepBackoff(ctx)
	}
}

// sleepBackoff waits the next exponential-backoff interval (1s, 2s, 4s, ...
// capped at MaxBackoff) before the breaker's own Timeout permits another
// probe, so repeated heartbeats against a down daemon don't spin.
func (c *Client) sleepBackoff(ctx context.Context) {
	c.mu.Lock()
	c.backoffAttempt++
	attempt := c.backoffAttempt
	c.mu.Unlock()

	wait := time.Duration(math.Min(
		float64(c.cfg.MaxBackoff),
		float64(time.Second)*math.Pow(2, float64(attempt-1)),
	))

	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

// reconnectAndReregister re-registers every currently live workflow after a
// successful heartbeat following one or more backoff cycles, per the
// "re-registers every live workflow on success" contract.
func (c *Client) reconnectAndReregister(ctx context.Context) {
	c.mu.Lock()
	c.backoffAttempt = 0
	live := make(map[domain.WorkflowId]string, len(c.registered))
	for id, feature := range c.registered {
		live[id] = feature
	}
	c.mu.Unlock()

	for id, feature := range live {
		c.tryRegister(ctx, id, feature)
	}
	metrics.RecordDaemonReconnect()
}
