// Package actor implements the single-writer-per-workflow mailbox that owns
// the aggregate and event log and publishes the resulting view.
package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/eventlog"
)

// Envelope is one entry on the broadcast bus: an ordered, fully-stamped
// event for a given workflow.
type Envelope struct {
	WorkflowID domain.WorkflowId
	Sequence   uint64
	Event      domain.Event
}

// request is a single mailbox message: a command plus a reply channel.
// Commands are processed strictly one at a time, in arrival order, which is
// what makes the observed event order for a workflow well-defined.
type request struct {
	cmd   domain.Command
	reply chan response
}

type response struct {
	view domain.WorkflowView
	err  error
}

// broadcastSubscriber receives envelopes until it unsubscribes. Delivery is
// non-blocking: a lagged subscriber drops messages rather than stall the
// actor, since the view itself remains the authoritative state.
type broadcastSubscriber struct {
	id uint64
	ch chan Envelope
}

// Actor is the exclusive writer of events for one workflow id. Phase
// drivers and gates send it commands; everyone else only reads the view it
// publishes.
type Actor struct {
	id  domain.WorkflowId
	log *eventlog.Log

	mailbox chan request

	mu   sync.RWMutex
	view domain.WorkflowView

	watch chan domain.WorkflowView

	subMu     sync.Mutex
	subs      map[uint64]broadcastSubscriber
	nextSubID uint64

	done chan struct{}
}

// New constructs an actor for workflowID backed by log, bootstraps its view
// by replaying whatever events already exist, and starts its mailbox loop.
// The returned context cancellation stops the mailbox loop.
func New(ctx context.Context, workflowID domain.WorkflowId, log *eventlog.Log) (*Actor, error) {
	existing, err := log.Replay()
	if err != nil {
		return nil, fmt.Errorf("actor: bootstrap replay: %w", err)
	}

	a := &Actor{
		id:      workflowID,
		log:     log,
		mailbox: make(chan request, 16),
		view:    domain.Bootstrap(existing),
		watch:   make(chan domain.WorkflowView, 1),
		subs:    make(map[uint64]broadcastSubscriber),
		done:    make(chan struct{}),
	}
	a.publishWatch(a.view)

	go a.run(ctx)
	return a, nil
}

// Dispatch sends a single command through the mailbox and blocks until it
// has been validated, applied, appended, and published, or ctx is done.
func (a *Actor) Dispatch(ctx context.Context, cmd domain.Command) (domain.WorkflowView, error) {
	req := request{cmd: cmd, reply: make(chan response, 1)}

	select {
	case a.mailbox <- req:
	case <-ctx.Done():
		return domain.WorkflowView{}, ctx.Err()
	case <-a.done:
		return domain.WorkflowView{}, fmt.Errorf("actor: workflow %s is stopped", a.id)
	}

	select {
	case resp := <-req.reply:
		return resp.view, resp.err
	case <-ctx.Done():
		return domain.WorkflowView{}, ctx.Err()
	}
}

// View returns the most recently published view without going through the
// mailbox.
func (a *Actor) View() domain.WorkflowView {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// Watch returns a channel holding only the latest view; sends are
// non-blocking so a slow reader sees the most recent state rather than
// backing up a queue.
func (a *Actor) Watch() <-chan domain.WorkflowView {
	return a.watch
}

// Subscribe registers a broadcast listener for the full ordered event
// stream and returns an unsubscribe function.
func (a *Actor) Subscribe(buffer int) (<-chan Envelope, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	a.subMu.Lock()
	id := a.nextSubID
	a.nextSubID++
	ch := make(chan Envelope, buffer)
	a.subs[id] = broadcastSubscriber{id: id, ch: ch}
	a.subMu.Unlock()

	return ch, func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		if sub, ok := a.subs[id]; ok {
			delete(a.subs, id)
			close(sub.ch)
		}
	}
}

// Stop halts the mailbox loop; in-flight Dispatch calls that have not yet
// been delivered will return an error.
func (a *Actor) Stop() {
	close(a.done)
}

func (a *Actor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case req := <-a.mailbox:
			view, err := a.handle(req.cmd)
			req.reply <- response{view: view, err: err}
		}
	}
}

func (a *Actor) handle(cmd domain.Command) (domain.WorkflowView, error) {
	current := a.View()

	events, err := domain.Decide(current, cmd)
	if err != nil {
		return current, err
	}

	view := current
	for _, ev := range events {
		stamped, err := a.log.Append(ev)
		if err != nil {
			return current, fmt.Errorf("actor: append event: %w", err)
		}
		view = domain.Apply(view, stamped)
		a.broadcast(Envelope{WorkflowID: a.id, Sequence: stamped.Sequence(), Event: stamped})
	}

	a.mu.Lock()
	a.view = view
	a.mu.Unlock()
	a.publishWatch(view)

	return view, nil
}

func (a *Actor) publishWatch(view domain.WorkflowView) {
	select {
	case <-a.watch:
	default:
	}
	select {
	case a.watch <- view:
	default:
	}
}

func (a *Actor) broadcast(env Envelope) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, sub := range a.subs {
		select {
		case sub.ch <- env:
		default:
			// Lagged subscriber: drop rather than block the actor. The
			// view remains the source of truth.
		}
	}
}
