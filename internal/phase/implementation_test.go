package phase

import (
	"context"
	"testing"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/logging"
)

// fakeBackend is a minimal agentproc.Backend stub that never inspects the
// prompt or invocation context; implementation driver tests only care
// about what RunImplementation does with the fixed RunResult it gets back.
type fakeBackend struct{ role agentproc.Role }

func (b fakeBackend) Name() agentproc.BackendName { return agentproc.BackendClaude }
func (b fakeBackend) BuildCommand(ctx agentproc.InvocationContext, prompt string) (agentproc.Command, error) {
	return agentproc.Command{Argv: []string{"fake"}}, nil
}
func (b fakeBackend) ParseStreamEvent(line []byte) (agentproc.StreamEvent, bool) {
	return agentproc.StreamEvent{}, false
}
func (b fakeBackend) SupportsResume() bool { return true }
func (b fakeBackend) SupportsMCP() bool    { return false }
func (b fakeBackend) ResumeStrategy() domain.ResumeStrategy {
	return domain.ResumeStrategyConversationResume
}

// fakeRunner returns a scripted RunResult per role, in call order, so a test
// can drive the implementer and the implementation reviewer independently.
type fakeRunner struct {
	results map[agentproc.Role][]agentproc.RunResult
	calls   int
}

func (r *fakeRunner) Run(ctx context.Context, backend agentproc.Backend, cmd agentproc.Command, onEvent func(agentproc.StreamEvent)) (agentproc.RunResult, error) {
	r.calls++
	queue := r.results[backend.(fakeBackend).role]
	if len(queue) == 0 {
		return agentproc.RunResult{}, nil
	}
	next := queue[0]
	r.results[backend.(fakeBackend).role] = queue[1:]
	return next, nil
}

func newImplementationTestDriver(disp *fakeDispatcher, runner *fakeRunner) *Driver {
	return &Driver{
		Dispatcher: disp,
		Runner:     runner,
		Backends: map[agentproc.Role]agentproc.Backend{
			agentproc.RoleImplementer:            fakeBackend{role: agentproc.RoleImplementer},
			agentproc.RoleImplementationReviewer: fakeBackend{role: agentproc.RoleImplementationReviewer},
		},
		Logger: logging.NopLogger(),
	}
}

func applyImplementationEvents(view domain.WorkflowView, cmd domain.Command) domain.WorkflowView {
	switch c := cmd.(type) {
	case domain.StartImplementation:
		view.Implementation = &domain.ImplementationState{
			Phase:         domain.ImplementationPhaseImplementing,
			MaxIterations: c.MaxIterations,
		}
	case domain.StartImplementationRound:
		view.Implementation.Iteration++
	case domain.CompleteImplementationReview:
		view.Implementation.LastVerdict = c.Verdict
		view.Implementation.LastFeedback = c.Feedback
		view.Implementation.Phase = domain.ImplementationPhaseReviewing
	case domain.AcceptImplementation:
		view.Implementation.Phase = domain.ImplementationPhaseComplete
	case domain.RecordAgentConversation:
		if view.AgentConversations == nil {
			view.AgentConversations = make(map[domain.AgentId]domain.ConversationId)
		}
		view.AgentConversations[c.Agent] = c.Conversation
	}
	return view
}

func TestRunImplementation_StartsWhenNoState(t *testing.T) {
	disp := &fakeDispatcher{
		view:       domain.WorkflowView{MaxIterations: 3},
		onDispatch: applyImplementationEvents,
	}
	d := newImplementationTestDriver(disp, &fakeRunner{})

	outcome, _, view, err := d.RunImplementation(context.Background(), "")
	if err != nil {
		t.Fatalf("RunImplementation: %v", err)
	}
	if outcome != ImplementationInProgress {
		t.Errorf("outcome = %v, want InProgress", outcome)
	}
	if view.Implementation == nil || view.Implementation.MaxIterations != 3 {
		t.Errorf("view.Implementation not started correctly: %+v", view.Implementation)
	}
	if len(disp.Commands) != 1 {
		t.Fatalf("want 1 dispatched command, got %d", len(disp.Commands))
	}
	if _, ok := disp.Commands[0].(domain.StartImplementation); !ok {
		t.Errorf("dispatched command = %#v, want StartImplementation", disp.Commands[0])
	}
}

func TestRunImplementation_ApprovedOnFirstRound(t *testing.T) {
	disp := &fakeDispatcher{
		view: domain.WorkflowView{
			WorkingDir: t.TempDir(),
			Implementation: &domain.ImplementationState{
				Phase:         domain.ImplementationPhaseImplementing,
				MaxIterations: 3,
			},
		},
		onDispatch: applyImplementationEvents,
	}
	runner := &fakeRunner{results: map[agentproc.Role][]agentproc.RunResult{
		agentproc.RoleImplementer:            {{FinalOutput: "done", ConversationID: "conv-impl"}},
		agentproc.RoleImplementationReviewer: {{FinalOutput: "Verdict: APPROVED\n\nLGTM", ConversationID: "conv-rev"}},
	}}
	d := newImplementationTestDriver(disp, runner)

	outcome, _, view, err := d.RunImplementation(context.Background(), "")
	if err != nil {
		t.Fatalf("RunImplementation: %v", err)
	}
	if outcome != ImplementationApproved {
		t.Errorf("outcome = %v, want Approved", outcome)
	}
	if view.Implementation.Phase != domain.ImplementationPhaseComplete {
		t.Errorf("Implementation.Phase = %v, want Complete", view.Implementation.Phase)
	}

	var sawReview, sawAccept bool
	for _, cmd := range disp.Commands {
		switch cmd.(type) {
		case domain.CompleteImplementationReview:
			sawReview = true
		case domain.AcceptImplementation:
			sawAccept = true
		}
	}
	if !sawReview || !sawAccept {
		t.Errorf("commands = %#v, want both CompleteImplementationReview and AcceptImplementation", disp.Commands)
	}
}

func TestRunImplementation_NeedsRevisionStaysInProgress(t *testing.T) {
	disp := &fakeDispatcher{
		view: domain.WorkflowView{
			WorkingDir: t.TempDir(),
			Implementation: &domain.ImplementationState{
				Phase:         domain.ImplementationPhaseImplementing,
				MaxIterations: 3,
			},
		},
		onDispatch: applyImplementationEvents,
	}
	runner := &fakeRunner{results: map[agentproc.Role][]agentproc.RunResult{
		agentproc.RoleImplementer:            {{FinalOutput: "partial", ConversationID: "conv-impl"}},
		agentproc.RoleImplementationReviewer: {{FinalOutput: "Verdict: NEEDS REVISION\n\nmissing error handling"}},
	}}
	d := newImplementationTestDriver(disp, runner)

	outcome, fingerprint, view, err := d.RunImplementation(context.Background(), "")
	if err != nil {
		t.Fatalf("RunImplementation: %v", err)
	}
	if outcome != ImplementationInProgress {
		t.Errorf("outcome = %v, want InProgress", outcome)
	}
	if fingerprint == "" {
		t.Error("want a non-empty fingerprint for the rejected round")
	}
	if view.Implementation.LastFeedback == "" {
		t.Error("want LastFeedback to be recorded for the next round's prompt")
	}
	for _, cmd := range disp.Commands {
		if _, ok := cmd.(domain.AcceptImplementation); ok {
			t.Error("a rejected round should not dispatch AcceptImplementation")
		}
	}
}

func TestRunImplementation_NoChangesCircuitBreaker(t *testing.T) {
	dir := t.TempDir()
	disp := &fakeDispatcher{
		view: domain.WorkflowView{
			WorkingDir: dir,
			Implementation: &domain.ImplementationState{
				Phase:         domain.ImplementationPhaseImplementing,
				Iteration:     1,
				MaxIterations: 3,
			},
		},
		onDispatch: applyImplementationEvents,
	}
	runner := &fakeRunner{results: map[agentproc.Role][]agentproc.RunResult{
		agentproc.RoleImplementer:            {{FinalOutput: "no-op"}},
		agentproc.RoleImplementationReviewer: {{FinalOutput: "Verdict: NEEDS REVISION\n\nstill wrong"}},
	}}
	d := newImplementationTestDriver(disp, runner)

	prevFingerprint, err := fingerprintTree(dir)
	if err != nil {
		t.Fatalf("fingerprintTree: %v", err)
	}

	outcome, _, _, err := d.RunImplementation(context.Background(), prevFingerprint)
	if err != nil {
		t.Fatalf("RunImplementation: %v", err)
	}
	if outcome != ImplementationNoChanges {
		t.Errorf("outcome = %v, want NoChanges when the tree is unchanged across rounds", outcome)
	}
}

func TestRunImplementation_FailsAtMaxIterations(t *testing.T) {
	disp := &fakeDispatcher{
		view: domain.WorkflowView{
			Implementation: &domain.ImplementationState{
				Phase:         domain.ImplementationPhaseImplementing,
				Iteration:     3,
				MaxIterations: 3,
			},
		},
	}
	d := newImplementationTestDriver(disp, &fakeRunner{})

	outcome, _, _, err := d.RunImplementation(context.Background(), "")
	if err != nil {
		t.Fatalf("RunImplementation: %v", err)
	}
	if outcome != ImplementationFailed {
		t.Errorf("outcome = %v, want Failed once iterations are exhausted", outcome)
	}
	if len(disp.Commands) != 0 {
		t.Errorf("exhausted iterations should not dispatch any command, got %v", disp.Commands)
	}
}

func TestRunImplementation_AlreadyComplete(t *testing.T) {
	disp := &fakeDispatcher{
		view: domain.WorkflowView{
			Implementation: &domain.ImplementationState{Phase: domain.ImplementationPhaseComplete},
		},
	}
	d := newImplementationTestDriver(disp, &fakeRunner{})

	outcome, _, _, err := d.RunImplementation(context.Background(), "")
	if err != nil {
		t.Fatalf("RunImplementation: %v", err)
	}
	if outcome != ImplementationApproved {
		t.Errorf("outcome = %v, want Approved for an already-complete implementation", outcome)
	}
	if len(disp.Commands) != 0 {
		t.Errorf("already-complete should not dispatch any command, got %v", disp.Commands)
	}
}
