package phase

import (
	"context"
	"fmt"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/domain"
)

// implementerAgentID and implementationReviewerAgentID are the fixed agent
// identities for the implementation workflow's two roles, mirroring
// plannerAgentID: unlike the review roster, each role is always a single
// agent here, so conversations key off a constant rather than a reviewer
// name.
const (
	implementerAgentID            domain.AgentId = "implementer"
	implementationReviewerAgentID domain.AgentId = "implementation-reviewer"
)

// ImplementationOutcome is the terminal (or not yet terminal) result of one
// RunImplementation call.
type ImplementationOutcome string

const (
	ImplementationApproved   ImplementationOutcome = "approved"
	ImplementationNoChanges  ImplementationOutcome = "no_changes"
	ImplementationFailed     ImplementationOutcome = "failed"
	ImplementationInProgress ImplementationOutcome = "in_progress"
)

// RunImplementation drives one round of the implement-then-review loop: run
// the implementing agent, run the implementation-reviewing agent against its
// output, and dispatch the round's commands. The caller passes back
// previousFingerprint (empty on the first call) and threads the returned
// fingerprint into the next call, so the circuit breaker (a rejected round
// that leaves the working tree unchanged returns ImplementationNoChanges) can
// compare across rounds without driver-local state surviving a restart.
func (d *Driver) RunImplementation(ctx context.Context, previousFingerprint string) (ImplementationOutcome, string, domain.WorkflowView, error) {
	view := d.Dispatcher.View()

	if view.Implementation == nil {
		view, err := d.Dispatcher.Dispatch(ctx, domain.StartImplementation{MaxIterations: uint32(view.MaxIterations)})
		if err != nil {
			return ImplementationFailed, previousFingerprint, domain.WorkflowView{}, err
		}
		return ImplementationInProgress, previousFingerprint, view, nil
	}

	impl := view.Implementation
	if impl.Phase == domain.ImplementationPhaseComplete {
		return ImplementationApproved, previousFingerprint, view, nil
	}
	if impl.Iteration >= impl.MaxIterations {
		return ImplementationFailed, previousFingerprint, view, nil
	}

	if impl.Iteration > 0 {
		var err error
		view, err = d.Dispatcher.Dispatch(ctx, domain.StartImplementationRound{})
		if err != nil {
			return ImplementationFailed, previousFingerprint, domain.WorkflowView{}, err
		}
	}

	view, implFeedback, err := d.runImplementingAgent(ctx, view)
	if err != nil {
		return ImplementationFailed, previousFingerprint, domain.WorkflowView{}, err
	}

	verdict, feedback, err := d.runImplementationReviewer(ctx, &view)
	if err != nil {
		return ImplementationFailed, previousFingerprint, domain.WorkflowView{}, err
	}
	if feedback == "" {
		feedback = implFeedback
	}

	view, err = d.Dispatcher.Dispatch(ctx, domain.CompleteImplementationReview{Verdict: verdict, Feedback: feedback})
	if err != nil {
		return ImplementationFailed, previousFingerprint, domain.WorkflowView{}, err
	}

	if verdict == domain.VerdictApproved {
		view, err = d.Dispatcher.Dispatch(ctx, domain.AcceptImplementation{})
		if err != nil {
			return ImplementationFailed, previousFingerprint, domain.WorkflowView{}, err
		}
		return ImplementationApproved, previousFingerprint, view, nil
	}

	fingerprint, ferr := fingerprintTree(view.WorkingDir)
	if ferr != nil {
		d.Logger.Warn("implementation: failed to fingerprint working tree", "err", ferr)
	}
	if previousFingerprint != "" && fingerprint == previousFingerprint {
		return ImplementationNoChanges, fingerprint, view, nil
	}

	return ImplementationInProgress, fingerprint, view, nil
}

// runImplementingAgent runs the implementing agent for the current round,
// folding the last reviewer feedback into its prompt, and records any new
// conversation id. A process failure is returned as a feedback string,
// which the round records only when the reviewing agent's own output is
// empty, rather than aborting the round outright, since the implementing
// agent may have made partial progress.
func (d *Driver) runImplementingAgent(ctx context.Context, view domain.WorkflowView) (domain.WorkflowView, string, error) {
	conv, hasConv := view.AgentConversations[implementerAgentID]
	invoke := agentproc.InvocationContext{
		Role:            agentproc.RoleImplementer,
		WorkingDir:      view.WorkingDir,
		Conversation:    conv,
		HasConversation: hasConv,
	}
	prompt := fmt.Sprintf("Implement the plan at %s for: %s", view.PlanPath, view.Objective)
	if view.Implementation.LastFeedback != "" {
		prompt += fmt.Sprintf("\n\nAddress this reviewer feedback:\n%s", view.Implementation.LastFeedback)
	}

	result, err := d.runAgent(ctx, agentproc.RoleImplementer, invoke, prompt)
	if err == nil && result.ConversationID != "" {
		v, derr := d.Dispatcher.Dispatch(ctx, domain.RecordAgentConversation{
			Agent:          implementerAgentID,
			ResumeStrategy: d.Backends[agentproc.RoleImplementer].ResumeStrategy(),
			Conversation:   domain.ConversationId(result.ConversationID),
		})
		if derr != nil {
			d.Logger.Warn("implementation: failed to record conversation", "err", derr)
		} else {
			view = v
		}
	}

	if err != nil {
		return view, "implementer failed to run: " + err.Error(), nil
	}
	if result.ExitErr != nil {
		return view, "implementer process failed: " + result.ExitErr.Error(), nil
	}
	return view, "", nil
}

// runImplementationReviewer runs the implementation-reviewing agent against
// the plan and records any new conversation id on view in place, so the
// caller's subsequent CompleteImplementationReview dispatch is built from an
// up-to-date view.
func (d *Driver) runImplementationReviewer(ctx context.Context, view *domain.WorkflowView) (domain.Verdict, string, error) {
	conv, hasConv := view.AgentConversations[implementationReviewerAgentID]
	invoke := agentproc.InvocationContext{
		Role:            agentproc.RoleImplementationReviewer,
		WorkingDir:      view.WorkingDir,
		Conversation:    conv,
		HasConversation: hasConv,
	}
	prompt := fmt.Sprintf("Review the implementation of the plan at %s against: %s", view.PlanPath, view.Objective)

	result, err := d.runAgent(ctx, agentproc.RoleImplementationReviewer, invoke, prompt)
	if err == nil && result.ConversationID != "" {
		v, derr := d.Dispatcher.Dispatch(ctx, domain.RecordAgentConversation{
			Agent:          implementationReviewerAgentID,
			ResumeStrategy: d.Backends[agentproc.RoleImplementationReviewer].ResumeStrategy(),
			Conversation:   domain.ConversationId(result.ConversationID),
		})
		if derr != nil {
			d.Logger.Warn("implementation review: failed to record conversation", "err", derr)
		} else {
			*view = v
		}
	}

	if err != nil {
		return domain.VerdictNeedsRevision, "implementation reviewer failed to run: " + err.Error(), nil
	}
	if result.ExitErr != nil {
		return domain.VerdictNeedsRevision, "implementation reviewer process failed: " + result.ExitErr.Error(), nil
	}

	verdict, ok := ParseVerdict(result.FinalOutput)
	if !ok {
		d.Logger.Warn("implementation review: ambiguous verdict, treating as needs-revision")
	}
	return verdict, result.FinalOutput, nil
}
