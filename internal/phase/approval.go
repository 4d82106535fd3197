package phase

import (
	"context"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
)

// Decision is the approval driver's result, handed back to the outer loop
// so it can decide whether to continue the planning workflow, restart it
// with feedback, or hand off to implementation.
type Decision struct {
	// NeedsRestart is set when the operator declined with feedback; the
	// outer loop should fold Feedback into the objective and re-enter
	// Planning (already done by the WorkflowRestarted event's projection).
	NeedsRestart bool
	Feedback     string

	// Implement is set when the operator asked to proceed to the
	// implementation workflow.
	Implement bool

	// Done is set when the workflow concluded without moving to
	// implementation (Accept, or abort).
	Done bool
}

// RunApproval opens the approval gate appropriate to the current phase:
// the normal ApprovalRequest from Complete, or the UserOverrideApproval
// three-way choice from AwaitingDecision (max-iterations reached).
func (d *Driver) RunApproval(ctx context.Context) (Decision, domain.WorkflowView, error) {
	view := d.Dispatcher.View()

	switch view.Phase {
	case domain.PhaseAwaitingDecision:
		return d.runOverrideApproval(ctx, view)
	default:
		return d.runNormalApproval(ctx, view)
	}
}

func (d *Driver) runNormalApproval(ctx context.Context, view domain.WorkflowView) (Decision, domain.WorkflowView, error) {
	resp, err := d.Gate.Await(ctx, d.Control, d.Responses,
		gate.ResponseAccept,
		gate.ResponseImplement,
		gate.ResponseDecline,
	)
	if err != nil {
		return Decision{}, domain.WorkflowView{}, err
	}

	switch resp.Kind {
	case gate.ResponseImplement:
		return Decision{Implement: true}, view, nil
	case gate.ResponseDecline:
		view, err := d.Dispatcher.Dispatch(ctx, domain.RestartWithFeedback{Feedback: resp.Feedback})
		if err != nil {
			return Decision{}, domain.WorkflowView{}, err
		}
		return Decision{NeedsRestart: true, Feedback: resp.Feedback}, view, nil
	default: // Accept
		return Decision{Done: true}, view, nil
	}
}

func (d *Driver) runOverrideApproval(ctx context.Context, view domain.WorkflowView) (Decision, domain.WorkflowView, error) {
	resp, err := d.Gate.Await(ctx, d.Control, d.Responses,
		gate.ResponseProceedWithoutApproval,
		gate.ResponseContinueReviewing,
		gate.ResponseAbortWorkflow,
	)
	if err != nil {
		return Decision{}, domain.WorkflowView{}, err
	}

	switch resp.Kind {
	case gate.ResponseProceedWithoutApproval:
		view, err := d.Dispatcher.Dispatch(ctx, domain.OverrideApproval{})
		if err != nil {
			return Decision{}, domain.WorkflowView{}, err
		}
		return Decision{Done: true}, view, nil
	case gate.ResponseAbortWorkflow:
		view, err := d.Dispatcher.Dispatch(ctx, domain.AbortWorkflow{Reason: "operator aborted at max-iterations gate"})
		if err != nil {
			return Decision{}, domain.WorkflowView{}, err
		}
		return Decision{Done: true}, view, nil
	default: // ContinueReviewing == restart-with-feedback from AwaitingDecision
		view, err := d.Dispatcher.Dispatch(ctx, domain.RestartWithFeedback{Feedback: resp.Feedback})
		if err != nil {
			return Decision{}, domain.WorkflowView{}, err
		}
		return Decision{NeedsRestart: true, Feedback: resp.Feedback}, view, nil
	}
}
