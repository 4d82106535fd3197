package phase

import (
	"context"
	"fmt"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
)

// RunRevising runs the planning agent again with the accumulated reviewer
// feedback folded into the prompt. On success it dispatches CompleteRevision
// (which the aggregate turns into an iteration bump and a return to
// Reviewing). On a failure it records it and opens a workflow-failure gate
// at once; the driver does not retry the agent run on its own.
func (d *Driver) RunRevising(ctx context.Context) (domain.WorkflowView, error) {
	view := d.Dispatcher.View()

	feedback := revisionFeedback(view)

	conv, hasConv := view.AgentConversations[plannerAgentID]
	invoke := agentproc.InvocationContext{
		Role:            agentproc.RolePlanner,
		WorkingDir:      view.WorkingDir,
		Conversation:    conv,
		HasConversation: hasConv,
	}
	prompt := fmt.Sprintf("Revise the plan at %s for: %s\n\n%s", view.PlanPath, view.Objective, feedback)

	result, err := d.runAgent(ctx, agentproc.RolePlanner, invoke, prompt)
	if err == nil && result.ConversationID != "" {
		if _, derr := d.Dispatcher.Dispatch(ctx, domain.RecordAgentConversation{
			Agent:          plannerAgentID,
			ResumeStrategy: d.Backends[agentproc.RolePlanner].ResumeStrategy(),
			Conversation:   domain.ConversationId(result.ConversationID),
		}); derr != nil {
			d.Logger.Warn("revising: failed to record conversation", "err", derr)
		}
	}

	if err == nil && result.ExitErr == nil && planFileHasContent(view.PlanPath) {
		return d.Dispatcher.Dispatch(ctx, domain.CompleteRevision{})
	}

	msg := "revision failed to produce a non-empty plan"
	if err != nil {
		msg = err.Error()
	} else if result.ExitErr != nil {
		msg = result.ExitErr.Error()
	}

	failure := gate.BuildFailure(domain.FailureKindRevision, domain.PhaseRevising, plannerAgentID, msg, 0, d.Failure.MaxRetries)
	if _, rerr := d.Dispatcher.Dispatch(ctx, domain.ReportFailure{Failure: failure}); rerr != nil {
		d.Logger.Warn("revising: failed to record failure", "err", rerr)
	}

	resp, werr := d.Gate.Await(ctx, d.Control, d.Responses,
		gate.ResponseWorkflowFailureRetry,
		gate.ResponseWorkflowFailureStop,
		gate.ResponseWorkflowFailureAbort,
	)
	if werr != nil {
		return domain.WorkflowView{}, werr
	}
	if resp.Kind == gate.ResponseWorkflowFailureAbort {
		return d.Dispatcher.Dispatch(ctx, domain.AbortWorkflow{Reason: msg})
	}
	return view, nil
}

// revisionFeedback renders whichever feedback source the current review
// mode populated: the sequential cycle's accumulated reviews, or, for
// parallel mode, every recorded reviewer outcome (approvals included), each
// listed with its feedback file path rather than the file's contents.
func revisionFeedback(view domain.WorkflowView) string {
	if view.Sequential != nil && len(view.Sequential.AccumulatedReviews) > 0 {
		return mergeFeedback(view.Sequential.AccumulatedReviews)
	}
	var results []domain.ReviewResult
	for _, o := range view.ReviewerOutcomes {
		results = append(results, domain.ReviewResult{
			Reviewer:      o.Reviewer,
			NeedsRevision: o.NeedsRevision,
			Feedback:      string(o.FeedbackPath),
		})
	}
	return mergeFeedback(results)
}
