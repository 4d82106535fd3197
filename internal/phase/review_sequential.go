package phase

import (
	"context"
	"fmt"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/domain"
)

// RunSequentialReview drives one step of the sequential review cycle: start
// a fresh cycle if needed, close out the cycle once every reviewer has
// weighed in, or run exactly the current reviewer and record its verdict.
// A rejection short-circuits the remaining reviewers in the cycle order.
func (d *Driver) RunSequentialReview(ctx context.Context) (domain.WorkflowView, error) {
	view := d.Dispatcher.View()

	if view.Sequential.NeedsCycleStart() {
		return d.Dispatcher.Dispatch(ctx, domain.StartReviewCycle{
			Mode:      domain.ReviewModeSequential,
			Reviewers: view.Reviewers,
		})
	}

	reviewer, ok := view.Sequential.CurrentReviewer()
	if !ok {
		return d.completeSequentialCycle(ctx, view)
	}

	return d.runSequentialReviewer(ctx, view, reviewer)
}

func (d *Driver) completeSequentialCycle(ctx context.Context, view domain.WorkflowView) (domain.WorkflowView, error) {
	approved := view.Sequential.AllApproved()
	if approved {
		if _, err := writeFeedback(view.WorkingDir, "summary", mergeFeedback(view.Sequential.AccumulatedReviews)); err != nil {
			d.Logger.Warn("sequential review: failed to write summary feedback", "err", err)
		}
	}

	if !approved && uint32(view.Iteration) >= uint32(view.MaxIterations) {
		return d.Dispatcher.Dispatch(ctx, domain.ReachMaxIterations{})
	}
	return d.Dispatcher.Dispatch(ctx, domain.CompleteReviewCycle{Approved: approved})
}

func (d *Driver) runSequentialReviewer(ctx context.Context, view domain.WorkflowView, reviewer domain.AgentId) (domain.WorkflowView, error) {
	conv, hasConv := view.AgentConversations[reviewer]
	invoke := agentproc.InvocationContext{
		Role:            agentproc.RoleReviewer,
		WorkingDir:      view.WorkingDir,
		Conversation:    conv,
		HasConversation: hasConv,
	}
	prompt := fmt.Sprintf("Review the plan at %s (version %d) against: %s", view.PlanPath, view.Sequential.PlanVersion, view.Objective)

	result, err := d.runAgent(ctx, agentproc.RoleReviewer, invoke, prompt)
	if err != nil || result.ExitErr != nil {
		// A single reviewer's process failure in sequential mode is treated
		// as a rejection with diagnostic feedback rather than a separate
		// gate, since only one reviewer runs at a time and the operator can
		// already see the failure via the next gate this produces.
		msg := "reviewer process failed"
		if err != nil {
			msg = err.Error()
		}
		path, werr := writeFeedback(view.WorkingDir, reviewer, msg)
		if werr != nil {
			return domain.WorkflowView{}, werr
		}
		return d.rejectSequential(ctx, view, reviewer, path)
	}

	verdict, _ := ParseVerdict(result.FinalOutput)
	if verdict == domain.VerdictNeedsRevision {
		path, werr := writeFeedback(view.WorkingDir, reviewer, result.FinalOutput)
		if werr != nil {
			return domain.WorkflowView{}, werr
		}
		return d.rejectSequential(ctx, view, reviewer, path)
	}

	return d.Dispatcher.Dispatch(ctx, domain.ApproveReview{Reviewer: reviewer})
}

func (d *Driver) rejectSequential(ctx context.Context, view domain.WorkflowView, reviewer domain.AgentId, path domain.FeedbackPath) (domain.WorkflowView, error) {
	view, err := d.Dispatcher.Dispatch(ctx, domain.RejectReview{Reviewer: reviewer, FeedbackPath: path})
	if err != nil {
		return domain.WorkflowView{}, err
	}
	if uint32(view.Iteration) >= uint32(view.MaxIterations) {
		return d.Dispatcher.Dispatch(ctx, domain.ReachMaxIterations{})
	}
	return d.Dispatcher.Dispatch(ctx, domain.CompleteReviewCycle{Approved: false})
}
