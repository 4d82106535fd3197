package phase

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
)

// reviewOutcome is one reviewer's result from a single parallel fan-out
// round, folding a run error into NeedsRevision/Failed rather than
// propagating it, so one reviewer's crash doesn't abort the others.
type reviewOutcome struct {
	Reviewer domain.AgentId
	Result   domain.ReviewResult
	Failed   bool
	Err      error
}

// RunParallelReview drives one round of the parallel review cycle. On first
// entry (no reviewers recorded for the current plan version) it dispatches
// ReviewCycleStarted and returns; the caller re-enters to actually run the
// reviewers, keeping every call to at most one aggregate command.
func (d *Driver) RunParallelReview(ctx context.Context) (domain.WorkflowView, error) {
	view := d.Dispatcher.View()

	if !view.ReviewRoundActive {
		return d.Dispatcher.Dispatch(ctx, domain.StartReviewCycle{
			Mode:      domain.ReviewModeParallel,
			Reviewers: view.Reviewers,
		})
	}

	outcomes := d.runReviewersConcurrently(ctx, view)

	failedCount := 0
	for _, o := range outcomes {
		if o.Failed {
			failedCount++
		}
	}

	switch {
	case failedCount == len(outcomes) && len(outcomes) > 0:
		return d.handleAllReviewersFailed(ctx, view)
	case failedCount > 0:
		return d.handlePartialReviewFailure(ctx, view, outcomes)
	default:
		return d.recordReviewOutcomes(ctx, view, outcomes)
	}
}

func (d *Driver) runReviewersConcurrently(ctx context.Context, view domain.WorkflowView) []reviewOutcome {
	p := pool.NewWithResults[reviewOutcome]()
	for _, reviewer := range view.Reviewers {
		reviewer := reviewer
		p.Go(func() reviewOutcome {
			return d.runOneReviewer(ctx, view, reviewer)
		})
	}
	return p.Wait()
}

func (d *Driver) runOneReviewer(ctx context.Context, view domain.WorkflowView, reviewer domain.AgentId) reviewOutcome {
	conv, hasConv := view.AgentConversations[reviewer]
	invoke := agentproc.InvocationContext{
		Role:            agentproc.RoleReviewer,
		WorkingDir:      view.WorkingDir,
		Conversation:    conv,
		HasConversation: hasConv,
	}
	prompt := fmt.Sprintf("Review the plan at %s against: %s", view.PlanPath, view.Objective)

	result, err := d.runAgent(ctx, agentproc.RoleReviewer, invoke, prompt)
	if err != nil || result.ExitErr != nil {
		return reviewOutcome{Reviewer: reviewer, Failed: true, Err: err}
	}

	verdict, _ := ParseVerdict(result.FinalOutput)
	return reviewOutcome{
		Reviewer: reviewer,
		Result: domain.ReviewResult{
			Reviewer:      reviewer,
			NeedsRevision: verdict == domain.VerdictNeedsRevision,
			Feedback:      result.FinalOutput,
		},
	}
}

func (d *Driver) recordReviewOutcomes(ctx context.Context, view domain.WorkflowView, outcomes []reviewOutcome) (domain.WorkflowView, error) {
	results := make([]domain.ReviewResult, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, o.Result)
		var cmd domain.Command
		if o.Result.NeedsRevision {
			path, err := writeFeedback(view.WorkingDir, o.Reviewer, o.Result.Feedback)
			if err != nil {
				return domain.WorkflowView{}, err
			}
			cmd = domain.RejectReview{Reviewer: o.Reviewer, FeedbackPath: path}
		} else {
			cmd = domain.ApproveReview{Reviewer: o.Reviewer}
		}
		var err error
		view, err = d.Dispatcher.Dispatch(ctx, cmd)
		if err != nil {
			return domain.WorkflowView{}, err
		}
	}

	approved := aggregateApproved(view.Aggregation, results)
	if !approved && uint32(view.Iteration) >= uint32(view.MaxIterations) {
		// At max iterations a rejection is recorded via ReachMaxIterations
		// instead of CompleteReviewCycle: the aggregate requires the cycle to
		// still be open (Phase == Reviewing) when the max-iterations event
		// fires, and a prior CompleteReviewCycle{Approved:false} here would
		// have already rejected the invariant it's trying to satisfy.
		return d.Dispatcher.Dispatch(ctx, domain.ReachMaxIterations{})
	}
	return d.Dispatcher.Dispatch(ctx, domain.CompleteReviewCycle{Approved: approved})
}

func (d *Driver) handlePartialReviewFailure(ctx context.Context, view domain.WorkflowView, outcomes []reviewOutcome) (domain.WorkflowView, error) {
	resp, err := d.Gate.Await(ctx, d.Control, d.Responses, gate.ResponseReviewRetry, gate.ResponseReviewContinue)
	if err != nil {
		return domain.WorkflowView{}, err
	}
	if resp.Kind == gate.ResponseReviewRetry {
		return view, nil
	}
	succeeded := make([]reviewOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Failed {
			succeeded = append(succeeded, o)
		}
	}
	return d.recordReviewOutcomes(ctx, view, succeeded)
}

func (d *Driver) handleAllReviewersFailed(ctx context.Context, view domain.WorkflowView) (domain.WorkflowView, error) {
	failure := gate.BuildFailure(domain.FailureKindAllReviewersFailed, domain.PhaseReviewing, "", "all reviewers failed", 0, d.Failure.MaxRetries)
	if _, err := d.Dispatcher.Dispatch(ctx, domain.ReportFailure{Failure: failure}); err != nil {
		d.Logger.Warn("review: failed to record failure", "err", err)
	}

	resp, err := d.Gate.Await(ctx, d.Control, d.Responses,
		gate.ResponseReviewRetry,
		gate.ResponseWorkflowFailureStop,
		gate.ResponseAbortWorkflow,
	)
	if err != nil {
		return domain.WorkflowView{}, err
	}
	switch resp.Kind {
	case gate.ResponseAbortWorkflow:
		return d.Dispatcher.Dispatch(ctx, domain.AbortWorkflow{Reason: "all reviewers failed"})
	default:
		return view, nil
	}
}
