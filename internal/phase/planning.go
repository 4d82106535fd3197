package phase

import (
	"context"
	"fmt"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
)

// RunPlanning launches the configured planning agent with the workflow's
// objective, resuming its prior conversation when one is recorded. On
// success it dispatches CompletePlanning; on failure or an empty plan file it
// opens a plan-failure gate and acts on the operator's decision.
func (d *Driver) RunPlanning(ctx context.Context) (domain.WorkflowView, error) {
	view := d.Dispatcher.View()

	conv, hasConv := view.AgentConversations[plannerAgentID]

	invoke := agentproc.InvocationContext{
		Role:            agentproc.RolePlanner,
		WorkingDir:      view.WorkingDir,
		PromptFile:      "",
		Conversation:    conv,
		HasConversation: hasConv,
	}

	prompt := fmt.Sprintf("Write a plan for: %s\n\nPlan output path: %s", view.Objective, view.PlanPath)

	result, err := d.runAgent(ctx, agentproc.RolePlanner, invoke, prompt)
	if err == nil && result.ConversationID != "" {
		if _, derr := d.Dispatcher.Dispatch(ctx, domain.RecordAgentConversation{
			Agent:          plannerAgentID,
			ResumeStrategy: d.Backends[agentproc.RolePlanner].ResumeStrategy(),
			Conversation:   domain.ConversationId(result.ConversationID),
		}); derr != nil {
			d.Logger.Warn("planning: failed to record conversation", "err", derr)
		}
	}

	if err == nil && result.ExitErr == nil && planFileHasContent(view.PlanPath) {
		return d.Dispatcher.Dispatch(ctx, domain.CompletePlanning{PlanPath: view.PlanPath})
	}

	return d.handlePlanningFailure(ctx, view, err, result)
}

// plannerAgentID is the fixed agent identity used to key the planner's
// recorded conversation; the planner is always a single agent, unlike the
// reviewer roster.
const plannerAgentID domain.AgentId = "planner"

func (d *Driver) handlePlanningFailure(ctx context.Context, view domain.WorkflowView, runErr error, result agentproc.RunResult) (domain.WorkflowView, error) {
	msg := "plan file missing or empty after planning agent exited"
	if runErr != nil {
		msg = runErr.Error()
	} else if result.ExitErr != nil {
		msg = result.ExitErr.Error()
	}

	failure := gate.BuildFailure(domain.FailureKindPlanGeneration, domain.PhasePlanning, plannerAgentID, msg, 0, d.Failure.MaxRetries)
	if _, err := d.Dispatcher.Dispatch(ctx, domain.ReportFailure{Failure: failure}); err != nil {
		d.Logger.Warn("planning: failed to record failure", "err", err)
	}

	resp, err := d.Gate.Await(ctx, d.Control, d.Responses,
		gate.ResponsePlanGenerationRetry,
		gate.ResponsePlanGenerationContinue,
		gate.ResponseAbortWorkflow,
	)
	if err != nil {
		return domain.WorkflowView{}, err
	}

	switch resp.Kind {
	case gate.ResponsePlanGenerationContinue:
		return d.Dispatcher.Dispatch(ctx, domain.CompletePlanning{PlanPath: view.PlanPath})
	case gate.ResponseAbortWorkflow:
		return d.Dispatcher.Dispatch(ctx, domain.AbortWorkflow{Reason: msg})
	default: // retry: re-enter planning, view unchanged
		return view, nil
	}
}
