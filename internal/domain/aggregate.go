package domain

import "errors"

// Rejection errors the aggregate returns when a command is not valid for
// the current view. These are validation errors (class 2 in the error
// handling design), not fatal errors: a driver that receives one simply
// re-reads the view and tries again on its next call.
var (
	ErrWrongPhase           = errors.New("command not valid in current phase")
	ErrNoReviewCycle        = errors.New("no live review cycle")
	ErrCycleAlreadyStarted  = errors.New("review cycle already started for current plan version")
	ErrCycleNotComplete     = errors.New("not all reviewers have reported in this cycle")
	ErrMaxIterationsNotMet  = errors.New("max iterations not reached")
	ErrUnknownCommand       = errors.New("unknown command")
	ErrEmptyWorkflow        = errors.New("workflow not yet created")
)

// Decide is the aggregate's single pure operation: given the current view
// and a command, it returns either a non-empty ordered list of events to
// append, or an error describing why the command is rejected. It performs
// no I/O.
func Decide(view WorkflowView, cmd Command) ([]Event, error) {
	switch c := cmd.(type) {
	case CreateWorkflow:
		return decideCreateWorkflow(view, c)
	case CompletePlanning:
		return decideCompletePlanning(view, c)
	case StartReviewCycle:
		return decideStartReviewCycle(view, c)
	case ApproveReview:
		return decideApproveReview(view, c)
	case RejectReview:
		return decideRejectReview(view, c)
	case CompleteReviewCycle:
		return decideCompleteReviewCycle(view, c)
	case CompleteRevision:
		return decideCompleteRevision(view)
	case ReachMaxIterations:
		return decideReachMaxIterations(view)
	case AbortWorkflow:
		return decideAbortWorkflow(view, c)
	case StartImplementation:
		return []Event{NewImplementationStarted(c.MaxIterations)}, nil
	case StartImplementationRound:
		return []Event{NewImplementationRoundStarted()}, nil
	case CompleteImplementationReview:
		return []Event{NewImplementationReviewCompleted(c.Verdict, c.Feedback)}, nil
	case AcceptImplementation:
		return []Event{NewImplementationAccepted()}, nil
	case RecordAgentConversation:
		return []Event{NewAgentConversationRecorded(c.Agent, c.ResumeStrategy, c.Conversation)}, nil
	case ReportFailure:
		return []Event{NewRecordFailure(c.Failure)}, nil
	case OverrideApproval:
		if view.Phase != PhaseAwaitingDecision {
			return nil, &TransitionError{From: view.Phase, To: PhaseComplete, Err: ErrWrongPhase}
		}
		return []Event{NewApprovalOverridden()}, nil
	case RestartWithFeedback:
		return []Event{NewWorkflowRestarted(c.Feedback)}, nil
	default:
		return nil, ErrUnknownCommand
	}
}

func decideCreateWorkflow(view WorkflowView, c CreateWorkflow) ([]Event, error) {
	if view.WorkflowID != "" {
		return nil, errors.New("workflow already created")
	}
	return []Event{NewWorkflowCreated(
		c.WorkflowID, c.Feature, c.Objective, c.WorkingDir, c.PlanPath,
		c.MaxIter, c.ReviewMode, c.Reviewers, c.Aggregation,
	)}, nil
}

func decideCompletePlanning(view WorkflowView, c CompletePlanning) ([]Event, error) {
	if view.WorkflowID == "" {
		return nil, ErrEmptyWorkflow
	}
	if view.Phase != PhasePlanning {
		return nil, &TransitionError{From: view.Phase, To: PhaseReviewing, Err: ErrWrongPhase}
	}
	return []Event{NewPlanningCompleted(c.PlanPath)}, nil
}

func decideStartReviewCycle(view WorkflowView, c StartReviewCycle) ([]Event, error) {
	if view.Phase != PhaseReviewing {
		return nil, &TransitionError{From: view.Phase, To: PhaseReviewing, Err: ErrWrongPhase}
	}
	if c.Mode == ReviewModeSequential && !view.Sequential.NeedsCycleStart() {
		return nil, ErrCycleAlreadyStarted
	}
	return []Event{NewReviewCycleStarted(c.Mode, c.Reviewers, sequentialPlanVersion(view))}, nil
}

func sequentialPlanVersion(view WorkflowView) uint32 {
	if view.Sequential != nil {
		return view.Sequential.PlanVersion
	}
	return 0
}

func decideApproveReview(view WorkflowView, c ApproveReview) ([]Event, error) {
	if view.Phase != PhaseReviewing {
		return nil, ErrNoReviewCycle
	}
	return []Event{NewReviewerApproved(c.Reviewer)}, nil
}

func decideRejectReview(view WorkflowView, c RejectReview) ([]Event, error) {
	if view.Phase != PhaseReviewing {
		return nil, ErrNoReviewCycle
	}
	return []Event{NewReviewerRejected(c.Reviewer, c.FeedbackPath)}, nil
}

func decideCompleteReviewCycle(view WorkflowView, c CompleteReviewCycle) ([]Event, error) {
	if view.Phase != PhaseReviewing {
		return nil, ErrNoReviewCycle
	}
	if view.ReviewMode == ReviewModeParallel {
		for _, r := range view.Reviewers {
			if _, ok := view.ReviewerOutcomes[r]; !ok {
				return nil, ErrCycleNotComplete
			}
		}
	}
	if !c.Approved && int(view.Iteration) >= int(view.MaxIterations) {
		return nil, errors.New("ReviewCycleCompleted{approved=false} at max iterations must be preceded by PlanningMaxIterationsReached")
	}
	return []Event{NewReviewCycleCompleted(c.Approved)}, nil
}

func decideCompleteRevision(view WorkflowView) ([]Event, error) {
	if view.Phase != PhaseRevising {
		return nil, &TransitionError{From: view.Phase, To: PhaseReviewing, Err: ErrWrongPhase}
	}
	return []Event{NewRevisionCompleted()}, nil
}

func decideReachMaxIterations(view WorkflowView) ([]Event, error) {
	if int(view.Iteration) < int(view.MaxIterations) {
		return nil, ErrMaxIterationsNotMet
	}
	return []Event{NewPlanningMaxIterationsReached()}, nil
}

func decideAbortWorkflow(view WorkflowView, c AbortWorkflow) ([]Event, error) {
	if view.Phase.IsTerminal() {
		return nil, ErrTerminalPhase
	}
	return []Event{NewUserAborted(c.Reason)}, nil
}
