package domain

// Apply projects ev onto view, returning the updated view. It is the single
// source of truth for how every event changes state; the aggregate never
// mutates a view directly, and the event log's replay-on-bootstrap path
// calls exactly this function for each record in sequence order.
func Apply(view WorkflowView, ev Event) WorkflowView {
	next := view.Clone()
	next.LastEventSequence = ev.Sequence()

	switch e := ev.(type) {
	case WorkflowCreated:
		next.WorkflowID = e.WorkflowID
		next.Feature = e.Feature
		next.Objective = e.Objective
		next.WorkingDir = e.WorkingDir
		next.PlanPath = e.PlanPath
		next.MaxIterations = e.MaxIter
		next.ReviewMode = e.ReviewMode
		next.Reviewers = append([]AgentId(nil), e.Reviewers...)
		next.Aggregation = e.Aggregation
		next.Phase = PhasePlanning
		next.Iteration = 0
		next.ReviewerOutcomes = make(map[AgentId]ReviewerOutcome)
		next.AgentConversations = make(map[AgentId]ConversationId)
		next.AgentResumeStrategy = make(map[AgentId]ResumeStrategy)

	case PlanningCompleted:
		next.PlanPath = e.PlanPath
		next.Iteration++
		next.Phase = PhaseReviewing

	case ReviewCycleStarted:
		next.ReviewMode = e.Mode
		next.ReviewerOutcomes = make(map[AgentId]ReviewerOutcome)
		next.ReviewRoundActive = true
		if e.Mode == ReviewModeSequential {
			next.Sequential = NewSequentialReviewState(e.Reviewers, e.PlanVersion)
		}
		next.Phase = PhaseReviewing

	case ReviewerApproved:
		next.ReviewerOutcomes[e.Reviewer] = ReviewerOutcome{Reviewer: e.Reviewer, NeedsRevision: false}
		if next.Sequential != nil {
			next.Sequential.Approvals[e.Reviewer] = next.Sequential.PlanVersion
			next.Sequential.AccumulatedReviews = append(next.Sequential.AccumulatedReviews, ReviewResult{
				Reviewer: e.Reviewer,
			})
			if int(next.Sequential.CurrentReviewerIdx) < len(next.Sequential.CycleOrder) &&
				next.Sequential.CycleOrder[next.Sequential.CurrentReviewerIdx] == e.Reviewer {
				next.Sequential.CurrentReviewerIdx++
			}
		}

	case ReviewerRejected:
		next.ReviewerOutcomes[e.Reviewer] = ReviewerOutcome{
			Reviewer:      e.Reviewer,
			NeedsRevision: true,
			FeedbackPath:  e.FeedbackPath,
		}
		next.FeedbackPath = e.FeedbackPath
		if next.Sequential != nil {
			next.Sequential.AccumulatedReviews = append(next.Sequential.AccumulatedReviews, ReviewResult{
				Reviewer:      e.Reviewer,
				NeedsRevision: true,
				Feedback:      string(e.FeedbackPath),
			})
		}

	case ReviewCycleCompleted:
		next.ReviewRoundActive = false
		if e.Approved {
			next.Phase = PhaseComplete
		} else {
			next.Phase = PhaseRevising
		}

	case RevisionCompleted:
		next.Iteration++
		next.Phase = PhaseReviewing
		if next.Sequential != nil {
			next.Sequential.PlanVersion++
			next.Sequential.CurrentReviewerIdx = 0
			next.Sequential.Approvals = make(map[AgentId]uint32)
			next.Sequential.AccumulatedReviews = nil
		}

	case PlanningMaxIterationsReached:
		next.Phase = PhaseAwaitingDecision

	case UserAborted:
		next.Aborted = true
		next.AbortReason = e.Reason
		next.Phase = PhaseComplete

	case ImplementationStarted:
		next.Implementation = &ImplementationState{
			Phase:         ImplementationPhaseImplementing,
			MaxIterations: e.MaxIterations,
		}

	case ImplementationRoundStarted:
		if next.Implementation != nil {
			next.Implementation.Iteration++
			next.Implementation.Phase = ImplementationPhaseImplementing
		}

	case ImplementationReviewCompleted:
		if next.Implementation != nil {
			next.Implementation.Phase = ImplementationPhaseReviewing
			next.Implementation.LastVerdict = e.Verdict
			next.Implementation.LastFeedback = e.Feedback
		}

	case ImplementationAccepted:
		if next.Implementation != nil {
			next.Implementation.Phase = ImplementationPhaseComplete
		}

	case AgentConversationRecorded:
		next.AgentConversations[e.Agent] = e.Conversation
		next.AgentResumeStrategy[e.Agent] = e.ResumeStrategy

	case RecordFailure:
		next.FailureHistory = append(next.FailureHistory, e.Failure)

	case ApprovalOverridden:
		next.OverrideApproved = true
		next.Phase = PhaseComplete

	case WorkflowRestarted:
		if e.Feedback != "" {
			next.Objective = next.Objective + "\n\n" + e.Feedback
		}
		next.Phase = PhasePlanning
	}

	return next
}

// Bootstrap replays a sequence of events in order over a zero-value view,
// producing the fully-projected current state. Used both by the actor on
// startup and by crash recovery.
func Bootstrap(events []Event) WorkflowView {
	var view WorkflowView
	for _, ev := range events {
		view = Apply(view, ev)
	}
	return view
}
