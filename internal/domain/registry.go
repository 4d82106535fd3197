package domain

// NewZero returns a freshly constructed, zero-valued instance of the event
// type named by eventType, with its baseEvent already allocated. It exists
// so the event log can deserialize a record's JSON payload onto a concrete
// Go type without this package exposing baseEvent's fields: the caller
// json.Unmarshals the payload into the returned value (by address), which
// fills in the exported fields and leaves baseEvent untouched, then calls
// Stamp to set the record's true sequence and timestamp.
func NewZero(eventType string) (Event, bool) {
	switch eventType {
	case "workflow.created":
		return WorkflowCreated{baseEvent: newBaseEvent(eventType)}, true
	case "planning.completed":
		return PlanningCompleted{baseEvent: newBaseEvent(eventType)}, true
	case "review.cycle_started":
		return ReviewCycleStarted{baseEvent: newBaseEvent(eventType)}, true
	case "review.reviewer_approved":
		return ReviewerApproved{baseEvent: newBaseEvent(eventType)}, true
	case "review.reviewer_rejected":
		return ReviewerRejected{baseEvent: newBaseEvent(eventType)}, true
	case "review.cycle_completed":
		return ReviewCycleCompleted{baseEvent: newBaseEvent(eventType)}, true
	case "planning.revision_completed":
		return RevisionCompleted{baseEvent: newBaseEvent(eventType)}, true
	case "planning.max_iterations_reached":
		return PlanningMaxIterationsReached{baseEvent: newBaseEvent(eventType)}, true
	case "workflow.user_aborted":
		return UserAborted{baseEvent: newBaseEvent(eventType)}, true
	case "implementation.started":
		return ImplementationStarted{baseEvent: newBaseEvent(eventType)}, true
	case "implementation.round_started":
		return ImplementationRoundStarted{baseEvent: newBaseEvent(eventType)}, true
	case "implementation.review_completed":
		return ImplementationReviewCompleted{baseEvent: newBaseEvent(eventType)}, true
	case "implementation.accepted":
		return ImplementationAccepted{baseEvent: newBaseEvent(eventType)}, true
	case "agent.conversation_recorded":
		return AgentConversationRecorded{baseEvent: newBaseEvent(eventType)}, true
	case "workflow.failure_recorded":
		return RecordFailure{baseEvent: newBaseEvent(eventType)}, true
	case "workflow.approval_overridden":
		return ApprovalOverridden{baseEvent: newBaseEvent(eventType)}, true
	case "workflow.restarted":
		return WorkflowRestarted{baseEvent: newBaseEvent(eventType)}, true
	default:
		return nil, false
	}
}
