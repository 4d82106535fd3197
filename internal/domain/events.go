package domain

import "time"

// Event is the interface every workflow event satisfies. Convention for
// EventType: "category.action" (for example "workflow.created").
type Event interface {
	EventType() string
	Sequence() uint64
	Timestamp() time.Time
}

// baseEvent carries the fields common to every event: its position in the
// per-workflow log and the UTC time it was recorded. The aggregate
// constructs events with sequence 0 and a zero timestamp; the event log
// assigns both via Stamp immediately before the durable append, which is
// why every concrete event embeds *baseEvent rather than a value.
type baseEvent struct {
	eventType string
	sequence  uint64
	timestamp time.Time
}

func (e *baseEvent) EventType() string    { return e.eventType }
func (e *baseEvent) Sequence() uint64     { return e.sequence }
func (e *baseEvent) Timestamp() time.Time { return e.timestamp }

func (e *baseEvent) setStamp(seq uint64, ts time.Time) {
	e.sequence = seq
	e.timestamp = ts
}

func newBaseEvent(eventType string) *baseEvent {
	return &baseEvent{eventType: eventType}
}

// stampable is implemented (via the promoted pointer field) by every event
// type. Stamp uses it so the event log can assign sequence/timestamp without
// each event type repeating that plumbing.
type stampable interface {
	setStamp(seq uint64, ts time.Time)
}

// Stamp assigns the log sequence number and timestamp to ev. It is a no-op
// if ev does not embed *baseEvent, which should never happen for events
// produced by this package.
func Stamp(ev Event, seq uint64, ts time.Time) {
	if s, ok := ev.(stampable); ok {
		s.setStamp(seq, ts)
	}
}

// WorkflowCreated marks the birth of a workflow.
type WorkflowCreated struct {
	*baseEvent
	WorkflowID  WorkflowId
	Feature     FeatureName
	Objective   string
	WorkingDir  string
	PlanPath    PlanPath
	MaxIter     MaxIterations
	ReviewMode  ReviewModeKind
	Reviewers   []AgentId
	Aggregation AggregationMode
}

func NewWorkflowCreated(id WorkflowId, feature FeatureName, objective, workingDir string, plan PlanPath, maxIter MaxIterations, mode ReviewModeKind, reviewers []AgentId, agg AggregationMode) WorkflowCreated {
	return WorkflowCreated{
		baseEvent:   newBaseEvent("workflow.created"),
		WorkflowID:  id,
		Feature:     feature,
		Objective:   objective,
		WorkingDir:  workingDir,
		PlanPath:    plan,
		MaxIter:     maxIter,
		ReviewMode:  mode,
		Reviewers:   reviewers,
		Aggregation: agg,
	}
}

// PlanningCompleted records that a plan file was written and verified.
type PlanningCompleted struct {
	*baseEvent
	PlanPath PlanPath
}

func NewPlanningCompleted(path PlanPath) PlanningCompleted {
	return PlanningCompleted{baseEvent: newBaseEvent("planning.completed"), PlanPath: path}
}

// ReviewCycleStarted begins a review cycle in the given mode.
type ReviewCycleStarted struct {
	*baseEvent
	Mode        ReviewModeKind
	Reviewers   []AgentId
	PlanVersion uint32
}

func NewReviewCycleStarted(mode ReviewModeKind, reviewers []AgentId, planVersion uint32) ReviewCycleStarted {
	return ReviewCycleStarted{
		baseEvent:   newBaseEvent("review.cycle_started"),
		Mode:        mode,
		Reviewers:   reviewers,
		PlanVersion: planVersion,
	}
}

// ReviewerApproved records one reviewer's approval within the current cycle.
type ReviewerApproved struct {
	*baseEvent
	Reviewer AgentId
}

func NewReviewerApproved(reviewer AgentId) ReviewerApproved {
	return ReviewerApproved{baseEvent: newBaseEvent("review.reviewer_approved"), Reviewer: reviewer}
}

// ReviewerRejected records one reviewer's rejection and the path to their
// feedback.
type ReviewerRejected struct {
	*baseEvent
	Reviewer     AgentId
	FeedbackPath FeedbackPath
}

func NewReviewerRejected(reviewer AgentId, feedback FeedbackPath) ReviewerRejected {
	return ReviewerRejected{
		baseEvent:    newBaseEvent("review.reviewer_rejected"),
		Reviewer:     reviewer,
		FeedbackPath: feedback,
	}
}

// ReviewCycleCompleted closes out a review cycle with the aggregated verdict.
type ReviewCycleCompleted struct {
	*baseEvent
	Approved bool
}

func NewReviewCycleCompleted(approved bool) ReviewCycleCompleted {
	return ReviewCycleCompleted{baseEvent: newBaseEvent("review.cycle_completed"), Approved: approved}
}

// RevisionCompleted records a successful revision pass: applying it advances
// the iteration counter, bumps plan_version, and clears sequential-mode
// approvals.
type RevisionCompleted struct {
	*baseEvent
}

func NewRevisionCompleted() RevisionCompleted {
	return RevisionCompleted{baseEvent: newBaseEvent("planning.revision_completed")}
}

// PlanningMaxIterationsReached records that the configured iteration ceiling
// was hit without approval.
type PlanningMaxIterationsReached struct {
	*baseEvent
}

func NewPlanningMaxIterationsReached() PlanningMaxIterationsReached {
	return PlanningMaxIterationsReached{baseEvent: newBaseEvent("planning.max_iterations_reached")}
}

// UserAborted records an operator-initiated abort with a free-text reason.
type UserAborted struct {
	*baseEvent
	Reason string
}

func NewUserAborted(reason string) UserAborted {
	return UserAborted{baseEvent: newBaseEvent("workflow.user_aborted"), Reason: reason}
}

// ImplementationStarted marks entry into the implementation-review loop.
type ImplementationStarted struct {
	*baseEvent
	MaxIterations uint32
}

func NewImplementationStarted(maxIterations uint32) ImplementationStarted {
	return ImplementationStarted{baseEvent: newBaseEvent("implementation.started"), MaxIterations: maxIterations}
}

// ImplementationRoundStarted marks the beginning of one implement/review
// round.
type ImplementationRoundStarted struct {
	*baseEvent
}

func NewImplementationRoundStarted() ImplementationRoundStarted {
	return ImplementationRoundStarted{baseEvent: newBaseEvent("implementation.round_started")}
}

// ImplementationReviewCompleted records the implementation reviewer's
// verdict for the current round.
type ImplementationReviewCompleted struct {
	*baseEvent
	Verdict  Verdict
	Feedback string
}

func NewImplementationReviewCompleted(verdict Verdict, feedback string) ImplementationReviewCompleted {
	return ImplementationReviewCompleted{
		baseEvent: newBaseEvent("implementation.review_completed"),
		Verdict:   verdict,
		Feedback:  feedback,
	}
}

// ImplementationAccepted marks the implementation loop as successfully
// concluded.
type ImplementationAccepted struct {
	*baseEvent
}

func NewImplementationAccepted() ImplementationAccepted {
	return ImplementationAccepted{baseEvent: newBaseEvent("implementation.accepted")}
}

// AgentConversationRecorded captures a resumable conversation/session id for
// a given agent role, so a later invocation can continue it.
type AgentConversationRecorded struct {
	*baseEvent
	Agent          AgentId
	ResumeStrategy ResumeStrategy
	Conversation   ConversationId
}

func NewAgentConversationRecorded(agent AgentId, strategy ResumeStrategy, conv ConversationId) AgentConversationRecorded {
	return AgentConversationRecorded{
		baseEvent:      newBaseEvent("agent.conversation_recorded"),
		Agent:          agent,
		ResumeStrategy: strategy,
		Conversation:   conv,
	}
}

// RecordFailure appends a FailureContext to the view's failure history
// without otherwise altering phase.
type RecordFailure struct {
	*baseEvent
	Failure FailureContext
}

func NewRecordFailure(f FailureContext) RecordFailure {
	return RecordFailure{baseEvent: newBaseEvent("workflow.failure_recorded"), Failure: f}
}

// ApprovalOverridden records the operator bypassing the normal review gate
// at max-iterations (UserOverrideApproval). Besides
// ReviewCycleCompleted{approved=true}, it is the one event that moves a
// workflow to Complete without the aborted flag that UserAborted sets, and
// Decide accepts it only from AwaitingDecision.
type ApprovalOverridden struct {
	*baseEvent
}

func NewApprovalOverridden() ApprovalOverridden {
	return ApprovalOverridden{baseEvent: newBaseEvent("workflow.approval_overridden")}
}

// WorkflowRestarted records the operator declining the plan with feedback
// (or declining after max-iterations). The feedback is appended to the
// objective and the workflow re-enters Planning; the iteration counter is
// preserved, not reset, since the feedback refines the current iteration.
type WorkflowRestarted struct {
	*baseEvent
	Feedback string
}

func NewWorkflowRestarted(feedback string) WorkflowRestarted {
	return WorkflowRestarted{baseEvent: newBaseEvent("workflow.restarted"), Feedback: feedback}
}
