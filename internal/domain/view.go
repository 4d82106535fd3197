package domain

import "time"

// SequentialReviewState tracks sequential-mode review progress. An approval
// is only valid for the plan_version at which it was recorded: a revision
// bumps PlanVersion and clears Approvals, invalidating every prior approval.
type SequentialReviewState struct {
	CycleOrder         []AgentId
	CurrentReviewerIdx uint32
	PlanVersion        uint32
	Approvals          map[AgentId]uint32 // reviewer -> plan_version at approval
	AccumulatedReviews []ReviewResult
}

// NewSequentialReviewState starts a fresh cycle at the given plan version.
func NewSequentialReviewState(order []AgentId, planVersion uint32) *SequentialReviewState {
	return &SequentialReviewState{
		CycleOrder:  append([]AgentId(nil), order...),
		PlanVersion: planVersion,
		Approvals:   make(map[AgentId]uint32),
	}
}

// NeedsCycleStart reports whether this state is stale and a new
// ReviewCycleStarted must be dispatched before any reviewer runs.
func (s *SequentialReviewState) NeedsCycleStart() bool {
	return s == nil || len(s.CycleOrder) == 0
}

// AllApproved reports whether every reviewer in the cycle order has approved
// at the current plan version.
func (s *SequentialReviewState) AllApproved() bool {
	if s == nil || len(s.CycleOrder) == 0 {
		return false
	}
	for _, r := range s.CycleOrder {
		v, ok := s.Approvals[r]
		if !ok || v != s.PlanVersion {
			return false
		}
	}
	return true
}

// CurrentReviewer returns the reviewer at CurrentReviewerIdx, or "" if the
// index has advanced past the end of the cycle order.
func (s *SequentialReviewState) CurrentReviewer() (AgentId, bool) {
	if s == nil || int(s.CurrentReviewerIdx) >= len(s.CycleOrder) {
		return "", false
	}
	return s.CycleOrder[s.CurrentReviewerIdx], true
}

// ImplementationPhase is the sub-phase of the implementation→review loop.
type ImplementationPhase string

const (
	ImplementationPhaseImplementing ImplementationPhase = "implementing"
	ImplementationPhaseReviewing    ImplementationPhase = "reviewing"
	ImplementationPhaseComplete     ImplementationPhase = "complete"
)

// ImplementationState tracks the implementation→review loop's progress.
type ImplementationState struct {
	Phase         ImplementationPhase
	Iteration     uint32
	MaxIterations uint32
	LastVerdict   Verdict
	LastFeedback  string
}

// ReviewResult is one reviewer's outcome within a review cycle.
type ReviewResult struct {
	Reviewer      AgentId
	NeedsRevision bool
	Feedback      string
	Summary       string
}

// FailureKind classifies a recorded failure for presentation and gate
// routing.
type FailureKind string

const (
	FailureKindAllReviewersFailed FailureKind = "all_reviewers_failed"
	FailureKindPlanGeneration     FailureKind = "plan_generation"
	FailureKindRevision           FailureKind = "revision"
	FailureKindImplementation     FailureKind = "implementation"
	FailureKindUnknown            FailureKind = "unknown"
)

// FailureContext records one failure for display and recovery routing.
type FailureContext struct {
	Kind           FailureKind
	Message        string
	Phase          Phase
	AgentID        AgentId
	RetryCount     int
	MaxRetries     int
	FailedAt       time.Time
	RecoveryAction string
}

// ReviewerOutcome records the last known outcome for one reviewer in the
// current (or most recently completed) review cycle.
type ReviewerOutcome struct {
	Reviewer     AgentId
	NeedsRevision bool
	FeedbackPath  FeedbackPath
}

// WorkflowView is the read-optimised projection of a workflow's state. It is
// derived purely from applying events in sequence order and is never
// mutated directly; phase drivers only read it.
type WorkflowView struct {
	WorkflowID  WorkflowId
	Feature     FeatureName
	Objective   string
	WorkingDir  string
	PlanPath    PlanPath
	FeedbackPath FeedbackPath

	Iteration     Iteration
	MaxIterations MaxIterations

	Phase      Phase
	ReviewMode ReviewModeKind

	Aggregation AggregationMode
	Reviewers   []AgentId

	Sequential *SequentialReviewState

	Implementation *ImplementationState

	LastEventSequence uint64

	// ReviewRoundActive is true from a ReviewCycleStarted event until the
	// matching ReviewCycleCompleted, distinguishing "reviewers not run yet
	// this round" from "round just completed" — both of which leave
	// ReviewerOutcomes empty for parallel mode, since it resets on every
	// ReviewCycleStarted.
	ReviewRoundActive bool

	ReviewerOutcomes map[AgentId]ReviewerOutcome

	FailureHistory []FailureContext

	AgentConversations map[AgentId]ConversationId
	AgentResumeStrategy map[AgentId]ResumeStrategy

	Aborted       bool
	AbortReason   string
	OverrideApproved bool
}

// Clone returns a deep-enough copy of the view for safe publication to
// watchers: mutable maps/slices are copied so a reader can't observe future
// mutation performed by the actor on its own working copy.
func (v WorkflowView) Clone() WorkflowView {
	out := v
	if v.Reviewers != nil {
		out.Reviewers = append([]AgentId(nil), v.Reviewers...)
	}
	if v.Sequential != nil {
		seq := *v.Sequential
		seq.CycleOrder = append([]AgentId(nil), v.Sequential.CycleOrder...)
		seq.Approvals = make(map[AgentId]uint32, len(v.Sequential.Approvals))
		for k, val := range v.Sequential.Approvals {
			seq.Approvals[k] = val
		}
		seq.AccumulatedReviews = append([]ReviewResult(nil), v.Sequential.AccumulatedReviews...)
		out.Sequential = &seq
	}
	if v.Implementation != nil {
		impl := *v.Implementation
		out.Implementation = &impl
	}
	if v.ReviewerOutcomes != nil {
		out.ReviewerOutcomes = make(map[AgentId]ReviewerOutcome, len(v.ReviewerOutcomes))
		for k, val := range v.ReviewerOutcomes {
			out.ReviewerOutcomes[k] = val
		}
	}
	if v.FailureHistory != nil {
		out.FailureHistory = append([]FailureContext(nil), v.FailureHistory...)
	}
	if v.AgentConversations != nil {
		out.AgentConversations = make(map[AgentId]ConversationId, len(v.AgentConversations))
		for k, val := range v.AgentConversations {
			out.AgentConversations[k] = val
		}
	}
	if v.AgentResumeStrategy != nil {
		out.AgentResumeStrategy = make(map[AgentId]ResumeStrategy, len(v.AgentResumeStrategy))
		for k, val := range v.AgentResumeStrategy {
			out.AgentResumeStrategy[k] = val
		}
	}
	return out
}
