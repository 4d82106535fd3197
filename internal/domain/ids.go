// Package domain defines the workflow engine's core types: identifiers, the
// phase state machine, commands, events and the read-optimised WorkflowView,
// plus the pure aggregate that translates commands into events.
package domain

import (
	"github.com/google/uuid"
)

// WorkflowId uniquely identifies one planning workflow for its entire
// lifetime, including across stop/resume cycles.
type WorkflowId string

// NewWorkflowId generates a fresh random workflow identifier.
func NewWorkflowId() WorkflowId {
	return WorkflowId(uuid.NewString())
}

// AgentId names one configured agent role filler (a reviewer, the planner,
// the implementer, ...). Agent ids are operator-assigned, not generated.
type AgentId string

// ConversationId identifies a resumable conversation with an external agent
// CLI, when that backend supports resuming prior context.
type ConversationId string

// NewConversationId generates a fresh random conversation identifier.
func NewConversationId() ConversationId {
	return ConversationId(uuid.NewString())
}

// PlanPath is the filesystem path to the current plan markdown file.
type PlanPath string

// FeedbackPath is the filesystem path to a review round's feedback file.
type FeedbackPath string

// FeatureName is the short human name for the workflow, used in session
// listings and worktree naming.
type FeatureName string

// Iteration counts planning rounds, starting at 1 after the first
// PlanningCompleted.
type Iteration uint32

// MaxIterations bounds the number of planning rounds before the workflow
// must stop and ask the operator for a decision.
type MaxIterations uint32

// ResumeStrategy describes how an agent backend reuses prior context when
// invoked again for the same role.
type ResumeStrategy string

const (
	ResumeStrategyStateless         ResumeStrategy = "stateless"
	ResumeStrategyConversationResume ResumeStrategy = "conversation_resume"
	ResumeStrategySessionID          ResumeStrategy = "session_id"
)
