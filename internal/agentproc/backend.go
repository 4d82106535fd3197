// Package agentproc defines the agent process contract the phase drivers
// consume: how to build the command line for a given role and invocation
// context, and how to parse one line of that process's structured output.
// This is deliberately the interface the out-of-scope runner collaborator
// and stream parsers are specified against (spec.md §6). ProcessRunner in
// runner.go is the one part of this package that spawns processes.
package agentproc

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/planwright/planwright/internal/config"
	"github.com/planwright/planwright/internal/domain"
)

// Role names which slot in the workflow an agent invocation fills.
type Role string

const (
	RolePlanner                Role = "planner"
	RoleReviewer                Role = "reviewer"
	RoleImplementer              Role = "implementer"
	RoleImplementationReviewer   Role = "implementation_reviewer"
)

// BackendName identifies a supported agent CLI.
type BackendName string

const (
	BackendClaude BackendName = "claude"
	BackendCodex  BackendName = "codex"
)

// InvocationContext carries everything a backend needs to build a command
// line for one agent invocation, beyond the prepared prompt text itself.
type InvocationContext struct {
	Role              Role
	WorkingDir        string
	PromptFile        string
	Conversation      domain.ConversationId
	HasConversation   bool
	ActivityTimeout   time.Duration
	OverallTimeout    time.Duration
}

// Command is the argv/environment/timeouts specification the (out-of-scope)
// runner collaborator consumes to spawn and supervise one agent process.
type Command struct {
	Argv            []string
	Dir             string
	ActivityTimeout time.Duration
	OverallTimeout  time.Duration
}

// StreamEventKind is the tagged union of structured events a running agent
// process can emit, matching spec.md §6's agent output stream contract.
type StreamEventKind string

const (
	StreamTextDelta       StreamEventKind = "text_delta"
	StreamToolStarted     StreamEventKind = "tool_started"
	StreamToolResult      StreamEventKind = "tool_result"
	StreamTokenUsage      StreamEventKind = "token_usage"
	StreamStopReason      StreamEventKind = "stop_reason"
	StreamModelDetected   StreamEventKind = "model_detected"
	StreamConversationID  StreamEventKind = "conversation_id"
	StreamTurnCompleted   StreamEventKind = "turn_completed"
	StreamFinalResult     StreamEventKind = "final_result"
)

// StreamEvent is one parsed element of an agent process's output stream.
// Only the fields relevant to Kind are populated.
type StreamEvent struct {
	Kind StreamEventKind

	Text string

	ToolID      string
	ToolName    string
	ToolPreview string
	ToolSummary string
	ToolIsError bool

	TokensIn    int64
	TokensOut   int64
	TokensCache int64

	StopReason string
	ModelName  string

	ConversationID domain.ConversationId

	FinalOutput string
	FinalIsError bool
}

// Backend is the tagged-union capability set every agent CLI variant
// implements: build a command for a role/context, parse one line of its
// structured output, and report whether it can be resumed or used over MCP.
// No inheritance — callers type-switch on BackendName where genuinely
// backend-specific behavior is unavoidable (there is currently none).
type Backend interface {
	Name() BackendName
	BuildCommand(ctx InvocationContext, preparedPrompt string) (Command, error)
	ParseStreamEvent(line []byte) (StreamEvent, bool)
	SupportsResume() bool
	SupportsMCP() bool
	ResumeStrategy() domain.ResumeStrategy
}

// ErrUnknownBackend is returned when the configured backend name does not
// match any implemented variant.
var ErrUnknownBackend = fmt.Errorf("unknown agent backend")

// NewFromConfig builds the Backend for one role from the workflow config's
// per-role backend selection.
func NewFromConfig(cfg *config.Config, role Role) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("agentproc: missing config")
	}
	name := cfg.Workflow.BackendForRole(string(role))
	if name == "" {
		name = cfg.AI.Backend
	}
	switch BackendName(strings.ToLower(name)) {
	case BackendClaude, "":
		return NewClaudeBackend(cfg.AI.Claude.Command), nil
	case BackendCodex:
		return NewCodexBackend(cfg.AI.Codex.Command, cfg.AI.Codex.ApprovalMode), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}

// ClaudeBackend drives the Claude Code CLI.
type ClaudeBackend struct {
	command string
}

func NewClaudeBackend(command string) *ClaudeBackend {
	if command == "" {
		command = "claude"
	}
	return &ClaudeBackend{command: command}
}

func (b *ClaudeBackend) Name() BackendName { return BackendClaude }

func (b *ClaudeBackend) BuildCommand(ctx InvocationContext, preparedPrompt string) (Command, error) {
	argv := []string{b.command, "--print", "--dangerously-skip-permissions"}
	if ctx.HasConversation {
		argv = append(argv, "--resume", string(ctx.Conversation))
	}
	argv = append(argv, "--output-format", "stream-json", preparedPrompt)
	return Command{
		Argv:            argv,
		Dir:             ctx.WorkingDir,
		ActivityTimeout: ctx.ActivityTimeout,
		OverallTimeout:  ctx.OverallTimeout,
	}, nil
}

func (b *ClaudeBackend) SupportsResume() bool { return true }
func (b *ClaudeBackend) SupportsMCP() bool    { return true }
func (b *ClaudeBackend) ResumeStrategy() domain.ResumeStrategy {
	return domain.ResumeStrategyConversationResume
}

func (b *ClaudeBackend) ParseStreamEvent(line []byte) (StreamEvent, bool) {
	return parseJSONStreamEvent(line)
}

// CodexBackend drives the Codex CLI.
type CodexBackend struct {
	command      string
	approvalMode string
	once         sync.Once
}

func NewCodexBackend(command, approvalMode string) *CodexBackend {
	if command == "" {
		command = "codex"
	}
	if approvalMode == "" {
		approvalMode = "full-auto"
	}
	return &CodexBackend{command: command, approvalMode: approvalMode}
}

func (b *CodexBackend) Name() BackendName { return BackendCodex }

func (b *CodexBackend) BuildCommand(ctx InvocationContext, preparedPrompt string) (Command, error) {
	argv := []string{b.command, "exec"}
	switch strings.ToLower(b.approvalMode) {
	case "bypass":
		argv = append(argv, "--dangerously-bypass-approvals-and-sandbox")
	case "full-auto":
		argv = append(argv, "--full-auto")
	}
	if ctx.HasConversation {
		argv = append(argv, "resume", string(ctx.Conversation))
	}
	argv = append(argv, "--json", preparedPrompt)
	return Command{
		Argv:            argv,
		Dir:             ctx.WorkingDir,
		ActivityTimeout: ctx.ActivityTimeout,
		OverallTimeout:  ctx.OverallTimeout,
	}, nil
}

func (b *CodexBackend) SupportsResume() bool { return true }
func (b *CodexBackend) SupportsMCP() bool    { return false }
func (b *CodexBackend) ResumeStrategy() domain.ResumeStrategy {
	return domain.ResumeStrategySessionID
}

func (b *CodexBackend) ParseStreamEvent(line []byte) (StreamEvent, bool) {
	return parseJSONStreamEvent(line)
}
