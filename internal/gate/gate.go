// Package gate implements the failure and decision gates phase drivers open
// when they need a human-in-the-loop decision: plan-failure, review-failure,
// all-reviewers-failed, approval, and workflow-failure gates. A gate blocks
// the calling driver on an operator response channel while remaining
// cancellable by the workflow's control channel.
package gate

import (
	"context"
	"fmt"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/logging"
)

// ResponseKind is the tagged sum of every decision an operator can make
// across all gate kinds. A gate only accepts responses whose kind it was
// opened to expect; anything else is logged and ignored rather than acted
// on, since a slow operator can reply to a gate that already moved on.
type ResponseKind string

const (
	ResponseAccept                     ResponseKind = "accept"
	ResponseImplement                  ResponseKind = "implement"
	ResponseDecline                     ResponseKind = "decline"
	ResponseReviewRetry                 ResponseKind = "review_retry"
	ResponseReviewContinue              ResponseKind = "review_continue"
	ResponsePlanGenerationRetry          ResponseKind = "plan_generation_retry"
	ResponsePlanGenerationContinue       ResponseKind = "plan_generation_continue"
	ResponseAbortWorkflow                ResponseKind = "abort_workflow"
	ResponseProceedWithoutApproval       ResponseKind = "proceed_without_approval"
	ResponseContinueReviewing            ResponseKind = "continue_reviewing"
	ResponseWorkflowFailureRetry         ResponseKind = "workflow_failure_retry"
	ResponseWorkflowFailureStop          ResponseKind = "workflow_failure_stop"
	ResponseWorkflowFailureAbort         ResponseKind = "workflow_failure_abort"
)

// Response is one operator decision, tagged by Kind, with free-text
// feedback for the kinds that carry it (Decline, mainly).
type Response struct {
	Kind     ResponseKind
	Feedback string
}

// ControlSignal is the workflow control channel's message shape: an
// operator-initiated interrupt (with feedback) or a graceful stop. It is
// distinct from Response because it can arrive at any time, not only while
// a gate is open.
type ControlSignal struct {
	Interrupt bool
	Feedback  string
	Stop      bool
}

// ErrCancelled is returned when a gate is closed by a control signal
// (interrupt or stop) rather than an operator response.
type ErrCancelled struct {
	Signal ControlSignal
}

func (e *ErrCancelled) Error() string {
	if e.Signal.Stop {
		return "gate cancelled: workflow stop requested"
	}
	return "gate cancelled: workflow interrupted"
}

// Gate blocks on an approval-response channel for one of a set of expected
// response kinds, recording a FailureContext for later display, and
// remaining cancellable via ctx or the control channel.
type Gate struct {
	logger *logging.Logger
}

// New constructs a Gate. logger may be nil, in which case a no-op logger is
// used.
func New(logger *logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Gate{logger: logger}
}

// Await blocks until a response of one of the expected kinds arrives on
// responses, a signal arrives on control, or ctx is done. Responses whose
// kind is not in expected are logged and ignored; the gate keeps waiting.
func (g *Gate) Await(
	ctx context.Context,
	control <-chan ControlSignal,
	responses <-chan Response,
	expected ...ResponseKind,
) (Response, error) {
	allowed := make(map[ResponseKind]struct{}, len(expected))
	for _, k := range expected {
		allowed[k] = struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case sig := <-control:
			return Response{}, &ErrCancelled{Signal: sig}
		case resp := <-responses:
			if _, ok := allowed[resp.Kind]; !ok {
				g.logger.With("kind", string(resp.Kind)).Warn("gate: ignoring mismatched response")
				continue
			}
			return resp, nil
		}
	}
}

// BuildFailure constructs a FailureContext ready to be recorded via the
// actor's ReportFailure command.
func BuildFailure(kind domain.FailureKind, phase domain.Phase, agent domain.AgentId, message string, retryCount, maxRetries int) domain.FailureContext {
	return domain.FailureContext{
		Kind:       kind,
		Message:    message,
		Phase:      phase,
		AgentID:    agent,
		RetryCount: retryCount,
		MaxRetries: maxRetries,
	}
}

// Summarize renders a short operator-facing description of a failure
// context, used when a gate's prompt is presented.
func Summarize(f domain.FailureContext) string {
	return fmt.Sprintf("[%s] phase=%s agent=%s retries=%d/%d: %s",
		f.Kind, f.Phase, f.AgentID, f.RetryCount, f.MaxRetries, f.Message)
}
