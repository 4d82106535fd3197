// Package headless drives a workflow's plan/review/revise loop to
// completion with no operator attached: every decision a gate would
// normally ask a human for is instead answered by a single, fixed
// "stop and surface the failure" signal, since headless runs have nobody to
// ask. This mirrors a CI job rather than an interactive session: it either
// reaches an approvable plan or exits with the failure that stopped it.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
	"github.com/planwright/planwright/internal/logging"
	"github.com/planwright/planwright/internal/phase"
)

// Outcome classifies how a headless run ended.
type Outcome string

const (
	// OutcomeReady is reached at PhaseComplete (every reviewer approved) or
	// at an already-overridden PhaseAwaitingDecision: the plan is ready, and
	// since nobody is present to act on it further, the run ends here.
	OutcomeReady Outcome = "ready_for_decision"
	// OutcomeAborted is reached when a phase driver's failure gate fired and
	// headless mode answered it with its one fixed decision: stop.
	OutcomeAborted Outcome = "aborted"
	// OutcomeMaxIterations is reached when the review loop exhausted its
	// iteration budget without approval.
	OutcomeMaxIterations Outcome = "max_iterations_reached"
)

// Result summarises a finished headless run.
type Result struct {
	Outcome Outcome
	View    domain.WorkflowView
	// FailureMessage is set when Outcome is OutcomeAborted, carrying the
	// gate cancellation or driver error that ended the run.
	FailureMessage string
}

// Run drives the workflow through RunPlanning, RunParallelReview or
// RunSequentialReview (per view.ReviewMode), and RunRevising until it
// reaches PhaseAwaitingDecision, PhaseComplete, or a failure gate fires.
// Progress is written to out, one line per phase transition, matching the
// plain stderr transcript an unattended run produces.
//
// Headless mode never answers a gate with anything but "stop": the control
// channel threaded through d is pre-loaded with a stop signal, so the first
// failure gate any driver opens cancels immediately instead of blocking
// forever waiting for a response nobody will send.
func Run(ctx context.Context, d *phase.Driver, out io.Writer, logger *logging.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	control := make(chan gate.ControlSignal, 1)
	control <- gate.ControlSignal{Stop: true}
	d.Control = control
	d.Responses = make(chan gate.Response)

	fmt.Fprintln(out, "=== HEADLESS RUN START ===")
	logger.Info("headless: run starting", "workflow", d.Dispatcher.View().WorkflowID)

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		view := d.Dispatcher.View()

		if view.Aborted {
			fmt.Fprintf(out, "=== WORKFLOW ABORTED: %s ===\n", view.AbortReason)
			logger.Warn("headless: workflow aborted", "reason", view.AbortReason)
			return Result{Outcome: OutcomeAborted, View: view, FailureMessage: view.AbortReason}, nil
		}

		switch view.Phase {
		case domain.PhasePlanning:
			fmt.Fprintln(out, "=== PLANNING PHASE ===")
			_, err := d.RunPlanning(ctx)
			if res, done, rerr := handleStep(d, out, err); done {
				return res, rerr
			}

		case domain.PhaseReviewing:
			fmt.Fprintf(out, "=== REVIEW PHASE (iteration %d/%d, mode=%s) ===\n", view.Iteration, view.MaxIterations, view.ReviewMode)
			var err error
			if view.ReviewMode == domain.ReviewModeSequential {
				_, err = d.RunSequentialReview(ctx)
			} else {
				_, err = d.RunParallelReview(ctx)
			}
			if res, done, rerr := handleStep(d, out, err); done {
				return res, rerr
			}

		case domain.PhaseRevising:
			fmt.Fprintln(out, "=== REVISION PHASE ===")
			_, err := d.RunRevising(ctx)
			if res, done, rerr := handleStep(d, out, err); done {
				return res, rerr
			}

		case domain.PhaseAwaitingDecision:
			if uint32(view.Iteration) >= uint32(view.MaxIterations) && !view.OverrideApproved {
				fmt.Fprintln(out, "=== MAX ITERATIONS REACHED, NO OPERATOR TO DECIDE ===")
				logger.Warn("headless: max iterations reached without approval")
				return Result{Outcome: OutcomeMaxIterations, View: view}, nil
			}
			fmt.Fprintln(out, "=== PLAN READY, AWAITING DECISION (none available in headless mode) ===")
			logger.Info("headless: plan approved, no operator present to accept")
			return Result{Outcome: OutcomeReady, View: view}, nil

		case domain.PhaseComplete:
			fmt.Fprintln(out, "=== WORKFLOW COMPLETE ===")
			logger.Info("headless: workflow complete")
			return Result{Outcome: OutcomeReady, View: view}, nil

		default:
			return Result{}, fmt.Errorf("headless: unhandled phase %q", view.Phase)
		}
	}
}

// handleStep folds one driver call's outcome into the loop: a cancellation
// from the pre-loaded stop signal ends the run as an abort (headless mode
// does not support interactive recovery), any other error propagates, and a
// successful step just continues the loop on the next iteration. On
// cancellation the dispatcher's view is re-read, since the driver records the
// triggering failure via ReportFailure before its gate ever blocks.
func handleStep(d *phase.Driver, out io.Writer, err error) (Result, bool, error) {
	if err != nil {
		var cancelled *gate.ErrCancelled
		if errors.As(err, &cancelled) {
			view := d.Dispatcher.View()
			msg := summarizeFailure(view)
			fmt.Fprintf(out, "=== HEADLESS ABORT: %s ===\n", msg)
			return Result{Outcome: OutcomeAborted, View: view, FailureMessage: msg}, true, nil
		}
		return Result{}, true, err
	}
	return Result{}, false, nil
}

// summarizeFailure renders the most recent recorded failure for the abort
// message, falling back to a generic description if none was recorded.
func summarizeFailure(view domain.WorkflowView) string {
	if len(view.FailureHistory) == 0 {
		return "workflow step failed with no recorded failure detail"
	}
	return gate.Summarize(view.FailureHistory[len(view.FailureHistory)-1])
}
