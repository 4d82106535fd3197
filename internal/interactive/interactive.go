// Package interactive drives a workflow's plan/review/revise loop with an
// operator attached at a terminal: every gate a phase driver opens is
// answered by reading a line of operator input, rather than headless mode's
// single fixed stop signal.
package interactive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
	"github.com/planwright/planwright/internal/logging"
	"github.com/planwright/planwright/internal/phase"
)

// Outcome classifies how an interactive run ended.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeImplemented Outcome = "implemented"
	OutcomeAborted     Outcome = "aborted"
)

// Result summarises a finished interactive run.
type Result struct {
	Outcome Outcome
	View    domain.WorkflowView
}

// commandWords maps the short words an operator types at a prompt onto the
// gate response kind they answer. A line not found here, and not one of the
// control words below, is ignored and re-prompted.
var commandWords = map[string]gate.ResponseKind{
	"accept":    gate.ResponseAccept,
	"implement": gate.ResponseImplement,
	"decline":   gate.ResponseDecline,
	"retry":     gate.ResponseReviewRetry,
	"continue":  gate.ResponseReviewContinue,
	"proceed":   gate.ResponseProceedWithoutApproval,
	"abort":     gate.ResponseAbortWorkflow,
}

// Run reads operator responses from in and writes progress to out, driving
// d through RunPlanning, the configured review mode, RunRevising, and
// RunApproval until the workflow is accepted, sent to implementation, or
// aborted. A background goroutine forwards every line read from in to
// whichever gate is currently open; a line that matches no known command
// word is reported and ignored, and io.EOF on in is treated as a graceful
// stop.
func Run(ctx context.Context, d *phase.Driver, in io.Reader, out io.Writer, logger *logging.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	control := make(chan gate.ControlSignal)
	responses := make(chan gate.Response)
	d.Control = control
	d.Responses = responses

	go readInput(ctx, in, out, control, responses)

	fmt.Fprintln(out, "=== INTERACTIVE RUN START ===")

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		view := d.Dispatcher.View()

		if view.Aborted {
			fmt.Fprintf(out, "=== WORKFLOW ABORTED: %s ===\n", view.AbortReason)
			return Result{Outcome: OutcomeAborted, View: view}, nil
		}

		switch view.Phase {
		case domain.PhasePlanning:
			fmt.Fprintln(out, "=== PLANNING PHASE ===")
			if _, err := d.RunPlanning(ctx); err != nil {
				if res, done := handleCancel(out, err); done {
					return res, nil
				}
				return Result{}, err
			}

		case domain.PhaseReviewing:
			fmt.Fprintf(out, "=== REVIEW PHASE (iteration %d/%d) ===\n", view.Iteration, view.MaxIterations)
			var err error
			if view.ReviewMode == domain.ReviewModeSequential {
				_, err = d.RunSequentialReview(ctx)
			} else {
				_, err = d.RunParallelReview(ctx)
			}
			if err != nil {
				if res, done := handleCancel(out, err); done {
					return res, nil
				}
				return Result{}, err
			}

		case domain.PhaseRevising:
			fmt.Fprintln(out, "=== REVISION PHASE ===")
			if _, err := d.RunRevising(ctx); err != nil {
				if res, done := handleCancel(out, err); done {
					return res, nil
				}
				return Result{}, err
			}

		case domain.PhaseComplete, domain.PhaseAwaitingDecision:
			fmt.Fprintln(out, "=== AWAITING OPERATOR DECISION (accept / implement / decline <feedback>) ===")
			decision, newView, err := d.RunApproval(ctx)
			if err != nil {
				if res, done := handleCancel(out, err); done {
					return res, nil
				}
				return Result{}, err
			}
			switch {
			case decision.Implement:
				return runImplementation(ctx, d, out, newView)
			case decision.NeedsRestart:
				fmt.Fprintln(out, "=== RESTARTING PLANNING WITH OPERATOR FEEDBACK ===")
			case decision.Done:
				return Result{Outcome: OutcomeAccepted, View: newView}, nil
			}

		default:
			return Result{}, fmt.Errorf("interactive: unhandled phase %q", view.Phase)
		}
	}
}

// runImplementation drives the implement-then-review loop to a terminal
// outcome once the operator has asked to proceed past the plan.
func runImplementation(ctx context.Context, d *phase.Driver, out io.Writer, view domain.WorkflowView) (Result, error) {
	fmt.Fprintln(out, "=== IMPLEMENTATION PHASE ===")
	var fingerprint string
	for {
		outcome, fp, newView, err := d.RunImplementation(ctx, fingerprint)
		if err != nil {
			if res, done := handleCancel(out, err); done {
				return res, nil
			}
			return Result{}, err
		}
		fingerprint = fp
		view = newView

		switch outcome {
		case phase.ImplementationApproved:
			fmt.Fprintln(out, "=== IMPLEMENTATION ACCEPTED ===")
			return Result{Outcome: OutcomeImplemented, View: view}, nil
		case phase.ImplementationFailed:
			fmt.Fprintln(out, "=== IMPLEMENTATION FAILED TO CONVERGE ===")
			return Result{Outcome: OutcomeAborted, View: view}, nil
		case phase.ImplementationNoChanges:
			fmt.Fprintln(out, "=== IMPLEMENTATION STALLED: NO CHANGES BETWEEN ROUNDS ===")
			return Result{Outcome: OutcomeAborted, View: view}, nil
		case phase.ImplementationInProgress:
			fmt.Fprintf(out, "=== IMPLEMENTATION ROUND %d/%d ===\n", view.Implementation.Iteration, view.Implementation.MaxIterations)
		}
	}
}

func handleCancel(out io.Writer, err error) (Result, bool) {
	var cancelled *gate.ErrCancelled
	if errors.As(err, &cancelled) {
		fmt.Fprintf(out, "=== RUN STOPPED: %s ===\n", cancelled.Error())
		return Result{Outcome: OutcomeAborted}, true
	}
	return Result{}, false
}

// readInput scans in line by line, forwarding each recognized command word
// as a gate response and "stop"/"interrupt" as control signals. A word that
// matches neither is logged to out and ignored; EOF sends a graceful stop so
// a piped/closed stdin doesn't leave a driver blocked forever.
func readInput(ctx context.Context, in io.Reader, out io.Writer, control chan<- gate.ControlSignal, responses chan<- gate.Response) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		word, rest, _ := strings.Cut(line, " ")
		word = strings.ToLower(word)

		switch word {
		case "stop", "interrupt":
			select {
			case control <- gate.ControlSignal{Stop: word == "stop", Interrupt: word == "interrupt", Feedback: rest}:
			case <-ctx.Done():
				return
			}
			continue
		}

		kind, ok := commandWords[word]
		if !ok {
			fmt.Fprintf(out, "unrecognized command %q; try: accept, implement, decline <feedback>, retry, continue, proceed, abort, stop\n", word)
			continue
		}
		select {
		case responses <- gate.Response{Kind: kind, Feedback: rest}:
		case <-ctx.Done():
			return
		}
	}

	select {
	case control <- gate.ControlSignal{Stop: true}:
	case <-ctx.Done():
	}
}
