// Package phase implements the CQRS-style phase drivers: short functions
// that read the current workflow view, take at most one externally visible
// step (spawning an agent process, opening a gate), dispatch at most one
// aggregate command, and return. Every driver is restartable because the
// view, not driver-local state, is the source of truth.
package phase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/config"
	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/gate"
	"github.com/planwright/planwright/internal/logging"
)

// Dispatcher is the subset of the actor's API phase drivers need: read the
// current view and dispatch one command at a time. A driver never mutates a
// view directly and never writes to the event log itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.WorkflowView, error)
	View() domain.WorkflowView
}

// FailurePolicy carries the retry budget recorded as MaxRetries in every
// FailureContext a driver reports. The drivers do not retry a failing step
// on their own: the decision gate opens on the first failure (RetryCount 0),
// and a retry happens only when the operator chooses it at that gate.
type FailurePolicy struct {
	MaxRetries int
}

// Driver bundles the dependencies every phase driver needs: a dispatcher to
// advance the aggregate, agent backends per role, a process runner, a
// decision-gate, and a logger. Each exported method is one phase driver.
type Driver struct {
	Dispatcher Dispatcher
	Runner     agentproc.Runner
	Backends   map[agentproc.Role]agentproc.Backend
	Gate       *gate.Gate
	Logger     *logging.Logger
	Failure    FailurePolicy

	// Control and Responses are the workflow's control and approval-response
	// channels, threaded through to every gate.Await call.
	Control   <-chan gate.ControlSignal
	Responses <-chan gate.Response
}

// NewDriver constructs a Driver wiring one backend per role from cfg.
func NewDriver(cfg *config.Config, dispatcher Dispatcher, runner agentproc.Runner, logger *logging.Logger, control <-chan gate.ControlSignal, responses <-chan gate.Response) (*Driver, error) {
	backends := make(map[agentproc.Role]agentproc.Backend)
	for _, role := range []agentproc.Role{
		agentproc.RolePlanner,
		agentproc.RoleReviewer,
		agentproc.RoleImplementer,
		agentproc.RoleImplementationReviewer,
	} {
		b, err := agentproc.NewFromConfig(cfg, role)
		if err != nil {
			return nil, fmt.Errorf("phase: backend for role %s: %w", role, err)
		}
		backends[role] = b
	}

	return &Driver{
		Dispatcher: dispatcher,
		Runner:     runner,
		Backends:   backends,
		Gate:       gate.New(logger),
		Logger:     logger,
		Failure:    FailurePolicy{MaxRetries: 2},
		Control:    control,
		Responses:  responses,
	}, nil
}

// runAgent builds the command for role against ctx.view's working directory
// and runs it via the driver's Runner, returning the accumulated result.
func (d *Driver) runAgent(ctx context.Context, role agentproc.Role, invoke agentproc.InvocationContext, preparedPrompt string) (agentproc.RunResult, error) {
	backend, ok := d.Backends[role]
	if !ok {
		return agentproc.RunResult{}, fmt.Errorf("phase: no backend configured for role %s", role)
	}
	cmd, err := backend.BuildCommand(invoke, preparedPrompt)
	if err != nil {
		return agentproc.RunResult{}, fmt.Errorf("phase: build command for role %s: %w", role, err)
	}
	return d.Runner.Run(ctx, backend, cmd, nil)
}

// planFileHasContent reports whether the plan at path exists and is
// non-empty, the Planning driver's success criterion.
func planFileHasContent(path domain.PlanPath) bool {
	info, err := os.Stat(string(path))
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() > 0
}

// writeFeedback writes feedback text to a per-reviewer path under the
// workflow's plan directory and returns the path, so reviewer rejections can
// be carried forward as FeedbackPath rather than inline strings.
func writeFeedback(workingDir string, reviewer domain.AgentId, feedback string) (domain.FeedbackPath, error) {
	dir := filepath.Join(workingDir, ".planwright", "feedback")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("phase: create feedback dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.md", sanitizeFileName(string(reviewer))))
	if err := os.WriteFile(path, []byte(feedback), 0o644); err != nil {
		return "", fmt.Errorf("phase: write feedback: %w", err)
	}
	return domain.FeedbackPath(path), nil
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// mergeFeedback renders the accumulated reviewer feedback from a completed
// cycle into one markdown document, used both as the revising driver's input
// and as the basis for a summary-generation pass.
func mergeFeedback(results []domain.ReviewResult) string {
	var sb strings.Builder
	sb.WriteString("# Accumulated review feedback\n\n")
	for _, r := range results {
		verdict := "Approved"
		if r.NeedsRevision {
			verdict = "Needs revision"
		}
		fmt.Fprintf(&sb, "## %s (%s)\n\n%s\n\n", r.Reviewer, verdict, r.Feedback)
	}
	return sb.String()
}

// verdictPattern extracts the first "Verdict: APPROVED" or
// "Verdict: NEEDS REVISION" marker from a reviewer's markdown report,
// case-insensitive, tolerating an optional underscore in "NEEDS_REVISION".
var verdictPattern = regexp.MustCompile(`(?i)Verdict:\s*(APPROVED|NEEDS[_ ]REVISION)`)

// ParseVerdict extracts the implementation reviewer's verdict from report.
// A missing or ambiguous verdict is treated as NeedsRevision with ok=false,
// signalling a ParseFailure annotation to the caller.
func ParseVerdict(report string) (verdict domain.Verdict, ok bool) {
	m := verdictPattern.FindStringSubmatch(report)
	if m == nil {
		return domain.VerdictNeedsRevision, false
	}
	normalized := strings.ToUpper(strings.ReplaceAll(m[1], "_", " "))
	if normalized == "APPROVED" {
		return domain.VerdictApproved, true
	}
	return domain.VerdictNeedsRevision, true
}

// fingerprintTree computes a stable content fingerprint of workingDir,
// hashing each regular file's relative path and content in sorted path
// order. The implementation driver's circuit breaker compares fingerprints
// across rounds to detect a reviewer demanding changes that never land.
func fingerprintTree(workingDir string) (string, error) {
	var paths []string
	if err := filepath.WalkDir(workingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == ".planwright" {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		return nil
	}); err != nil {
		return "", fmt.Errorf("phase: walk working dir: %w", err)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		rel, _ := filepath.Rel(workingDir, p)
		h.Write([]byte(rel))
		h.Write(content)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// aggregateApproved applies the configured AggregationMode to a set of
// per-reviewer verdicts from one parallel review cycle.
func aggregateApproved(mode domain.AggregationMode, results []domain.ReviewResult) bool {
	if len(results) == 0 {
		return false
	}
	rejects := 0
	for _, r := range results {
		if r.NeedsRevision {
			rejects++
		}
	}
	switch mode {
	case domain.AggregationAllReject:
		return rejects < len(results)
	case domain.AggregationMajority:
		return rejects*2 < len(results)
	case domain.AggregationAnyRejects:
		fallthrough
	default:
		return rejects == 0
	}
}
