package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/planwright/planwright/internal/actor"
	"github.com/planwright/planwright/internal/agentproc"
	"github.com/planwright/planwright/internal/config"
	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/eventlog"
	"github.com/planwright/planwright/internal/headless"
	"github.com/planwright/planwright/internal/interactive"
	"github.com/planwright/planwright/internal/logging"
	"github.com/planwright/planwright/internal/phase"
	"github.com/planwright/planwright/internal/session"
	"github.com/planwright/planwright/internal/worktree"
	"github.com/spf13/cobra"
)

type runFlags struct {
	headless               bool
	resume                 string
	listSessions           bool
	noWorktree             bool
	workingDir             string
	maxIterations          int
	planner                string
	reviewers              []string
	implementer            string
	implementationReviewer string
	preset                 string
	reviewMode             string
	aggregation            string
}

var rf runFlags

func registerRun(root *cobra.Command) {
	runCmd := &cobra.Command{
		Use:   "run [objective]",
		Short: "Run a plan/review/revise workflow toward an approvable plan",
		Long: `run drives a new or resumed workflow through planning, review, and
revision until a reviewer panel approves the plan or the iteration budget
is exhausted. By default it attaches an interactive terminal session; pass
--headless for an unattended run that stops at the first failure a human
would otherwise be asked about.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	runCmd.Flags().BoolVar(&rf.headless, "headless", false, "run without an attached operator; stop at the first decision a human would be asked for")
	runCmd.Flags().StringVar(&rf.resume, "resume", "", "resume the workflow with this id instead of starting a new one")
	runCmd.Flags().BoolVar(&rf.listSessions, "list-sessions", false, "list known workflow sessions and exit")
	runCmd.Flags().BoolVar(&rf.noWorktree, "no-worktree", false, "run in the current directory instead of creating a git worktree")
	runCmd.Flags().StringVar(&rf.workingDir, "working-dir", "", "working directory for the workflow (default: a new worktree under the repo root)")
	runCmd.Flags().IntVar(&rf.maxIterations, "max-iterations", 0, "override the configured max planning iterations")
	runCmd.Flags().StringVar(&rf.planner, "planner", "", "agent backend for the planner role")
	runCmd.Flags().StringArrayVar(&rf.reviewers, "reviewer", nil, "agent id to add to the reviewer roster (repeatable)")
	runCmd.Flags().StringVar(&rf.implementer, "implementer", "", "agent backend for the implementer role")
	runCmd.Flags().StringVar(&rf.implementationReviewer, "implementation-reviewer", "", "agent backend for the implementation-reviewer role")
	runCmd.Flags().StringVar(&rf.preset, "preset", "", "named workflow preset (e.g. thorough, fast)")
	runCmd.Flags().StringVar(&rf.reviewMode, "review-mode", "", "parallel or sequential")
	runCmd.Flags().StringVar(&rf.aggregation, "aggregation", "", "any-rejects, all-reject, or majority")

	root.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("run: load config: %w", err)
	}
	cfg.Workflow = applyWorkflowPreset(cfg.Workflow, rf.preset)

	repoDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("run: getwd: %w", err)
	}

	if rf.listSessions {
		return listSessions(repoDir)
	}

	var workflowID domain.WorkflowId
	isNew := rf.resume == ""
	if isNew {
		workflowID = domain.NewWorkflowId()
	} else {
		workflowID = domain.WorkflowId(rf.resume)
	}

	sessionDir := session.GetSessionDir(repoDir, string(workflowID))
	logger, err := logging.NewLogger(sessionDir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("run: new logger: %w", err)
	}
	defer logger.Close()
	logger = logger.WithSession(string(workflowID))

	log, err := eventlog.Open(filepath.Join(sessionDir, "events.log"))
	if err != nil {
		return fmt.Errorf("run: open event log: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("run: interrupt received, stopping workflow actor")
		cancel()
	}()

	act, err := actor.New(ctx, workflowID, log)
	if err != nil {
		return fmt.Errorf("run: start actor: %w", err)
	}

	if isNew {
		objective := strings.Join(args, " ")
		if objective == "" {
			return fmt.Errorf("run: an objective is required for a new workflow")
		}
		if err := createWorkflow(ctx, act, cfg, repoDir, workflowID, objective); err != nil {
			return err
		}
	}

	if err := writeSessionInfo(sessionDir, act.View()); err != nil {
		logger.Warn("run: failed to write session info", "err", err)
	}

	runner := agentproc.NewProcessRunner()
	driver, err := phase.NewDriver(cfg, act, runner, logger, nil, nil)
	if err != nil {
		return fmt.Errorf("run: new driver: %w", err)
	}

	if rf.headless {
		result, err := headless.Run(ctx, driver, cmd.OutOrStdout(), logger)
		if err != nil {
			return err
		}
		if serr := writeSessionInfo(sessionDir, result.View); serr != nil {
			logger.Warn("run: failed to write session info", "err", serr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "workflow %s: %s\n", workflowID, result.Outcome)
		if result.Outcome == headless.OutcomeAborted {
			return fmt.Errorf("run: %s", result.FailureMessage)
		}
		return nil
	}

	result, err := interactive.Run(ctx, driver, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	if serr := writeSessionInfo(sessionDir, result.View); serr != nil {
		logger.Warn("run: failed to write session info", "err", serr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "workflow %s: %s\n", workflowID, result.Outcome)
	if result.Outcome == interactive.OutcomeAborted {
		return fmt.Errorf("run: workflow did not reach an accepted state")
	}
	return nil
}

func createWorkflow(ctx context.Context, act *actor.Actor, cfg *config.Config, repoDir string, id domain.WorkflowId, objective string) error {
	feature := domain.FeatureName(slugify(objective))
	workingDir := rf.workingDir
	if workingDir == "" {
		if rf.noWorktree {
			workingDir = repoDir
		} else {
			wt, err := worktree.New(repoDir)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			branch := fmt.Sprintf("%s/%s-%s", cfg.Branch.Prefix, shortID(string(id)), feature)
			path := filepath.Join(filepath.Dir(repoDir), fmt.Sprintf("%s-%s", filepath.Base(repoDir), feature))
			if err := wt.Create(path, branch); err != nil {
				return fmt.Errorf("run: create worktree: %w", err)
			}
			workingDir = path
		}
	}

	maxIter := cfg.Workflow.MaxIterations
	if rf.maxIterations > 0 {
		maxIter = rf.maxIterations
	}

	reviewMode := domain.ReviewModeKind(cfg.Workflow.ReviewMode)
	if rf.reviewMode != "" {
		reviewMode = domain.ReviewModeKind(rf.reviewMode)
	}

	aggregation := parseAggregation(cfg.Workflow.AggregationMode)
	if rf.aggregation != "" {
		aggregation = parseAggregation(rf.aggregation)
	}

	reviewers := cfg.Workflow.Reviewers
	if len(rf.reviewers) > 0 {
		reviewers = rf.reviewers
	}
	if len(reviewers) == 0 {
		reviewers = []string{"reviewer-1"}
	}
	agentReviewers := make([]domain.AgentId, 0, len(reviewers))
	for _, r := range reviewers {
		agentReviewers = append(agentReviewers, domain.AgentId(r))
	}

	if cfg.Workflow.Backends == nil {
		cfg.Workflow.Backends = map[string]string{}
	}
	if rf.planner != "" {
		cfg.Workflow.Backends[string(agentproc.RolePlanner)] = rf.planner
	}
	if rf.implementer != "" {
		cfg.Workflow.Backends[string(agentproc.RoleImplementer)] = rf.implementer
	}
	if rf.implementationReviewer != "" {
		cfg.Workflow.Backends[string(agentproc.RoleImplementationReviewer)] = rf.implementationReviewer
	}

	planPath := domain.PlanPath(filepath.Join(workingDir, "PLAN.md"))

	_, err := act.Dispatch(ctx, domain.CreateWorkflow{
		WorkflowID:  id,
		Feature:     feature,
		Objective:   objective,
		WorkingDir:  workingDir,
		PlanPath:    planPath,
		MaxIter:     domain.MaxIterations(maxIter),
		ReviewMode:  reviewMode,
		Reviewers:   agentReviewers,
		Aggregation: aggregation,
	})
	return err
}

func parseAggregation(s string) domain.AggregationMode {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "all_reject":
		return domain.AggregationAllReject
	case "majority":
		return domain.AggregationMajority
	default:
		return domain.AggregationAnyRejects
	}
}

// applyWorkflowPreset layers a named preset's defaults under whatever the
// loaded config already set explicitly, so a preset fills gaps rather than
// overriding operator-chosen values.
func applyWorkflowPreset(wf config.WorkflowConfig, flagPreset string) config.WorkflowConfig {
	name := flagPreset
	if name == "" {
		name = wf.Preset
	}
	preset, ok := config.WorkflowPresets[name]
	if !ok {
		return wf
	}
	if wf.MaxIterations == 0 {
		wf.MaxIterations = preset.MaxIterations
	}
	if wf.AggregationMode == "" {
		wf.AggregationMode = preset.AggregationMode
	}
	if wf.ReviewMode == "" {
		wf.ReviewMode = preset.ReviewMode
	}
	if len(wf.Reviewers) == 0 {
		wf.Reviewers = preset.Reviewers
	}
	return wf
}

func listSessions(repoDir string) error {
	infos, err := session.ListSessions(repoDir)
	if err != nil {
		return fmt.Errorf("run: list sessions: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("no sessions found")
		return nil
	}
	for _, info := range infos {
		locked := ""
		if info.IsLocked {
			locked = " (locked)"
		}
		fmt.Printf("%s  %-20s phase=%-18s iteration=%d created=%s%s\n",
			info.ID, info.Name, info.Phase, info.Iteration, info.Created.Format(time.RFC3339), locked)
	}
	return nil
}

func writeSessionInfo(sessionDir string, view domain.WorkflowView) error {
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return err
	}
	created := time.Now().UTC()
	if data, err := os.ReadFile(filepath.Join(sessionDir, session.SessionInfoFileName)); err == nil {
		var existing session.Info
		if json.Unmarshal(data, &existing) == nil && !existing.Created.IsZero() {
			created = existing.Created
		}
	}
	info := session.Info{
		ID:        string(view.WorkflowID),
		Name:      string(view.Feature),
		Created:   created,
		Phase:     view.Phase,
		Iteration: uint32(view.Iteration),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(sessionDir, session.SessionInfoFileName), data, 0o644)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// slugify converts free-form text into a short, filesystem- and branch-safe
// identifier.
func slugify(text string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if len(s) > 30 {
		s = s[:30]
	}
	s = strings.TrimRight(s, "-")
	if s == "" {
		s = "workflow"
	}
	return s
}
