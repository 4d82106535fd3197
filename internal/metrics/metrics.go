// Package metrics exposes the Prometheus counters and histograms emitted by
// a running engine: workflow lifecycle counts, phase transitions, agent
// invocation durations, and liveness-daemon health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowsStartedTotal counts every CreateWorkflow that succeeds.
	WorkflowsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planwright_workflows_started_total",
		Help: "Total number of workflows started.",
	})

	// WorkflowsFinishedTotal counts terminal workflow outcomes by kind:
	// accepted, implementation_requested, aborted, stopped.
	WorkflowsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planwright_workflows_finished_total",
		Help: "Total number of workflows reaching a terminal outcome, by outcome.",
	}, []string{"outcome"})

	// PhaseTransitionsTotal counts every Phase the view projection enters.
	PhaseTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planwright_phase_transitions_total",
		Help: "Total number of workflow phase transitions, by phase.",
	}, []string{"phase"})

	// ReviewCyclesTotal counts review cycles started, by review mode.
	ReviewCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planwright_review_cycles_total",
		Help: "Total number of review cycles started, by review mode.",
	}, []string{"mode"})

	// ReviewerVerdictsTotal counts each reviewer's verdict.
	ReviewerVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planwright_reviewer_verdicts_total",
		Help: "Total number of reviewer verdicts recorded, by reviewer and verdict.",
	}, []string{"reviewer", "verdict"})

	// ImplementationRoundsTotal counts implement-then-review rounds run.
	ImplementationRoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planwright_implementation_rounds_total",
		Help: "Total number of implementation rounds run.",
	})

	// ImplementationRoundDuration observes the wall-clock time of one
	// RunImplementation round (implementer + implementation reviewer).
	ImplementationRoundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planwright_implementation_round_duration_seconds",
		Help:    "Duration of one implementation round.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// AgentInvocationDuration observes how long one agent process invocation
	// took, by role.
	AgentInvocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planwright_agent_invocation_duration_seconds",
		Help:    "Duration of one agent process invocation, by role.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"role"})

	// AgentInvocationErrorsTotal counts agent process failures, by role.
	AgentInvocationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planwright_agent_invocation_errors_total",
		Help: "Total number of agent process invocation failures, by role.",
	}, []string{"role"})

	// GateWaitDuration observes how long a phase driver blocked in
	// gate.Await, by gate kind (approval, review-failure, workflow-failure).
	GateWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planwright_gate_wait_duration_seconds",
		Help:    "Duration a phase driver spent blocked on an operator decision, by gate kind.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"gate"})

	// DaemonHeartbeatFailuresTotal counts consecutive heartbeat failures
	// against the liveness daemon.
	DaemonHeartbeatFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planwright_daemon_heartbeat_failures_total",
		Help: "Total number of liveness daemon heartbeat failures.",
	})

	// DaemonReconnectsTotal counts successful daemon reconnect-and-reregister
	// cycles.
	DaemonReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planwright_daemon_reconnects_total",
		Help: "Total number of successful liveness daemon reconnections.",
	})
)

// RecordWorkflowStarted increments the workflow-start counter.
func RecordWorkflowStarted() {
	WorkflowsStartedTotal.Inc()
}

// RecordWorkflowFinished increments the terminal-outcome counter for outcome.
func RecordWorkflowFinished(outcome string) {
	WorkflowsFinishedTotal.WithLabelValues(outcome).Inc()
}

// RecordPhaseTransition increments the phase-transition counter for phase.
func RecordPhaseTransition(phase string) {
	PhaseTransitionsTotal.WithLabelValues(phase).Inc()
}

// RecordReviewCycle increments the review-cycle counter for mode.
func RecordReviewCycle(mode string) {
	ReviewCyclesTotal.WithLabelValues(mode).Inc()
}

// RecordReviewerVerdict increments the reviewer-verdict counter.
func RecordReviewerVerdict(reviewer, verdict string) {
	ReviewerVerdictsTotal.WithLabelValues(reviewer, verdict).Inc()
}

// RecordImplementationRound increments the round counter and observes its
// duration.
func RecordImplementationRound(d time.Duration) {
	ImplementationRoundsTotal.Inc()
	ImplementationRoundDuration.Observe(d.Seconds())
}

// RecordAgentInvocation observes an agent invocation's duration for role.
func RecordAgentInvocation(role string, d time.Duration) {
	AgentInvocationDuration.WithLabelValues(role).Observe(d.Seconds())
}

// RecordAgentInvocationError increments the agent-invocation-error counter
// for role.
func RecordAgentInvocationError(role string) {
	AgentInvocationErrorsTotal.WithLabelValues(role).Inc()
}

// RecordGateWait observes how long a gate of the given kind blocked.
func RecordGateWait(gateKind string, d time.Duration) {
	GateWaitDuration.WithLabelValues(gateKind).Observe(d.Seconds())
}

// RecordDaemonHeartbeatFailure increments the daemon heartbeat-failure
// counter.
func RecordDaemonHeartbeatFailure() {
	DaemonHeartbeatFailuresTotal.Inc()
}

// RecordDaemonReconnect increments the daemon-reconnect counter.
func RecordDaemonReconnect() {
	DaemonReconnectsTotal.Inc()
}
