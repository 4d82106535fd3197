package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/planwright/planwright/internal/domain"
	"github.com/planwright/planwright/internal/eventlog"
)

// SnapshotVersion is the format version stamped on every snapshot. Bump it
// whenever the Snapshot shape changes in a way that breaks older readers.
const SnapshotVersion = 1

// UIState bundles the presentation-layer state a snapshot preserves across
// a stop/resume cycle: scroll positions, accumulated output, review history,
// the active run tab, and the operator's approval mode, none of which are
// derivable from the WorkflowView alone.
type UIState struct {
	ScrollPosition  int      `json:"scroll_position"`
	OutputLines     []string `json:"output_lines,omitempty"`
	ReviewHistory   []string `json:"review_history,omitempty"`
	ActiveRunTab    string   `json:"active_run_tab,omitempty"`
	ApprovalMode    string   `json:"approval_mode,omitempty"`
}

// Snapshot is the full persisted state of one workflow, saved atomically on
// stop, completion, and a periodic tick while running.
type Snapshot struct {
	Version                   int                 `json:"version"`
	SavedAt                   time.Time           `json:"saved_at"`
	WorkflowID                domain.WorkflowId   `json:"workflow_session_id"`
	WorkingDir                string              `json:"working_dir"`
	StateFilePath             string              `json:"state_file_path"`
	WorkflowName              string              `json:"workflow_name"`
	View                      domain.WorkflowView `json:"workflow_view"`
	LastEventSequence         uint64              `json:"last_event_sequence"`
	UIState                   UIState             `json:"ui_state"`
	TotalElapsedBeforeResumeMs int64              `json:"total_elapsed_before_resume_ms"`
}

// GetID implements Persistable.
func (s Snapshot) GetID() string { return string(s.WorkflowID) }

// GetName implements Persistable.
func (s Snapshot) GetName() string { return s.WorkflowName }

// GetCreated implements Persistable. A snapshot has no independent creation
// time of its own, so this returns SavedAt, the time this snapshot was
// taken. SaveSnapshot stores the same value as session_info's Created, so
// that field holds the time of the latest save.
func (s Snapshot) GetCreated() time.Time { return s.SavedAt }

// NewSnapshot builds a snapshot from the current view and UI state, stamped
// with the save time and format version.
func NewSnapshot(workingDir, stateFilePath, workflowName string, view domain.WorkflowView, ui UIState, elapsedBeforeResume time.Duration) Snapshot {
	return Snapshot{
		Version:                   SnapshotVersion,
		SavedAt:                   time.Now().UTC(),
		WorkflowID:                view.WorkflowID,
		WorkingDir:                workingDir,
		StateFilePath:             stateFilePath,
		WorkflowName:              workflowName,
		View:                      view,
		LastEventSequence:         view.LastEventSequence,
		UIState:                   ui,
		TotalElapsedBeforeResumeMs: elapsedBeforeResume.Milliseconds(),
	}
}

// SaveSnapshot writes snap atomically to its session directory under
// baseDir, along with a refreshed lightweight session_info record.
func SaveSnapshot(ctx context.Context, baseDir string, snap Snapshot) error {
	sessionDir := GetSessionDir(baseDir, string(snap.WorkflowID))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return fmt.Errorf("session: create session dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal snapshot: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(sessionDir, SessionFileName), data, 0o644); err != nil {
		return fmt.Errorf("session: write snapshot: %w", err)
	}

	info := Info{
		ID:         string(snap.WorkflowID),
		Name:       snap.WorkflowName,
		Created:    snap.SavedAt,
		Phase:      snap.View.Phase,
		Iteration:  uint32(snap.View.Iteration),
		SessionDir: sessionDir,
	}
	infoData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal session info: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(sessionDir, SessionInfoFileName), infoData, 0o644); err != nil {
		return fmt.Errorf("session: write session info: %w", err)
	}

	return nil
}

// LoadSnapshot reads and validates the snapshot for workflowID under
// baseDir. A format-version mismatch is reported as ErrSessionCorrupted
// rather than silently accepted, since an older or newer reader cannot
// safely interpret WorkflowView's shape.
func LoadSnapshot(baseDir, workflowID string) (Snapshot, error) {
	path := filepath.Join(GetSessionDir(baseDir, workflowID), SessionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("session: read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSessionCorrupted, err)
	}
	if snap.Version != SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: snapshot version %d, expected %d", ErrSessionCorrupted, snap.Version, SnapshotVersion)
	}

	return snap, nil
}

// ResumeResult is what Resume hands back: the recovered view, whatever UI
// state could be reconstructed, and whether the snapshot was missing and
// the view instead had to be rebuilt from the event log.
type ResumeResult struct {
	View      domain.WorkflowView
	UIState   UIState
	Recovered bool
}

// Resume implements the resume contract: load the snapshot if present: on a
// missing snapshot, fall back to crash recovery by bootstrapping the view
// from the event log and constructing a minimal UI state. Crash-recovered
// sessions are marked Recovered so the caller can surface "session recovered
// from event log" in its output.
func Resume(baseDir, workflowID, eventLogPath string) (ResumeResult, error) {
	snap, err := LoadSnapshot(baseDir, workflowID)
	if err == nil {
		return ResumeResult{View: snap.View, UIState: snap.UIState}, nil
	}
	if err != ErrNotFound {
		return ResumeResult{}, err
	}

	events, err := eventlog.Replay(eventLogPath)
	if err != nil {
		return ResumeResult{}, fmt.Errorf("session: crash-recovery replay: %w", err)
	}
	if len(events) == 0 {
		return ResumeResult{}, ErrNotFound
	}

	view := domain.Bootstrap(events)
	return ResumeResult{
		View:      view,
		UIState:   UIState{},
		Recovered: true,
	}, nil
}
