package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/planwright/planwright/internal/domain"
)

// SessionsDir is the directory name within .planwright that contains all
// workflow snapshots.
const SessionsDir = "sessions"

// SessionFileName is the name of the full snapshot file within a session
// directory.
const SessionFileName = "snapshot.json"

// SessionInfoFileName is the lightweight record written alongside each
// snapshot for fast listing, per the session-persistence spec's
// "alongside each snapshot, a lightweight session_info record" requirement.
const SessionInfoFileName = "session_info.json"

// Info is the summary a listing reads without loading the full
// WorkflowView, refreshed whenever a snapshot is saved.
type Info struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Created     time.Time     `json:"created"`
	Phase       domain.Phase  `json:"phase"`
	Iteration   uint32        `json:"iteration"`
	IsLocked    bool          `json:"is_locked"`
	LockInfo    *Lock         `json:"lock_info,omitempty"`
	SessionDir  string        `json:"session_dir"`
	Recovered   bool          `json:"recovered"`
}

// GetSessionsDir returns the path to the sessions directory for a given base
// directory.
func GetSessionsDir(baseDir string) string {
	return filepath.Join(baseDir, ".planwright", SessionsDir)
}

// GetSessionDir returns the path to a specific session's directory.
func GetSessionDir(baseDir, sessionID string) string {
	return filepath.Join(GetSessionsDir(baseDir), sessionID)
}

// ListSessions returns summary information about every session found by
// scanning .planwright/sessions/ for subdirectories containing a
// session_info.json file.
func ListSessions(baseDir string) ([]*Info, error) {
	sessionsDir := GetSessionsDir(baseDir)

	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []*Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sessionID := entry.Name()
		info, err := GetSessionInfo(baseDir, sessionID)
		if err != nil {
			continue
		}

		sessions = append(sessions, info)
	}

	return sessions, nil
}

// GetSessionInfo returns the lightweight summary for a specific session,
// refreshing its lock status against the live lock file.
func GetSessionInfo(baseDir, sessionID string) (*Info, error) {
	sessionDir := GetSessionDir(baseDir, sessionID)
	infoFile := filepath.Join(sessionDir, SessionInfoFileName)

	data, err := os.ReadFile(infoFile)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	lockInfo, isLocked := IsLocked(sessionDir)
	info.IsLocked = isLocked
	info.LockInfo = lockInfo
	info.SessionDir = sessionDir

	return &info, nil
}

// SessionExists checks if a session with the given ID has a saved snapshot.
func SessionExists(baseDir, sessionID string) bool {
	sessionFile := filepath.Join(GetSessionDir(baseDir, sessionID), SessionFileName)
	_, err := os.Stat(sessionFile)
	return err == nil
}

// FindUnlockedSessions returns all sessions that are not currently locked by
// a live process.
func FindUnlockedSessions(baseDir string) ([]*Info, error) {
	sessions, err := ListSessions(baseDir)
	if err != nil {
		return nil, err
	}

	var unlocked []*Info
	for _, s := range sessions {
		if !s.IsLocked {
			unlocked = append(unlocked, s)
		}
	}

	return unlocked, nil
}

// CleanupStaleLocks iterates through all sessions and removes stale lock
// files whose owning process is no longer running. Returns the IDs of
// sessions that had a stale lock cleaned.
func CleanupStaleLocks(baseDir string) ([]string, error) {
	sessionsDir := GetSessionsDir(baseDir)

	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cleaned []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sessionID := entry.Name()
		sessionDir := GetSessionDir(baseDir, sessionID)

		wasCleaned, err := CleanStaleLock(sessionDir, nil)
		if err != nil {
			continue
		}

		if wasCleaned {
			cleaned = append(cleaned, sessionID)
		}
	}

	return cleaned, nil
}

// TruncateID shortens id to at most maxLen characters, used when rendering
// workflow ids in narrow listing columns.
func TruncateID(id string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

// CleanupOlderThan removes every session directory (snapshot, event log,
// lock, and any associated worktree cleanup the caller performs separately)
// whose session_info reports a Created time older than maxAge, skipping any
// session locked by a live process. Returns the
// IDs removed. Best-effort: a single session's removal failure is skipped
// rather than aborting the sweep, per the cleanup contract in the
// session-persistence spec.
func CleanupOlderThan(baseDir string, maxAge time.Duration) ([]string, error) {
	sessions, err := ListSessions(baseDir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, s := range sessions {
		if s.Created.After(cutoff) {
			continue
		}
		if s.IsLocked {
			continue
		}
		if err := os.RemoveAll(s.SessionDir); err != nil {
			continue
		}
		removed = append(removed, s.ID)
	}

	return removed, nil
}
