package phase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/planwright/planwright/internal/domain"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		report  string
		want    domain.Verdict
		wantOK  bool
	}{
		{"approved", "Verdict: APPROVED\n\nLooks good.", domain.VerdictApproved, true},
		{"needs revision", "Verdict: NEEDS REVISION\n\nMissing tests.", domain.VerdictNeedsRevision, true},
		{"needs revision underscore", "Verdict: NEEDS_REVISION", domain.VerdictNeedsRevision, true},
		{"lowercase", "verdict: approved", domain.VerdictApproved, true},
		{"missing", "I looked at the code and it's fine.", domain.VerdictNeedsRevision, false},
		{"empty", "", domain.VerdictNeedsRevision, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVerdict(tt.report)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseVerdict(%q) = (%v, %v), want (%v, %v)", tt.report, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"reviewer-one":   "reviewer-one",
		"reviewer one":   "reviewer_one",
		"a/b\\c:d":       "a_b_c_d",
		"plain":          "plain",
	}
	for in, want := range tests {
		if got := sanitizeFileName(in); got != want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlanFileHasContent(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.md")
	if planFileHasContent(domain.PlanPath(missing)) {
		t.Error("missing file should report no content")
	}

	empty := filepath.Join(dir, "empty.md")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if planFileHasContent(domain.PlanPath(empty)) {
		t.Error("empty file should report no content")
	}

	full := filepath.Join(dir, "full.md")
	if err := os.WriteFile(full, []byte("# Plan"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !planFileHasContent(domain.PlanPath(full)) {
		t.Error("non-empty file should report content")
	}
}

func TestFingerprintTree(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}

	fp1, err := fingerprintTree(dir)
	if err != nil {
		t.Fatalf("fingerprintTree: %v", err)
	}
	fp2, err := fingerprintTree(dir)
	if err != nil {
		t.Fatalf("fingerprintTree: %v", err)
	}
	if fp1 != fp2 {
		t.Error("fingerprint of an unchanged tree should be stable")
	}

	if err := os.WriteFile(filepath.Join(dir, "b.go"), []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}
	fp3, err := fingerprintTree(dir)
	if err != nil {
		t.Fatalf("fingerprintTree: %v", err)
	}
	if fp3 == fp1 {
		t.Error("fingerprint should change when a file is added")
	}
}

func TestFingerprintTreeIgnoresPlanwrightAndGitDirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}
	before, err := fingerprintTree(dir)
	if err != nil {
		t.Fatalf("fingerprintTree: %v", err)
	}

	for _, sub := range []string{".git", ".planwright"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, "x"), []byte("ignored"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	after, err := fingerprintTree(dir)
	if err != nil {
		t.Fatalf("fingerprintTree: %v", err)
	}
	if before != after {
		t.Error("fingerprintTree should skip .git and .planwright directories")
	}
}

func TestAggregateApproved(t *testing.T) {
	approved := []domain.ReviewResult{{Reviewer: "a"}, {Reviewer: "b"}}
	oneReject := []domain.ReviewResult{{Reviewer: "a"}, {Reviewer: "b", NeedsRevision: true}}
	allReject := []domain.ReviewResult{{Reviewer: "a", NeedsRevision: true}, {Reviewer: "b", NeedsRevision: true}}

	tests := []struct {
		name    string
		mode    domain.AggregationMode
		results []domain.ReviewResult
		want    bool
	}{
		{"any-rejects, none reject", domain.AggregationAnyRejects, approved, true},
		{"any-rejects, one rejects", domain.AggregationAnyRejects, oneReject, false},
		{"all-reject, one rejects", domain.AggregationAllReject, oneReject, true},
		{"all-reject, all reject", domain.AggregationAllReject, allReject, false},
		{"majority, one of two rejects", domain.AggregationMajority, oneReject, false},
		{"majority, none reject", domain.AggregationMajority, approved, true},
		{"empty results", domain.AggregationAnyRejects, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := aggregateApproved(tt.mode, tt.results); got != tt.want {
				t.Errorf("aggregateApproved(%v, %v) = %v, want %v", tt.mode, tt.results, got, tt.want)
			}
		})
	}
}

func TestMergeFeedback(t *testing.T) {
	results := []domain.ReviewResult{
		{Reviewer: "alice", NeedsRevision: false, Feedback: "fine"},
		{Reviewer: "bob", NeedsRevision: true, Feedback: "needs tests"},
	}
	out := mergeFeedback(results)
	if out == "" {
		t.Fatal("mergeFeedback returned empty string")
	}
	for _, want := range []string{"alice", "Approved", "bob", "Needs revision", "needs tests"} {
		if !strings.Contains(out, want) {
			t.Errorf("merged feedback missing %q:\n%s", want, out)
		}
	}
}
