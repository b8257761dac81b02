package storage

import (
	"testing"
	"time"
)

func TestBuildArchivePathUsesUTCDate(t *testing.T) {
	ts := time.Date(2026, time.March, 4, 21, 30, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildArchivePath("postgresql", "0b9e6f1c-2f4a-4d43-9d39-0e0e5b0a7c11", ts, "prompt.txt")
	if err != nil {
		t.Fatalf("BuildArchivePath() error = %v", err)
	}
	want := "postgresql/date=2026-03-05/0b9e6f1c-2f4a-4d43-9d39-0e0e5b0a7c11/prompt.txt"
	if key != want {
		t.Fatalf("BuildArchivePath() = %q, want %q", key, want)
	}
}

func TestBuildArchivePathRejectsInvalidComponent(t *testing.T) {
	now := time.Now()
	cases := []struct {
		dialect string
		runID   string
		name    string
	}{
		{dialect: "../oops", runID: "run-1", name: "prompt.txt"},
		{dialect: "sqlite", runID: "", name: "prompt.txt"},
		{dialect: "sqlite", runID: "run-1", name: "a/b.txt"},
	}
	for _, tc := range cases {
		if _, err := BuildArchivePath(tc.dialect, tc.runID, now, tc.name); err == nil {
			t.Fatalf("BuildArchivePath(%q, %q, %q) expected error", tc.dialect, tc.runID, tc.name)
		}
	}
}

func TestBuildArchivePathRequiresTime(t *testing.T) {
	if _, err := BuildArchivePath("duckdb", "run-1", time.Time{}, "prompt.txt"); err == nil {
		t.Fatal("expected error for zero time")
	}
}
