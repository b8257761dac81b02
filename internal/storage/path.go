package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildArchivePath returns <dialect>/date=YYYY-MM-DD/<run id>/<name>, dated in UTC.
func BuildArchivePath(dialect, runID string, at time.Time, name string) (string, error) {
	if err := validatePathComponent(dialect, "dialect"); err != nil {
		return "", err
	}
	if err := validatePathComponent(runID, "run id"); err != nil {
		return "", err
	}
	if err := validatePathComponent(name, "object name"); err != nil {
		return "", err
	}
	if at.IsZero() {
		return "", fmt.Errorf("archive time is required")
	}

	ts := at.UTC()
	return path.Join(
		dialect,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		runID,
		name,
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
