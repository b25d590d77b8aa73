package sqlite

import (
	"fmt"
	"time"
)

// SQLite has no native datetime type; timestamps are stored as RFC3339 TEXT
// so they sort lexicographically in index order. The fractional part is
// fixed-width: trimming trailing zeros would make a whole second render as
// ":05Z", which sorts after ":05.5Z".

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
