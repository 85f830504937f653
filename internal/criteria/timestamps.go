package criteria

import (
	"strings"
	"time"

	"github.com/koenigleon/oads-download/internal/domain"
)

// timestampFormats is the ordered list of accepted timestamp spellings.
// Parsing tries each in sequence, first match wins; the order is stable and
// covered by tests. Formats without a zone are interpreted as UTC.
var timestampFormats = []string{
	time.RFC3339,          // 2024-07-31T13:45:00Z
	"2006-01-02T15:04:05", // 2024-07-31T13:45:00
	"20060102T150405Z",    // 20240731T134500Z
	"2006-01-02 15:04:05", // 2024-07-31 13:45:00
	"2006-01-02 15:04",    // 2024-07-31 13:45
	"200601021504",        // 202407311345
	"2006-01-02",          // 2024-07-31
	"20060102",            // 20240731
}

// ParseTimestamp parses a human-entered timestamp against the accepted
// format list.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.ErrUnparsableTimestamp(value)
}
