package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koenigleon/oads-download/internal/domain"
)

func TestParseTimestamp(t *testing.T) {
	t.Run("accepted formats", func(t *testing.T) {
		full := time.Date(2024, 7, 31, 13, 45, 0, 0, time.UTC)
		dateOnly := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)

		cases := map[string]time.Time{
			"2024-07-31T13:45:00Z": full,
			"2024-07-31T13:45:00":  full,
			"20240731T134500Z":     full,
			"2024-07-31 13:45:00":  full,
			"2024-07-31 13:45":     full,
			"202407311345":         full,
			"2024-07-31":           dateOnly,
			"20240731":             dateOnly,
		}
		for value, want := range cases {
			got, err := ParseTimestamp(value)
			require.NoError(t, err, "value %q", value)
			assert.True(t, got.Equal(want), "value %q parsed to %s, want %s", value, got, want)
		}
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		got, err := ParseTimestamp("  2024-07-31 13:45  ")
		require.NoError(t, err)
		assert.Equal(t, 13, got.Hour())
	})

	t.Run("offset timestamps normalize to UTC", func(t *testing.T) {
		got, err := ParseTimestamp("2024-07-31T15:45:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, 13, got.Hour())
	})

	t.Run("unparsable values", func(t *testing.T) {
		for _, value := range []string{"", "yesterday", "31/07/2024", "2024-13-01"} {
			_, err := ParseTimestamp(value)
			require.Error(t, err, "value %q", value)
			assert.Equal(t, domain.CodeUnparsableTimestamp, domain.CodeOf(err))
		}
	})
}
