package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc3339 with Z",
			input: "2024-05-01T10:00:00Z",
			want:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 with offset",
			input: "2024-05-01T10:00:00+02:00",
			want:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "unix epoch seconds",
			input: "1714557600",
			want:  time.Unix(1714557600, 0).UTC(),
		},
		{
			name:  "space separated",
			input: "2024-05-01 10:00:00",
			want:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "apache log format",
			input: "01/May/2024:10:00:00",
			want:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.input)
			assert.True(t, ok)
			assert.True(t, tc.want.Equal(got), "want %v got %v", tc.want, got)
		})
	}
}

func TestParseTimestamp_Unparseable(t *testing.T) {
	_, ok := ParseTimestamp("not a timestamp at all")
	assert.False(t, ok)

	_, ok = ParseTimestamp("   ")
	assert.False(t, ok)
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	instant := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	parsed, ok := ParseTimestamp(instant.Format(time.RFC3339))
	assert.True(t, ok)
	assert.True(t, instant.Equal(parsed))
}

func TestGenerateAlertID_Unique(t *testing.T) {
	a := GenerateAlertID()
	b := GenerateAlertID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestIsBusinessHours(t *testing.T) {
	thursday := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	assert.True(t, IsBusinessHours(thursday, 8, 18))

	thursdayNight := time.Date(2024, 5, 2, 3, 15, 0, 0, time.UTC)
	assert.False(t, IsBusinessHours(thursdayNight, 8, 18))

	saturday := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	assert.False(t, IsBusinessHours(saturday, 8, 18))
}
