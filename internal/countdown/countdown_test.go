package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{-5, EndingNow},
		{0, EndingNow},
		{59, EndingNow},
		{60, "1m"},
		{3599, "59m"},
		{3600, "1h"},
		{3661, "1h"},
		{86399, "23h"},
		{86400, "1d"},
		{90000, "1d"},
		{10 * 86400, "10d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.seconds), "Format(%d)", tt.seconds)
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, int64(100), Remaining(1100, 1000))
	assert.Equal(t, int64(0), Remaining(1000, 1000))
	assert.Equal(t, int64(0), Remaining(900, 1000))
}

func TestFormatEnd(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	sameDay := time.Date(2024, 3, 9, 18, 30, 5, 0, time.UTC)
	assert.Equal(t, "at 18:30:05", FormatEnd(sameDay, now))

	nextDay := time.Date(2024, 3, 10, 1, 2, 3, 0, time.UTC)
	assert.Equal(t, "on 2024-03-10 at 01:02:03", FormatEnd(nextDay, now))
}

func TestFormatEndUsesNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	now := time.Date(2024, 3, 9, 20, 0, 0, 0, tokyo)
	// 16:00 UTC is 01:00 the next day in Tokyo.
	end := time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, "on 2024-03-10 at 01:00:00", FormatEnd(end, now))
}
