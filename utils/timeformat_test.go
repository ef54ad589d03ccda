package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFeedTime(t *testing.T) {
	parsed := ParseFeedTime("2022-03-14T05:23:49.000+00:00")
	expected := time.Date(2022, 3, 14, 5, 23, 49, 0, time.UTC)
	assert.True(t, parsed.Equal(expected), "got %s", parsed)
}

func TestParseFeedTimeUnparsableFallsBack(t *testing.T) {
	for _, value := range []string{"", "not a date", "2022-03-14", "14/03/2022 05:23"} {
		parsed := ParseFeedTime(value)
		assert.True(t, parsed.Equal(FeedTimeFallback), "value %q: got %s", value, parsed)
	}
}

func TestFeedTimeFallbackIsEpoch(t *testing.T) {
	assert.Equal(t, int64(0), FeedTimeFallback.Unix())
}

func TestFormatRFC3339(t *testing.T) {
	ts := time.Date(2022, 3, 14, 5, 23, 49, 0, time.FixedZone("", 9*60*60))
	assert.Equal(t, "2022-03-13T20:23:49Z", FormatRFC3339(ts))
}
