// utils/timeformat.go
package utils

import (
	"log"
	"time"
)

// FeedTimeFallback is the timestamp used for feed items whose published_at
// cannot be parsed. It is the Unix epoch rendered in UTC+9
// ("1970-01-01T09:00:00+09:00"); a bad upstream date must never fail a sync
// run, so every unparsable value maps to this sentinel deterministically.
var FeedTimeFallback = time.Date(1970, 1, 1, 9, 0, 0, 0, time.FixedZone("", 9*60*60))

// ParseFeedTime decodes an RFC3339 published_at from the content API,
// falling back to FeedTimeFallback on any parse error.
func ParseFeedTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("⚠️ [TIME] Unparsable published_at %q, using fallback: %v", value, err)
		return FeedTimeFallback
	}
	return t
}

// FormatRFC3339 renders a timestamp the way the store and API expose dates.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
