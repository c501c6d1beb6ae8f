package utils

import "time"

const humanReadableFormat = "02 January 2006, 15:04 MST"

// FormatTimestamp renders a unix millisecond timestamp for customer facing
// messages.
func FormatTimestamp(millis int64, location *time.Location) string {
	if location == nil {
		location = time.UTC
	}

	return time.UnixMilli(millis).In(location).Format(humanReadableFormat)
}
