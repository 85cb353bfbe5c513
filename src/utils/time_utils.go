package utils

import (
	"time"
)

// SecondsBetween returns whole seconds from start to end, truncated toward zero.
func SecondsBetween(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Second)
}

// KeyTime formats t for use inside identifiers. The zone is dropped so
// the same instant always yields the same text.
func KeyTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
