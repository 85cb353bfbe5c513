package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecondsBetween(t *testing.T) {
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, int64(90), SecondsBetween(start, start.Add(90*time.Second+900*time.Millisecond)))
	assert.Equal(t, int64(0), SecondsBetween(start, start))
}

func TestKeyTime_IgnoresZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	utc := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, KeyTime(utc), KeyTime(utc.In(ny)))
}
