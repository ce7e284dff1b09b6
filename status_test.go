package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRFC3339_ValidTimestamp(t *testing.T) {
	stamp := time.Date(2024, time.May, 1, 10, 30, 0, 0, time.UTC).Format(time.RFC3339)

	out := formatRFC3339(stamp)
	assert.NotEqual(t, stamp, out)
	assert.Contains(t, out, "2024")
}

func TestFormatRFC3339_FallsBackOnParseFailure(t *testing.T) {
	assert.Equal(t, "not-a-timestamp", formatRFC3339("not-a-timestamp"))
}
