package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijklmnop"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestFormatTime_SameYearOmitsYear(t *testing.T) {
	now := time.Now()
	sameYear := time.Date(now.Year(), time.March, 4, 12, 0, 0, 0, time.UTC)

	out := formatTime(sameYear)
	assert.NotContains(t, out, "20")
}

func TestFormatTime_DifferentYearIncludesYear(t *testing.T) {
	past := time.Date(2019, time.March, 4, 12, 0, 0, 0, time.UTC)

	out := formatTime(past)
	assert.Contains(t, out, "2019")
}

func TestPrintTable_AlignsColumns(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"ID", "TITLE"}, [][]string{
		{"1", "short"},
		{"222222", "a much longer title"},
	})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "222222")
	assert.Contains(t, out, "a much longer title")
}

func TestPrintTable_NoRows(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"ID"}, nil)

	assert.Equal(t, "ID\n", buf.String())
}
