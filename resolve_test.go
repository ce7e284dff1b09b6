package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghsync/ghsync/internal/dedup"
	"github.com/ghsync/ghsync/internal/model"
)

func TestTerminalPrompt_NonTTYAlwaysSkips(t *testing.T) {
	// go test's stdout is not a terminal, so terminalPrompt must fall
	// back to skip rather than block reading stdin.
	prompt := terminalPrompt()

	choice := prompt(&model.DuplicateMatch{})
	assert.Equal(t, dedup.ChoiceSkip, choice)
}
