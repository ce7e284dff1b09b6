package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasDependency(t *testing.T) {
	assert.True(t, hasDependency([]string{"a", "b", "c"}, "b"))
	assert.False(t, hasDependency([]string{"a", "b", "c"}, "z"))
	assert.False(t, hasDependency(nil, "a"))
}
