package dedup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghsync/ghsync/internal/dedup"
)

func TestUnionFind_UnionMergesSetsAndFindCompressesPaths(t *testing.T) {
	t.Parallel()

	uf := dedup.NewUnionFind([]string{"a", "b", "c", "d"})

	assert.True(t, uf.Union("a", "b"))
	assert.True(t, uf.Union("b", "c"))
	assert.False(t, uf.Union("a", "c"), "a and c are already in the same set")

	assert.Equal(t, uf.Find("a"), uf.Find("c"))
	assert.NotEqual(t, uf.Find("a"), uf.Find("d"))
}

func TestUnionFind_RepresentativesAndGroups(t *testing.T) {
	t.Parallel()

	uf := dedup.NewUnionFind([]int{1, 2, 3, 4, 5})
	uf.Union(1, 2)
	uf.Union(3, 4)

	reps := uf.Representatives()
	assert.Len(t, reps, 3)

	groups := uf.Groups()
	assert.Len(t, groups, 3)

	total := 0
	for _, members := range groups {
		total += len(members)
	}
	assert.Equal(t, 5, total)
}
