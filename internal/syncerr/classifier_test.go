package syncerr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghsync/ghsync/internal/syncerr"
)

// TestClassifier_AggregationScenario mirrors spec.md §8 scenario 4:
// classify 5 foreign-key errors and 3 milestone-not-found errors;
// summary() returns two entries, foreign-key first with count 5.
func TestClassifier_AggregationScenario(t *testing.T) {
	t.Parallel()

	c := syncerr.NewClassifier()

	for i := 0; i < 5; i++ {
		c.Classify("foreign key constraint failed", "IntegrityError", "Issue", "fk")
	}

	for i := 0; i < 3; i++ {
		c.Classify("milestone not found", "ValueError", "Issue", "ms")
	}

	summary := c.Summary()
	require.Len(t, summary, 2)

	assert.Equal(t, syncerr.DatabaseError, summary[0].Category)
	assert.Equal(t, 5, summary[0].Count)

	assert.Equal(t, syncerr.MilestoneNotFound, summary[1].Category)
	assert.Equal(t, 3, summary[1].Count)
}

func TestClassifier_WaterfallOrderMilestoneBeforeGenericNotFound(t *testing.T) {
	t.Parallel()

	c := syncerr.NewClassifier()
	se := c.Classify("milestone not found for issue", "", "Issue", "1")

	assert.Equal(t, syncerr.MilestoneNotFound, se.Category)
}

func TestClassifier_BoundedSamples(t *testing.T) {
	t.Parallel()

	c := syncerr.NewClassifier()

	for i := 0; i < 10; i++ {
		c.Classify("timeout contacting remote", "", "Issue", "x")
	}

	summary := c.Summary()
	require.Len(t, summary, 1)
	assert.Equal(t, 10, summary[0].Count)
	assert.LessOrEqual(t, len(summary[0].Samples), 5)
}

func TestClassifier_SummaryDictGroupsBuckets(t *testing.T) {
	t.Parallel()

	c := syncerr.NewClassifier()
	c.Classify("timeout", "", "Issue", "1")
	c.Classify("network unreachable", "", "Issue", "2")

	buckets := c.SummaryDict()
	assert.Equal(t, 2, buckets[syncerr.BucketAPI])
}
